package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/http/middleware"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/account"
)

// RouterDeps はルーター構築に必要なハンドラー群です。
type RouterDeps struct {
	JWTSecret   string
	Invitations *InvitationHandler
	Onboarding  *OnboardingHandler
	Employees   *EmployeeHandler
	Documents   *DocumentHandler
	Compliance  *ComplianceHandler
}

// NewRouter は全ルートを配線した gin エンジンを返します。
// 招待の検証・受理のみ未認証で、それ以外は Bearer JWT を要求します。
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// トークンの検証と受理は招待メールのリンクから未認証で叩かれます。
	api.GET("/invitations/validate/:token", deps.Invitations.Validate)
	api.POST("/invitations/accept", deps.Invitations.Accept)

	authed := api.Group("")
	authed.Use(middleware.Auth(deps.JWTSecret))

	hr := authed.Group("")
	hr.Use(middleware.RequireRole(account.RoleHR))
	{
		hr.POST("/invitations", deps.Invitations.Create)
		hr.GET("/invitations", deps.Invitations.List)
		hr.POST("/invitations/:id/resend", deps.Invitations.Resend)
		hr.POST("/invitations/:id/cancel", deps.Invitations.Cancel)

		hr.POST("/employees/:id/approve", deps.Employees.Approve)
		hr.POST("/employees/:id/reject", deps.Employees.Reject)
		hr.POST("/employees/:id/request-info", deps.Employees.RequestInfo)
		hr.POST("/employees/approve-batch", deps.Employees.BatchApprove)
		hr.GET("/employees", deps.Employees.List)
		hr.DELETE("/employees/:id", deps.Employees.Delete)
		hr.GET("/employees/:id/audit", deps.Employees.AuditHistory)

		hr.GET("/compliance/dashboard", deps.Compliance.Dashboard)
		hr.GET("/compliance/alerts", deps.Compliance.Alerts)
		hr.GET("/compliance/expiring", deps.Compliance.Expiring)
		hr.GET("/compliance/employees/:id", deps.Compliance.EmployeeExpiring)
	}

	// オンボーディング経路は本人 (onboarding ロール) と hr/admin が利用します。
	self := authed.Group("")
	self.Use(middleware.RequireRole(account.RoleOnboarding, account.RoleEmployee, account.RoleHR))
	{
		self.GET("/employees/:id", deps.Employees.Get)
		self.GET("/employees/:id/collections", deps.Employees.GetCollections)
		self.POST("/employees/:id/documents", deps.Documents.Upload)
		self.GET("/employees/:id/documents", deps.Documents.List)

		self.GET("/onboarding/:employeeId/draft", deps.Onboarding.GetDraft)
		self.PATCH("/onboarding/:employeeId/draft", deps.Onboarding.SaveDraft)
		self.POST("/onboarding/:employeeId/steps/:step/advance", deps.Onboarding.AdvanceStep)
		self.POST("/onboarding/:employeeId/submit", deps.Onboarding.Submit)
		self.GET("/onboarding/:employeeId/forms", deps.Onboarding.ListForms)
		self.POST("/onboarding/:employeeId/forms/:formType/complete", deps.Onboarding.CompleteForm)
	}

	return router
}
