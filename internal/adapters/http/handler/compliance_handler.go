package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/compliance"
)

// ComplianceUseCase はコンプライアンスハンドラーが依存するユースケースです。
type ComplianceUseCase interface {
	ExpiringReport(ctx context.Context) (*compliance.Report, error)
	EmployeeReport(ctx context.Context, employeeID string) (*compliance.Report, error)
	Overview(ctx context.Context) (*compliance.Dashboard, error)
	Alerts(ctx context.Context) ([]compliance.Alert, error)
}

// ComplianceHandler は失効監視の HTTP ハンドラーです。
type ComplianceHandler struct {
	compliance ComplianceUseCase
}

// NewComplianceHandler は ComplianceHandler を生成します。
func NewComplianceHandler(uc ComplianceUseCase) *ComplianceHandler {
	return &ComplianceHandler{compliance: uc}
}

// Dashboard は集計ダッシュボードを返します。
func (h *ComplianceHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.compliance.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// Alerts は失効警告の一覧を返します。
func (h *ComplianceHandler) Alerts(c *gin.Context) {
	alerts, err := h.compliance.Alerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if alerts == nil {
		alerts = []compliance.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Expiring は全社員の期限区分別レポートを返します。
func (h *ComplianceHandler) Expiring(c *gin.Context) {
	report, err := h.compliance.ExpiringReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// EmployeeExpiring は 1 社員分の期限区分別レポートを返します。
func (h *ComplianceHandler) EmployeeExpiring(c *gin.Context) {
	report, err := h.compliance.EmployeeReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
