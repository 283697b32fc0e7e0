package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/http/middleware"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/account"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
)

// EmployeeUseCase は社員ハンドラーが依存するユースケースです。
type EmployeeUseCase interface {
	GetEmployee(ctx context.Context, id string) (*employee.Employee, error)
	GetCollections(ctx context.Context, id string) (*employee.Collections, error)
	ListEmployees(ctx context.Context, in employee.ListEmployeesInput) ([]*employee.Employee, error)
	Approve(ctx context.Context, in employee.ApproveInput) (*employee.Employee, error)
	Reject(ctx context.Context, in employee.RejectInput) (*employee.Employee, error)
	RequestInfo(ctx context.Context, in employee.RequestInfoInput) (*employee.Employee, error)
	BatchApprove(ctx context.Context, in employee.BatchApproveInput) *employee.BatchApproveResult
	Deactivate(ctx context.Context, id, actor string) (*employee.Employee, error)
	DeleteEmployee(ctx context.Context, id, actor string) error
}

// AuditReader は監査履歴の読み取り抽象です。
type AuditReader interface {
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*audit.Entry, error)
}

// EmployeeHandler は社員ライフサイクルの HTTP ハンドラーです。
type EmployeeHandler struct {
	employees EmployeeUseCase
	audits    AuditReader
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(employees EmployeeUseCase, audits AuditReader) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, audits: audits}
}

// Get は社員のマスク済みビューを返します。
func (h *EmployeeHandler) Get(c *gin.Context) {
	found, err := h.employees.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found.ToView())
}

// GetCollections は社員の子コレクションを返します。
func (h *EmployeeHandler) GetCollections(c *gin.Context) {
	collections, err := h.employees.GetCollections(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}

// List は社員のマスク済み一覧を返します。
func (h *EmployeeHandler) List(c *gin.Context) {
	in := employee.ListEmployeesInput{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := employee.Status(raw)
		in.Status = &status
	}

	employees, err := h.employees.ListEmployees(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]*employee.View, 0, len(employees))
	for _, e := range employees {
		views = append(views, e.ToView())
	}
	c.JSON(http.StatusOK, gin.H{"employees": views})
}

type approveRequest struct {
	Comments   string `json:"comments"`
	AssignRole string `json:"assign_role"`
}

// Approve は承認待ちの社員を承認します。
func (h *EmployeeHandler) Approve(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	actor, _ := middleware.ActorFrom(c)
	approved, err := h.employees.Approve(c.Request.Context(), employee.ApproveInput{
		ID:         c.Param("id"),
		Actor:      actor.Email,
		Comments:   req.Comments,
		AssignRole: account.Role(req.AssignRole),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, approved.ToView())
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject は承認待ちの社員を却下します。
func (h *EmployeeHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	actor, _ := middleware.ActorFrom(c)
	rejected, err := h.employees.Reject(c.Request.Context(), employee.RejectInput{
		ID:     c.Param("id"),
		Actor:  actor.Email,
		Reason: req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rejected.ToView())
}

type requestInfoRequest struct {
	Items   []string `json:"items"`
	DueDate string   `json:"due_date"`
	Message string   `json:"message"`
}

// RequestInfo は追加情報を要求し、社員を information_needed へ戻します。
func (h *EmployeeHandler) RequestInfo(c *gin.Context) {
	var req requestInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be formatted YYYY-MM-DD"})
			return
		}
		dueDate = &parsed
	}

	actor, _ := middleware.ActorFrom(c)
	updated, err := h.employees.RequestInfo(c.Request.Context(), employee.RequestInfoInput{
		ID:      c.Param("id"),
		Actor:   actor.Email,
		Items:   req.Items,
		DueDate: dueDate,
		Message: req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.ToView())
}

type batchApproveRequest struct {
	IDs      []string `json:"ids" binding:"required"`
	Comments string   `json:"comments"`
}

// BatchApprove は複数社員を個別に評価して承認します。部分成功が前提です。
func (h *EmployeeHandler) BatchApprove(c *gin.Context) {
	var req batchApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	actor, _ := middleware.ActorFrom(c)
	result := h.employees.BatchApprove(c.Request.Context(), employee.BatchApproveInput{
		IDs:      req.IDs,
		Actor:    actor.Email,
		Comments: req.Comments,
	})
	c.JSON(http.StatusOK, result)
}

// Delete は admin には物理削除、それ以外のロールには inactive への論理遷移を行います。
func (h *EmployeeHandler) Delete(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	if actor.Role == account.RoleAdmin {
		if err := h.employees.DeleteEmployee(c.Request.Context(), c.Param("id"), actor.Email); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	deactivated, err := h.employees.Deactivate(c.Request.Context(), c.Param("id"), actor.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, deactivated.ToView())
}

// AuditHistory は社員の監査履歴を返します。
func (h *EmployeeHandler) AuditHistory(c *gin.Context) {
	entries, err := h.audits.ListByEntity(c.Request.Context(), "employee", c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
