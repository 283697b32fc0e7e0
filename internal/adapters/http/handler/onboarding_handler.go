package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/onboarding"
)

// OnboardingUseCase はオンボーディングハンドラーが依存するユースケースです。
type OnboardingUseCase interface {
	GetDraft(ctx context.Context, employeeID string) (*onboarding.Draft, error)
	SaveDraft(ctx context.Context, employeeID string, patch map[string]any) (*onboarding.Draft, error)
	AdvanceStep(ctx context.Context, employeeID string, step int) (*onboarding.StepResult, error)
	Submit(ctx context.Context, employeeID string) (*employee.Employee, error)
	ListForms(ctx context.Context, employeeID string) ([]*onboarding.RequiredForm, error)
	CompleteForm(ctx context.Context, employeeID, formType string) error
}

// OnboardingHandler はオンボーディングウィザードの HTTP ハンドラーです。
type OnboardingHandler struct {
	onboarding OnboardingUseCase
}

// NewOnboardingHandler は OnboardingHandler を生成します。
func NewOnboardingHandler(uc OnboardingUseCase) *OnboardingHandler {
	return &OnboardingHandler{onboarding: uc}
}

type draftResponse struct {
	EmployeeID  string         `json:"employee_id"`
	Data        map[string]any `json:"data"`
	CurrentStep int            `json:"current_step"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// GetDraft はドラフトを返します。
func (h *OnboardingHandler) GetDraft(c *gin.Context) {
	draft, err := h.onboarding.GetDraft(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftView(draft))
}

// SaveDraft は部分パッチを検証なしでマージ保存します。
func (h *OnboardingHandler) SaveDraft(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	saved, err := h.onboarding.SaveDraft(c.Request.Context(), c.Param("employeeId"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftView(saved))
}

// AdvanceStep は現在ステップを検証して前進させます。検証失敗はフィールド単位で返します。
func (h *OnboardingHandler) AdvanceStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step must be a number"})
		return
	}

	result, err := h.onboarding.AdvanceStep(c.Request.Context(), c.Param("employeeId"), step)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Submit はドラフト全体を再検証し、社員を pending_approval へ確定します。
func (h *OnboardingHandler) Submit(c *gin.Context) {
	submitted, err := h.onboarding.Submit(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitted.ToView())
}

type formView struct {
	FormType    string     `json:"form_type"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ListForms は必須フォームの進捗一覧を返します。
func (h *OnboardingHandler) ListForms(c *gin.Context) {
	forms, err := h.onboarding.ListForms(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]formView, 0, len(forms))
	for _, f := range forms {
		views = append(views, formView{FormType: f.FormType, Completed: f.Completed, CompletedAt: f.CompletedAt})
	}
	c.JSON(http.StatusOK, gin.H{"forms": views})
}

// CompleteForm は必須フォームを完了済みにします。
func (h *OnboardingHandler) CompleteForm(c *gin.Context) {
	if err := h.onboarding.CompleteForm(c.Request.Context(), c.Param("employeeId"), c.Param("formType")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func draftView(d *onboarding.Draft) draftResponse {
	data := d.Data
	if data == nil {
		data = map[string]any{}
	}
	return draftResponse{
		EmployeeID:  d.EmployeeID,
		Data:        data,
		CurrentStep: d.CurrentStep,
		UpdatedAt:   d.UpdatedAt,
	}
}
