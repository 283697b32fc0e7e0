package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/http/middleware"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/invitation"
)

// InvitationUseCase は招待ハンドラーが依存するユースケースです。
type InvitationUseCase interface {
	CreateInvitation(ctx context.Context, in invitation.CreateInvitationInput) (*invitation.Invitation, error)
	ResendInvitation(ctx context.Context, in invitation.ResendInvitationInput) (*invitation.Invitation, error)
	CancelInvitation(ctx context.Context, in invitation.CancelInvitationInput) (*invitation.Invitation, error)
	RedeemToken(ctx context.Context, token string) (*invitation.Invitation, error)
	AcceptInvitation(ctx context.Context, token string) (*invitation.AcceptResult, error)
	ListInvitations(ctx context.Context, in invitation.ListInvitationsInput) ([]*invitation.Invitation, error)
}

// InvitationHandler は招待ライフサイクルの HTTP ハンドラーです。
type InvitationHandler struct {
	invitations InvitationUseCase
}

// NewInvitationHandler は InvitationHandler を生成します。
func NewInvitationHandler(invitations InvitationUseCase) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type createInvitationRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
}

// Create は招待を作成します。同一メールに有効な招待が既にある場合は 409 を返します。
func (h *InvitationHandler) Create(c *gin.Context) {
	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	actor, _ := middleware.ActorFrom(c)
	created, err := h.invitations.CreateInvitation(c.Request.Context(), invitation.CreateInvitationInput{
		Email:     req.Email,
		Name:      req.Name,
		InvitedBy: actor.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created.ToView())
}

// Resend はトークンをローテーションして招待を再送します。
func (h *InvitationHandler) Resend(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	resent, err := h.invitations.ResendInvitation(c.Request.Context(), invitation.ResendInvitationInput{
		ID:    c.Param("id"),
		Actor: actor.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resent.ToView())
}

// Cancel は未受理の招待を取り消します。
func (h *InvitationHandler) Cancel(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	cancelled, err := h.invitations.CancelInvitation(c.Request.Context(), invitation.CancelInvitationInput{
		ID:    c.Param("id"),
		Actor: actor.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cancelled.ToView())
}

// Validate はトークンを消費せずに検証します。トークン自体はエコーしません。
func (h *InvitationHandler) Validate(c *gin.Context) {
	found, err := h.invitations.RedeemToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":      found.Email,
		"name":       found.Name,
		"expires_at": found.ExpiresAt,
	})
}

type acceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// Accept はトークンを単回使用として消費し、プロスペクト社員を払い出します。
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	result, err := h.invitations.AcceptInvitation(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"employee_id": result.EmployeeID,
		"invitation":  result.Invitation.ToView(),
	})
}

// List は招待の一覧を返します。
func (h *InvitationHandler) List(c *gin.Context) {
	in := invitation.ListInvitationsInput{
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := invitation.Status(raw)
		in.Status = &status
	}

	invitations, err := h.invitations.ListInvitations(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]*invitation.View, 0, len(invitations))
	for _, inv := range invitations {
		views = append(views, inv.ToView())
	}
	c.JSON(http.StatusOK, gin.H{"invitations": views})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
