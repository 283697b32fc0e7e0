package invitation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// TokenSource は招待トークンを生成します。
type TokenSource interface {
	NewToken() string
}

type uuidTokenSource struct{}

func (uuidTokenSource) NewToken() string {
	return uuid.NewString()
}

// EmployeeProvisioner は招待受理時にプロスペクト社員レコードを払い出します。
type EmployeeProvisioner interface {
	ProvisionProspect(ctx context.Context, email, name string) (string, error)
}

const defaultInvitationTTL = 7 * 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service は招待に関するユースケースをまとめます。
type Service struct {
	repo        Repository
	clock       Clock
	tx          TransactionManager
	tokens      TokenSource
	provisioner EmployeeProvisioner
	audits      audit.Repository
	notifier    audit.Notifier
}

// UseCase は招待ユースケースの公開インターフェースです。
type UseCase interface {
	CreateInvitation(ctx context.Context, in CreateInvitationInput) (*Invitation, error)
	ResendInvitation(ctx context.Context, in ResendInvitationInput) (*Invitation, error)
	CancelInvitation(ctx context.Context, in CancelInvitationInput) (*Invitation, error)
	RedeemToken(ctx context.Context, token string) (*Invitation, error)
	AcceptInvitation(ctx context.Context, token string) (*AcceptResult, error)
	ListInvitations(ctx context.Context, in ListInvitationsInput) ([]*Invitation, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, provisioner EmployeeProvisioner, audits audit.Repository, notifier audit.Notifier, clock Clock, tx TransactionManager, tokens TokenSource) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if tokens == nil {
		tokens = uuidTokenSource{}
	}
	if notifier == nil {
		notifier = audit.NopNotifier{}
	}
	return &Service{
		repo:        repo,
		clock:       clock,
		tx:          tx,
		tokens:      tokens,
		provisioner: provisioner,
		audits:      audits,
		notifier:    notifier,
	}
}

// CreateInvitationInput は招待作成時の入力です。
type CreateInvitationInput struct {
	Email     string
	Name      string
	InvitedBy string
	TTL       time.Duration
}

// ResendInvitationInput は招待再送時の入力です。
type ResendInvitationInput struct {
	ID    string
	Actor string
}

// CancelInvitationInput は招待取消時の入力です。
type CancelInvitationInput struct {
	ID    string
	Actor string
}

// ListInvitationsInput は一覧取得時の入力です。
type ListInvitationsInput struct {
	Status *Status
	Limit  int
	Offset int
}

// AcceptResult は招待受理の結果です。
type AcceptResult struct {
	Invitation *Invitation
	EmployeeID string
}

// CreateInvitation は新しい招待を作成します。同一メールに有効な招待は 1 件までです。
func (s *Service) CreateInvitation(ctx context.Context, in CreateInvitationInput) (*Invitation, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = defaultInvitationTTL
	}

	var created *Invitation
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()

		existing, err := s.repo.FindActiveByEmail(txCtx, email, now)
		if err != nil && !errors.Is(err, ErrInvitationNotFound) {
			return err
		}
		if existing != nil {
			return ErrActiveInvitationExists
		}

		inv := &Invitation{
			Email:     email,
			Name:      name,
			Token:     s.tokens.NewToken(),
			Status:    StatusPending,
			ExpiresAt: now.Add(ttl),
			InvitedBy: in.InvitedBy,
			CreatedAt: now,
			UpdatedAt: now,
		}

		result, err := s.repo.Create(txCtx, inv)
		if err != nil {
			return err
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "invitation",
			EntityID:    result.ID,
			Action:      audit.ActionCreate,
			PerformedBy: in.InvitedBy,
			Details:     map[string]any{"email": email},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, audit.NotifyInvitationCreated, map[string]any{
		"invitation_id": created.ID,
		"email":         created.Email,
		"token":         created.Token,
		"expires_at":    created.ExpiresAt,
	})

	return created, nil
}

// ResendInvitation はトークンを再発行し、期限を延長します。
func (s *Service) ResendInvitation(ctx context.Context, in ResendInvitationInput) (*Invitation, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	var updated *Invitation
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if existing.Status != StatusPending {
			return ErrInvitationNotPending
		}

		now := s.clock.Now()
		existing.Token = s.tokens.NewToken()
		existing.ExpiresAt = now.Add(defaultInvitationTTL)
		existing.UpdatedAt = now

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "invitation",
			EntityID:    result.ID,
			Action:      audit.ActionUpdate,
			PerformedBy: in.Actor,
			Details:     map[string]any{"resend": true},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, audit.NotifyInvitationCreated, map[string]any{
		"invitation_id": updated.ID,
		"email":         updated.Email,
		"token":         updated.Token,
		"expires_at":    updated.ExpiresAt,
	})

	return updated, nil
}

// CancelInvitation は pending の招待を取り消します。
func (s *Service) CancelInvitation(ctx context.Context, in CancelInvitationInput) (*Invitation, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	var updated *Invitation
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if existing.Status != StatusPending {
			return ErrInvitationNotPending
		}

		now := s.clock.Now()
		existing.Status = StatusCancelled
		existing.UpdatedAt = now

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "invitation",
			EntityID:    result.ID,
			Action:      audit.ActionUpdate,
			PerformedBy: in.Actor,
			Details:     map[string]any{"cancelled": true},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// RedeemToken はトークンを検証し、消費せずに非機密フィールドを返します。
func (s *Service) RedeemToken(ctx context.Context, token string) (*Invitation, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenNotFound
	}

	var found *Invitation
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		inv, err := s.repo.FindByToken(txCtx, token)
		if err != nil {
			return err
		}

		switch inv.Status {
		case StatusAccepted:
			return ErrTokenAlreadyUsed
		case StatusExpired, StatusCancelled:
			return ErrTokenExpired
		}

		if inv.Expired(s.clock.Now()) {
			return ErrTokenExpired
		}

		found = inv
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// AcceptInvitation はトークンを単回使用として消費し、プロスペクト社員を払い出します。
func (s *Service) AcceptInvitation(ctx context.Context, token string) (*AcceptResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenNotFound
	}

	var result *AcceptResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()

		accepted, err := s.repo.Accept(txCtx, token, now)
		if err != nil {
			return err
		}

		employeeID, err := s.provisioner.ProvisionProspect(txCtx, accepted.Email, accepted.Name)
		if err != nil {
			return err
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "invitation",
			EntityID:    accepted.ID,
			Action:      audit.ActionUpdate,
			PerformedBy: accepted.Email,
			Details:     map[string]any{"accepted": true, "employee_id": employeeID},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		result = &AcceptResult{Invitation: accepted, EmployeeID: employeeID}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListInvitations は招待の一覧を取得します。
func (s *Service) ListInvitations(ctx context.Context, in ListInvitationsInput) ([]*Invitation, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}

	var invitations []*Invitation
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, ListFilter{Status: in.Status, Limit: limit, Offset: in.Offset})
		if err != nil {
			return err
		}
		invitations = found
		return nil
	}); err != nil {
		return nil, err
	}

	return invitations, nil
}

func (s *Service) notify(ctx context.Context, kind audit.NotificationKind, payload map[string]any) {
	if err := s.notifier.Publish(ctx, kind, payload); err != nil {
		log.Printf("invitation: notify %s failed: %v", kind, err)
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" || !emailPattern.MatchString(trimmed) {
		return "", fmt.Errorf("email %q: %w", raw, ErrInvalidEmail)
	}
	return trimmed, nil
}
