package employee

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/account"
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

// DocumentGate は必須ドキュメントの完了状態を永続化済みデータから導出します。
type DocumentGate interface {
	MissingRequiredDocuments(ctx context.Context, employeeID string) (int, error)
	ArchiveAll(ctx context.Context, employeeID string) error
}

// Policy は承認時に強制する前提条件のトグルです。違反はそれぞれ固有のエラーになります。
type Policy struct {
	RequireDocumentsComplete       bool
	RequireValidLicenses           bool
	RequireBackgroundCheckComplete bool
	ArchiveDocumentsOnReject       bool
}

// Service は社員ライフサイクルのユースケースをまとめます。
type Service struct {
	repo      Repository
	accounts  account.Repository
	documents DocumentGate
	audits    audit.Repository
	notifier  audit.Notifier
	clock     Clock
	tx        TransactionManager
	policy    Policy
}

// UseCase は社員ライフサイクルの公開インターフェースです。
type UseCase interface {
	ProvisionProspect(ctx context.Context, email, name string) (string, error)
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	GetCollections(ctx context.Context, id string) (*Collections, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error)
	Approve(ctx context.Context, in ApproveInput) (*Employee, error)
	Reject(ctx context.Context, in RejectInput) (*Employee, error)
	RequestInfo(ctx context.Context, in RequestInfoInput) (*Employee, error)
	BatchApprove(ctx context.Context, in BatchApproveInput) *BatchApproveResult
	Deactivate(ctx context.Context, id, actor string) (*Employee, error)
	DeleteEmployee(ctx context.Context, id, actor string) error
}

// NewService は Service を生成します。
func NewService(repo Repository, accounts account.Repository, documents DocumentGate, audits audit.Repository, notifier audit.Notifier, clock Clock, tx TransactionManager, policy Policy) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if notifier == nil {
		notifier = audit.NopNotifier{}
	}
	return &Service{
		repo:      repo,
		accounts:  accounts,
		documents: documents,
		audits:    audits,
		notifier:  notifier,
		clock:     clock,
		tx:        tx,
		policy:    policy,
	}
}

// ApproveInput は承認時の入力です。AssignRole 未指定時は employee ロールが割り当てられます。
type ApproveInput struct {
	ID         string
	Actor      string
	Comments   string
	AssignRole account.Role
}

// RejectInput は却下時の入力です。
type RejectInput struct {
	ID     string
	Actor  string
	Reason string
}

// RequestInfoInput は追加情報要求時の入力です。
type RequestInfoInput struct {
	ID      string
	Actor   string
	Items   []string
	DueDate *time.Time
	Message string
}

// BatchApproveInput は一括承認時の入力です。
type BatchApproveInput struct {
	IDs      []string
	Actor    string
	Comments string
}

// BatchItemResult は一括承認の 1 件分の結果です。
type BatchItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BatchApproveResult は一括承認の集計結果です。各 ID は独立に評価され、部分成功が前提です。
type BatchApproveResult struct {
	Approved int               `json:"approved"`
	Failed   int               `json:"failed"`
	Results  []BatchItemResult `json:"results"`
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Status *Status
	Limit  int
	Offset int
}

// ProvisionProspect は招待受理時にプロスペクト社員とオンボーディング用アカウントを払い出します。
// 呼び出し元トランザクションに参加します。
func (s *Service) ProvisionProspect(ctx context.Context, email, name string) (string, error) {
	now := s.clock.Now()

	first, last := splitName(name)

	acct, err := s.accounts.Create(ctx, &account.Account{
		Email:     email,
		Name:      name,
		Role:      account.RoleOnboarding,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return "", err
	}

	created, err := s.repo.Create(ctx, &Employee{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Status:    StatusProspective,
		AccountID: &acct.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return "", err
	}

	if err := s.audits.Record(ctx, &audit.Entry{
		EntityType:  "employee",
		EntityID:    created.ID,
		Action:      audit.ActionCreate,
		PerformedBy: email,
		Details:     map[string]any{"via": "invitation"},
		CreatedAt:   now,
	}); err != nil {
		return "", err
	}

	return created.ID, nil
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var found *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		e, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		found = e
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// GetCollections は社員の所有コレクションを取得します。
func (s *Service) GetCollections(ctx context.Context, id string) (*Collections, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var found *Collections
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, id); err != nil {
			return err
		}
		c, err := s.repo.FindCollections(txCtx, id)
		if err != nil {
			return err
		}
		found = c
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// ListEmployees は社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*Employee, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 50
	}

	if in.Status != nil && !isValidStatus(*in.Status) {
		return nil, ErrInvalidStatus
	}

	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, ListFilter{Status: in.Status, Limit: limit, Offset: in.Offset})
		if err != nil {
			return err
		}
		employees = found
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

// Approve は pending_approval の社員を active へ遷移させます。ガードと状態書き込みは
// リポジトリの単一条件付き UPDATE で原子的に行われ、競合した側は already-processed
// エラーを受け取ります。
func (s *Service) Approve(ctx context.Context, in ApproveInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(in.Comments) == "" {
		return nil, ErrCommentsRequired
	}

	assignRole := in.AssignRole
	if assignRole == "" {
		assignRole = account.RoleEmployee
	}
	if !account.IsValidRole(assignRole) {
		return nil, account.ErrInvalidRole
	}

	var approved *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if err := classifyCurrentStatus(existing.Status); err != nil {
			return err
		}

		if err := s.checkApprovalPreconditions(txCtx, existing); err != nil {
			return err
		}

		now := s.clock.Now()
		actor := in.Actor
		existing.Status = StatusActive
		existing.ApprovedBy = &actor
		existing.ApprovedAt = &now
		existing.ApprovalComments = in.Comments
		existing.UpdatedAt = now

		result, err := s.repo.TransitionStatus(txCtx, existing, StatusPendingApproval)
		if err != nil {
			return err
		}

		if result.AccountID != nil {
			if _, err := s.accounts.SetRoleAndActivation(txCtx, *result.AccountID, assignRole, true); err != nil {
				return err
			}
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "employee",
			EntityID:    result.ID,
			Action:      audit.ActionApprove,
			PerformedBy: in.Actor,
			Details:     map[string]any{"comments": in.Comments},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		approved = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, audit.NotifyApproved, map[string]any{
		"employee_id": approved.ID,
		"approved_by": in.Actor,
	})

	return approved, nil
}

// Reject は pending_approval の社員を rejected へ遷移させます。
func (s *Service) Reject(ctx context.Context, in RejectInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, ErrReasonRequired
	}

	var rejected *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if err := classifyCurrentStatus(existing.Status); err != nil {
			return err
		}

		now := s.clock.Now()
		actor := in.Actor
		existing.Status = StatusRejected
		existing.RejectedBy = &actor
		existing.RejectedAt = &now
		existing.RejectionReason = in.Reason
		existing.UpdatedAt = now

		result, err := s.repo.TransitionStatus(txCtx, existing, StatusPendingApproval)
		if err != nil {
			return err
		}

		if result.AccountID != nil {
			acct, err := s.accounts.FindByID(txCtx, *result.AccountID)
			if err != nil {
				return err
			}
			if _, err := s.accounts.SetRoleAndActivation(txCtx, acct.ID, acct.Role, false); err != nil {
				return err
			}
		}

		if s.policy.ArchiveDocumentsOnReject {
			if err := s.documents.ArchiveAll(txCtx, result.ID); err != nil {
				return err
			}
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "employee",
			EntityID:    result.ID,
			Action:      audit.ActionReject,
			PerformedBy: in.Actor,
			Details:     map[string]any{"reason": in.Reason},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		rejected = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, audit.NotifyRejected, map[string]any{
		"employee_id": rejected.ID,
		"rejected_by": in.Actor,
		"reason":      in.Reason,
	})

	return rejected, nil
}

// RequestInfo は pending_approval の社員へ追加情報を要求します。終端スロットを消費せず、
// 何度でも繰り返せます。
func (s *Service) RequestInfo(ctx context.Context, in RequestInfoInput) (*Employee, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrInvalidID
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		if err := classifyCurrentStatus(existing.Status); err != nil {
			return err
		}

		now := s.clock.Now()
		existing.Status = StatusInformationNeeded
		existing.InfoRequestedAt = &now
		existing.InfoRequestedItems = in.Items
		existing.InfoDueDate = in.DueDate
		existing.InfoMessage = in.Message
		existing.UpdatedAt = now

		result, err := s.repo.TransitionStatus(txCtx, existing, StatusPendingApproval)
		if err != nil {
			return err
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "employee",
			EntityID:    result.ID,
			Action:      audit.ActionRequestInfo,
			PerformedBy: in.Actor,
			Details:     map[string]any{"items": in.Items, "message": in.Message},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, audit.NotifyInfoRequested, map[string]any{
		"employee_id": updated.ID,
		"items":       in.Items,
		"message":     in.Message,
	})

	return updated, nil
}

// BatchApprove は各 ID を独立に承認します。全体としての成否はなく、ID ごとの結果を返します。
func (s *Service) BatchApprove(ctx context.Context, in BatchApproveInput) *BatchApproveResult {
	result := &BatchApproveResult{Results: make([]BatchItemResult, 0, len(in.IDs))}

	for _, id := range in.IDs {
		if _, err := s.Approve(ctx, ApproveInput{ID: id, Actor: in.Actor, Comments: in.Comments}); err != nil {
			result.Failed++
			result.Results = append(result.Results, BatchItemResult{ID: id, OK: false, Error: err.Error()})
			continue
		}
		result.Approved++
		result.Results = append(result.Results, BatchItemResult{ID: id, OK: true})
	}

	return result
}

// Deactivate は社員を inactive へソフト遷移させます。非管理者の削除経路はこちらを使います。
func (s *Service) Deactivate(ctx context.Context, id, actor string) (*Employee, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		existing.Status = StatusInactive
		existing.UpdatedAt = now

		result, err := s.repo.TransitionStatus(txCtx, existing, StatusActive)
		if err != nil {
			return err
		}

		if result.AccountID != nil {
			acct, err := s.accounts.FindByID(txCtx, *result.AccountID)
			if err != nil {
				return err
			}
			if _, err := s.accounts.SetRoleAndActivation(txCtx, acct.ID, acct.Role, false); err != nil {
				return err
			}
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "employee",
			EntityID:    result.ID,
			Action:      audit.ActionUpdate,
			PerformedBy: actor,
			Details:     map[string]any{"deactivated": true},
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

// DeleteEmployee は社員と所有コレクションを物理削除します。管理者専用です。
func (s *Service) DeleteEmployee(ctx context.Context, id, actor string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}

		return s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "employee",
			EntityID:    id,
			Action:      audit.ActionDelete,
			PerformedBy: actor,
			CreatedAt:   s.clock.Now(),
		})
	})
}

func (s *Service) checkApprovalPreconditions(ctx context.Context, e *Employee) error {
	if s.policy.RequireDocumentsComplete {
		missing, err := s.documents.MissingRequiredDocuments(ctx, e.ID)
		if err != nil {
			return err
		}
		if missing > 0 {
			return fmt.Errorf("%d required document(s) missing: %w", missing, ErrDocumentsIncomplete)
		}
	}

	if s.policy.RequireValidLicenses {
		expired, err := s.repo.CountExpiredLicenses(ctx, e.ID, s.clock.Now())
		if err != nil {
			return err
		}
		if expired > 0 {
			return fmt.Errorf("%d expired license(s): %w", expired, ErrLicensesExpired)
		}
	}

	if s.policy.RequireBackgroundCheckComplete && !e.BackgroundCheckCompleted {
		return ErrBackgroundCheckIncomplete
	}

	return nil
}

func (s *Service) notify(ctx context.Context, kind audit.NotificationKind, payload map[string]any) {
	if err := s.notifier.Publish(ctx, kind, payload); err != nil {
		log.Printf("employee: notify %s failed: %v", kind, err)
	}
}

// classifyCurrentStatus は事前読みの状態からガード違反を分類します。最終的な排他は
// TransitionStatus の条件付き UPDATE が保証します。
func classifyCurrentStatus(current Status) error {
	switch current {
	case StatusPendingApproval:
		return nil
	case StatusActive:
		return ErrAlreadyApproved
	case StatusRejected:
		return ErrAlreadyRejected
	default:
		return ErrNotPendingApproval
	}
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusProspective, StatusPendingApproval, StatusInformationNeeded, StatusActive, StatusRejected, StatusInactive:
		return true
	default:
		return false
	}
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
