package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。提出は直列化可能分離で実行されます。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	WithinSerializable(ctx context.Context, fn func(context.Context) error) error
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

func (noopTransactionManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// DocumentGate は必須ドキュメントの残数を永続化済みデータから導出します。
type DocumentGate interface {
	MissingRequiredDocuments(ctx context.Context, employeeID string) (int, error)
}

// Service はオンボーディングのドラフト保存・ステップ検証・提出をまとめます。
type Service struct {
	drafts    DraftRepository
	forms     FormRepository
	employees employee.Repository
	documents DocumentGate
	audits    audit.Repository
	notifier  audit.Notifier
	clock     Clock
	tx        TransactionManager
}

// UseCase はオンボーディングユースケースの公開インターフェースです。
type UseCase interface {
	GetDraft(ctx context.Context, employeeID string) (*Draft, error)
	SaveDraft(ctx context.Context, employeeID string, patch map[string]any) (*Draft, error)
	AdvanceStep(ctx context.Context, employeeID string, step int) (*StepResult, error)
	Submit(ctx context.Context, employeeID string) (*employee.Employee, error)
	ListForms(ctx context.Context, employeeID string) ([]*RequiredForm, error)
	CompleteForm(ctx context.Context, employeeID, formType string) error
}

// NewService は Service を生成します。
func NewService(drafts DraftRepository, forms FormRepository, employees employee.Repository, documents DocumentGate, audits audit.Repository, notifier audit.Notifier, clock Clock, tx TransactionManager) *Service {
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
		drafts:    drafts,
		forms:     forms,
		employees: employees,
		documents: documents,
		audits:    audits,
		notifier:  notifier,
		clock:     clock,
		tx:        tx,
	}
}

// StepResult はステップ検証成功時の結果です。
type StepResult struct {
	Step     int `json:"step"`
	NextStep int `json:"next_step"`
}

// GetDraft はドラフトを取得します。未保存の社員には空のドラフトを返します。
func (s *Service) GetDraft(ctx context.Context, employeeID string) (*Draft, error) {
	var found *Draft
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.employees.FindByID(txCtx, employeeID); err != nil {
			return err
		}

		d, err := s.drafts.Get(txCtx, employeeID)
		if err != nil {
			if errors.Is(err, ErrDraftNotFound) {
				found = &Draft{EmployeeID: employeeID, Data: map[string]any{}, CurrentStep: 1}
				return nil
			}
			return err
		}
		found = d
		return nil
	}); err != nil {
		return nil, err
	}

	return found, nil
}

// SaveDraft は部分パッチをスキーマ検証なしでマージ保存します。パッチに含まれない
// フィールドが null で潰されることはありません。
func (s *Service) SaveDraft(ctx context.Context, employeeID string, patch map[string]any) (*Draft, error) {
	var saved *Draft
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		if err := ensureEditable(emp.Status); err != nil {
			return err
		}

		now := s.clock.Now()

		if err := s.forms.Seed(txCtx, employeeID, RequiredFormTypes, now); err != nil {
			return err
		}

		existing, err := s.drafts.Get(txCtx, employeeID)
		if err != nil {
			if !errors.Is(err, ErrDraftNotFound) {
				return err
			}
			existing = &Draft{EmployeeID: employeeID, Data: map[string]any{}, CurrentStep: 1}
		}

		merged := &Draft{
			EmployeeID:  employeeID,
			Data:        MergePatch(existing.Data, patch),
			CurrentStep: existing.CurrentStep,
			UpdatedAt:   now,
		}

		result, err := s.drafts.Save(txCtx, merged)
		if err != nil {
			return err
		}

		saved = result
		return nil
	}); err != nil {
		return nil, err
	}

	return saved, nil
}

// AdvanceStep は現在ステップのスキーマのみを検証し、通過時にステップ位置を進めます。
// ゲート制御ステップは永続化済みデータから導出した残数で判定し、残数をメッセージに含めます。
func (s *Service) AdvanceStep(ctx context.Context, employeeID string, step int) (*StepResult, error) {
	descriptor, ok := StepByNumber(step)
	if !ok {
		return nil, fmt.Errorf("step %d: %w", step, ErrUnknownStep)
	}

	var result *StepResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		if err := ensureEditable(emp.Status); err != nil {
			return err
		}

		draft, err := s.drafts.Get(txCtx, employeeID)
		if err != nil {
			if !errors.Is(err, ErrDraftNotFound) {
				return err
			}
			draft = &Draft{EmployeeID: employeeID, Data: map[string]any{}, CurrentStep: 1}
		}

		if descriptor.Validate != nil {
			if errs := descriptor.Validate(draft.Data); len(errs) > 0 {
				return errs
			}
		}

		switch descriptor.Gate {
		case GateDocuments:
			missing, err := s.documents.MissingRequiredDocuments(txCtx, employeeID)
			if err != nil {
				return err
			}
			if missing > 0 {
				return fmt.Errorf("%d required document(s) remaining: %w", missing, ErrDocumentsIncomplete)
			}
		case GateForms:
			pending, err := s.forms.PendingCount(txCtx, employeeID)
			if err != nil {
				return err
			}
			if pending > 0 {
				return fmt.Errorf("%d required form(s) remaining: %w", pending, ErrFormsIncomplete)
			}
		}

		next := step + 1
		if next > len(Steps) {
			next = len(Steps)
		}

		draft.CurrentStep = next
		draft.UpdatedAt = s.clock.Now()
		if _, err := s.drafts.Save(txCtx, draft); err != nil {
			return err
		}

		result = &StepResult{Step: step, NextStep: next}
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// Submit は全ステップの再検証と完了フラグのサーバー側再導出を行ったうえで、ルートと
// 全子コレクションを単一トランザクションで確定し、pending_approval へ遷移させます。
// いずれかの書き込みが失敗した場合は提出全体がロールバックされます。
func (s *Service) Submit(ctx context.Context, employeeID string) (*employee.Employee, error) {
	var committed *employee.Employee
	if err := s.tx.WithinSerializable(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		if err := ensureEditable(emp.Status); err != nil {
			return err
		}
		from := emp.Status

		draft, err := s.drafts.Get(txCtx, employeeID)
		if err != nil {
			return err
		}

		var allErrs FieldErrors
		for _, step := range Steps {
			if step.Validate == nil {
				continue
			}
			allErrs = append(allErrs, step.Validate(draft.Data)...)
		}
		if len(allErrs) > 0 {
			return allErrs
		}

		missing, err := s.documents.MissingRequiredDocuments(txCtx, employeeID)
		if err != nil {
			return err
		}
		if missing > 0 {
			return fmt.Errorf("%d required document(s) remaining: %w", missing, ErrDocumentsIncomplete)
		}

		pending, err := s.forms.PendingCount(txCtx, employeeID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%d required form(s) remaining: %w", pending, ErrFormsIncomplete)
		}

		payload, err := decodeSubmission(draft.Data)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		applyRoot(emp, payload, now)
		if _, err := s.employees.UpdateRoot(txCtx, emp); err != nil {
			return err
		}

		if err := s.employees.ReplaceCollections(txCtx, employeeID, payload.collections(employeeID)); err != nil {
			return err
		}

		emp.Status = employee.StatusPendingApproval
		updated, err := s.employees.TransitionStatus(txCtx, emp, from)
		if err != nil {
			return err
		}

		if err := s.audits.Record(txCtx, &audit.Entry{
			EntityType:  "employee",
			EntityID:    employeeID,
			Action:      audit.ActionSubmit,
			PerformedBy: emp.Email,
			Details:     map[string]any{"resubmission": from == employee.StatusInformationNeeded},
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		committed = updated
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, audit.NotifySubmitted, map[string]any{
		"employee_id": committed.ID,
		"work_email":  committed.WorkEmail,
	})

	return committed, nil
}

// ListForms は必須フォームの進捗一覧を返します。未払い出しの場合は払い出してから返します。
func (s *Service) ListForms(ctx context.Context, employeeID string) ([]*RequiredForm, error) {
	var forms []*RequiredForm
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.employees.FindByID(txCtx, employeeID); err != nil {
			return err
		}

		if err := s.forms.Seed(txCtx, employeeID, RequiredFormTypes, s.clock.Now()); err != nil {
			return err
		}

		found, err := s.forms.List(txCtx, employeeID)
		if err != nil {
			return err
		}
		forms = found
		return nil
	}); err != nil {
		return nil, err
	}

	return forms, nil
}

// CompleteForm は必須フォームをサーバー側で完了済みにします。
func (s *Service) CompleteForm(ctx context.Context, employeeID, formType string) error {
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		emp, err := s.employees.FindByID(txCtx, employeeID)
		if err != nil {
			return err
		}

		if err := ensureEditable(emp.Status); err != nil {
			return err
		}

		now := s.clock.Now()
		if err := s.forms.Seed(txCtx, employeeID, RequiredFormTypes, now); err != nil {
			return err
		}

		return s.forms.Complete(txCtx, employeeID, formType, now)
	})
}

func (s *Service) notify(ctx context.Context, kind audit.NotificationKind, payload map[string]any) {
	if err := s.notifier.Publish(ctx, kind, payload); err != nil {
		log.Printf("onboarding: notify %s failed: %v", kind, err)
	}
}

// ensureEditable はドラフト編集・提出が許される状態かを判定します。承認待ち・終端状態の
// 社員はオンボーディング経路から変更できません。
func ensureEditable(status employee.Status) error {
	switch status {
	case employee.StatusProspective, employee.StatusInformationNeeded:
		return nil
	case employee.StatusPendingApproval:
		return ErrAlreadySubmitted
	default:
		return ErrNotSubmittable
	}
}
