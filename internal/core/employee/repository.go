package employee

import (
	"context"
	"time"
)

// Repository は社員集約永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, e *Employee) (*Employee, error)
	UpdateRoot(ctx context.Context, e *Employee) (*Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByWorkEmail(ctx context.Context, workEmail string) (*Employee, error)
	List(ctx context.Context, filter ListFilter) ([]*Employee, error)
	// Delete は社員と所有コレクションをカスケード削除します。管理者専用経路からのみ呼ばれます。
	Delete(ctx context.Context, id string) error

	// TransitionStatus は e の状態・メタデータを、現在状態が from の行に限って
	// 単一の条件付き UPDATE で書き込みます。条件を満たす行が無い場合は現在状態を
	// 再読し、ErrEmployeeNotFound / ErrAlreadyApproved / ErrAlreadyRejected /
	// ErrNotPendingApproval のいずれかへ分類します。
	TransitionStatus(ctx context.Context, e *Employee, from Status) (*Employee, error)

	// ReplaceCollections は所有コレクション全体を置換します。提出トランザクション内で
	// のみ使用され、いずれかの挿入が失敗した場合は全体がロールバックされます。
	ReplaceCollections(ctx context.Context, employeeID string, c *Collections) error
	FindCollections(ctx context.Context, employeeID string) (*Collections, error)

	// CountExpiredLicenses は基準時刻に対して期限切れの免許・認定数を返します。
	CountExpiredLicenses(ctx context.Context, employeeID string, now time.Time) (int, error)
}

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}
