package onboarding

import (
	"context"
	"time"
)

// RequiredFormTypes はオンボーディング完了に必須のフォーム種別です。
var RequiredFormTypes = []string{
	"i9",
	"w4",
	"direct_deposit",
	"confidentiality_agreement",
}

// RequiredForm は必須フォームのサーバー側進捗です。完了状態はここからのみ導出され、
// クライアント申告のフラグは参照されません。
type RequiredForm struct {
	ID          string
	EmployeeID  string
	FormType    string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// FormRepository は必須フォーム進捗の永続化抽象です。
type FormRepository interface {
	// Seed は必須フォームの行を冪等に払い出します。既存行には影響しません。
	Seed(ctx context.Context, employeeID string, formTypes []string, now time.Time) error
	List(ctx context.Context, employeeID string) ([]*RequiredForm, error)
	PendingCount(ctx context.Context, employeeID string) (int, error)
	Complete(ctx context.Context, employeeID, formType string, now time.Time) error
}
