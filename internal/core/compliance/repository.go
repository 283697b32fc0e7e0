package compliance

import (
	"context"
	"time"
)

// Repository は資格統一ビューの読み取りとキャッシュ済み状態の更新を提供します。
type Repository interface {
	// ListLicenses は全種別の資格を統一ビューで返します。
	ListLicenses(ctx context.Context) ([]LicenseRecord, error)
	// ListLicensesByEmployee は 1 社員分の資格を統一ビューで返します。
	ListLicensesByEmployee(ctx context.Context, employeeID string) ([]LicenseRecord, error)
	// UpdateCachedStatus は資格行に導出済みの状態文字列を書き戻します。
	UpdateCachedStatus(ctx context.Context, kind LicenseKind, id, status string, now time.Time) error
}
