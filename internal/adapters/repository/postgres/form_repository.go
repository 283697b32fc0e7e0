package postgres

import (
	"context"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/onboarding"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

// FormRepository は PostgreSQL を利用した必須フォーム進捗永続化の実装です。
type FormRepository struct {
	pool pgdb.Queryer
}

// NewFormRepository は FormRepository を生成します。
func NewFormRepository(pool pgdb.Queryer) *FormRepository {
	return &FormRepository{pool: pool}
}

// Seed は必須フォームの行を冪等に払い出します。既存行には影響しません。
func (r *FormRepository) Seed(ctx context.Context, employeeID string, formTypes []string, now time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	for _, ft := range formTypes {
		if _, err := exec.Exec(ctx, `
            INSERT INTO required_forms (employee_id, form_type, completed, created_at)
            VALUES ($1, $2, FALSE, $3)
            ON CONFLICT (employee_id, form_type) DO NOTHING
        `, employeeID, ft, now); err != nil {
			return err
		}
	}
	return nil
}

// List は社員の必須フォーム一覧を返します。
func (r *FormRepository) List(ctx context.Context, employeeID string) ([]*onboarding.RequiredForm, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, form_type, completed, completed_at, created_at
          FROM required_forms
         WHERE employee_id = $1
         ORDER BY form_type
    `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []*onboarding.RequiredForm
	for rows.Next() {
		var f onboarding.RequiredForm
		if err := rows.Scan(&f.ID, &f.EmployeeID, &f.FormType, &f.Completed, &f.CompletedAt, &f.CreatedAt); err != nil {
			return nil, err
		}
		forms = append(forms, &f)
	}
	return forms, rows.Err()
}

// PendingCount は未完了フォーム数を返します。
func (r *FormRepository) PendingCount(ctx context.Context, employeeID string) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	err := exec.QueryRow(ctx, `
        SELECT COUNT(*) FROM required_forms WHERE employee_id = $1 AND completed = FALSE
    `, employeeID).Scan(&count)
	return count, err
}

// Complete はフォームを完了済みにします。
func (r *FormRepository) Complete(ctx context.Context, employeeID, formType string, now time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE required_forms
           SET completed = TRUE,
               completed_at = $1
         WHERE employee_id = $2 AND form_type = $3
    `, now, employeeID, formType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return onboarding.ErrFormNotFound
	}
	return nil
}
