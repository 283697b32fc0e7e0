package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/onboarding"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

// DraftRepository は PostgreSQL を利用したドラフト永続化の実装です。
// フォーム状態は JSONB 列にそのまま保存されます。
type DraftRepository struct {
	pool pgdb.Queryer
}

// NewDraftRepository は DraftRepository を生成します。
func NewDraftRepository(pool pgdb.Queryer) *DraftRepository {
	return &DraftRepository{pool: pool}
}

// Get は社員のドラフトを取得します。
func (r *DraftRepository) Get(ctx context.Context, employeeID string) (*onboarding.Draft, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT employee_id, data, current_step, updated_at
          FROM onboarding_drafts
         WHERE employee_id = $1
         LIMIT 1
    `, employeeID)

	var d onboarding.Draft
	if err := row.Scan(&d.EmployeeID, &d.Data, &d.CurrentStep, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, onboarding.ErrDraftNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Save はドラフトを upsert します。
func (r *DraftRepository) Save(ctx context.Context, d *onboarding.Draft) (*onboarding.Draft, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO onboarding_drafts (employee_id, data, current_step, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (employee_id)
        DO UPDATE SET data = EXCLUDED.data,
                      current_step = EXCLUDED.current_step,
                      updated_at = EXCLUDED.updated_at
        RETURNING employee_id, data, current_step, updated_at
    `, d.EmployeeID, d.Data, d.CurrentStep, d.UpdatedAt)

	var saved onboarding.Draft
	if err := row.Scan(&saved.EmployeeID, &saved.Data, &saved.CurrentStep, &saved.UpdatedAt); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Delete はドラフトを削除します。
func (r *DraftRepository) Delete(ctx context.Context, employeeID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `DELETE FROM onboarding_drafts WHERE employee_id = $1`, employeeID)
	return err
}
