package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/compliance"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

// licenseUnionQuery は 3 種別の資格テーブルを統一ビューへ束ねます。
const licenseUnionQuery = `
        SELECT l.id, 'state_license' AS kind, l.employee_id,
               e.first_name || ' ' || e.last_name AS employee_name,
               l.license_number AS identifier, l.state, l.expiration_date, l.status
          FROM state_licenses l
          JOIN employees e ON e.id = l.employee_id
        UNION ALL
        SELECT d.id, 'dea_license', d.employee_id,
               e.first_name || ' ' || e.last_name,
               d.number, '', d.expiration_date, d.status
          FROM dea_licenses d
          JOIN employees e ON e.id = d.employee_id
        UNION ALL
        SELECT b.id, 'board_certification', b.employee_id,
               e.first_name || ' ' || e.last_name,
               b.certification_number, '', b.expiration_date, b.status
          FROM board_certifications b
          JOIN employees e ON e.id = b.employee_id`

// ComplianceRepository は PostgreSQL を利用した資格統一ビューの実装です。
type ComplianceRepository struct {
	pool pgdb.Queryer
}

// NewComplianceRepository は ComplianceRepository を生成します。
func NewComplianceRepository(pool pgdb.Queryer) *ComplianceRepository {
	return &ComplianceRepository{pool: pool}
}

// ListLicenses は全種別の資格を統一ビューで返します。
func (r *ComplianceRepository) ListLicenses(ctx context.Context) ([]compliance.LicenseRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, licenseUnionQuery+`
         ORDER BY expiration_date
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []compliance.LicenseRecord
	for rows.Next() {
		var (
			rec  compliance.LicenseRecord
			kind string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.EmployeeID, &rec.EmployeeName, &rec.Identifier, &rec.State, &rec.ExpirationDate, &rec.Status); err != nil {
			return nil, err
		}
		rec.Kind = compliance.LicenseKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListLicensesByEmployee は 1 社員分の資格を統一ビューで返します。
func (r *ComplianceRepository) ListLicensesByEmployee(ctx context.Context, employeeID string) ([]compliance.LicenseRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT * FROM (`+licenseUnionQuery+`
        ) licenses
         WHERE employee_id = $1
         ORDER BY expiration_date
    `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []compliance.LicenseRecord
	for rows.Next() {
		var (
			rec  compliance.LicenseRecord
			kind string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.EmployeeID, &rec.EmployeeName, &rec.Identifier, &rec.State, &rec.ExpirationDate, &rec.Status); err != nil {
			return nil, err
		}
		rec.Kind = compliance.LicenseKind(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateCachedStatus は資格行に導出済みの状態文字列を書き戻します。
func (r *ComplianceRepository) UpdateCachedStatus(ctx context.Context, kind compliance.LicenseKind, id, status string, now time.Time) error {
	var table string
	switch kind {
	case compliance.KindStateLicense:
		table = "state_licenses"
	case compliance.KindDEALicense:
		table = "dea_licenses"
	case compliance.KindBoardCertification:
		table = "board_certifications"
	default:
		return fmt.Errorf("unknown license kind %q", kind)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `UPDATE `+table+` SET status = $1 WHERE id = $2`, status, id)
	return err
}
