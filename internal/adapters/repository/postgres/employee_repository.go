package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

const employeeColumns = `id, first_name, last_name, date_of_birth, ssn, email, phone, address,
               work_email, npi, position, hire_date, status, background_check_completed,
               approved_by, approved_at, approval_comments,
               rejected_by, rejected_at, rejection_reason,
               info_requested_at, info_requested_items, info_due_date, info_message,
               account_id, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した社員集約永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (first_name, last_name, date_of_birth, ssn, email, phone, address,
                               work_email, npi, position, hire_date, status, background_check_completed,
                               account_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING `+employeeColumns+`
    `,
		e.FirstName,
		e.LastName,
		e.DateOfBirth,
		e.SSN,
		e.Email,
		e.Phone,
		e.Address,
		e.WorkEmail,
		e.NPI,
		e.Position,
		e.HireDate,
		string(e.Status),
		e.BackgroundCheckCompleted,
		e.AccountID,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// UpdateRoot は社員ルートの提出データを更新します。状態列は TransitionStatus が管理します。
func (r *EmployeeRepository) UpdateRoot(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET first_name = $1,
               last_name = $2,
               date_of_birth = $3,
               ssn = $4,
               email = $5,
               phone = $6,
               address = $7,
               work_email = $8,
               npi = $9,
               position = $10,
               hire_date = $11,
               updated_at = $12
         WHERE id = $13
        RETURNING `+employeeColumns+`
    `,
		e.FirstName,
		e.LastName,
		e.DateOfBirth,
		e.SSN,
		e.Email,
		e.Phone,
		e.Address,
		e.WorkEmail,
		e.NPI,
		e.Position,
		e.HireDate,
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByWorkEmail は社用メールアドレスで社員を取得します。
func (r *EmployeeRepository) FindByWorkEmail(ctx context.Context, workEmail string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE work_email = $1
         LIMIT 1
    `, workEmail)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListFilter) ([]*employee.Employee, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		whereClause = " WHERE status = $1"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limit)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, offset)

	query := `
        SELECT ` + employeeColumns + `
          FROM employees` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

// Delete は社員を削除します。所有コレクションは外部キーのカスケードで一緒に消えます。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// TransitionStatus は現在状態が from の行に限って状態と承認メタデータを書き込みます。
// 条件を満たす行が無い場合は現在状態を再読し、競合の内容をエラーへ分類します。
func (r *EmployeeRepository) TransitionStatus(ctx context.Context, e *employee.Employee, from employee.Status) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET status = $1,
               approved_by = $2,
               approved_at = $3,
               approval_comments = $4,
               rejected_by = $5,
               rejected_at = $6,
               rejection_reason = $7,
               info_requested_at = $8,
               info_requested_items = $9,
               info_due_date = $10,
               info_message = $11,
               updated_at = $12
         WHERE id = $13 AND status = $14
        RETURNING `+employeeColumns+`
    `,
		string(e.Status),
		e.ApprovedBy,
		e.ApprovedAt,
		e.ApprovalComments,
		e.RejectedBy,
		e.RejectedAt,
		e.RejectionReason,
		e.InfoRequestedAt,
		e.InfoRequestedItems,
		e.InfoDueDate,
		e.InfoMessage,
		e.UpdatedAt,
		e.ID,
		string(from),
	)

	updated, err := scanEmployee(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, employee.ErrEmployeeNotFound) && !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateEmployeePgError(err)
	}

	return nil, r.classifyTransitionConflict(ctx, e.ID)
}

// classifyTransitionConflict は条件付き更新が 0 行だった原因を現在状態から特定します。
func (r *EmployeeRepository) classifyTransitionConflict(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var current string
	if err := exec.QueryRow(ctx, `SELECT status FROM employees WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrEmployeeNotFound
		}
		return err
	}

	switch employee.Status(current) {
	case employee.StatusActive:
		return employee.ErrAlreadyApproved
	case employee.StatusRejected:
		return employee.ErrAlreadyRejected
	default:
		return employee.ErrNotPendingApproval
	}
}

// ReplaceCollections は所有コレクション全体を削除・再挿入で置換します。
// 提出トランザクション内でのみ呼び出されます。
func (r *EmployeeRepository) ReplaceCollections(ctx context.Context, employeeID string, c *employee.Collections) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	deletes := []string{
		`DELETE FROM educations WHERE employee_id = $1`,
		`DELETE FROM employments WHERE employee_id = $1`,
		`DELETE FROM state_licenses WHERE employee_id = $1`,
		`DELETE FROM dea_licenses WHERE employee_id = $1`,
		`DELETE FROM board_certifications WHERE employee_id = $1`,
		`DELETE FROM peer_references WHERE employee_id = $1`,
		`DELETE FROM emergency_contacts WHERE employee_id = $1`,
		`DELETE FROM tax_forms WHERE employee_id = $1`,
		`DELETE FROM trainings WHERE employee_id = $1`,
		`DELETE FROM payer_enrollments WHERE employee_id = $1`,
	}
	for _, stmt := range deletes {
		if _, err := exec.Exec(ctx, stmt, employeeID); err != nil {
			return translateEmployeePgError(err)
		}
	}

	if c == nil {
		return nil
	}

	for _, edu := range c.Educations {
		if _, err := exec.Exec(ctx, `
            INSERT INTO educations (employee_id, institution, degree, field_of_study, graduation_year)
            VALUES ($1, $2, $3, $4, $5)
        `, employeeID, edu.Institution, edu.Degree, edu.FieldOfStudy, edu.GraduationYear); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, emp := range c.Employments {
		if _, err := exec.Exec(ctx, `
            INSERT INTO employments (employee_id, employer, title, start_date, end_date)
            VALUES ($1, $2, $3, $4, $5)
        `, employeeID, emp.Employer, emp.Title, emp.StartDate, emp.EndDate); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, lic := range c.StateLicenses {
		if _, err := exec.Exec(ctx, `
            INSERT INTO state_licenses (employee_id, state, license_number, expiration_date, status)
            VALUES ($1, $2, $3, $4, 'active')
        `, employeeID, lic.State, lic.LicenseNumber, lic.ExpirationDate); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, lic := range c.DEALicenses {
		if _, err := exec.Exec(ctx, `
            INSERT INTO dea_licenses (employee_id, number, expiration_date, status)
            VALUES ($1, $2, $3, 'active')
        `, employeeID, lic.Number, lic.ExpirationDate); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, cert := range c.BoardCertifications {
		if _, err := exec.Exec(ctx, `
            INSERT INTO board_certifications (employee_id, board, certification_number, expiration_date, status)
            VALUES ($1, $2, $3, $4, 'active')
        `, employeeID, cert.Board, cert.CertificationNumber, cert.ExpirationDate); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, ref := range c.PeerReferences {
		if _, err := exec.Exec(ctx, `
            INSERT INTO peer_references (employee_id, name, email, phone)
            VALUES ($1, $2, $3, $4)
        `, employeeID, ref.Name, ref.Email, ref.Phone); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, contact := range c.EmergencyContacts {
		if _, err := exec.Exec(ctx, `
            INSERT INTO emergency_contacts (employee_id, name, relationship, phone)
            VALUES ($1, $2, $3, $4)
        `, employeeID, contact.Name, contact.Relationship, contact.Phone); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, form := range c.TaxForms {
		if _, err := exec.Exec(ctx, `
            INSERT INTO tax_forms (employee_id, form_type, completed, completed_at)
            VALUES ($1, $2, $3, $4)
        `, employeeID, form.FormType, form.Completed, form.CompletedAt); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, training := range c.Trainings {
		if _, err := exec.Exec(ctx, `
            INSERT INTO trainings (employee_id, name, completed_at, expires_at)
            VALUES ($1, $2, $3, $4)
        `, employeeID, training.Name, training.CompletedAt, training.ExpiresAt); err != nil {
			return translateEmployeePgError(err)
		}
	}

	for _, enrollment := range c.PayerEnrollments {
		if _, err := exec.Exec(ctx, `
            INSERT INTO payer_enrollments (employee_id, payer, status, enrolled_at)
            VALUES ($1, $2, $3, $4)
        `, employeeID, enrollment.Payer, enrollment.Status, enrollment.EnrolledAt); err != nil {
			return translateEmployeePgError(err)
		}
	}

	return nil
}

// FindCollections は所有コレクション全体を取得します。
func (r *EmployeeRepository) FindCollections(ctx context.Context, employeeID string) (*employee.Collections, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	c := &employee.Collections{}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, institution, degree, field_of_study, graduation_year
          FROM educations WHERE employee_id = $1 ORDER BY graduation_year
    `, employeeID, func(rows pgx.Rows) error {
		var e employee.Education
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Institution, &e.Degree, &e.FieldOfStudy, &e.GraduationYear); err != nil {
			return err
		}
		c.Educations = append(c.Educations, e)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, employer, title, start_date, end_date
          FROM employments WHERE employee_id = $1 ORDER BY start_date
    `, employeeID, func(rows pgx.Rows) error {
		var e employee.Employment
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.Employer, &e.Title, &e.StartDate, &e.EndDate); err != nil {
			return err
		}
		c.Employments = append(c.Employments, e)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, state, license_number, expiration_date, status
          FROM state_licenses WHERE employee_id = $1 ORDER BY expiration_date
    `, employeeID, func(rows pgx.Rows) error {
		var l employee.StateLicense
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.State, &l.LicenseNumber, &l.ExpirationDate, &l.Status); err != nil {
			return err
		}
		c.StateLicenses = append(c.StateLicenses, l)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, number, expiration_date, status
          FROM dea_licenses WHERE employee_id = $1 ORDER BY expiration_date
    `, employeeID, func(rows pgx.Rows) error {
		var l employee.DEALicense
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.Number, &l.ExpirationDate, &l.Status); err != nil {
			return err
		}
		c.DEALicenses = append(c.DEALicenses, l)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, board, certification_number, expiration_date, status
          FROM board_certifications WHERE employee_id = $1 ORDER BY expiration_date
    `, employeeID, func(rows pgx.Rows) error {
		var b employee.BoardCertification
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.Board, &b.CertificationNumber, &b.ExpirationDate, &b.Status); err != nil {
			return err
		}
		c.BoardCertifications = append(c.BoardCertifications, b)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, name, email, phone
          FROM peer_references WHERE employee_id = $1 ORDER BY name
    `, employeeID, func(rows pgx.Rows) error {
		var p employee.PeerReference
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Name, &p.Email, &p.Phone); err != nil {
			return err
		}
		c.PeerReferences = append(c.PeerReferences, p)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, name, relationship, phone
          FROM emergency_contacts WHERE employee_id = $1 ORDER BY name
    `, employeeID, func(rows pgx.Rows) error {
		var ec employee.EmergencyContact
		if err := rows.Scan(&ec.ID, &ec.EmployeeID, &ec.Name, &ec.Relationship, &ec.Phone); err != nil {
			return err
		}
		c.EmergencyContacts = append(c.EmergencyContacts, ec)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, form_type, completed, completed_at
          FROM tax_forms WHERE employee_id = $1 ORDER BY form_type
    `, employeeID, func(rows pgx.Rows) error {
		var f employee.TaxForm
		if err := rows.Scan(&f.ID, &f.EmployeeID, &f.FormType, &f.Completed, &f.CompletedAt); err != nil {
			return err
		}
		c.TaxForms = append(c.TaxForms, f)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, name, completed_at, expires_at
          FROM trainings WHERE employee_id = $1 ORDER BY name
    `, employeeID, func(rows pgx.Rows) error {
		var tr employee.Training
		if err := rows.Scan(&tr.ID, &tr.EmployeeID, &tr.Name, &tr.CompletedAt, &tr.ExpiresAt); err != nil {
			return err
		}
		c.Trainings = append(c.Trainings, tr)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryInto(ctx, exec, `
        SELECT id, employee_id, payer, status, enrolled_at
          FROM payer_enrollments WHERE employee_id = $1 ORDER BY payer
    `, employeeID, func(rows pgx.Rows) error {
		var p employee.PayerEnrollment
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Payer, &p.Status, &p.EnrolledAt); err != nil {
			return err
		}
		c.PayerEnrollments = append(c.PayerEnrollments, p)
		return nil
	}); err != nil {
		return nil, err
	}

	return c, nil
}

// CountExpiredLicenses は基準時刻に対して期限切れの免許・認定数を返します。
func (r *EmployeeRepository) CountExpiredLicenses(ctx context.Context, employeeID string, now time.Time) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var count int
	err := exec.QueryRow(ctx, `
        SELECT (SELECT COUNT(*) FROM state_licenses WHERE employee_id = $1 AND expiration_date < $2)
             + (SELECT COUNT(*) FROM dea_licenses WHERE employee_id = $1 AND expiration_date < $2)
             + (SELECT COUNT(*) FROM board_certifications WHERE employee_id = $1 AND expiration_date < $2)
    `, employeeID, now).Scan(&count)
	if err != nil {
		return 0, translateEmployeePgError(err)
	}
	return count, nil
}

func queryInto(ctx context.Context, exec pgdb.Queryer, query, employeeID string, scan func(pgx.Rows) error) error {
	rows, err := exec.Query(ctx, query, employeeID)
	if err != nil {
		return translateEmployeePgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return translateEmployeePgError(err)
		}
	}
	return translateEmployeePgError(rows.Err())
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e           employee.Employee
		dateOfBirth sql.NullTime
		npi         sql.NullString
		hireDate    sql.NullTime
		status      string
	)

	if err := row.Scan(
		&e.ID,
		&e.FirstName,
		&e.LastName,
		&dateOfBirth,
		&e.SSN,
		&e.Email,
		&e.Phone,
		&e.Address,
		&e.WorkEmail,
		&npi,
		&e.Position,
		&hireDate,
		&status,
		&e.BackgroundCheckCompleted,
		&e.ApprovedBy,
		&e.ApprovedAt,
		&e.ApprovalComments,
		&e.RejectedBy,
		&e.RejectedAt,
		&e.RejectionReason,
		&e.InfoRequestedAt,
		&e.InfoRequestedItems,
		&e.InfoDueDate,
		&e.InfoMessage,
		&e.AccountID,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.Status = employee.Status(status)
	if dateOfBirth.Valid {
		t := dateOfBirth.Time.UTC()
		e.DateOfBirth = &t
	}
	if npi.Valid {
		e.NPI = &npi.String
	}
	if hireDate.Valid {
		t := hireDate.Time.UTC()
		e.HireDate = &t
	}

	return &e, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			switch {
			case strings.Contains(pgErr.ConstraintName, "work_email"):
				return employee.ErrWorkEmailAlreadyExists
			case strings.Contains(pgErr.ConstraintName, "npi"):
				return employee.ErrNPIAlreadyExists
			case strings.Contains(pgErr.ConstraintName, "license"):
				return employee.ErrLicenseAlreadyExists
			default:
				return err
			}
		case foreignKeyViolationCode:
			return employee.ErrEmployeeNotFound
		}
	}

	return err
}
