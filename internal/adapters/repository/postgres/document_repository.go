package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/document"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

const documentColumns = `id, employee_id, type, file_name, file_size, content_type,
               storage_type, storage_key, description, archived, uploaded_by, created_at, updated_at`

// DocumentRepository は PostgreSQL を利用したドキュメントメタデータ永続化の実装です。
type DocumentRepository struct {
	pool pgdb.Queryer
}

// NewDocumentRepository は DocumentRepository を生成します。
func NewDocumentRepository(pool pgdb.Queryer) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create はドキュメントメタデータを新規作成します。
func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) (*document.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO documents (employee_id, type, file_name, file_size, content_type,
                               storage_type, storage_key, description, archived, uploaded_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING `+documentColumns+`
    `,
		d.EmployeeID,
		string(d.Type),
		d.FileName,
		d.FileSize,
		d.ContentType,
		string(d.StorageType),
		d.StorageKey,
		d.Description,
		d.Archived,
		d.UploadedBy,
		d.CreatedAt,
		d.UpdatedAt,
	)

	return scanDocument(row)
}

// FindByID は ID でドキュメントを取得します。
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*document.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+documentColumns+`
          FROM documents
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanDocument(row)
}

// ListByEmployee は社員のドキュメント一覧を返します。
func (r *DocumentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*document.Document, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+documentColumns+`
          FROM documents
         WHERE employee_id = $1
         ORDER BY created_at DESC
    `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// DistinctUnarchivedTypes は未アーカイブのドキュメント種別の集合を返します。
func (r *DocumentRepository) DistinctUnarchivedTypes(ctx context.Context, employeeID string) ([]document.Type, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT DISTINCT type
          FROM documents
         WHERE employee_id = $1 AND archived = FALSE
    `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []document.Type
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, document.Type(t))
	}
	return types, rows.Err()
}

// ArchiveByEmployee は社員の全ドキュメントをアーカイブ済みにします。
func (r *DocumentRepository) ArchiveByEmployee(ctx context.Context, employeeID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        UPDATE documents SET archived = TRUE WHERE employee_id = $1
    `, employeeID)
	return err
}

// Delete はドキュメントメタデータを削除します。
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return document.ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*document.Document, error) {
	var (
		d           document.Document
		docType     string
		storageType string
	)

	if err := row.Scan(
		&d.ID,
		&d.EmployeeID,
		&docType,
		&d.FileName,
		&d.FileSize,
		&d.ContentType,
		&storageType,
		&d.StorageKey,
		&d.Description,
		&d.Archived,
		&d.UploadedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrDocumentNotFound
		}
		return nil, err
	}

	d.Type = document.Type(docType)
	d.StorageType = document.StorageType(storageType)
	return &d, nil
}
