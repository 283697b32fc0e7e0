package document

import "context"

// Repository はドキュメントメタデータ永続化の抽象です。実ファイルは BlobStore が保持します。
type Repository interface {
	Create(ctx context.Context, d *Document) (*Document, error)
	FindByID(ctx context.Context, id string) (*Document, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error)
	// DistinctUnarchivedTypes は未アーカイブのドキュメント種別の集合を返します。
	DistinctUnarchivedTypes(ctx context.Context, employeeID string) ([]Type, error)
	ArchiveByEmployee(ctx context.Context, employeeID string) error
	Delete(ctx context.Context, id string) error
}

// BlobStore はコンテンツアドレス型ブロブストアの抽象です。
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
