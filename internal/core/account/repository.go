package account

import "context"

// Repository はアカウント永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// SetRoleAndActivation はロールと有効フラグを同時に更新します。承認・却下遷移と
	// 同一トランザクション内で呼び出されます。
	SetRoleAndActivation(ctx context.Context, id string, role Role, active bool) (*Account, error)
}
