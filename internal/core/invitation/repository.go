package invitation

import (
	"context"
	"time"
)

// Repository は招待永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, inv *Invitation) (*Invitation, error)
	Update(ctx context.Context, inv *Invitation) (*Invitation, error)
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	// FindActiveByEmail は pending かつ未期限切れの招待を返します。
	FindActiveByEmail(ctx context.Context, email string, now time.Time) (*Invitation, error)
	// Accept はトークンを単回使用として消費します。pending かつ未期限切れの行のみを
	// 条件付き更新で accepted に遷移させ、競合した場合は更新件数 0 として扱います。
	Accept(ctx context.Context, token string, now time.Time) (*Invitation, error)
	List(ctx context.Context, filter ListFilter) ([]*Invitation, error)
}

// ListFilter は一覧取得用フィルタです。
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}
