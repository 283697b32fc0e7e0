package invitation

import "time"

// Status は招待の状態を表します。
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Invitation はオンボーディング招待エンティティです。Token は単回使用の不透明文字列です。
type Invitation struct {
	ID         string
	Email      string
	Name       string
	Token      string
	Status     Status
	ExpiresAt  time.Time
	InvitedBy  string
	AcceptedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Expired は基準時刻に対して招待が期限切れかどうかを返します。
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// View は API へ返却する非機密フィールドのみの表現です。トークン自体は含めません。
type View struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	ExpiresAt time.Time  `json:"expires_at"`
	InvitedBy string     `json:"invited_by"`
	CreatedAt time.Time  `json:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// ToView は非機密表現へ変換します。
func (i *Invitation) ToView() *View {
	if i == nil {
		return nil
	}
	return &View{
		ID:         i.ID,
		Email:      i.Email,
		Name:       i.Name,
		Status:     i.Status,
		ExpiresAt:  i.ExpiresAt,
		InvitedBy:  i.InvitedBy,
		CreatedAt:  i.CreatedAt,
		AcceptedAt: i.AcceptedAt,
	}
}
