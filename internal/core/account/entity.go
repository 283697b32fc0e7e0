package account

import "time"

// Role はアカウントの操作ロールを表します。onboarding はオンボーディング中の暫定ロールです。
type Role string

const (
	RoleOnboarding Role = "onboarding"
	RoleEmployee   Role = "employee"
	RoleHR         Role = "hr"
	RoleAdmin      Role = "admin"
)

// Account は社員に紐づくログインアカウントです。
type Account struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidRole はロール値の妥当性を返します。
func IsValidRole(role Role) bool {
	switch role {
	case RoleOnboarding, RoleEmployee, RoleHR, RoleAdmin:
		return true
	default:
		return false
	}
}
