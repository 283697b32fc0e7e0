package audit

import "context"

// NotificationKind は外部通知の種別を表します。
type NotificationKind string

const (
	NotifyInvitationCreated NotificationKind = "invitation_created"
	NotifySubmitted         NotificationKind = "onboarding_submitted"
	NotifyApproved          NotificationKind = "employee_approved"
	NotifyRejected          NotificationKind = "employee_rejected"
	NotifyInfoRequested     NotificationKind = "information_requested"
	NotifyLicenseExpiring   NotificationKind = "license_expiring"
)

// Notifier は外部通知シンクの抽象です。配信はベストエフォートであり、
// 呼び出し側はコミット済みの状態遷移を通知失敗でロールバックしてはなりません。
type Notifier interface {
	Publish(ctx context.Context, kind NotificationKind, payload map[string]any) error
}

// NopNotifier は通知を破棄する Notifier 実装です。
type NopNotifier struct{}

// Publish は常に成功します。
func (NopNotifier) Publish(context.Context, NotificationKind, map[string]any) error {
	return nil
}
