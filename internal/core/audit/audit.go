package audit

import (
	"context"
	"time"
)

// Action は監査対象の操作種別を表します。
type Action string

const (
	ActionCreate      Action = "CREATE"
	ActionSubmit      Action = "SUBMIT"
	ActionApprove     Action = "APPROVE"
	ActionReject      Action = "REJECT"
	ActionRequestInfo Action = "REQUEST_INFO"
	ActionUpdate      Action = "UPDATE"
	ActionDelete      Action = "DELETE"
	ActionUpload      Action = "UPLOAD"
)

// Entry は 1 件の状態遷移・操作の監査記録です。
type Entry struct {
	ID          string         `json:"id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Action      Action         `json:"action"`
	PerformedBy string         `json:"performed_by"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Repository は監査記録永続化の抽象です。状態遷移と同一トランザクション内で書き込まれます。
type Repository interface {
	Record(ctx context.Context, entry *Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*Entry, error)
}
