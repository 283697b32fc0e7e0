package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
)

// Notifier は RabbitMQ へ通知イベントを発行する audit.Notifier 実装です。
// 配信はベストエフォートで、失敗は呼び出し側がログに記録します。
type Notifier struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

// event はキューに載る通知メッセージです。
type event struct {
	Kind       audit.NotificationKind `json:"kind"`
	Payload    map[string]any         `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewNotifier は RabbitMQ へ接続し、耐久キューを宣言して Notifier を生成します。
func NewNotifier(url, queue string) (*Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}

	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}

	if _, err := chn.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: declare queue %s: %w", queue, err)
	}

	return &Notifier{conn: conn, chn: chn, queue: queue}, nil
}

// Publish は通知イベントを JSON で永続化配信します。
func (n *Notifier) Publish(ctx context.Context, kind audit.NotificationKind, payload map[string]any) error {
	body, err := json.Marshal(event{
		Kind:       kind,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("amqp: encode event: %w", err)
	}

	if err := n.chn.PublishWithContext(
		ctx,
		"",      // exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("amqp: publish %s: %w", kind, err)
	}
	return nil
}

// Close は接続を閉じます。
func (n *Notifier) Close() error {
	if err := n.chn.Close(); err != nil {
		return err
	}
	return n.conn.Close()
}
