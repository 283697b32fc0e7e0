package compliance

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は資格の失効監視・集計・スイープを提供します。
type Service struct {
	licenses Repository
	notifier audit.Notifier
	clock    Clock
	tx       TransactionManager
}

// UseCase はコンプライアンスユースケースの公開インターフェースです。
type UseCase interface {
	ExpiringReport(ctx context.Context) (*Report, error)
	EmployeeReport(ctx context.Context, employeeID string) (*Report, error)
	Overview(ctx context.Context) (*Dashboard, error)
	Alerts(ctx context.Context) ([]Alert, error)
	Sweep(ctx context.Context) (*SweepResult, error)
}

// NewService は Service を生成します。
func NewService(licenses Repository, notifier audit.Notifier, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if notifier == nil {
		notifier = audit.NopNotifier{}
	}
	return &Service{licenses: licenses, notifier: notifier, clock: clock, tx: tx}
}

// ExpiringReport は全社員の資格を期限区分ごとに仕分けて返します。
func (s *Service) ExpiringReport(ctx context.Context) (*Report, error) {
	var report *Report
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		records, err := s.licenses.ListLicenses(txCtx)
		if err != nil {
			return err
		}
		report = buildReport(records, s.clock.Now())
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// EmployeeReport は 1 社員分の資格を期限区分ごとに仕分けて返します。
func (s *Service) EmployeeReport(ctx context.Context, employeeID string) (*Report, error) {
	var report *Report
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		records, err := s.licenses.ListLicensesByEmployee(txCtx, employeeID)
		if err != nil {
			return err
		}
		report = buildReport(records, s.clock.Now())
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// Overview は集計ダッシュボードを返します。スコアは有効資格の割合を四捨五入した
// 0〜100 の整数で、資格が 1 件も無い場合は 0 になります。
func (s *Service) Overview(ctx context.Context) (*Dashboard, error) {
	var dashboard *Dashboard
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		records, err := s.licenses.ListLicenses(txCtx)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		d := &Dashboard{TotalLicenses: len(records)}
		for _, r := range records {
			switch Classify(r.ExpirationDate, now) {
			case BucketExpired:
				d.Expired++
			case BucketWithin30:
				d.Within30++
				d.ActiveLicenses++
			case BucketWithin60:
				d.Within60++
				d.ActiveLicenses++
			case BucketWithin90:
				d.Within90++
				d.ActiveLicenses++
			default:
				d.ActiveLicenses++
			}
		}

		total := d.TotalLicenses
		if total < 1 {
			total = 1
		}
		d.Score = int(math.Round(float64(d.ActiveLicenses) / float64(total) * 100))

		dashboard = d
		return nil
	}); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// Alerts は 90 日以内に失効する、または既に失効した資格の警告一覧を返します。
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		records, err := s.licenses.ListLicenses(txCtx)
		if err != nil {
			return err
		}
		alerts = buildAlerts(records, s.clock.Now())
		return nil
	}); err != nil {
		return nil, err
	}
	return alerts, nil
}

// SweepResult はスイープ 1 回分の集計です。
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Updated  int `json:"updated"`
	Notified int `json:"notified"`
}

// Sweep は全資格の導出状態を書き戻し、重大度 high の資格について通知を発行します。
// 定期実行されるため個別の書き込み失敗ではスイープ全体を止めず、ログに残して続行します。
func (s *Service) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()
	result := &SweepResult{}

	var highAlerts []Alert
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		records, err := s.licenses.ListLicenses(txCtx)
		if err != nil {
			return err
		}
		result.Scanned = len(records)

		for _, r := range records {
			status := cachedStatusFor(Classify(r.ExpirationDate, now))
			if r.Status == status {
				continue
			}
			if err := s.licenses.UpdateCachedStatus(txCtx, r.Kind, r.ID, status, now); err != nil {
				log.Printf("compliance: update status %s/%s failed: %v", r.Kind, r.ID, err)
				continue
			}
			result.Updated++
		}

		for _, a := range buildAlerts(records, now) {
			if a.Severity == SeverityHigh {
				highAlerts = append(highAlerts, a)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, a := range highAlerts {
		if err := s.notifier.Publish(ctx, audit.NotifyLicenseExpiring, map[string]any{
			"employee_id":     a.EmployeeID,
			"kind":            string(a.Kind),
			"identifier":      a.Identifier,
			"expiration_date": a.ExpirationDate.Format("2006-01-02"),
			"days_until":      a.DaysUntil,
		}); err != nil {
			log.Printf("compliance: notify %s failed: %v", a.Identifier, err)
			continue
		}
		result.Notified++
	}

	return result, nil
}

func buildReport(records []LicenseRecord, now time.Time) *Report {
	report := &Report{}
	for _, r := range records {
		switch Classify(r.ExpirationDate, now) {
		case BucketExpired:
			report.Expired = append(report.Expired, r)
		case BucketWithin30:
			report.Within30 = append(report.Within30, r)
		case BucketWithin60:
			report.Within60 = append(report.Within60, r)
		case BucketWithin90:
			report.Within90 = append(report.Within90, r)
		}
	}
	return report
}

func buildAlerts(records []LicenseRecord, now time.Time) []Alert {
	var alerts []Alert
	for _, r := range records {
		bucket := Classify(r.ExpirationDate, now)
		if bucket == BucketOK {
			continue
		}

		days := DaysUntil(r.ExpirationDate, now)
		message := fmt.Sprintf("%s %s expires in %d day(s)", r.Kind, r.Identifier, days)
		if days < 0 {
			message = fmt.Sprintf("%s %s expired %d day(s) ago", r.Kind, r.Identifier, -days)
		}

		alerts = append(alerts, Alert{
			Severity:       SeverityFor(days),
			Kind:           r.Kind,
			EmployeeID:     r.EmployeeID,
			EmployeeName:   r.EmployeeName,
			Identifier:     r.Identifier,
			ExpirationDate: r.ExpirationDate,
			DaysUntil:      days,
			Message:        message,
		})
	}
	return alerts
}

// cachedStatusFor は区分をキャッシュ列に保存する状態文字列へ変換します。
func cachedStatusFor(bucket Bucket) string {
	switch bucket {
	case BucketExpired:
		return "expired"
	case BucketWithin30, BucketWithin60, BucketWithin90:
		return "expiring"
	default:
		return "active"
	}
}
