package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/compliance"
)

// Scheduler はコンプライアンススイープの定期実行を管理します。
type Scheduler struct {
	cron       *cron.Cron
	compliance compliance.UseCase
}

// New は Scheduler を生成します。
func New(uc compliance.UseCase) *Scheduler {
	return &Scheduler{cron: cron.New(), compliance: uc}
}

// Start はスケジュールを登録して実行を開始します。
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runSweep); err != nil {
		return fmt.Errorf("scheduler: add sweep %q: %w", schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop は実行中のジョブの完了を待って停止します。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runSweep() {
	result, err := s.compliance.Sweep(context.Background())
	if err != nil {
		log.Printf("scheduler: compliance sweep failed: %v", err)
		return
	}
	log.Printf("scheduler: compliance sweep scanned=%d updated=%d notified=%d", result.Scanned, result.Updated, result.Notified)
}
