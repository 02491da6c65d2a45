package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the bot's periodic maintenance: one daily tick that
// flushes the stores and sends the operator a usage report.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	daily  func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetDailyJob installs the maintenance job. Must be called before Start.
func (s *Scheduler) SetDailyJob(f func(ctx context.Context) error) {
	s.daily = f
}

func (s *Scheduler) Start() error {
	if s.daily == nil {
		log.Println("⚠️ no daily job set, scheduler stays idle")
		return nil
	}

	_, err := s.cron.AddFunc("@every 24h", func() {
		log.Println("🕘 daily maintenance tick")
		if err := s.daily(s.ctx); err != nil {
			log.Printf("❌ daily maintenance failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("📅 scheduler started, maintenance runs every 24h")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("📅 scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
