package scheduler

import (
	"context"
	"testing"
)

func TestStartWithoutJobStaysIdle(t *testing.T) {
	s := New()
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.IsRunning() {
		t.Fatalf("scheduler must stay idle without a job")
	}
	s.Stop()
}

func TestStartRegistersDailyJob(t *testing.T) {
	s := New()
	s.SetDailyJob(func(ctx context.Context) error { return nil })
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("scheduler must have the daily entry registered")
	}
	s.Stop()
}
