package services

import (
	"context"
	"testing"
	"time"

	"github.com/codyseavey/versewise/internal/models"
)

func TestCacheMaintenanceWorker_RunOnce(t *testing.T) {
	f := newHybridFixture(t, newFakeProvider("fake", "Jesus wept", 0.6))
	ctx := context.Background()

	f.svc.Translate(ctx, "Jesus chorou", models.LanguageEnglish)
	f.svc.Translate(ctx, "Jesus chorou", models.LanguageSpanish)
	f.clock.Advance(2 * time.Hour)

	worker := NewCacheMaintenanceWorker(f.svc, nil, time.Minute)
	if purged := worker.RunOnce(); purged != 2 {
		t.Errorf("Expected 2 purged entries, got %d", purged)
	}
	if purged := worker.RunOnce(); purged != 0 {
		t.Errorf("Expected nothing left to purge, got %d", purged)
	}

	status := worker.GetStatus()
	if status.Runs != 2 || status.PurgedTotal != 2 || status.LastRunPurged != 0 {
		t.Errorf("Unexpected status: %+v", status)
	}
	if !status.NextRunTime.Equal(status.LastRunTime.Add(time.Minute)) {
		t.Errorf("Next run should be one interval after the last, got %+v", status)
	}
}

func TestCacheMaintenanceWorker_StartStopsWithContext(t *testing.T) {
	f := newHybridFixture(t)
	worker := NewCacheMaintenanceWorker(f.svc, f.durable.db, 0)
	if worker.GetStatus().Interval != DefaultCacheMaintenanceInterval.String() {
		t.Errorf("Expected default interval, got %s", worker.GetStatus().Interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for worker.GetStatus().Runs == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
