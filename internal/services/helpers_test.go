package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/versewise/internal/database"
)

var errUpstream = errors.New("upstream unavailable")

// fakeProvider is a scripted TranslationProvider.
type fakeProvider struct {
	name     string
	disabled bool
	fn       func(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error)

	mu    sync.Mutex
	calls int
}

func newFakeProvider(name, translation string, quality float64) *fakeProvider {
	return &fakeProvider{
		name: name,
		fn: func(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
			return &ProviderResult{TranslatedText: translation, QualityScore: quality}, nil
		},
	}
}

func newFailingProvider(name string) *fakeProvider {
	return &fakeProvider{
		name: name,
		fn: func(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
			return nil, errUpstream
		},
	}
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) IsEnabled() bool { return !p.disabled }

func (p *fakeProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.fn(ctx, text, sourceLang, targetLang)
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sleepRecorder records requested waits without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) Waits() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type hybridFixture struct {
	svc     *HybridTranslationService
	memory  *MemoryTranslationCache
	durable *TranslationCacheService
	clock   *fakeClock
	sleeper *sleepRecorder
}

func newHybridFixture(t *testing.T, providers ...TranslationProvider) *hybridFixture {
	t.Helper()
	clock := newFakeClock()
	memory := NewMemoryTranslationCache(clock, time.Hour, 100)
	durable := NewTranslationCacheService(openTestDB(t))
	chain := NewProviderChain(providers, BreakerSettings{})

	svc := NewHybridTranslationService(memory, durable, chain, DefaultTranslationPolicy())
	sleeper := &sleepRecorder{}
	svc.SetSleeper(sleeper.Sleep)

	return &hybridFixture{svc: svc, memory: memory, durable: durable, clock: clock, sleeper: sleeper}
}

func (f *hybridFixture) durableEntries(t *testing.T) int64 {
	t.Helper()
	stats, err := f.durable.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	return stats.TotalEntries
}
