package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/versewise/internal/metrics"
)

// DefaultCacheMaintenanceInterval is how often expired transient entries are purged
const DefaultCacheMaintenanceInterval = 5 * time.Minute

// CacheMaintenanceWorker purges expired transient entries and refreshes the
// cache-size gauges on a fixed interval.
type CacheMaintenanceWorker struct {
	translator *HybridTranslationService
	db         *gorm.DB // nil when the durable tier is not sqlite
	interval   time.Duration
	mu         sync.RWMutex

	// Stats
	runs          int
	purgedTotal   int
	lastRunTime   time.Time
	lastRunPurged int
}

// CacheMaintenanceStatus is reported by the admin cache endpoint
type CacheMaintenanceStatus struct {
	LastRunTime   time.Time `json:"last_run_time"`
	NextRunTime   time.Time `json:"next_run_time"`
	Runs          int       `json:"runs"`
	LastRunPurged int       `json:"last_run_purged"`
	PurgedTotal   int       `json:"purged_total"`
	Interval      string    `json:"interval"`
}

func NewCacheMaintenanceWorker(translator *HybridTranslationService, db *gorm.DB, interval time.Duration) *CacheMaintenanceWorker {
	if interval <= 0 {
		interval = DefaultCacheMaintenanceInterval
	}
	return &CacheMaintenanceWorker{
		translator: translator,
		db:         db,
		interval:   interval,
	}
}

// Start runs maintenance immediately, then on every tick until ctx is done.
func (w *CacheMaintenanceWorker) Start(ctx context.Context) {
	infoLog("Cache maintenance worker started: interval %v", w.interval)

	w.RunOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			infoLog("Cache maintenance worker stopping...")
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce performs a single maintenance pass and returns the number of purged entries.
func (w *CacheMaintenanceWorker) RunOnce() int {
	purged := w.translator.PurgeExpired()
	metrics.UpdateCacheMetrics(w.db)

	w.mu.Lock()
	w.runs++
	w.purgedTotal += purged
	w.lastRunPurged = purged
	w.lastRunTime = time.Now()
	w.mu.Unlock()

	if purged > 0 {
		infoLog("Cache maintenance: purged %d expired translations", purged)
	} else {
		debugLog("Cache maintenance: nothing to purge")
	}
	return purged
}

// GetStatus returns the worker's current status
func (w *CacheMaintenanceWorker) GetStatus() CacheMaintenanceStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := CacheMaintenanceStatus{
		LastRunTime:   w.lastRunTime,
		Runs:          w.runs,
		LastRunPurged: w.lastRunPurged,
		PurgedTotal:   w.purgedTotal,
		Interval:      w.interval.String(),
	}
	if !w.lastRunTime.IsZero() {
		status.NextRunTime = w.lastRunTime.Add(w.interval)
	}
	return status
}
