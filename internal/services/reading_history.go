package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codyseavey/versewise/internal/kvstore"
	"github.com/codyseavey/versewise/internal/logging"
	"github.com/codyseavey/versewise/internal/metrics"
	"github.com/codyseavey/versewise/internal/models"
)

const (
	// ReadingHistoryKey is the KV key holding the whole log as one JSON array
	ReadingHistoryKey = "reading_history"
	// DefaultHistoryCap is how many reading sessions are kept
	DefaultHistoryCap = 50
)

// ReadingHistoryService keeps the most recent reading sessions, newest first.
// Storage failures are logged and swallowed: Append never fails and a
// corrupted log reads as empty.
type ReadingHistoryService struct {
	store  kvstore.Store
	limit  int
	now    func() time.Time
	logger *zap.Logger

	// serializes read-modify-write of the stored log
	mu sync.Mutex
}

// NewReadingHistoryService creates the history store. Non-positive limit uses DefaultHistoryCap.
func NewReadingHistoryService(store kvstore.Store, limit int) *ReadingHistoryService {
	if limit <= 0 {
		limit = DefaultHistoryCap
	}
	return &ReadingHistoryService{
		store:  store,
		limit:  limit,
		now:    time.Now,
		logger: logging.L().Named("history"),
	}
}

// Cap returns the maximum number of kept entries
func (s *ReadingHistoryService) Cap() int {
	return s.limit
}

// Append records a completed reading session at the head of the log.
func (s *ReadingHistoryService) Append(ctx context.Context, entry models.ReadingEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load(ctx)
	entries = append([]models.ReadingEntry{entry}, entries...)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	if err := kvstore.SetJSON(s.store, ReadingHistoryKey, entries); err != nil {
		logging.FromContext(ctx, s.logger).Error("failed to persist reading history",
			zap.String("reference", entry.Reference()), zap.Error(err))
		return
	}
	metrics.ReadingHistoryEntries.Set(float64(len(entries)))

	logging.FromContext(ctx, s.logger).Debug("reading session recorded",
		zap.String("reference", entry.Reference()),
		zap.Int("source_words", len(entry.SourceWords)),
		zap.Int("entries", len(entries)))
}

// List returns the log newest first; never nil.
func (s *ReadingHistoryService) List(ctx context.Context) []models.ReadingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Clear removes the whole log.
func (s *ReadingHistoryService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ReadingHistoryKey); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("clear reading history: %w", err)
	}
	metrics.ReadingHistoryEntries.Set(0)
	logging.FromContext(ctx, s.logger).Info("reading history cleared")
	return nil
}

// Stats aggregates the current log.
func (s *ReadingHistoryService) Stats(ctx context.Context) models.ReadingStats {
	return ComputeReadingStats(s.List(ctx))
}

// load must be called with mu held.
func (s *ReadingHistoryService) load(ctx context.Context) []models.ReadingEntry {
	var entries []models.ReadingEntry
	err := kvstore.GetJSON(s.store, ReadingHistoryKey, &entries)
	switch {
	case err == nil:
	case errors.Is(err, kvstore.ErrNotFound):
		entries = nil
	default:
		logging.FromContext(ctx, s.logger).Warn("reading history unreadable, treating as empty", zap.Error(err))
		entries = nil
	}
	if entries == nil {
		entries = []models.ReadingEntry{}
	}
	return entries
}

// ComputeReadingStats aggregates entries, which are expected newest first.
// Languages seen are the translated-word languages plus audio languages, sorted.
func ComputeReadingStats(entries []models.ReadingEntry) models.ReadingStats {
	stats := models.ReadingStats{
		TotalEntries:  len(entries),
		LanguagesSeen: []string{},
	}

	chapters := make(map[string]struct{})
	languages := make(map[string]struct{})
	for _, e := range entries {
		chapters[e.Reference()] = struct{}{}
		stats.TotalVerses += len(e.Verses)
		for lang := range e.TranslatedWords {
			languages[lang] = struct{}{}
		}
		if e.AudioLanguage != "" {
			languages[e.AudioLanguage] = struct{}{}
		}
	}
	stats.DistinctChapters = len(chapters)

	for lang := range languages {
		stats.LanguagesSeen = append(stats.LanguagesSeen, lang)
	}
	sort.Strings(stats.LanguagesSeen)

	if len(entries) > 0 {
		recent := entries[0]
		stats.MostRecentEntry = &recent
	}
	return stats
}
