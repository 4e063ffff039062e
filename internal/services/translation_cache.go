package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/versewise/internal/models"
)

// ErrCacheMiss is returned by durable caches when no acceptable entry exists.
var ErrCacheMiss = errors.New("translation cache miss")

// DurableCache is the cross-session translation tier.
type DurableCache interface {
	// Lookup returns the entry for key if its quality is at least minQuality,
	// refreshing its last-used timestamp. Returns ErrCacheMiss otherwise.
	Lookup(ctx context.Context, key models.CacheKey, minQuality float64) (*models.CacheEntry, error)

	// Upsert stores entry by key, replacing an existing entry of equal or lower quality.
	Upsert(ctx context.Context, entry models.CacheEntry) error

	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int64, error)

	// Stats summarizes the tier.
	Stats(ctx context.Context) (CacheStats, error)
}

// CacheStats summarizes a durable cache.
type CacheStats struct {
	TotalEntries int64            `json:"total_entries"`
	TotalHits    int64            `json:"total_hits"`
	ByProvider   map[string]int64 `json:"by_provider"`
}

// TranslationCacheService is the sqlite-backed durable cache
type TranslationCacheService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTranslationCacheService creates a new translation cache service.
// A nil db gives a cache that always misses.
func NewTranslationCacheService(db *gorm.DB) *TranslationCacheService {
	return &TranslationCacheService{db: db, now: time.Now}
}

// Lookup finds a translation by exact key, filtered by quality.
func (s *TranslationCacheService) Lookup(ctx context.Context, key models.CacheKey, minQuality float64) (*models.CacheEntry, error) {
	if s.db == nil {
		return nil, ErrCacheMiss
	}

	var cached models.TranslationCache
	err := s.db.WithContext(ctx).
		Where("source_text = ? AND source_lang = ? AND target_lang = ? AND quality_score >= ?",
			key.SourceText, key.SourceLang, key.TargetLang, minQuality).
		First(&cached).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	// Refresh last-used and hit count inline
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&models.TranslationCache{}).
		Where("id = ?", cached.ID).
		UpdateColumns(map[string]interface{}{
			"updated_at": now,
			"hit_count":  gorm.Expr("hit_count + 1"),
		}).Error; err != nil {
		warnLog("Failed to refresh cache entry %d: %v", cached.ID, err)
	} else {
		cached.UpdatedAt = now
	}

	entry := cached.Entry()
	return &entry, nil
}

// Upsert stores a translation. An existing row is only overwritten when the
// new quality is at least as good, so concurrent writers converge.
func (s *TranslationCacheService) Upsert(ctx context.Context, entry models.CacheEntry) error {
	if s.db == nil {
		return nil
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	row := entry.ToRow()
	row.CreatedAt = entry.Timestamp

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_text"}, {Name: "source_lang"}, {Name: "target_lang"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"translated_text", "translation_service", "quality_score", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "excluded.quality_score >= translation_caches.quality_score"},
		}},
	}).Create(&row).Error
}

// Clear deletes every cached translation.
func (s *TranslationCacheService) Clear(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.TranslationCache{})
	return result.RowsAffected, result.Error
}

// Stats returns cache statistics
func (s *TranslationCacheService) Stats(ctx context.Context) (CacheStats, error) {
	stats := CacheStats{ByProvider: map[string]int64{}}
	if s.db == nil {
		return stats, nil
	}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.TranslationCache{}).Count(&stats.TotalEntries).Error; err != nil {
		return stats, err
	}

	var hits struct {
		TotalHits int64
	}
	if err := db.Model(&models.TranslationCache{}).
		Select("COALESCE(SUM(hit_count), 0) as total_hits").
		Scan(&hits).Error; err != nil {
		return stats, err
	}
	stats.TotalHits = hits.TotalHits

	var perProvider []struct {
		TranslationService string
		Entries            int64
	}
	if err := db.Model(&models.TranslationCache{}).
		Select("translation_service, COUNT(*) as entries").
		Group("translation_service").
		Scan(&perProvider).Error; err != nil {
		return stats, err
	}
	for _, p := range perProvider {
		stats.ByProvider[p.TranslationService] = p.Entries
	}

	return stats, nil
}

// hashText creates a SHA256 hash of the text for compact keys
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// cacheKeyString flattens a key for map and Redis lookups
func cacheKeyString(key models.CacheKey) string {
	return key.SourceLang + "\x00" + key.TargetLang + "\x00" + key.SourceText
}
