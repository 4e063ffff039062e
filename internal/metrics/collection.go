package metrics

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/codyseavey/versewise/internal/logging"
	"github.com/codyseavey/versewise/internal/models"
)

// UpdateCacheMetrics queries the durable cache and updates the cache-size gauges.
// Call this after cache clears or periodically.
func UpdateCacheMetrics(db *gorm.DB) {
	if db == nil {
		return
	}

	var total int64
	if err := db.Model(&models.TranslationCache{}).Count(&total).Error; err != nil {
		logging.L().Warn("metrics: failed to count cached translations", zap.Error(err))
		return
	}
	TranslationCacheEntries.WithLabelValues("database").Set(float64(total))

	// Per-language breakdown
	type langCount struct {
		TargetLang string
		Entries    int64
	}
	var counts []langCount
	if err := db.Model(&models.TranslationCache{}).
		Select("target_lang, COUNT(*) as entries").
		Group("target_lang").
		Scan(&counts).Error; err != nil {
		logging.L().Warn("metrics: failed to count cached translations by language", zap.Error(err))
		return
	}
	for _, lc := range counts {
		TranslationCacheEntries.WithLabelValues("database_" + lc.TargetLang).Set(float64(lc.Entries))
	}
}
