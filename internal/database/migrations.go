package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/codyseavey/versewise/internal/logging"
)

// legacyServiceQuality is the score assigned to rows written before quality
// scores were tracked, keyed by translation_service.
var legacyServiceQuality = map[string]float64{
	"google_api":     0.95,
	"openai":         0.85,
	"gemini":         0.8,
	"libretranslate": 0.6,
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migrateQualityScores(db); err != nil {
		return err
	}
	return nil
}

// migrateQualityScores backfills quality_score for rows that predate it.
// Safe to run repeatedly: only rows with a zero score are touched.
func migrateQualityScores(db *gorm.DB) error {
	log := logging.L()

	for service, quality := range legacyServiceQuality {
		result := db.Exec(`
			UPDATE translation_caches
			SET quality_score = ?
			WHERE translation_service = ? AND (quality_score IS NULL OR quality_score = 0)
		`, quality, service)
		if result.Error != nil {
			log.Warn("failed to backfill quality scores",
				zap.String("service", service), zap.Error(result.Error))
			continue
		}
		if result.RowsAffected > 0 {
			log.Info("backfilled quality scores",
				zap.String("service", service), zap.Int64("rows", result.RowsAffected))
		}
	}

	// Ensure every row names a service
	db.Exec(`UPDATE translation_caches SET translation_service = 'unknown' WHERE translation_service IS NULL OR translation_service = ''`)

	return nil
}
