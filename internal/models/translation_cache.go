package models

import "time"

// TranslationCache is the durable tier of the translation cache.
// One row per (source_text, source_lang, target_lang). Rows are only written
// for translations at or above the durable quality threshold and are never
// evicted automatically.
type TranslationCache struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SourceText         string    `gorm:"not null;uniqueIndex:idx_translation_key" json:"source_text"`
	SourceLang         string    `gorm:"not null;size:10;uniqueIndex:idx_translation_key" json:"source_lang"`
	TargetLang         string    `gorm:"not null;size:10;uniqueIndex:idx_translation_key" json:"target_lang"`
	TranslatedText     string    `gorm:"not null" json:"translated_text"`
	TranslationService string    `gorm:"default:'unknown';size:30;index" json:"translation_service"` // "google_api", "gemini", "openai", "libretranslate"
	QualityScore       float64   `gorm:"not null;default:0;index" json:"quality_score"`
	HitCount           int       `gorm:"default:0" json:"hit_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"` // refreshed on every durable hit
}

func (TranslationCache) TableName() string {
	return "translation_caches"
}

// CacheKey identifies a translation regardless of tier.
type CacheKey struct {
	SourceLang string
	TargetLang string
	SourceText string
}

// CacheEntry is a translation held by either cache tier.
type CacheEntry struct {
	Key            CacheKey  `json:"-"`
	TranslatedText string    `json:"translated_text"`
	Provider       string    `json:"provider"`
	QualityScore   float64   `json:"quality_score"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToRow converts an entry to its durable representation.
func (e CacheEntry) ToRow() TranslationCache {
	return TranslationCache{
		SourceText:         e.Key.SourceText,
		SourceLang:         e.Key.SourceLang,
		TargetLang:         e.Key.TargetLang,
		TranslatedText:     e.TranslatedText,
		TranslationService: e.Provider,
		QualityScore:       e.QualityScore,
		UpdatedAt:          e.Timestamp,
	}
}

// Entry converts a durable row back into a cache entry.
func (c *TranslationCache) Entry() CacheEntry {
	return CacheEntry{
		Key: CacheKey{
			SourceLang: c.SourceLang,
			TargetLang: c.TargetLang,
			SourceText: c.SourceText,
		},
		TranslatedText: c.TranslatedText,
		Provider:       c.TranslationService,
		QualityScore:   c.QualityScore,
		Timestamp:      c.UpdatedAt,
	}
}
