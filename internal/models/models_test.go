package models

import (
	"testing"
	"time"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected Language
		ok       bool
	}{
		{"en", LanguageEnglish, true},
		{" ES ", LanguageSpanish, true},
		{"It", LanguageItalian, true},
		{"fr", LanguageFrench, true},
		{"pt", "", false},
		{"", "", false},
		{"english", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLanguage(tt.input)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("ParseLanguage(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestLanguageName(t *testing.T) {
	for _, l := range AllLanguages() {
		if l.Name() == string(l) {
			t.Errorf("missing display name for %q", l)
		}
	}
	if Language("de").Name() != "de" {
		t.Error("unknown languages should fall back to their code")
	}
}

func TestReadingEntryReference(t *testing.T) {
	e := ReadingEntry{Book: "1 Coríntios", Chapter: 13}
	if got := e.Reference(); got != "1 Coríntios 13" {
		t.Errorf("Reference() = %q", got)
	}
}

func TestCacheEntryRowRoundTrip(t *testing.T) {
	ts := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	entry := CacheEntry{
		Key:            CacheKey{SourceLang: "pt", TargetLang: "it", SourceText: "Paz"},
		TranslatedText: "Pace",
		Provider:       "gemini",
		QualityScore:   0.88,
		Timestamp:      ts,
	}

	row := entry.ToRow()
	if row.TranslationService != "gemini" || row.TargetLang != "it" || !row.UpdatedAt.Equal(ts) {
		t.Errorf("unexpected row: %+v", row)
	}

	back := row.Entry()
	if back.Key != entry.Key || back.TranslatedText != "Pace" || back.QualityScore != 0.88 {
		t.Errorf("unexpected entry: %+v", back)
	}
}
