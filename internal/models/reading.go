package models

import (
	"fmt"
	"time"
)

// ReadingEntry is one completed reading session.
// SourceWords[i] lines up with TranslatedWords[lang][i] for every language present.
type ReadingEntry struct {
	Book            string              `json:"book" binding:"required"`
	Chapter         int                 `json:"chapter" binding:"required,min=1"`
	Verses          []int               `json:"verses"`
	Timestamp       time.Time           `json:"timestamp"`
	AudioLanguage   string              `json:"audioLanguage,omitempty"`
	SourceWords     []string            `json:"sourceWords"`
	TranslatedWords map[string][]string `json:"translatedWords"`
}

// Reference returns the "{book} {chapter}" label used as exercise context
func (e *ReadingEntry) Reference() string {
	return fmt.Sprintf("%s %d", e.Book, e.Chapter)
}

// ReadingStats aggregates the reading history.
type ReadingStats struct {
	DistinctChapters int           `json:"distinctChapters"`
	TotalVerses      int           `json:"totalVerses"`
	TotalEntries     int           `json:"totalEntries"`
	LanguagesSeen    []string      `json:"languagesSeen"`
	MostRecentEntry  *ReadingEntry `json:"mostRecentEntry"`
}

// VocabularyExercise is a multiple-choice question built from reading history.
// Options always holds 4 unique values, one of which is CorrectAnswer.
type VocabularyExercise struct {
	ID               string   `json:"id"`
	ForeignWord      string   `json:"foreignWord"`
	NativeWord       string   `json:"nativeWord"`
	Options          []string `json:"options"`
	CorrectAnswer    string   `json:"correctAnswer"`
	ContextReference string   `json:"contextReference"`
}
