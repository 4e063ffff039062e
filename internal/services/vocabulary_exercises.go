package services

import (
	"context"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codyseavey/versewise/internal/logging"
	"github.com/codyseavey/versewise/internal/metrics"
	"github.com/codyseavey/versewise/internal/models"
)

const (
	// exerciseOptions is the number of choices per question
	exerciseOptions = 4
	// minExerciseWordLen filters out articles and particles
	minExerciseWordLen = 4
)

// RandomSource shuffles slices. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Shuffle(n int, swap func(i, j int))
}

type globalRandom struct{}

func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultRandomSource is the auto-seeded, concurrency-safe package generator.
var DefaultRandomSource RandomSource = globalRandom{}

type wordPair struct {
	foreign   string
	native    string
	reference string
}

// VocabularyExerciseService builds multiple-choice vocabulary questions from
// the words recorded in reading history.
type VocabularyExerciseService struct {
	history *ReadingHistoryService
	rng     RandomSource
	logger  *zap.Logger
}

// NewVocabularyExerciseService creates the generator. A nil rng uses DefaultRandomSource.
func NewVocabularyExerciseService(history *ReadingHistoryService, rng RandomSource) *VocabularyExerciseService {
	if rng == nil {
		rng = DefaultRandomSource
	}
	return &VocabularyExerciseService{
		history: history,
		rng:     rng,
		logger:  logging.L().Named("exercises"),
	}
}

// Generate returns up to count exercises for language. It returns an empty
// slice when history holds fewer than 4 usable word pairs.
//
// With preferAudioLanguage, only sessions listened to in language are used,
// unless that leaves too few pairs.
func (s *VocabularyExerciseService) Generate(ctx context.Context, language models.Language, count int, preferAudioLanguage bool) []models.VocabularyExercise {
	exercises := []models.VocabularyExercise{}
	if count <= 0 {
		return exercises
	}

	entries := s.history.List(ctx)

	var pool []wordPair
	if preferAudioLanguage {
		pool = collectWordPairs(filterByAudioLanguage(entries, language), language)
	}
	if len(pool) < exerciseOptions {
		pool = collectWordPairs(entries, language)
	}

	log := logging.FromContext(ctx, s.logger)
	if len(pool) < exerciseOptions {
		log.Debug("not enough word pairs for exercises",
			zap.String("language", string(language)), zap.Int("pairs", len(pool)))
		return exercises
	}

	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for i, target := range pool {
		if len(exercises) >= count {
			break
		}

		distractors := pickDistractors(pool, i, exerciseOptions-1)
		if len(distractors) < exerciseOptions-1 {
			continue
		}

		options := append([]string{target.native}, distractors...)
		s.rng.Shuffle(len(options), func(a, b int) { options[a], options[b] = options[b], options[a] })

		exercises = append(exercises, models.VocabularyExercise{
			ID:               uuid.NewString(),
			ForeignWord:      target.foreign,
			NativeWord:       target.native,
			Options:          options,
			CorrectAnswer:    target.native,
			ContextReference: target.reference,
		})
	}

	metrics.ExercisesGeneratedTotal.WithLabelValues(string(language)).Add(float64(len(exercises)))
	log.Debug("generated vocabulary exercises",
		zap.String("language", string(language)),
		zap.Int("requested", count),
		zap.Int("generated", len(exercises)),
		zap.Int("pairs", len(pool)))

	return exercises
}

// collectWordPairs zips source and translated words, skipping short words and
// translated words already seen (case-insensitive).
func collectWordPairs(entries []models.ReadingEntry, language models.Language) []wordPair {
	var pairs []wordPair
	seen := make(map[string]struct{})

	for _, entry := range entries {
		translated := entry.TranslatedWords[string(language)]
		n := min(len(entry.SourceWords), len(translated))
		reference := entry.Reference()

		for i := 0; i < n; i++ {
			native := strings.TrimSpace(entry.SourceWords[i])
			foreign := strings.TrimSpace(translated[i])
			if utf8.RuneCountInString(native) < minExerciseWordLen || utf8.RuneCountInString(foreign) < minExerciseWordLen {
				continue
			}

			folded := strings.ToLower(foreign)
			if _, dup := seen[folded]; dup {
				continue
			}
			seen[folded] = struct{}{}

			pairs = append(pairs, wordPair{foreign: foreign, native: native, reference: reference})
		}
	}
	return pairs
}

func filterByAudioLanguage(entries []models.ReadingEntry, language models.Language) []models.ReadingEntry {
	var out []models.ReadingEntry
	for _, e := range entries {
		if strings.EqualFold(e.AudioLanguage, string(language)) {
			out = append(out, e)
		}
	}
	return out
}

// pickDistractors walks the pool after target, wrapping around, and returns up
// to n native words distinct from the target's and from each other.
func pickDistractors(pool []wordPair, target, n int) []string {
	used := map[string]struct{}{strings.ToLower(pool[target].native): {}}
	distractors := make([]string, 0, n)

	for k := 1; k < len(pool) && len(distractors) < n; k++ {
		candidate := pool[(target+k)%len(pool)].native
		folded := strings.ToLower(candidate)
		if _, dup := used[folded]; dup {
			continue
		}
		used[folded] = struct{}{}
		distractors = append(distractors, candidate)
	}
	return distractors
}
