package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/codyseavey/versewise/internal/metrics"
	"github.com/codyseavey/versewise/internal/models"
)

// Result sources reported to callers
const (
	SourceMemory      = "memory"
	SourceDatabase    = "database"
	SourceProvider    = "provider"
	SourcePassthrough = "passthrough"
)

const (
	// DefaultSourceLanguage is the language verse text is stored in
	DefaultSourceLanguage = "pt"
	// DefaultDurableQualityThreshold is the minimum quality persisted across sessions
	DefaultDurableQualityThreshold = 0.7
	// DefaultTransientQualityThreshold is the minimum quality kept in memory
	DefaultTransientQualityThreshold = 0.5
	// DefaultBatchSize is how many texts a batch translates concurrently
	DefaultBatchSize = 5
	// DefaultBatchDelay spaces batch chunks to respect upstream rate limits
	DefaultBatchDelay = 200 * time.Millisecond
)

// TranslationPolicy holds the tunable caching and retry parameters.
type TranslationPolicy struct {
	SourceLanguage            string
	DurableQualityThreshold   float64
	TransientQualityThreshold float64
	Retry                     RetryPolicy
	BatchSize                 int
	BatchDelay                time.Duration
}

// DefaultTranslationPolicy returns the policy used when nothing is configured.
func DefaultTranslationPolicy() TranslationPolicy {
	return TranslationPolicy{
		SourceLanguage:            DefaultSourceLanguage,
		DurableQualityThreshold:   DefaultDurableQualityThreshold,
		TransientQualityThreshold: DefaultTransientQualityThreshold,
		Retry:                     DefaultRetryPolicy(),
		BatchSize:                 DefaultBatchSize,
		BatchDelay:                DefaultBatchDelay,
	}
}

// TranslationResult contains the translation with metadata
type TranslationResult struct {
	OriginalText   string  `json:"original"`
	TranslatedText string  `json:"translated"`
	Source         string  `json:"source"` // "memory", "database", "provider", "passthrough"
	Provider       string  `json:"provider,omitempty"`
	Quality        float64 `json:"quality"`
	Cached         bool    `json:"cached"`
}

// HybridTranslationService orchestrates the transient cache, the durable
// cache and the provider chain. It never returns an error: when everything
// fails the original text comes back unchanged.
type HybridTranslationService struct {
	memory  *MemoryTranslationCache
	durable DurableCache
	chain   *ProviderChain
	policy  TranslationPolicy
	sleep   Sleeper
}

// NewHybridTranslationService creates the orchestrator. A nil durable cache
// disables the durable tier.
func NewHybridTranslationService(
	memory *MemoryTranslationCache,
	durable DurableCache,
	chain *ProviderChain,
	policy TranslationPolicy,
) *HybridTranslationService {
	if memory == nil {
		memory = NewMemoryTranslationCache(SystemClock, DefaultMemoryCacheTTL, DefaultMemoryCacheCapacity)
	}
	if chain == nil {
		chain = NewProviderChain(nil, BreakerSettings{})
	}
	if policy.BatchSize <= 0 {
		policy.BatchSize = DefaultBatchSize
	}

	svc := &HybridTranslationService{
		memory:  memory,
		durable: durable,
		chain:   chain,
		policy:  policy,
		sleep:   ContextSleep,
	}

	infoLog("Hybrid translation service initialized: source=%s, durable>=%.2f, transient>=%.2f, retries=%d, providers=%v",
		policy.SourceLanguage, policy.DurableQualityThreshold, policy.TransientQualityThreshold,
		policy.Retry.MaxRetries, chain.EnabledProviders())

	return svc
}

// SetSleeper replaces the backoff/throttle wait (tests use a recorder).
func (s *HybridTranslationService) SetSleeper(sleep Sleeper) {
	s.sleep = sleep
}

// Policy returns the active policy
func (s *HybridTranslationService) Policy() TranslationPolicy {
	return s.policy
}

// EnabledProviders lists the providers that can be called, in order
func (s *HybridTranslationService) EnabledProviders() []string {
	return s.chain.EnabledProviders()
}

// Translate returns the translation of text into target, or text itself when
// no acceptable translation could be obtained.
func (s *HybridTranslationService) Translate(ctx context.Context, text string, target models.Language) string {
	return s.TranslateDetailed(ctx, text, target).TranslatedText
}

// TranslateDetailed is Translate with cache/provider metadata.
//
// Order of resolution:
//  1. transient cache (expired entries dropped lazily)
//  2. durable cache, quality >= durable threshold
//  3. provider chain, first success wins
//
// Provider failures retry the whole resolution with exponential backoff.
// Cancelling ctx does not abort the call: it runs until a result is cached
// or the retry budget is spent. Context values are kept.
func (s *HybridTranslationService) TranslateDetailed(ctx context.Context, text string, target models.Language) *TranslationResult {
	if strings.TrimSpace(text) == "" {
		return s.passthrough(text)
	}
	ctx = context.WithoutCancel(ctx)

	key := models.CacheKey{
		SourceLang: s.policy.SourceLanguage,
		TargetLang: string(target),
		SourceText: text,
	}

	attempts := s.policy.Retry.Attempts()
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := s.policy.Retry.Backoff(attempt - 1)
			metrics.TranslationRetriesTotal.Inc()
			debugLog("Retrying translation (attempt %d/%d) after %v", attempt+1, attempts, wait)
			if err := s.sleep(ctx, wait); err != nil {
				warnLog("Backoff wait returned early: %v", err)
			}
		}

		result, err := s.resolve(ctx, key)
		if err == nil {
			return result
		}

		infoLog("Translation attempt %d/%d failed for %q: %v",
			attempt+1, attempts, truncateText(text, 30), err)

		if errors.Is(err, ErrNoProviders) {
			// retrying cannot enable a provider
			break
		}
	}

	return s.passthrough(text)
}

// resolve runs one full pass of the lookup policy. It only fails on
// provider-chain errors; storage failures are treated as misses.
func (s *HybridTranslationService) resolve(ctx context.Context, key models.CacheKey) (*TranslationResult, error) {
	if entry, ok := s.memory.Get(key); ok {
		debugLog("Memory cache hit")
		metrics.TranslationCacheHits.WithLabelValues(SourceMemory).Inc()
		metrics.TranslationRequestsTotal.WithLabelValues(SourceMemory).Inc()
		return &TranslationResult{
			OriginalText:   key.SourceText,
			TranslatedText: entry.TranslatedText,
			Source:         SourceMemory,
			Provider:       entry.Provider,
			Quality:        entry.QualityScore,
			Cached:         true,
		}, nil
	}
	metrics.TranslationCacheMisses.WithLabelValues(SourceMemory).Inc()

	if s.durable != nil {
		entry, err := s.durable.Lookup(ctx, key, s.policy.DurableQualityThreshold)
		switch {
		case err == nil:
			debugLog("Database cache hit")
			s.memory.Set(*entry)
			metrics.TranslationCacheHits.WithLabelValues(SourceDatabase).Inc()
			metrics.TranslationRequestsTotal.WithLabelValues(SourceDatabase).Inc()
			return &TranslationResult{
				OriginalText:   key.SourceText,
				TranslatedText: entry.TranslatedText,
				Source:         SourceDatabase,
				Provider:       entry.Provider,
				Quality:        entry.QualityScore,
				Cached:         true,
			}, nil
		case errors.Is(err, ErrCacheMiss):
			metrics.TranslationCacheMisses.WithLabelValues(SourceDatabase).Inc()
		default:
			warnLog("Durable cache lookup failed, continuing without it: %v", err)
			metrics.TranslationCacheMisses.WithLabelValues(SourceDatabase).Inc()
		}
	}

	providerResult, err := s.chain.Translate(ctx, key.SourceText, key.SourceLang, key.TargetLang)
	if err != nil {
		return nil, err
	}

	if isEcho(key.SourceText, providerResult.TranslatedText) {
		infoLog("Provider %s echoed the input, not caching", providerResult.Provider)
		metrics.TranslationEchoesTotal.Inc()
		return s.passthrough(key.SourceText), nil
	}

	s.store(ctx, key, providerResult)

	metrics.TranslationRequestsTotal.WithLabelValues(SourceProvider).Inc()
	return &TranslationResult{
		OriginalText:   key.SourceText,
		TranslatedText: providerResult.TranslatedText,
		Source:         SourceProvider,
		Provider:       providerResult.Provider,
		Quality:        providerResult.QualityScore,
		Cached:         false,
	}, nil
}

// store applies the quality gates to a fresh provider result.
func (s *HybridTranslationService) store(ctx context.Context, key models.CacheKey, result *ProviderResult) {
	entry := models.CacheEntry{
		Key:            key,
		TranslatedText: result.TranslatedText,
		Provider:       result.Provider,
		QualityScore:   result.QualityScore,
	}

	switch {
	case result.QualityScore >= s.policy.DurableQualityThreshold:
		if s.durable != nil {
			if err := s.durable.Upsert(ctx, entry); err != nil {
				warnLog("Durable cache write failed: %v", err)
			} else {
				metrics.TranslationCacheWrites.WithLabelValues(SourceDatabase).Inc()
			}
		}
		s.memory.Set(entry)
		metrics.TranslationCacheWrites.WithLabelValues(SourceMemory).Inc()
	case result.QualityScore >= s.policy.TransientQualityThreshold:
		s.memory.Set(entry)
		metrics.TranslationCacheWrites.WithLabelValues(SourceMemory).Inc()
	default:
		infoLog("Low quality translation from %s (%.2f), returning without caching",
			result.Provider, result.QualityScore)
	}
}

func (s *HybridTranslationService) passthrough(text string) *TranslationResult {
	metrics.TranslationRequestsTotal.WithLabelValues(SourcePassthrough).Inc()
	return &TranslationResult{
		OriginalText:   text,
		TranslatedText: text,
		Source:         SourcePassthrough,
	}
}

// TranslateBatch translates texts preserving order. Texts are processed in
// chunks of BatchSize, concurrently within a chunk, with BatchDelay between chunks.
// Like TranslateDetailed it is not aborted by cancelling ctx.
func (s *HybridTranslationService) TranslateBatch(ctx context.Context, texts []string, target models.Language) []string {
	ctx = context.WithoutCancel(ctx)
	out := make([]string, len(texts))
	size := s.policy.BatchSize

	for start := 0; start < len(texts); start += size {
		if start > 0 && s.policy.BatchDelay > 0 {
			if err := s.sleep(ctx, s.policy.BatchDelay); err != nil {
				warnLog("Batch delay returned early: %v", err)
			}
		}

		end := min(start+size, len(texts))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = s.Translate(ctx, texts[i], target)
			}(i)
		}
		wg.Wait()
	}

	return out
}

// TranslationStats reports the state of both cache tiers.
type TranslationStats struct {
	MemoryEntries int        `json:"memory_entries"`
	Durable       CacheStats `json:"durable"`
	Providers     []string   `json:"providers"`
}

// Stats returns cache statistics for the admin endpoint
func (s *HybridTranslationService) Stats(ctx context.Context) (TranslationStats, error) {
	stats := TranslationStats{
		MemoryEntries: s.memory.Len(),
		Providers:     s.chain.EnabledProviders(),
		Durable:       CacheStats{ByProvider: map[string]int64{}},
	}
	if s.durable == nil {
		return stats, nil
	}
	durable, err := s.durable.Stats(ctx)
	if err != nil {
		return stats, err
	}
	stats.Durable = durable
	return stats, nil
}

// ClearCaches empties both tiers (manual clear is the only durable eviction).
func (s *HybridTranslationService) ClearCaches(ctx context.Context) (int64, error) {
	s.memory.Clear()
	if s.durable == nil {
		return 0, nil
	}
	removed, err := s.durable.Clear(ctx)
	if err != nil {
		return removed, err
	}
	infoLog("Cleared %d durable cache entries", removed)
	return removed, nil
}

// PurgeExpired drops expired transient entries.
func (s *HybridTranslationService) PurgeExpired() int {
	return s.memory.PurgeExpired()
}

// isEcho reports whether translated is the input again, ignoring case and
// whitespace differences.
func isEcho(original, translated string) bool {
	return normalizeForCompare(original) == normalizeForCompare(translated)
}

func normalizeForCompare(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
