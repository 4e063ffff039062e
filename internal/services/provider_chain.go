package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/codyseavey/versewise/internal/metrics"
)

var (
	// ErrNoProviders is returned when no provider in the chain is enabled.
	ErrNoProviders = errors.New("no translation providers enabled")

	// ErrAllProvidersFailed wraps the individual failures of every provider tried.
	ErrAllProvidersFailed = errors.New("all translation providers failed")

	// ErrProviderDisabled is returned by a provider called without credentials.
	ErrProviderDisabled = errors.New("translation provider not enabled")
)

// ProviderResult is a provider response normalized for the orchestrator.
type ProviderResult struct {
	TranslatedText string  `json:"translated_text"`
	QualityScore   float64 `json:"quality_score"`
	Provider       string  `json:"provider"`
}

// TranslationProvider is one translation backend.
type TranslationProvider interface {
	// Name is the identifier stored alongside cached translations.
	Name() string

	// IsEnabled reports whether the provider has the credentials it needs.
	IsEnabled() bool

	// Translate translates text from sourceLang into targetLang.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error)
}

// BreakerSettings configures the per-provider circuit breaker.
// A zero ConsecutiveFailures disables breakers.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	Timeout             time.Duration
}

type chainLink struct {
	provider TranslationProvider
	breaker  *gobreaker.CircuitBreaker
}

// ProviderChain tries providers in fixed priority order; the first success wins.
type ProviderChain struct {
	links []chainLink
}

// NewProviderChain builds a chain in the given order.
func NewProviderChain(providers []TranslationProvider, settings BreakerSettings) *ProviderChain {
	chain := &ProviderChain{}
	for _, p := range providers {
		if p == nil {
			continue
		}
		link := chainLink{provider: p}
		if settings.ConsecutiveFailures > 0 {
			link.breaker = newProviderBreaker(p.Name(), settings)
		}
		chain.links = append(chain.links, link)
	}
	return chain
}

func newProviderBreaker(name string, settings BreakerSettings) *gobreaker.CircuitBreaker {
	threshold := settings.ConsecutiveFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.ProviderBreakerState.WithLabelValues(name).Set(float64(to))
			infoLog("Provider %s circuit breaker: %s -> %s", name, from, to)
		},
	})
}

// EnabledProviders returns the names of enabled providers in priority order.
func (c *ProviderChain) EnabledProviders() []string {
	var names []string
	for _, link := range c.links {
		if link.provider.IsEnabled() {
			names = append(names, link.provider.Name())
		}
	}
	return names
}

// IsEnabled reports whether at least one provider can be called.
func (c *ProviderChain) IsEnabled() bool {
	return len(c.EnabledProviders()) > 0
}

// Translate calls each enabled provider in order until one succeeds.
// There is no aggregation: the first successful response is returned as is.
func (c *ProviderChain) Translate(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
	var failures []string
	tried := 0

	for _, link := range c.links {
		if !link.provider.IsEnabled() {
			continue
		}
		tried++

		result, err := c.call(ctx, link, text, sourceLang, targetLang)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", link.provider.Name(), err))
			infoLog("Provider %s failed, trying next: %v", link.provider.Name(), err)
			continue
		}
		return result, nil
	}

	if tried == 0 {
		return nil, ErrNoProviders
	}
	return nil, fmt.Errorf("%w: %s", ErrAllProvidersFailed, strings.Join(failures, "; "))
}

func (c *ProviderChain) call(ctx context.Context, link chainLink, text, sourceLang, targetLang string) (*ProviderResult, error) {
	name := link.provider.Name()
	start := time.Now()

	invoke := func() (interface{}, error) {
		result, err := link.provider.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		if result == nil || strings.TrimSpace(result.TranslatedText) == "" {
			return nil, errors.New("empty translation")
		}
		return result, nil
	}

	var (
		out interface{}
		err error
	)
	if link.breaker != nil {
		out, err = link.breaker.Execute(invoke)
	} else {
		out, err = invoke()
	}

	metrics.ProviderLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := "api"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			kind = "breaker_open"
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			kind = "timeout"
		}
		metrics.ProviderErrorsTotal.WithLabelValues(name, kind).Inc()
		return nil, err
	}

	result := *out.(*ProviderResult)
	if result.Provider == "" {
		result.Provider = name
	}
	result.QualityScore = clampQuality(result.QualityScore)

	metrics.ProviderRequestsTotal.WithLabelValues(name).Inc()
	metrics.TranslationQualityHistogram.Observe(result.QualityScore)
	return &result, nil
}

func clampQuality(q float64) float64 {
	switch {
	case q < 0:
		return 0
	case q > 1:
		return 1
	default:
		return q
	}
}
