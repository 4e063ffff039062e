package services

import (
	"os"
	"strings"
	"sync/atomic"

	"github.com/codyseavey/versewise/internal/logging"
)

var translationDebugEnabled atomic.Bool

func init() {
	// TRANSLATION_DEBUG=1|true|yes enables verbose logs before config is loaded
	if v := os.Getenv("TRANSLATION_DEBUG"); v != "" {
		v = strings.ToLower(v)
		translationDebugEnabled.Store(v == "1" || v == "true" || v == "yes")
	}
}

// SetTranslationDebug toggles verbose per-request translation logs.
func SetTranslationDebug(enabled bool) {
	translationDebugEnabled.Store(enabled)
	if enabled {
		infoLog("Debug logging: ENABLED")
	}
}

// debugLog logs only when translation debug is enabled.
// Use this for verbose per-request details: cache hits/misses, provider payloads.
func debugLog(format string, args ...interface{}) {
	if translationDebugEnabled.Load() {
		logging.L().Named("translation").Sugar().Infof("debug: "+format, args...)
	}
}

// infoLog always logs important translation events.
// Use this for fallback triggers, provider errors, cache stats.
func infoLog(format string, args ...interface{}) {
	logging.L().Named("translation").Sugar().Infof(format, args...)
}

// warnLog logs storage and provider failures that were swallowed.
func warnLog(format string, args ...interface{}) {
	logging.L().Named("translation").Sugar().Warnf(format, args...)
}

// truncateText truncates text to maxLen runes with ellipsis.
// Counts runes, not bytes, so accented text is cut cleanly.
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
