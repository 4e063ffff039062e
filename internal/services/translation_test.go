package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/codyseavey/versewise/internal/models"
)

func TestTranslationServiceDisabledWithoutCredentials(t *testing.T) {
	svc := NewTranslationService("")
	if svc.IsEnabled() {
		t.Error("Expected translation service to be disabled without credentials")
	}

	_, err := svc.Translate(context.Background(), "Deus é amor", "pt", "en")
	if !errors.Is(err, ErrProviderDisabled) {
		t.Errorf("Expected ErrProviderDisabled, got %v", err)
	}
}

func TestTranslationServiceInvalidCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, []byte(`{"project_id":"p"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if NewTranslationService(path).IsEnabled() {
		t.Error("Credentials without a key should leave the provider disabled")
	}
	if NewTranslationService(filepath.Join(t.TempDir(), "missing.json")).IsEnabled() {
		t.Error("Missing credentials file should leave the provider disabled")
	}
}

// writeTestCredentials creates a service account key whose token endpoint is tokenURL.
func writeTestCredentials(t *testing.T, tokenURL string) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	creds, _ := json.Marshal(googleCredentials{
		Type:        "service_account",
		ProjectID:   "versewise-test",
		PrivateKey:  string(pemKey),
		ClientEmail: "translator@versewise-test.iam.gserviceaccount.com",
		TokenURI:    tokenURL,
	})
	path := filepath.Join(t.TempDir(), "creds.json")
	if err := os.WriteFile(path, creds, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranslationServiceTranslate(t *testing.T) {
	tokenRequests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenRequests++
			w.Write([]byte(`{"access_token":"test-token","expires_in":3600,"token_type":"Bearer"}`))
		case "/v3/projects/versewise-test/translate":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			var req translateRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.SourceLanguageCode != "pt" || req.TargetLanguageCode != "en" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"translations":[{"translatedText":"God is love"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc := NewTranslationService(writeTestCredentials(t, srv.URL+"/token"))
	if !svc.IsEnabled() {
		t.Fatal("Expected provider to be enabled with valid credentials")
	}
	svc.apiURL = srv.URL + "/v3/projects/%s/translate"

	for i := 0; i < 2; i++ {
		result, err := svc.Translate(context.Background(), "Deus é amor", "pt", "en")
		if err != nil {
			t.Fatalf("Translate failed: %v", err)
		}
		if result.TranslatedText != "God is love" {
			t.Errorf("Expected 'God is love', got %q", result.TranslatedText)
		}
		if result.QualityScore != googleQualityScore || result.Provider != GoogleProviderName {
			t.Errorf("Unexpected metadata: %+v", result)
		}
	}

	if tokenRequests != 1 {
		t.Errorf("Access token should be reused, got %d token requests", tokenRequests)
	}
}

func TestServiceAccountTokenRefresh(t *testing.T) {
	issued := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if parts := strings.Split(r.PostForm.Get("assertion"), "."); len(parts) != 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		issued++
		fmt.Fprintf(w, `{"access_token":"token-%d","expires_in":120}`, issued)
	}))
	defer srv.Close()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	clock := newFakeClock()
	tokens := &serviceAccountToken{
		email:      "translator@versewise-test.iam.gserviceaccount.com",
		tokenURI:   srv.URL,
		key:        key,
		httpClient: srv.Client(),
		now:        clock.Now,
	}

	steps := []struct {
		advance time.Duration
		want    string
	}{
		{0, "token-1"},
		{30 * time.Second, "token-1"},
		// inside the refresh margin
		{45 * time.Second, "token-2"},
	}
	for _, step := range steps {
		clock.Advance(step.advance)
		got, err := tokens.Token(context.Background())
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if got != step.want {
			t.Errorf("after %v: expected %s, got %s", step.advance, step.want, got)
		}
	}
}

func TestGeminiTranslationService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if !strings.Contains(r.URL.Path, DefaultGeminiModel) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		inner, _ := json.Marshal(geminiTranslation{Translation: " Dios es amor ", Confidence: 0.92})
		resp := map[string]interface{}{
			"candidates": []interface{}{
				map[string]interface{}{
					"content": map[string]interface{}{
						"parts": []interface{}{map[string]interface{}{"text": string(inner)}},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	if NewGeminiTranslationService("", "").IsEnabled() {
		t.Error("Gemini should be disabled without an API key")
	}

	svc := NewGeminiTranslationService("test-key", "")
	svc.apiURL = srv.URL + "/models/%s:generateContent"

	result, err := svc.Translate(context.Background(), "Deus é amor", "pt", string(models.LanguageSpanish))
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.TranslatedText != "Dios es amor" {
		t.Errorf("Expected trimmed 'Dios es amor', got %q", result.TranslatedText)
	}
	if result.QualityScore != 0.92 {
		t.Errorf("Expected model confidence 0.92 as quality, got %v", result.QualityScore)
	}
}

func TestGeminiTranslationServiceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	}))
	defer srv.Close()

	svc := NewGeminiTranslationService("test-key", "")
	svc.apiURL = srv.URL + "/models/%s:generateContent"

	if _, err := svc.Translate(context.Background(), "Deus é amor", "pt", "es"); err == nil {
		t.Error("Expected error on 429")
	}
}

func TestOpenAITranslationService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": " Dieu est amour \n"}}]
		}`))
	}))
	defer srv.Close()

	if NewOpenAITranslationService("", "", "").IsEnabled() {
		t.Error("OpenAI should be disabled without an API key")
	}

	svc := NewOpenAITranslationService("test-key", "", srv.URL+"/v1")
	result, err := svc.Translate(context.Background(), "Deus é amor", "pt", "fr")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.TranslatedText != "Dieu est amour" {
		t.Errorf("Expected 'Dieu est amour', got %q", result.TranslatedText)
	}
	if result.QualityScore != openAIQualityScore || result.Provider != OpenAIProviderName {
		t.Errorf("Unexpected metadata: %+v", result)
	}
}

func TestLibreTranslateService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req libreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || r.URL.Path != "/translate" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad request"}`))
			return
		}
		if req.Target == "xx" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"xx is not supported"}`))
			return
		}
		w.Write([]byte(`{"translatedText":"Dio è amore"}`))
	}))
	defer srv.Close()

	if NewLibreTranslateService("", "").IsEnabled() {
		t.Error("LibreTranslate should be disabled without a URL")
	}

	svc := NewLibreTranslateService(srv.URL+"/", "")
	result, err := svc.Translate(context.Background(), "Deus é amor", "pt", "it")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if result.TranslatedText != "Dio è amore" || result.QualityScore != libreQualityScore {
		t.Errorf("Unexpected result: %+v", result)
	}

	if _, err := svc.Translate(context.Background(), "Deus é amor", "pt", "xx"); err == nil {
		t.Error("Expected error for unsupported language")
	}
}

func TestTranslationCacheService_NilDB(t *testing.T) {
	// Cache service with nil DB should not panic
	svc := NewTranslationCacheService(nil)
	ctx := context.Background()
	key := models.CacheKey{SourceLang: "pt", TargetLang: "en", SourceText: "teste"}

	if _, err := svc.Lookup(ctx, key, 0); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss with nil DB, got %v", err)
	}
	if err := svc.Upsert(ctx, models.CacheEntry{Key: key, TranslatedText: "test"}); err != nil {
		t.Errorf("Upsert with nil DB should not error, got %v", err)
	}
	stats, err := svc.Stats(ctx)
	if err != nil || stats.TotalEntries != 0 || stats.TotalHits != 0 {
		t.Errorf("Expected zero stats with nil DB, got %+v (%v)", stats, err)
	}
}

func TestTranslationCacheService_UpsertKeepsBetterQuality(t *testing.T) {
	svc := NewTranslationCacheService(openTestDB(t))
	ctx := context.Background()
	key := models.CacheKey{SourceLang: "pt", TargetLang: "en", SourceText: "Deus é amor"}

	upsert := func(text, provider string, quality float64) {
		t.Helper()
		err := svc.Upsert(ctx, models.CacheEntry{Key: key, TranslatedText: text, Provider: provider, QualityScore: quality})
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	upsert("God is love", GoogleProviderName, 0.95)
	upsert("God love", LibreTranslateProviderName, 0.6)

	entry, err := svc.Lookup(ctx, key, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if entry.TranslatedText != "God is love" || entry.Provider != GoogleProviderName {
		t.Errorf("Lower quality write should not replace entry, got %+v", entry)
	}

	upsert("God is Love", GeminiProviderName, 0.97)
	entry, err = svc.Lookup(ctx, key, 0)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if entry.TranslatedText != "God is Love" || entry.QualityScore != 0.97 {
		t.Errorf("Higher quality write should replace entry, got %+v", entry)
	}

	stats, _ := svc.Stats(ctx)
	if stats.TotalEntries != 1 {
		t.Errorf("Key must stay unique, got %d rows", stats.TotalEntries)
	}
}

func TestTranslationCacheService_LookupFiltersAndCountsHits(t *testing.T) {
	svc := NewTranslationCacheService(openTestDB(t))
	ctx := context.Background()
	key := models.CacheKey{SourceLang: "pt", TargetLang: "fr", SourceText: "Amém"}

	if err := svc.Upsert(ctx, models.CacheEntry{Key: key, TranslatedText: "Amen", Provider: "fake", QualityScore: 0.65}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if _, err := svc.Lookup(ctx, key, 0.7); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Entry below minQuality should miss, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Lookup(ctx, key, 0.5); err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalHits != 3 {
		t.Errorf("Expected 3 hits, got %d", stats.TotalHits)
	}
	if stats.ByProvider["fake"] != 1 {
		t.Errorf("Expected per-provider count, got %v", stats.ByProvider)
	}

	removed, err := svc.Clear(ctx)
	if err != nil || removed != 1 {
		t.Errorf("Expected 1 row cleared, got %d (%v)", removed, err)
	}
}

func TestHashText(t *testing.T) {
	// Same input should produce same hash
	hash1 := hashText("Deus é amor")
	hash2 := hashText("Deus é amor")
	if hash1 != hash2 {
		t.Error("Same input should produce same hash")
	}

	// Different input should produce different hash
	hash3 := hashText("Jesus chorou")
	if hash1 == hash3 {
		t.Error("Different input should produce different hash")
	}

	// Hash should be 64 characters (SHA256 hex)
	if len(hash1) != 64 {
		t.Errorf("Expected hash length 64, got %d", len(hash1))
	}
}

func TestCacheKeyString(t *testing.T) {
	a := cacheKeyString(models.CacheKey{SourceLang: "pt", TargetLang: "en", SourceText: "a"})
	b := cacheKeyString(models.CacheKey{SourceLang: "pt", TargetLang: "es", SourceText: "a"})
	if a == b {
		t.Error("Target language must be part of the key")
	}
}

func TestLanguageName(t *testing.T) {
	tests := map[string]string{
		"pt": "Portuguese",
		"en": "English",
		"fr": "French",
		"":   "the detected source language",
	}
	for code, want := range tests {
		if got := languageName(code); got != want {
			t.Errorf("languageName(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "ASCII under limit",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "ASCII at limit",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "ASCII over limit",
			input:    "hello world",
			maxLen:   5,
			expected: "hello...",
		},
		{
			name:     "Accented over limit - truncates by rune not byte",
			input:    "ação é graça",
			maxLen:   6,
			expected: "ação é...",
		},
		{
			name:     "Empty string",
			input:    "",
			maxLen:   10,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateText(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
