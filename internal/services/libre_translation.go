package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// LibreTranslateProviderName identifies LibreTranslate results
	LibreTranslateProviderName = "libretranslate"

	libreTranslateTimeout = 10 * time.Second

	// libreQualityScore keeps LibreTranslate output in the transient tier only
	// with the default thresholds.
	libreQualityScore = 0.6
)

// LibreTranslateService is the last-resort provider: a self-hostable
// LibreTranslate instance.
type LibreTranslateService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// NewLibreTranslateService creates the provider; it is disabled when baseURL is empty.
func NewLibreTranslateService(baseURL, apiKey string) *LibreTranslateService {
	svc := &LibreTranslateService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: libreTranslateTimeout},
	}
	if svc.IsEnabled() {
		infoLog("LibreTranslate: enabled (%s)", svc.baseURL)
	}
	return svc
}

// Name implements TranslationProvider
func (s *LibreTranslateService) Name() string {
	return LibreTranslateProviderName
}

// IsEnabled returns whether an instance URL is configured
func (s *LibreTranslateService) IsEnabled() bool {
	return s.baseURL != ""
}

// Translate calls POST {baseURL}/translate.
func (s *LibreTranslateService) Translate(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
	if !s.IsEnabled() {
		return nil, ErrProviderDisabled
	}

	source := sourceLang
	if source == "" {
		source = "auto"
	}

	reqJSON, err := json.Marshal(libreRequest{
		Q:      text,
		Source: source,
		Target: targetLang,
		Format: "text",
		APIKey: s.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/translate", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result libreResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || result.Error != "" {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, result.Error)
	}

	return &ProviderResult{
		TranslatedText: result.TranslatedText,
		QualityScore:   libreQualityScore,
		Provider:       LibreTranslateProviderName,
	}, nil
}
