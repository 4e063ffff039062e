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

	"github.com/codyseavey/versewise/internal/models"
)

const (
	// DefaultGeminiModel is fast and cheap; verse-length inputs need nothing larger
	DefaultGeminiModel = "gemini-2.5-flash"
	geminiAPIURL       = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	geminiTimeout      = 15 * time.Second

	// GeminiProviderName identifies Gemini results
	GeminiProviderName = "gemini"
)

// GeminiTranslationService translates via the Gemini generateContent API.
// Quality is the confidence the model reports for its own translation.
type GeminiTranslationService struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
	enabled    bool
}

// geminiTranslation is the structured response requested from Gemini
type geminiTranslation struct {
	Translation string  `json:"translation"`
	Confidence  float64 `json:"confidence"`
}

// geminiRequest is the request body for Gemini API
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMimeType   string                 `json:"responseMimeType"`
	ResponseJSONSchema map[string]interface{} `json:"responseJsonSchema"`
	Temperature        float64                `json:"temperature"`
	MaxOutputTokens    int                    `json:"maxOutputTokens"`
}

// geminiAPIResponse is the response from Gemini API
type geminiAPIResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// translationResponseSchema enforces the structured JSON output from Gemini
var translationResponseSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"translation": map[string]interface{}{"type": "string"},
		"confidence":  map[string]interface{}{"type": "number"},
	},
	"required": []string{"translation", "confidence"},
}

const geminiPrompt = `You translate Bible passages for language learners.

Translate the text below from %s to %s. Keep proper names in their conventional %s form and
preserve verse punctuation. Do not add commentary.

Also report your confidence that the translation is accurate and natural, from 0.0 to 1.0:
  - 0.9-1.0: certain
  - 0.7-0.89: likely correct
  - 0.5-0.69: understandable but awkward or partly uncertain
  - below 0.5: unsure

TEXT:
%s

Respond with valid JSON matching the schema.`

// NewGeminiTranslationService creates a new Gemini translation provider.
// It is disabled when apiKey is empty.
func NewGeminiTranslationService(apiKey, model string) *GeminiTranslationService {
	if model == "" {
		model = DefaultGeminiModel
	}

	svc := &GeminiTranslationService{
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		apiURL:     geminiAPIURL,
		httpClient: &http.Client{Timeout: geminiTimeout},
	}
	svc.enabled = svc.apiKey != ""

	if svc.enabled {
		// Only show first 10 chars of key
		keyPreview := svc.apiKey
		if len(keyPreview) > 10 {
			keyPreview = keyPreview[:10] + "..."
		}
		infoLog("Gemini translation: enabled (model=%s, key=%s)", model, keyPreview)
	} else {
		infoLog("Gemini translation: disabled (no API key)")
	}

	return svc
}

// Name implements TranslationProvider
func (s *GeminiTranslationService) Name() string {
	return GeminiProviderName
}

// IsEnabled returns whether Gemini translation is available
func (s *GeminiTranslationService) IsEnabled() bool {
	return s.enabled
}

// Translate asks Gemini for a translation plus a self-reported confidence.
func (s *GeminiTranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
	if !s.enabled {
		return nil, ErrProviderDisabled
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty input text")
	}

	target := models.Language(targetLang).Name()
	prompt := fmt.Sprintf(geminiPrompt, languageName(sourceLang), target, target, text)

	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			ResponseMimeType:   "application/json",
			ResponseJSONSchema: translationResponseSchema,
			Temperature:        0.1,
			MaxOutputTokens:    1024,
		},
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf(s.apiURL, s.model) + "?key=" + s.apiKey
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	debugLog("Gemini request: model=%s, input_len=%d, target=%s", s.model, len(text), targetLang)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		debugLog("Gemini API error: status=%d body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateText(string(body), 200))
	}

	var apiResp geminiAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	responseText := apiResp.Candidates[0].Content.Parts[0].Text
	var translation geminiTranslation
	if err := json.Unmarshal([]byte(responseText), &translation); err != nil {
		debugLog("Gemini response parse error: %v, response: %s", err, responseText)
		return nil, fmt.Errorf("failed to parse translation response: %w", err)
	}

	if strings.TrimSpace(translation.Translation) == "" {
		return nil, fmt.Errorf("Gemini returned an empty translation")
	}

	debugLog("Gemini translated %q -> %q (conf=%.2f)",
		truncateText(text, 30), truncateText(translation.Translation, 30), translation.Confidence)

	return &ProviderResult{
		TranslatedText: strings.TrimSpace(translation.Translation),
		QualityScore:   translation.Confidence,
		Provider:       GeminiProviderName,
	}, nil
}

// languageName names a language code for prompts, including source languages
// outside the target enum.
func languageName(code string) string {
	switch code {
	case "pt":
		return "Portuguese"
	case "":
		return "the detected source language"
	default:
		return models.Language(code).Name()
	}
}
