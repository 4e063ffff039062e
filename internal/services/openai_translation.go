package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/codyseavey/versewise/internal/models"
)

const (
	// OpenAIProviderName identifies OpenAI results
	OpenAIProviderName = "openai"

	// openAIQualityScore is the fixed quality assigned to chat-model translations
	openAIQualityScore = 0.85
)

// OpenAITranslationService translates with an OpenAI chat model.
type OpenAITranslationService struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAITranslationService creates the provider. baseURL may be empty for
// the public API. The provider is disabled when apiKey is empty.
func NewOpenAITranslationService(apiKey, model, baseURL string) *OpenAITranslationService {
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	svc := &OpenAITranslationService{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}

	if svc.IsEnabled() {
		infoLog("OpenAI translation: enabled (model=%s)", model)
	} else {
		infoLog("OpenAI translation: disabled (no API key)")
	}
	return svc
}

// Name implements TranslationProvider
func (s *OpenAITranslationService) Name() string {
	return OpenAIProviderName
}

// IsEnabled returns whether an API key is configured
func (s *OpenAITranslationService) IsEnabled() bool {
	return s.apiKey != ""
}

// Translate translates text with a single chat completion.
func (s *OpenAITranslationService) Translate(ctx context.Context, text, sourceLang, targetLang string) (*ProviderResult, error) {
	if !s.IsEnabled() {
		return nil, ErrProviderDisabled
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You translate Bible passages for language learners. " +
					"Respond with only the translation, nothing else.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate from %s to %s:\n\n%s",
					languageName(sourceLang), models.Language(targetLang).Name(), text),
			},
		},
		MaxTokens:   1024,
		Temperature: 0.2,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no translation returned")
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	debugLog("OpenAI translated %q -> %q", truncateText(text, 30), truncateText(translation, 30))

	return &ProviderResult{
		TranslatedText: translation,
		QualityScore:   openAIQualityScore,
		Provider:       OpenAIProviderName,
	}, nil
}
