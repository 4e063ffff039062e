package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/versewise/internal/models"
	"github.com/codyseavey/versewise/internal/services"
)

const (
	// maxTextLength bounds a single translation request (runes)
	maxTextLength = 5000
	// MaxBatchSize is the most texts accepted by the batch endpoint
	MaxBatchSize = 100
)

// Translator is the orchestrator as seen by the HTTP layer.
type Translator interface {
	TranslateDetailed(ctx context.Context, text string, target models.Language) *services.TranslationResult
	TranslateBatch(ctx context.Context, texts []string, target models.Language) []string
}

type TranslateHandler struct {
	translator     Translator
	sourceLanguage string
}

func NewTranslateHandler(translator Translator, sourceLanguage string) *TranslateHandler {
	return &TranslateHandler{translator: translator, sourceLanguage: sourceLanguage}
}

type translateRequest struct {
	Text       string `json:"text" binding:"required"`
	TargetLang string `json:"targetLang" binding:"required"`
}

type translateBatchRequest struct {
	Texts      []string `json:"texts" binding:"required,min=1"`
	TargetLang string   `json:"targetLang" binding:"required"`
}

// translateResponse is returned by POST /api/translate
type translateResponse struct {
	Translated string  `json:"translated"`
	Original   string  `json:"original"`
	Cached     bool    `json:"cached"`
	Source     string  `json:"source"`
	Provider   string  `json:"provider,omitempty"`
	Quality    float64 `json:"quality"`
}

func parseTargetLanguage(raw string) (models.Language, error) {
	lang, ok := models.ParseLanguage(raw)
	if !ok {
		return "", fmt.Errorf("targetLang must be one of %v", models.AllLanguages())
	}
	return lang, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text must not be empty")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return fmt.Errorf("text exceeds %d characters", maxTextLength)
	}
	return nil
}

// Translate translates one text
// POST /api/translate
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "text and targetLang are required")
		return
	}

	target, err := parseTargetLanguage(req.TargetLang)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	if err := validateText(req.Text); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	// a client disconnect must not abort work whose result gets cached
	result := h.translator.TranslateDetailed(context.WithoutCancel(c.Request.Context()), req.Text, target)
	if result == nil {
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "translation failed")
		return
	}

	c.JSON(http.StatusOK, translateResponse{
		Translated: result.TranslatedText,
		Original:   req.Text,
		Cached:     result.Cached,
		Source:     result.Source,
		Provider:   result.Provider,
		Quality:    result.Quality,
	})
}

// TranslateBatch translates up to MaxBatchSize texts, preserving order
// POST /api/translate/batch
func (h *TranslateHandler) TranslateBatch(c *gin.Context) {
	var req translateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "texts and targetLang are required")
		return
	}

	target, err := parseTargetLanguage(req.TargetLang)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	if len(req.Texts) > MaxBatchSize {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest,
			fmt.Sprintf("at most %d texts per batch", MaxBatchSize))
		return
	}
	for i, text := range req.Texts {
		if utf8.RuneCountInString(text) > maxTextLength {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest,
				fmt.Sprintf("texts[%d] exceeds %d characters", i, maxTextLength))
			return
		}
	}

	translations := h.translator.TranslateBatch(context.WithoutCancel(c.Request.Context()), req.Texts, target)
	c.JSON(http.StatusOK, gin.H{
		"translations": translations,
		"count":        len(translations),
	})
}

// Languages lists the supported target languages
// GET /api/translate/languages
func (h *TranslateHandler) Languages(c *gin.Context) {
	languages := make([]gin.H, 0, len(models.AllLanguages()))
	for _, l := range models.AllLanguages() {
		languages = append(languages, gin.H{"code": l, "name": l.Name()})
	}
	c.JSON(http.StatusOK, gin.H{
		"source":  h.sourceLanguage,
		"targets": languages,
	})
}
