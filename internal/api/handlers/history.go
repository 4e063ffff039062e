package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/versewise/internal/models"
	"github.com/codyseavey/versewise/internal/services"
)

type HistoryHandler struct {
	history *services.ReadingHistoryService
}

func NewHistoryHandler(history *services.ReadingHistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List returns reading history, newest first
// GET /api/history
func (h *HistoryHandler) List(c *gin.Context) {
	entries := h.history.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// Append records a completed reading session
// POST /api/history
func (h *HistoryHandler) Append(c *gin.Context) {
	var entry models.ReadingEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "book and chapter are required")
		return
	}

	for lang, words := range entry.TranslatedWords {
		if _, ok := models.ParseLanguage(lang); !ok {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "unsupported language in translatedWords: "+lang)
			return
		}
		if len(words) != len(entry.SourceWords) {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest,
				"translatedWords."+lang+" must align with sourceWords")
			return
		}
	}

	h.history.Append(c.Request.Context(), entry)
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Reading recorded",
		"reference": entry.Reference(),
	})
}

// Clear removes all reading history
// DELETE /api/history
func (h *HistoryHandler) Clear(c *gin.Context) {
	if err := h.history.Clear(c.Request.Context()); err != nil {
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to clear history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// Stats aggregates reading history
// GET /api/history/stats
func (h *HistoryHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.history.Stats(c.Request.Context()))
}
