package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/versewise/internal/models"
	"github.com/codyseavey/versewise/internal/services"
)

const (
	defaultExerciseCount = 10
	maxExerciseCount     = 50
)

type ExerciseHandler struct {
	exercises *services.VocabularyExerciseService
}

func NewExerciseHandler(exercises *services.VocabularyExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exercises: exercises}
}

// Generate builds vocabulary exercises from reading history
// GET /api/exercises?language=en&count=10&preferAudio=true
func (h *ExerciseHandler) Generate(c *gin.Context) {
	language, ok := models.ParseLanguage(c.Query("language"))
	if !ok {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "language must be one of en, es, it, fr")
		return
	}

	count := defaultExerciseCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxExerciseCount {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "count must be between 1 and 50")
			return
		}
		count = n
	}

	preferAudio := false
	if raw := c.Query("preferAudio"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "preferAudio must be true or false")
			return
		}
		preferAudio = b
	}

	exercises := h.exercises.Generate(c.Request.Context(), language, count, preferAudio)
	c.JSON(http.StatusOK, gin.H{
		"exercises": exercises,
		"count":     len(exercises),
		"language":  language,
	})
}
