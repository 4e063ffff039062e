package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/versewise/internal/services"
)

// CacheAdmin exposes cache statistics and manual clearing.
type CacheAdmin interface {
	Stats(ctx context.Context) (services.TranslationStats, error)
	ClearCaches(ctx context.Context) (int64, error)
}

// MaintenanceStatus reports the cache maintenance worker.
type MaintenanceStatus interface {
	GetStatus() services.CacheMaintenanceStatus
}

type AdminHandler struct {
	cache  CacheAdmin
	worker MaintenanceStatus
}

// NewAdminHandler creates the admin handler. worker may be nil.
func NewAdminHandler(cache CacheAdmin, worker MaintenanceStatus) *AdminHandler {
	return &AdminHandler{
		cache:  cache,
		worker: worker,
	}
}

// CacheStats returns translation cache statistics
// GET /api/admin/cache/stats
func (h *AdminHandler) CacheStats(c *gin.Context) {
	stats, err := h.cache.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to read cache statistics")
		return
	}

	resp := gin.H{"cache": stats}
	if h.worker != nil {
		resp["maintenance"] = h.worker.GetStatus()
	}
	c.JSON(http.StatusOK, resp)
}

// ClearCache empties both translation cache tiers
// DELETE /api/admin/cache
func (h *AdminHandler) ClearCache(c *gin.Context) {
	removed, err := h.cache.ClearCaches(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "failed to clear cache")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Translation cache cleared",
		"removed": removed,
	})
}
