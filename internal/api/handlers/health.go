package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProviderLister reports which translation providers are usable.
type ProviderLister interface {
	EnabledProviders() []string
}

// Health reports liveness and the enabled translation providers
// GET /health
func Health(providers ProviderLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		enabled := providers.EnabledProviders()
		if enabled == nil {
			enabled = []string{}
		}
		status := "ok"
		if len(enabled) == 0 {
			// still serving cached translations and history
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"providers": enabled,
		})
	}
}
