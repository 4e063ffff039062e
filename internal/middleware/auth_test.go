package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAdminAuthRequire(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		adminKey       string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no admin key configured - allows all requests",
			adminKey:       "",
			authHeader:     "",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
		{
			name:           "valid admin key",
			adminKey:       "test-secret-key",
			authHeader:     "Bearer test-secret-key",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
		{
			name:           "missing auth header",
			adminKey:       "test-secret-key",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   CodeAuthRequired,
		},
		{
			name:           "invalid auth format - no Bearer",
			adminKey:       "test-secret-key",
			authHeader:     "test-secret-key",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   CodeAuthInvalidFormat,
		},
		{
			name:           "invalid admin key",
			adminKey:       "test-secret-key",
			authHeader:     "Bearer wrong-key",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   CodeAuthInvalidKey,
		},
		{
			name:           "case insensitive Bearer",
			adminKey:       "test-secret-key",
			authHeader:     "bearer test-secret-key",
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(NewAdminAuth(tt.adminKey).Require())
			router.DELETE("/admin/cache", func(c *gin.Context) {
				c.String(http.StatusOK, "ok")
			})

			req := httptest.NewRequest(http.MethodDelete, "/admin/cache", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedBody != "" && !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestAdminAuthVerify(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		adminKey       string
		authHeader     string
		expectedStatus int
		expectedValid  bool
	}{
		{
			name:           "auth disabled - always valid",
			adminKey:       "",
			authHeader:     "",
			expectedStatus: http.StatusOK,
			expectedValid:  true,
		},
		{
			name:           "valid key",
			adminKey:       "test-key",
			authHeader:     "Bearer test-key",
			expectedStatus: http.StatusOK,
			expectedValid:  true,
		},
		{
			name:           "invalid key",
			adminKey:       "test-key",
			authHeader:     "Bearer wrong-key",
			expectedStatus: http.StatusUnauthorized,
			expectedValid:  false,
		},
		{
			name:           "missing header",
			adminKey:       "test-key",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedValid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/auth/verify", NewAdminAuth(tt.adminKey).Verify)

			req := httptest.NewRequest(http.MethodPost, "/auth/verify", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			valid := strings.Contains(w.Body.String(), `"valid":true`)
			if valid != tt.expectedValid {
				t.Errorf("expected valid=%v in response, got %s", tt.expectedValid, w.Body.String())
			}
		})
	}
}

func TestAdminAuthStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, key := range []string{"", "some-key", "   "} {
		router := gin.New()
		auth := NewAdminAuth(key)
		router.GET("/auth/status", auth.Status)

		req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}

		expected := `"auth_enabled":false`
		if strings.TrimSpace(key) != "" {
			expected = `"auth_enabled":true`
		}
		if !strings.Contains(w.Body.String(), expected) {
			t.Errorf("key %q: expected %s, got %s", key, expected, w.Body.String())
		}
	}
}
