package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pinball/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func wsRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func upgradeRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestWebSocketCORSCheck(t *testing.T) {
	prod := &config.Config{Environment: "production", FrontendURL: "https://tables.example.com"}
	dev := &config.Config{Environment: "development"}

	cases := []struct {
		name   string
		cfg    *config.Config
		origin string
		want   int
	}{
		{"prod allowed", prod, "https://pinball.playmatatu.com", http.StatusOK},
		{"prod frontend url", prod, "https://tables.example.com", http.StatusOK},
		{"prod foreign", prod, "https://evil.example.com", http.StatusForbidden},
		{"missing origin", prod, "", http.StatusBadRequest},
		{"dev any localhost port", dev, "http://localhost:3000", http.StatusOK},
		{"dev foreign", dev, "https://pinball.playmatatu.com", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			wsRouter(tc.cfg).ServeHTTP(w, upgradeRequest(tc.origin))
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestWebSocketCORSCheckIgnoresPlainRequests(t *testing.T) {
	cfg := &config.Config{Environment: "production"}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example.com")

	wsRouter(cfg).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("plain request status = %d, want 200", w.Code)
	}
}

func TestAllowedOriginsNoDuplicates(t *testing.T) {
	cfg := &config.Config{Environment: "production", FrontendURL: "https://playmatatu.com"}
	got := AllowedOrigins(cfg)
	if len(got) != len(productionOrigins) {
		t.Errorf("origins = %v, want %v", got, productionOrigins)
	}
}
