package application

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	cfg.InitialPlates = []calculator.Plate{{Weight: 45, Count: 2}, {Weight: 10, Count: 1}}
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	plates, err := app.storage.GetPlates()
	if err != nil {
		t.Fatalf("GetPlates returned error: %v", err)
	}
	if want := []calculator.Plate{{Weight: 10, Count: 1}, {Weight: 45, Count: 2}}; !slices.Equal(plates, want) {
		t.Fatalf("expected plates %v, got %v", want, plates)
	}
	if app.server == nil || app.router == nil || app.handler == nil {
		t.Fatalf("expected server, router, and handler to be initialized")
	}
	if app.metrics != nil {
		t.Fatalf("expected metrics to be disabled")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
}

func TestNewWiresMetrics(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.EnableMetrics = true

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics endpoint, got %d", rec.Code)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestNewReturnsErrorForInvalidPlates(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.InitialPlates = nil

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid plates")
	}
}

func TestNewReturnsErrorForInvalidBars(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.InitialBars = []calculator.Bar{{Type: "", Weight: 45}}

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid bars")
	}
}

func TestBuildRootHandlerIndex(t *testing.T) {
	handler := BuildRootHandler(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Endpoints []string `json:"endpoints"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if !slices.Contains(body.Endpoints, "POST /api/weight-space") {
		t.Fatalf("expected weight-space endpoint in index, got %v", body.Endpoints)
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		InitialPlates:        []calculator.Plate{{Weight: 5, Count: 2}, {Weight: 10, Count: 2}},
		InitialBars:          []calculator.Bar{{Type: "barbell", Weight: 20}},
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		EnableMetrics:        false,
		LogLevel:             "info",
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		MaxDenominations:     20,
	}
}
