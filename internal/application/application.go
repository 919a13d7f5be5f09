package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/plate-calculator/internal/api"
	"github.com/eugenenazirov/plate-calculator/internal/calculator"
	"github.com/eugenenazirov/plate-calculator/internal/config"
	"github.com/eugenenazirov/plate-calculator/internal/metrics"
	"github.com/eugenenazirov/plate-calculator/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage    storage.Storage
	calculator calculator.Calculator
	metrics    *metrics.Metrics
	handler    *api.Handler
	router     http.Handler
	logger     *zap.Logger
	server     *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if err := store.SetPlates(cfg.InitialPlates); err != nil {
		return nil, fmt.Errorf("failed to apply initial plates: %w", err)
	}
	if err := store.SetBars(cfg.InitialBars); err != nil {
		return nil, fmt.Errorf("failed to apply initial bars: %w", err)
	}

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New()
	}

	calc := calculator.New()
	handler := api.NewHandler(calc, store,
		api.WithMetrics(m),
		api.WithMaxDenominations(cfg.MaxDenominations),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage:    store,
		calculator: calc,
		metrics:    m,
		handler:    handler,
		router:     apiRouter,
		logger:     logger,
		server:     NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler mounts the API under /api/ and answers / with a short
// index of the available endpoints.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(indexResponse{
			Service:   "plate-calculator",
			Endpoints: endpoints,
		})
	}))
	return mux
}

var endpoints = []string{
	"GET /api/health",
	"GET /api/plates",
	"PUT /api/plates",
	"GET /api/bars",
	"PUT /api/bars",
	"POST /api/plates/select",
	"POST /api/combos",
	"POST /api/weight-space",
	"POST /api/closest",
	"POST /api/bars/choose",
	"POST /api/bars/weight-space",
	"GET /api/metrics",
}

type indexResponse struct {
	Service   string   `json:"service"`
	Endpoints []string `json:"endpoints"`
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Bool("metrics", a.metrics != nil),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
