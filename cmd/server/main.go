package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-ai-engine/internal/analytics"
	"github.com/p-n-ai/pai-ai-engine/internal/curriculum"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/cache"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/config"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/database"
	"github.com/p-n-ai/pai-ai-engine/internal/platform/logging"
	"github.com/p-n-ai/pai-ai-engine/internal/provider"
	"github.com/p-n-ai/pai-ai-engine/internal/tutor"
)

func main() {
	slog.SetDefault(slog.New(logging.New("info", "json", os.Stdout)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := build(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.close()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      newMux(app.tutor, app.checks),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "provider", provider.Variant(app.tutor))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// readinessCheck checks one dependency.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// app holds the resolved provider and the resources backing it.
type app struct {
	tutor   tutor.Provider
	checks  []readinessCheck
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build resolves the configured provider and wraps it with the optional
// analysis cache and event recording.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	catalog := curriculum.DefaultCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := curriculum.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	p := provider.Resolve(cfg.AI.Provider, cfg.AI,
		provider.WithLogger(slog.Default()),
		provider.WithCatalog(catalog),
	)
	variant := provider.Variant(p)
	if hc, ok := p.(tutor.HealthChecker); ok {
		a.checks = append(a.checks, readinessCheck{name: "provider", check: hc.HealthCheck})
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		a.checks = append(a.checks, readinessCheck{name: "cache", check: c.HealthCheck})

		ttl := time.Duration(cfg.Cache.TTL) * time.Second
		p = provider.WithAnalysisCache(p, c, ttl, provider.AnalysisNamespace(p), provider.WithLogger(slog.Default()))
	}

	events, err := buildEvents(ctx, cfg, a)
	if err != nil {
		a.close()
		return nil, err
	}
	p = provider.WithEvents(p, events, variant, provider.WithLogger(slog.Default()))

	a.tutor = p
	return a, nil
}

func buildEvents(ctx context.Context, cfg *config.Config, a *app) (analytics.EventLogger, error) {
	switch cfg.Events.Backend {
	case config.EventsMemory:
		return analytics.NewMemoryEventLogger(), nil
	case config.EventsPostgres:
		pool, err := database.OpenPostgres(ctx, database.PoolConfig{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.checks = append(a.checks, readinessCheck{name: "database", check: pool.Ping})

		events := analytics.NewPostgresEventLogger(pool)
		if err := events.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return events, nil
	case config.EventsSQLite:
		db, err := database.OpenSQLite(ctx, cfg.Events.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.checks = append(a.checks, readinessCheck{name: "events", check: db.PingContext})
		return analytics.NewSQLiteEventLogger(ctx, db)
	default:
		return nil, nil
	}
}

// newMux creates the HTTP router with health check endpoints and, when p
// is set, the tutoring endpoints.
func newMux(p tutor.Provider, checks []readinessCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(checks))
	if p != nil {
		mux.HandleFunc("POST /v1/chat", handleChat(p))
		mux.HandleFunc("POST /v1/analyze", handleAnalyze(p))
	}
	return mux
}

// maxRequestBytes bounds tutoring request bodies.
const maxRequestBytes = 1 << 20

type chatRequest struct {
	Message     string            `json:"message"`
	Context     tutor.ChatContext `json:"context"`
	Personality tutor.Personality `json:"personality"`
}

type analyzeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Provider failures are reported in the response body, so both endpoints
// answer 200 for any well-formed request.
func handleChat(p tutor.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, p.GenerateChatResponse(r.Context(), req.Message, req.Context, req.Personality))
	}
}

func handleAnalyze(p tutor.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeJSON(w, http.StatusOK, p.AnalyzeCode(r.Context(), req.Code, req.Language))
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(checks []readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		failed := map[string]string{}
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", c.name, "error", err)
				failed[c.name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"status": "not ready", "failed": failed})
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
