// ABOUTME: Gateway server that owns the document store, the app and the HTTP server
// ABOUTME: Runs the HTTP server and the idle-session sweeper until the context ends

package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/folio/internal/app"
	"github.com/2389/folio/internal/auth"
	"github.com/2389/folio/internal/config"
	"github.com/2389/folio/internal/docstore"
)

// Gateway serves the folio HTTP API.
type Gateway struct {
	config     *config.Config
	driver     docstore.Driver
	app        *app.App
	cookies    *auth.CookieIssuer
	httpServer *http.Server
	logger     *slog.Logger
}

// OpenDriver opens the document store named by cfg. FOLIO_DB_PATH overrides
// the sqlite path.
func OpenDriver(ctx context.Context, cfg config.DatabaseConfig) (docstore.Driver, error) {
	switch cfg.Driver {
	case "memory":
		return docstore.NewMemoryDriver(), nil
	case "postgres":
		d, err := docstore.NewPostgresDriver(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return d, nil
	case "sqlite", "":
		path := cfg.Path
		if envPath := os.Getenv("FOLIO_DB_PATH"); envPath != "" {
			path = envPath
		}
		d, err := docstore.NewSQLiteDriver(path)
		if err != nil {
			return nil, fmt.Errorf("initializing store: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// New wires the concepts on driver into a Gateway. The Gateway takes
// ownership of driver and closes it in Close.
func New(ctx context.Context, cfg *config.Config, driver docstore.Driver, logger *slog.Logger) (*Gateway, error) {
	concepts, err := app.OpenConcepts(ctx, driver)
	if err != nil {
		return nil, fmt.Errorf("opening concepts: %w", err)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.SessionSecret))
	if err != nil {
		return nil, fmt.Errorf("creating JWT verifier: %w", err)
	}

	gw := &Gateway{
		config:  cfg,
		driver:  driver,
		app:     app.New(concepts),
		cookies: auth.NewCookieIssuer(verifier, cfg.Auth.SessionTTL, cfg.Server.SecureCookies),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /health/ready", gw.handleReady)

	api := http.NewServeMux()
	gw.registerAPIRoutes(api)
	sessions := auth.SessionMiddleware(gw.app.Sessions(), verifier, gw.cookies, logger.With("component", "auth"))
	mux.Handle("/api/", sessions(api))

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return gw, nil
}

// Handler returns the root HTTP handler.
func (g *Gateway) Handler() http.Handler { return g.httpServer.Handler }

// Run listens on the configured address and serves until ctx is canceled.
// Returns nil on graceful shutdown, or an error if a server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	serveErr := g.Serve(ctx, ln)
	return errors.Join(serveErr, g.Close())
}

// Serve runs the HTTP server on ln alongside the session sweeper. It
// returns once both have stopped.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	grp.Go(func() error {
		g.sweepSessions(gctx)
		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()
		g.logger.Info("context canceled, initiating shutdown")
		return g.gracefulShutdown()
	})

	return grp.Wait()
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The serving context is already canceled by the time this runs.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

// Close releases the document store.
func (g *Gateway) Close() error {
	if err := g.driver.Close(); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

// sweepSessions removes idle sessions every sweep interval until ctx ends.
func (g *Gateway) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(g.config.Auth.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.app.Sessions().Sweep(ctx, g.config.Auth.SessionTTL)
			if err != nil {
				if ctx.Err() == nil {
					g.logger.Warn("session sweep failed", "error", err)
				}
				continue
			}
			if n > 0 {
				g.logger.Info("swept idle sessions", "count", n)
			}
		}
	}
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the database answers.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if db, ok := g.driver.(interface{ DB() *sql.DB }); ok {
		if err := db.DB().PingContext(r.Context()); err != nil {
			g.logger.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// logRequests writes one log line per request.
func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		g.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
