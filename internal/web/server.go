package web

import (
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/attune/internal/contact"
	"github.com/hpungsan/attune/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// ProfileCookie carries the visitor's profile id.
const ProfileCookie = "attune_profile"

// Options configures NewServer.
type Options struct {
	Version string
	Bind    string
	Port    int
	Logger  *zap.Logger
	// ProcessingRefresh is how long the processing page waits before reloading.
	ProcessingRefresh time.Duration
}

// NewServer creates and configures the HTTP server for the personalization UI and API.
func NewServer(svc *ops.Service, relay *contact.Relay, opts Options) *http.Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	h := newHandlers(svc, relay, opts)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Bind, opts.Port),
		Handler:           h.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newHandlers(svc *ops.Service, relay *contact.Relay, opts Options) *Handlers {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(fmt.Sprintf("failed to create template sub-FS: %v", err))
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		svc:      svc,
		relay:    relay,
		log:      log,
		refresh:  opts.ProcessingRefresh,
		renderer: NewRenderer(templateSub, opts.Version, log),
	}
}

func (h *Handlers) routes() http.Handler {
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static sub-FS: %v", err))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandleHome)
	mux.HandleFunc("GET /onboarding", h.HandleOnboarding)
	mux.HandleFunc("POST /onboarding/start", h.HandleStart)
	mux.HandleFunc("POST /onboarding/answer", h.HandleAnswer)
	mux.HandleFunc("POST /onboarding/back", h.HandleBack)
	mux.HandleFunc("POST /onboarding/skip", h.HandleSkip)
	mux.HandleFunc("POST /onboarding/reset", h.HandleReset)

	mux.HandleFunc("GET /api/state", h.HandleState)
	mux.HandleFunc("GET /api/visit", h.HandleVisit)
	mux.HandleFunc("GET /api/questions", h.HandleQuestions)
	mux.HandleFunc("POST /api/theme", h.HandleTheme)
	mux.HandleFunc("POST /api/theme/cycle", h.HandleThemeCycle)
	mux.HandleFunc("POST /api/contact", h.HandleContact)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return requestLogger(h.log, securityHeaders(mux))
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an X-Request-ID and logs it at Debug.
func requestLogger(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Debug("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// Run serves srv until ctx is cancelled, then shuts it down gracefully.
func Run(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("attune UI running", zap.String("url", "http://"+srv.Addr))
		if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
			log.Warn("server is binding to all interfaces and may be accessible from the network")
		}
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
