package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/fintrack"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/submit"
	"fintrack/internal/suggest"
	"fintrack/internal/views"
	appweb "fintrack/web"
)

const (
	// backendTimeout bounds the backend calls one request may make.
	backendTimeout = 7 * time.Second

	staticMaxAge = 3600
)

// Options carries the collaborators and view settings of a Server.
type Options struct {
	API       fintrack.API
	Registry  *views.Registry
	Publisher submit.EventPublisher // optional
	Logger    *applog.Logger
	// Sweeper, when set, periodically forgets idle rate limit clients.
	Sweeper *cache.Manager

	PageSize           int
	RecentLimit        int
	Payers             []string
	DefaultPayer       string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs whose forwarded headers name the client.
	TrustedProxies []string
}

type appMetrics struct {
	uptime         time.Time
	totalExpenses  int64
	failedSubmits  int64
	staleResponses int64
}

type Server struct {
	http.Server
	templates  *template.Template
	api        fintrack.API
	registry   *views.Registry
	loader     *suggest.Loader
	publisher  submit.EventPublisher
	logger     *applog.Logger
	structured *applog.StructuredLogger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	pageSize     int
	recentLimit  int
	payers       []string
	defaultPayer string

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware,
// returning a ready-to-run server.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.API == nil {
		return nil, errors.New("http: API is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("http: view registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	t, err := template.New("fintrack").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	detector := security.NewDetector(logger)
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("http: trusted proxy: %w", err)
		}
	}
	s := &Server{
		templates:  t,
		api:        opts.API,
		registry:   opts.Registry,
		loader:     suggest.NewLoader(opts.API, logger),
		publisher:  opts.Publisher,
		logger:     logger.WithComponent(applog.ComponentHTTP),
		structured: applog.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Logger:            logger,
		}),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP, logger),
		pageSize:     opts.PageSize,
		recentLimit:  opts.RecentLimit,
		payers:       opts.Payers,
		defaultPayer: opts.DefaultPayer,
		appMetrics:   &appMetrics{uptime: time.Now()},
	}

	if opts.Sweeper != nil {
		opts.Sweeper.Register(s.limiter)
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /expenses", s.handleExpensesPage)
	mux.HandleFunc("POST /expenses", s.handleCreateExpense)

	// UI partials
	mux.HandleFunc("GET /ui/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /ui/recent", s.handleRecent)
	mux.HandleFunc("GET /ui/expenses", s.handleExpenseList)
	mux.HandleFunc("POST /ui/expenses/filter", s.handleListFilter)
	mux.HandleFunc("POST /ui/expenses/clear", s.handleListClear)
	mux.HandleFunc("POST /ui/expenses/next", s.handleListNext)
	mux.HandleFunc("POST /ui/expenses/prev", s.handleListPrev)
	mux.HandleFunc("GET /ui/suggest", s.handleSuggest)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(detector.Middleware(s.limitWrites(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// limitWrites rate limits POST requests only; page loads and partial
// refreshes stay free.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError("Too many requests. Please try again later.").Write(w)
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// render executes a named template into a buffer so a failure never leaves a
// half-written response.
func (s *Server) render(ctx context.Context, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(ctx, "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender,
			applog.Fields{}.Add(applog.FieldTemplate, name))
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeTemplate renders name and writes it with status 200, or a textual
// error region when rendering fails.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, err := s.render(r.Context(), name, data)
	if err != nil {
		InternalServerError("Something went wrong while rendering this view.").Write(w)
		return
	}
	NewHTMXResponse().HTML(body).Write(w)
}

// Shutdown drains the HTTP server and closes every live view.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
		s.registry.Close()
	})
	return shutdownErr
}
