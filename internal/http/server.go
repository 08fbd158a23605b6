package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"igreja/internal/auth"
	"igreja/internal/cache"
	"igreja/internal/core"
	"igreja/internal/log"
	"igreja/internal/metrics"
	"igreja/internal/middleware/ratelimit"
	"igreja/internal/middleware/security"
	"igreja/internal/middleware/trace"
	"igreja/internal/services"
	appweb "igreja/web"
)

const (
	viewCacheSize = 100
	viewCacheTTL  = 5 * time.Minute
)

// Options wires the server to the application state.
type Options struct {
	Addr    string
	Ledgers *services.LedgerService
	Auth    *auth.Authenticator
	Metrics *metrics.Metrics
	Logger  *log.Logger
	// Cache receives the view caches so ledger mutations can purge them.
	Cache *cache.Manager

	Year          int
	TitheWindow   int
	RollingWindow int
	SecureCookie  bool
	LoginLimit    ratelimit.Config
	// TrustedProxies are CIDRs whose X-Forwarded-For is honoured.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template
	ledgers   *services.LedgerService
	auth      *auth.Authenticator
	metrics   *metrics.Metrics
	logger    *log.Logger
	detector  *security.Detector
	limiter   *ratelimit.Limiter

	titheViews      *cache.Views[core.TitheOverview]
	attendanceViews *cache.Views[core.AttendanceOverview]

	year          int
	titheWindow   int
	rollingWindow int
	secureCookie  bool
	now           func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	authn := opts.Auth
	if authn == nil {
		authn, _ = auth.New("", nil, 0)
	}
	if opts.Year == 0 {
		opts.Year = time.Now().Year()
	}
	if opts.TitheWindow <= 0 {
		opts.TitheWindow = 12
	}
	if opts.RollingWindow <= 0 {
		opts.RollingWindow = 4
	}

	mux := http.NewServeMux()
	s := &Server{
		ledgers:         opts.Ledgers,
		auth:            authn,
		metrics:         opts.Metrics,
		logger:          logger.WithComponent(log.ComponentHTTP),
		detector:        security.NewDetector(),
		limiter:         ratelimit.NewLimiter(opts.LoginLimit),
		titheViews:      cache.NewViews[core.TitheOverview](viewCacheSize, viewCacheTTL),
		attendanceViews: cache.NewViews[core.AttendanceOverview](viewCacheSize, viewCacheTTL),
		year:            opts.Year,
		titheWindow:     opts.TitheWindow,
		rollingWindow:   opts.RollingWindow,
		secureCookie:    opts.SecureCookie,
		now:             time.Now,
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	if opts.Cache != nil {
		opts.Cache.Register(s.titheViews)
		opts.Cache.Register(s.attendanceViews)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /presenca", s.handleAttendancePage)

	mux.HandleFunc("GET /api/tithes/overview", s.handleTitheOverview)
	mux.HandleFunc("GET /api/tithes", s.handleListTithes)
	mux.HandleFunc("POST /api/tithes", s.auth.RequireAdmin(s.handleSaveTithes))

	mux.HandleFunc("GET /api/attendance/overview", s.handleAttendanceOverview)
	mux.HandleFunc("GET /api/attendance", s.handleListAttendance)
	mux.HandleFunc("POST /api/attendance", s.auth.RequireAdmin(s.handleSaveAttendance))

	mux.HandleFunc("GET /api/leaders", s.handleListLeaders)
	mux.HandleFunc("POST /api/leaders", s.auth.RequireAdmin(s.handleAddLeader))
	mux.HandleFunc("POST /api/leaders/rename", s.auth.RequireAdmin(s.handleRenameLeader))
	mux.HandleFunc("DELETE /api/leaders", s.auth.RequireAdmin(s.handleRemoveLeader))

	mux.HandleFunc("POST /admin/login", s.limiter.Wrap(s.detector.ExtractClientIP, s.handleLogin))
	mux.HandleFunc("POST /admin/logout", s.handleLogout)

	mux.HandleFunc("GET /export/ledgers.xlsx", s.handleExportWorkbook)
	mux.HandleFunc("GET /export/tithes.pdf", s.handleExportTithesPDF)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var observe trace.Observer
	if s.metrics != nil {
		observe = s.metrics.ObserveRequest
		s.metrics.WatchSuspicious(s.detector.SuspiciousRequests)
	}
	tracer := trace.NewMiddleware(logger, s.detector.ExtractClientIP, observe)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = trace.RecordRoute(mux)
	handler = s.auth.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
