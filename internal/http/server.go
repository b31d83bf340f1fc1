package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"savings/internal/amqp"
	"savings/internal/log"
	"savings/internal/middleware/ratelimit"
	"savings/internal/middleware/security"
	"savings/internal/middleware/trace"
	"savings/internal/session"
	appweb "savings/web"
)

// SessionCookie names the cookie carrying the board id.
const SessionCookie = "savings_session"

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the server to its collaborators. Boards is required.
type Config struct {
	Addr               string
	Boards             *session.Store
	Pinger             Pinger
	Metrics            *Metrics
	PublisherStats     func() amqp.PublisherStats
	RateLimitPerMinute int
	SessionTTL         time.Duration
	Logger             *log.Logger
}

type Server struct {
	http.Server

	templates      *template.Template
	boards         *session.Store
	pinger         Pinger
	metrics        *Metrics
	publisherStats func() amqp.PublisherStats
	limiter        *ratelimit.Limiter
	trace          *trace.Middleware
	clientIP       *security.ClientIP
	sessionTTL     time.Duration
	logger         *log.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewServer parses the embedded templates and builds the routing table.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Boards == nil {
		return nil, errors.New("http: board store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	clientIP := security.NewClientIP()
	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerMinute = cfg.RateLimitPerMinute

	s := &Server{
		templates:      t,
		boards:         cfg.Boards,
		pinger:         cfg.Pinger,
		metrics:        cfg.Metrics,
		publisherStats: cfg.PublisherStats,
		limiter:        ratelimit.NewLimiter(limiterCfg),
		trace:          trace.NewMiddleware(logger, clientIP.Extract),
		clientIP:       clientIP,
		sessionTTL:     cfg.SessionTTL,
		logger:         logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, err
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	// Board routes reflect per-browser state and are never cached.
	board := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, security.NoStore(h))
	}
	board("GET /{$}", s.handleIndex)
	board("POST /form", s.handleFormUpdate)
	board("POST /form/reset", s.handleReset)
	board("POST /records", s.handleSubmit)
	board("POST /records/{id}/edit", s.handleEdit)
	board("GET /records.csv", s.handleExportCSV)

	// UI partials
	board("GET /ui/grid", s.handleGrid)
	board("GET /ui/chart", s.handleChart)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(clientIP.Extract, isMutation, s.handleRateLimited)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.trace.Middleware(headers.Middleware(limit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// isMutation selects the requests that count against the rate limit.
func isMutation(r *http.Request) bool {
	return r.Method == http.MethodPost
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Mutation rate limited",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		TriggerErrorNotification(MsgTooManyPosts).
		BodyString(MsgTooManyPosts).
		Write(w)
}

// board returns the caller's board, issuing or refreshing the session cookie.
func (s *Server) board(w http.ResponseWriter, r *http.Request) (*session.Board, bool) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	b, created := s.boards.Get(id)

	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    b.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if s.sessionTTL > 0 {
		cookie.MaxAge = int(s.sessionTTL / time.Second)
	}
	http.SetCookie(w, cookie)

	if created {
		log.FromContext(r.Context()).Debug("Board created", log.FieldSessionID, b.ID())
	}
	return b, created
}

// Shutdown stops background work and then the HTTP server. It is safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.shutdownErr = s.Server.Shutdown(ctx)
	})
	return s.shutdownErr
}
