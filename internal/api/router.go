package api

import (
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/devlevel/internal/middleware"
	"github.com/soaringjerry/devlevel/internal/services"
	"github.com/soaringjerry/devlevel/internal/utils"
)

// Options carries everything the router needs besides the store.
type Options struct {
	Logger        *log.Logger
	Tokens        *middleware.TokenIssuer
	RateLimiter   *middleware.RateLimiter
	Metrics       *middleware.Metrics
	MetricsPath   string
	CORSOrigins   []string
	DefaultLocale string
	StaticDir     string

	Rules                 services.PointRules
	Curve                 services.LevelCurve
	WeeklyWindow          int
	Location              *time.Location
	TokenTTL              time.Duration
	EntryListDefault      int
	EntryListMax          int
	ReflectionListDefault int

	Commit    string
	BuildTime string
}

type Router struct {
	logger      *log.Logger
	tokens      *middleware.TokenIssuer
	auth        *services.AuthService
	entries     *services.EntryService
	reflections *services.ReflectionService
	experiments *services.ExperimentService
	dashboard   *services.DashboardService
	opts        Options
}

// NewRouter wires the use-case services over store.
func NewRouter(store Store, opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Tokens == nil {
		opts.Tokens = middleware.NewTokenIssuer(utils.SafeEnv("DEVLEVEL_JWT_SECRET", "devlevel-dev-secret"), "", false)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Curve.BaseXP == 0 {
		opts.Curve = services.DefaultLevelCurve()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.RateLimiter != nil {
		logger := opts.Logger
		opts.RateLimiter.OnReject(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, logger, services.NewTooManyRequestsError("too many requests"))
		})
	}
	return &Router{
		logger:      opts.Logger,
		tokens:      opts.Tokens,
		auth:        services.NewAuthService(store, opts.Tokens.SignToken, opts.TokenTTL),
		entries:     services.NewEntryService(store, opts.Location, opts.EntryListDefault, opts.EntryListMax),
		reflections: services.NewReflectionService(store, opts.Location, opts.ReflectionListDefault),
		experiments: services.NewExperimentService(store, store, opts.Rules, opts.Location),
		dashboard:   services.NewDashboardService(store, opts.Rules, opts.Curve, opts.WeeklyWindow, opts.Location),
		opts:        opts,
	}
}

// Handler builds the full HTTP handler tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(rt.opts.CORSOrigins))
	r.Use(middleware.LocaleMiddleware(rt.opts.DefaultLocale))
	if rt.opts.Metrics != nil {
		r.Use(rt.opts.Metrics.Middleware)
		r.Handle(rt.opts.MetricsPath, rt.opts.Metrics.Handler())
	}

	r.Get("/health", rt.handleHealth)
	r.Get("/version", rt.handleVersion)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.NoStore)
		api.Use(rt.tokens.WithAuth)

		api.Route("/auth", func(ar chi.Router) {
			ar.With(rt.limit("register")).Post("/register", rt.handleRegister)
			ar.With(rt.limit("login")).Post("/login", rt.handleLogin)
			ar.Post("/logout", rt.handleLogout)
			ar.With(middleware.RequireAuth).Get("/me", rt.handleMe)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth)

			pr.Get("/entries", rt.handleListEntries)
			pr.Post("/entries", rt.handleCreateEntry)
			pr.Get("/entries/{id}", rt.handleGetEntry)
			pr.Patch("/entries/{id}", rt.handleUpdateEntry)
			pr.Put("/entries/{id}", rt.handleUpdateEntry)
			pr.Delete("/entries/{id}", rt.handleDeleteEntry)

			pr.Get("/reflections", rt.handleListReflections)
			pr.Post("/reflections", rt.handleCreateReflection)
			pr.Get("/reflections/{weekStart}", rt.handleGetReflection)
			pr.Put("/reflections/{weekStart}", rt.handleUpdateReflection)

			pr.Get("/experiments", rt.handleListExperiments)
			pr.Post("/experiments", rt.handleCreateExperiment)
			pr.Get("/experiments/{id}", rt.handleGetExperiment)
			pr.Patch("/experiments/{id}", rt.handleUpdateExperiment)
			pr.Put("/experiments/{id}", rt.handleUpdateExperiment)
			pr.Delete("/experiments/{id}", rt.handleDeleteExperiment)
			pr.Post("/experiments/{id}/compliance", rt.handleLogCompliance)
			pr.Get("/experiments/{id}/correlation", rt.handleCorrelation)

			pr.Get("/gamification", rt.handleGamification)
			pr.Get("/gamification/legend", rt.handleLegend)
			pr.Get("/dashboard", rt.handleDashboard)
		})
	})

	if dir := rt.opts.StaticDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			rt.logger.Warn("static dir not served", "dir", dir, "err", err)
		}
	}
	return r
}

func (rt *Router) limit(key string) func(http.Handler) http.Handler {
	if rt.opts.RateLimiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rt.opts.RateLimiter.Middleware(key)
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "devlevel API",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.opts.Commit,
		"build_time": rt.opts.BuildTime,
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"commit":     rt.opts.Commit,
		"build_time": rt.opts.BuildTime,
	})
}

// userID is only called behind RequireAuth.
func userID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}
