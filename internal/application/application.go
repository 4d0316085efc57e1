package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/opendv/site-config/internal/api"
	"github.com/opendv/site-config/internal/config"
	"github.com/opendv/site-config/internal/siteconfig"
	"github.com/opendv/site-config/internal/snapshot"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	store   snapshot.Store
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application around an already resolved site snapshot.
func New(cfg config.Config, site *siteconfig.Resolved, logger *zap.Logger) (*App, error) {
	store := snapshot.NewCell()
	if err := store.Set(site); err != nil {
		return nil, fmt.Errorf("failed to store site configuration: %w", err)
	}

	handler := api.NewHandler(store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithAllowedOrigins(cfg.AllowedOrigins...),
	)

	return &App{
		store:   store,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// LoadBase builds the site base from compiled-in defaults overlaid by the
// configured YAML file and Slice Machine project file, in that order.
func LoadBase(cfg config.Config) (siteconfig.Base, error) {
	base := siteconfig.DefaultBase()

	if cfg.SiteConfigFile != "" {
		var err error
		base, err = siteconfig.LoadBaseFile(cfg.SiteConfigFile, base)
		if err != nil {
			return siteconfig.Base{}, fmt.Errorf("load site config %s: %w", cfg.SiteConfigFile, err)
		}
	}

	if cfg.SliceMachineFile != "" {
		var err error
		base, err = siteconfig.LoadSliceMachineFile(cfg.SliceMachineFile, base)
		if err != nil {
			return siteconfig.Base{}, fmt.Errorf("load slice machine config %s: %w", cfg.SliceMachineFile, err)
		}
	}

	return base, nil
}

// ResolveSite loads the base and resolves it against env. Validation failures
// are logged violation by violation before the error is returned.
func ResolveSite(cfg config.Config, env siteconfig.Environment, logger *zap.Logger) (*siteconfig.Resolved, error) {
	base, err := LoadBase(cfg)
	if err != nil {
		return nil, err
	}

	site, err := siteconfig.Resolve(base, env)
	if err != nil {
		var verr *siteconfig.ValidationError
		if errors.As(err, &verr) {
			logger.Error("site configuration rejected",
				zap.Int("violation_count", len(verr.Violations)),
				zap.Array("violations", verr.Violations),
			)
		}
		return nil, err
	}

	if cms := site.CMS(); !cms.ConventionalEndpoint() {
		logger.Warn("cms endpoint is neither a repository name nor an https URL",
			zap.String("endpoint", cms.Endpoint),
		)
	}
	logger.Info("site configuration resolved", zap.Object("site", site))
	return site, nil
}

// BuildRootHandler mounts the API under /api/ and answers 404 elsewhere.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
	return mux
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
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
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
