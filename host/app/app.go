package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/edigermatthew/wonder-alt/host/config"
	"github.com/edigermatthew/wonder-alt/host/db"
	"github.com/edigermatthew/wonder-alt/host/hooks"
	"github.com/edigermatthew/wonder-alt/host/httpapi"
	logpkg "github.com/edigermatthew/wonder-alt/host/logger"
	"github.com/edigermatthew/wonder-alt/host/media"
	"github.com/edigermatthew/wonder-alt/host/metrics"
	"github.com/edigermatthew/wonder-alt/host/plugins"
	"github.com/edigermatthew/wonder-alt/host/worker"

	_ "github.com/edigermatthew/wonder-alt/plugins/wonderalt"
)

// App wires the media library, plugins and HTTP server together.
type App struct {
	Config  *config.Config
	Logger  *logpkg.Logger
	DB      *db.Repository
	Pool    *worker.Pool
	Media   *media.Service
	Metrics *metrics.Metrics
	HTTP    *http.Server
	Plugins []string
	Build   BuildInfo

	listener net.Listener
}

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

// New loads configuration from configPath and builds the application.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(ctx, conf, build)
}

// NewFromConfig builds the application from a loaded configuration.
func NewFromConfig(_ context.Context, conf *config.Config, build BuildInfo) (*App, error) {
	log, err := logpkg.New(logpkg.Options{
		Level:     conf.GetString("LogLevel"),
		Format:    conf.GetString("LogFormat"),
		AddSource: conf.GetBool("LogSource"),
		Dir:       conf.GetString("LogDir"),
	})
	if err != nil {
		return nil, err
	}

	gormLogger := logpkg.NewGormLogger(log.Slog(), logpkg.ParseGormLevel(conf.GetString("GormLogLevel")))
	databasePath := conf.GetString("Database")
	if strings.TrimSpace(databasePath) == "" {
		databasePath = "wonderalt.db"
	}

	repo, err := db.NewSQLiteRepository(databasePath, gormLogger)
	if err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("init db: %w", err)
	}
	poolMaxOpen := conf.GetInt("DBMaxOpenConns")
	poolMaxIdle := conf.GetInt("DBMaxIdleConns")
	poolMaxLifetimeSec := conf.GetInt("DBConnMaxLifetimeSec")
	if err := repo.ConfigurePool(poolMaxOpen, poolMaxIdle, time.Duration(poolMaxLifetimeSec)*time.Second); err != nil {
		_ = repo.Close()
		_ = log.Close()
		return nil, fmt.Errorf("configure db pool: %w", err)
	}

	pool := worker.New(conf.GetInt("WorkerPoolSize"))
	library := media.NewService(repo, hooks.New(), pool, log.With("component", "media"))
	m := metrics.New()

	a := &App{
		Config:  conf,
		Logger:  log,
		DB:      repo,
		Pool:    pool,
		Media:   library,
		Metrics: m,
		Build:   build,
	}
	a.loadPlugins()

	server := httpapi.New(library, m, log.With("component", "http"), httpapi.Options{
		AdminToken:    conf.GetString("AdminToken"),
		CORSOrigins:   conf.GetStringList("CORSOrigins"),
		RatePerSecond: conf.GetFloat64("RateLimitPerSecond"),
		RateBurst:     conf.GetInt("RateLimitBurst"),
	})
	a.HTTP = &http.Server{
		Addr:              conf.GetString("ListenAddr"),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) loadPlugins() {
	conf, log := a.Config, a.Logger

	pluginNames := conf.PluginNames()
	if len(pluginNames) == 0 {
		pluginNames = plugins.Names()
	}
	for _, name := range pluginNames {
		enabled := true
		if conf.HasPluginKey(name, "enabled") {
			enabled = conf.GetPluginBool(name, "enabled")
		}
		if !enabled {
			log.Info("plugin disabled by config", "plugin", name)
			continue
		}

		factory, ok := plugins.Get(name)
		if !ok {
			log.Warn("plugin not registered", "plugin", name)
			continue
		}

		contrib, err := factory(plugins.Deps{
			Config:   conf,
			Logger:   log,
			Media:    a.Media,
			Recorder: a.Metrics,
		})
		if err != nil {
			log.Error("plugin init failed", "plugin", name, "error", err)
			continue
		}
		if contrib == nil {
			continue
		}
		a.Plugins = append(a.Plugins, name)
		log.Info("plugin loaded", "plugin", name, "hooks", strings.Join(contrib.Hooks, ","))
	}
}

// Start begins serving HTTP in the background.
func (a *App) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", a.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.HTTP.Addr, err)
	}
	a.listener = ln

	a.Logger.Info("wonder-alt started",
		"addr", ln.Addr().String(),
		"version", a.Build.BinVersion,
		"plugins", strings.Join(a.Plugins, ","),
	)

	go func() {
		if err := a.HTTP.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("http server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address once started.
func (a *App) Addr() string {
	if a.listener == nil {
		return a.HTTP.Addr
	}
	return a.listener.Addr().String()
}

// Shutdown stops the server, drops scheduled work and closes storage.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.HTTP != nil && a.listener != nil {
		if err := a.HTTP.Shutdown(ctx); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown http server: %w", err)
			}
		}
	}

	if a.Media != nil {
		if n := a.Media.Pending(); n > 0 {
			a.Logger.Warn("dropping scheduled alt text fills", "count", n)
		}
		a.Media.Close()
	}

	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			a.Pool.StopNow()
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown worker pool: %w", err)
			}
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("failed to close database", "error", err)
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("close logger: %w", err)
			}
		}
	}

	return firstErr
}
