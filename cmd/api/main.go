// Package main is the entrypoint for the Inkwell API server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/inkwell/inkwell/internal/auth"
	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/handler"
	"github.com/inkwell/inkwell/internal/metrics"
	"github.com/inkwell/inkwell/internal/middleware"
	"github.com/inkwell/inkwell/internal/repository"
	"github.com/inkwell/inkwell/internal/server"
	"github.com/inkwell/inkwell/internal/service"
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, logger); err != nil {
			logger.Error("failed to run migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	cacheClient.SetPostTTL(cfg.PostCacheTTL)
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()
	tokens := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userService := service.NewUserService(repo, repo, tokens, cacheClient, cacheClient, recorder)
	categoryService := service.NewCategoryService(repo, repo, cacheClient, recorder)
	postService := service.NewPostService(repo, repo, repo, cacheClient, recorder, service.PostServiceConfig{
		SlugMaxAttempts: cfg.SlugMaxAttempts,
		RecentLimit:     cfg.RecentPostsLimit,
	})
	commentService := service.NewCommentService(repo, repo, recorder)
	dashboardService := service.NewDashboardService(repo, repo)

	handlers := routes{
		root:       handler.New(),
		health:     handler.NewHealthHandler(handler.Dependency{Name: "database", Checker: repo}, handler.Dependency{Name: "redis", Checker: cacheClient}),
		metrics:    handler.NewMetricsHandler(recorder),
		users:      handler.NewUserHandler(userService, logger),
		posts:      handler.NewPostHandler(postService, logger),
		categories: handler.NewCategoryHandler(categoryService, logger),
		comments:   handler.NewCommentHandler(commentService, logger),
		dashboard:  handler.NewDashboardHandler(dashboardService, logger),
	}

	r := setupRouter(handlers, userService, cacheClient, cfg, logger)

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: Redis closes before the database pool.
	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", handler.Version,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "inkwell")
	slog.SetDefault(logger)

	return logger
}

// routes groups the HTTP handlers mounted by setupRouter.
type routes struct {
	root       *handler.Handler
	health     *handler.HealthHandler
	metrics    *handler.MetricsHandler
	users      *handler.UserHandler
	posts      *handler.PostHandler
	categories *handler.CategoryHandler
	comments   *handler.CommentHandler
	dashboard  *handler.DashboardHandler
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h routes,
	authenticator middleware.Authenticator,
	limiter middleware.IPLimiter,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins()
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health checks and metrics
	r.Get("/", h.root.Hello)
	r.Get("/healthz", h.health.Healthz)
	r.Get("/readyz", h.health.Readyz)
	r.Get("/metrics", h.metrics.Metrics)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: limiter,
		Enabled: cfg.RateLimitEnabled,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(middleware.AuthConfig{
			Logger:        logger,
			Authenticator: authenticator,
		}))

		// Accounts and sessions
		r.With(middleware.RateLimitIP(rateLimitCfg, "register")).Post("/register", h.users.Register)
		r.With(middleware.RateLimitIP(rateLimitCfg, "login")).Post("/login", h.users.Login)
		r.Post("/token/refresh", h.users.Refresh)
		r.Post("/token/verify", h.users.Verify)
		r.Post("/logout", h.users.Logout)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.users.List)
			r.Get("/{username}", h.users.Get)
			r.Put("/{username}", h.users.Update)
			r.Delete("/{username}", h.users.Delete)
		})
		r.With(middleware.RequireAuth()).Get("/user/posts", h.posts.Mine)

		// Posts; fixed paths are registered before the slug pattern.
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", h.posts.List)
			r.Post("/", h.posts.Create)
			r.Get("/recent", h.posts.Recent)
			r.Get("/search", h.posts.Search)
			r.Get("/{slug}", h.posts.Get)
			r.Put("/{slug}", h.posts.Update)
			r.Patch("/{slug}", h.posts.Update)
			r.Delete("/{slug}", h.posts.Delete)
		})

		r.Route("/category", func(r chi.Router) {
			r.Get("/", h.categories.List)
			r.Post("/", h.categories.Create)
			r.Get("/{name}", h.categories.Get)
			r.Put("/{name}", h.categories.Update)
			r.Delete("/{name}", h.categories.Delete)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", h.comments.List)
			r.With(middleware.RateLimitIP(rateLimitCfg, "comment")).Post("/", h.comments.Create)
			r.Get("/{id}", h.comments.Get)
			r.Put("/{id}", h.comments.Update)
			r.Delete("/{id}", h.comments.Delete)
		})

		r.With(middleware.RequireAuth()).Get("/dashboard", h.dashboard.Get)
	})

	// 404 and 405 handlers
	r.NotFound(h.root.NotFound)
	r.MethodNotAllowed(h.root.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	q := parsed.Query()
	if q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
