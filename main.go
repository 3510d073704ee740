//
// Blog
// ====
// A blog publishing service. Admins write articles and move them between
// draft and published; everyone else reads what is published.
//
// Pass -routes to print the generated route docs: `go run . -routes`
//
// Boot the server:
// ----------------
// $ BLOG_JWT_SECRET=dev go run . -seed -env development
//
// Client requests:
// ----------------
// $ curl http://localhost:3333/articles
// [{"id":3,"title":"Published Article 1",...}]
//
// $ curl -X POST -d '{"email":"admin@example.com","password":"password123"}' http://localhost:3333/sessions
// {"token":"eyJ...","redirectTo":"/admin/articles",...}
//
// $ curl -H 'Authorization: Bearer eyJ...' http://localhost:3333/admin/articles
// {"published":[...],"drafts":[...]}
//
// $ curl -H 'Authorization: Bearer eyJ...' -X POST http://localhost:3333/admin/articles/4/publish
// {"article":{...},"notice":{"kind":"success","message":"Article 'Draft Article 1' was successfully published and is now live on the blog."},"redirectTo":"/admin/articles"}
//
// $ curl http://localhost:9999/metrics
//
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/docgen"
	"github.com/go-chi/render"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SergeyParamoshkin/blog/internal/article"
	"github.com/SergeyParamoshkin/blog/internal/auth"
	"github.com/SergeyParamoshkin/blog/internal/config"
	"github.com/SergeyParamoshkin/blog/internal/seed"
	"github.com/SergeyParamoshkin/blog/internal/storage"
	"github.com/SergeyParamoshkin/blog/internal/telemetry"
	"github.com/SergeyParamoshkin/blog/internal/user"
)

type CtxKey int8

const (
	CtxKeyLogger CtxKey = iota
)

type App struct {
	sugarLogger *zap.SugaredLogger
	config      config.Config

	telemetry *telemetry.Provider
	db        *gorm.DB
	redis     *redis.Client

	articleStore *article.GormStore
	userStore    *user.GormStore
	auth         *auth.Service

	articleAPI *article.API
	userAPI    *user.API
	authAPI    *auth.API

	pings metric.Int64Counter
}

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Routes {
		// The docs only walk the router; nothing is served or stored.
		cfg.DB = storage.Config{Driver: storage.DriverSQLite, DSN: "file:routes?mode=memory"}
		cfg.JWTSecret = "routes"
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() // flushes buffer, if any
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := NewApp(ctx, cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to start", "error", err)
	}
	defer a.Close()

	r := a.Router()

	// Passing -routes to the program will generate docs for the above
	// router definition.
	if cfg.Routes {
		fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: "github.com/SergeyParamoshkin/blog",
			Intro:       "Routes of the blog publishing service.",
		}))

		return
	}

	if cfg.Seed {
		res, err := seed.Run(ctx, a.userStore, a.articleStore, sugar)
		if err != nil {
			sugar.Fatalw("failed to seed", "error", err)
		}
		sugar.Infow("seeding completed", "admin", res.Admin.Email, "articles", res.ArticlesCreated)
	}

	if err := a.Serve(ctx, r); err != nil {
		sugar.Errorw(err.Error())
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

// NewApp opens the database and wires the services behind the router.
func NewApp(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) (*App, error) {
	a := &App{sugarLogger: sugar, config: cfg}

	telCfg := telemetry.Config{ServiceName: config.ServiceName, Environment: cfg.Env}
	if cfg.TraceStdout {
		telCfg.TraceWriter = os.Stdout
	}

	var err error
	if a.telemetry, err = telemetry.New(ctx, telCfg); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	if a.db, err = storage.Open(cfg.DB, sugar); err != nil {
		a.Close()

		return nil, err
	}
	if err = storage.Migrate(a.db); err != nil {
		a.Close()

		return nil, err
	}

	var denylist auth.Denylist = auth.NewMemoryDenylist()
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err = a.redis.Ping(ctx).Err(); err != nil {
			a.Close()

			return nil, fmt.Errorf("redis: %w", err)
		}
		denylist = auth.NewRedisDenylist(a.redis)
	}

	a.articleStore = article.NewGormStore(a.db)
	a.userStore = user.NewGormStore(a.db)

	articles, err := article.NewService(a.articleStore, sugar)
	if err != nil {
		a.Close()

		return nil, err
	}

	if a.auth, err = auth.NewService(a.userStore, denylist, cfg.JWTSecret, cfg.TokenTTL, sugar); err != nil {
		a.Close()

		return nil, err
	}

	a.articleAPI = article.NewAPI(articles)
	a.userAPI = user.NewAPI(user.NewService(a.userStore, sugar))
	a.authAPI = auth.NewAPI(a.auth)

	a.pings, err = otel.Meter(config.ServiceName).Int64Counter("blog.ping.completed",
		metric.WithDescription("Count of completed pings"))
	if err != nil {
		a.Close()

		return nil, err
	}

	return a, nil
}

func (a *App) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(a.Logger)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(a.auth.Authenticate)

	r.Get("/", a.articleAPI.Feed)
	r.Get("/ping", a.Ping)

	// The public reader surface
	r.Mount("/articles", a.articleAPI.PublicRouter())

	// Accounts and sessions
	r.Post("/users", a.authAPI.Register)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", a.authAPI.SignIn)
		r.Delete("/", a.authAPI.SignOut)
	})

	// The admin surface; both sub-routers refuse anyone but admins.
	r.Route("/admin", func(r chi.Router) {
		r.Mount("/articles", a.articleAPI.AdminRouter())
		r.Mount("/users", a.userAPI.AdminRouter())
	})

	return r
}

func (a *App) Ping(w http.ResponseWriter, r *http.Request) {
	logger := r.Context().Value(CtxKeyLogger).(*zap.SugaredLogger)
	logger.Infow("ping with middle")
	a.pings.Add(r.Context(), 1, metric.WithAttributes(attribute.String("status", "200")))

	if _, err := w.Write([]byte("pong")); err != nil {
		logger.Errorw(err.Error())
	}
}

// Logger puts a request-scoped logger on the context.
func (a *App) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := a.sugarLogger.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), CtxKeyLogger, logger)))
	})
}

// Serve runs the API and the diag server until ctx is done.
func (a *App) Serve(ctx context.Context, r chi.Router) error {
	diagRouter := chi.NewRouter()
	diagRouter.Get("/metrics", a.telemetry.MetricsHandler().ServeHTTP)

	servers := []*http.Server{
		{Addr: a.config.Addr, Handler: otelhttp.NewHandler(r, config.ServiceName)},
		{Addr: a.config.DiagAddr, Handler: diagRouter},
	}

	errs := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			a.sugarLogger.Infow("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		a.sugarLogger.Infow("shutting down")
	case err = <-errs:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range servers {
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			a.sugarLogger.Errorw("failed to shutdown server", "addr", srv.Addr, "error", serr)
		}
	}

	return err
}

// Close releases what NewApp opened.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(ctx); err != nil {
			a.sugarLogger.Errorw("failed to shutdown telemetry", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.sugarLogger.Errorw("failed to close redis", "error", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
