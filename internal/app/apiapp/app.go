package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Sazoks/apptrix-test/internal/config"
	"github.com/Sazoks/apptrix-test/internal/notify"
	memrepo "github.com/Sazoks/apptrix-test/internal/repo/memory"
	pgrepo "github.com/Sazoks/apptrix-test/internal/repo/postgres"
	redrepo "github.com/Sazoks/apptrix-test/internal/repo/redis"
	matchsvc "github.com/Sazoks/apptrix-test/internal/services/match"
	proximitysvc "github.com/Sazoks/apptrix-test/internal/services/proximity"
	ratesvc "github.com/Sazoks/apptrix-test/internal/services/rate"
	"github.com/Sazoks/apptrix-test/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing on in-memory stores", zap.Error(err))
	} else {
		pool = p
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	} else {
		log.Warn("redis address is empty, match events go to the log and likes are unthrottled")
	}

	var (
		affinity  matchsvc.AffinityStore
		directory handlers.UserDirectory
		resolver  matchsvc.UserDirectory
		proxDir   proximitysvc.UserDirectory
	)
	if pool != nil {
		affinity = pgrepo.NewAffinityRepo(pool)
		userRepo := pgrepo.NewUserRepo(pool)
		directory = userRepo
		resolver = userRepo
		proxDir = userRepo
	} else {
		memAffinity := memrepo.NewAffinityRepo()
		memDirectory := memrepo.NewUserDirectory()
		affinity = memAffinity
		directory = memDirectory
		resolver = memDirectory
		proxDir = memDirectory
	}

	var notifier notify.Notifier
	if redisClient != nil {
		notifier = redrepo.NewMatchPublisher(redisClient)
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	var rateLimiter matchsvc.RateLimiter
	if redisClient != nil {
		rateLimiter = ratesvc.NewLimiter(
			redrepo.NewRateRepo(redisClient),
			cfg.Limits.LikesPerMinute,
			cfg.Limits.LikesPer10Seconds,
		)
	}

	matchService := matchsvc.NewService(matchsvc.Dependencies{
		Affinity:    affinity,
		Directory:   resolver,
		Notifier:    notifier,
		RateLimiter: rateLimiter,
		Logger:      log,
	})
	proximityService := proximitysvc.NewService(proxDir)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		MatchService:     matchService,
		ProximityService: proximityService,
		Directory:        directory,
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
