package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/config"
	"github.com/mh26/services/internal/handlers"
	"github.com/mh26/services/internal/kafka"
	"github.com/mh26/services/internal/lock"
	"github.com/mh26/services/internal/pg"
	"github.com/mh26/services/internal/repo"
	"github.com/mh26/services/internal/service"
	"github.com/mh26/services/internal/service/bookingservice"
	"github.com/mh26/services/internal/settlement"
	"github.com/mh26/services/pkg/auth"
	"github.com/mh26/services/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	io.Closer
}

type Application struct {
	cfg        *config.Config
	api        *handlers.Handlers
	srv        *service.Services
	repo       *repo.Repositories
	settlement *settlement.Service

	closers []io.Closer
	errCh   chan error
	wg      sync.WaitGroup
	ready   bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	locker, err := a.newLocker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("can't connect to redis: %w", err)
	}
	producer := newPublisher(cfg)
	a.closers = append(a.closers, producer)

	conn := pg.New(pool)
	a.cfg = cfg
	a.repo = repo.New(conn)
	a.srv = service.New(cfg, a.repo, txManager, locker, producer)
	a.api = handlers.New(a.srv, auth.NewJWTService(cfg.JWTSecret))
	a.settlement = settlement.New(cfg, a.srv.Settler)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.settlement.Start(ctx)
	a.closeOnDone(ctx, pool)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

// newLocker picks the Redis lock when an address is configured and the
// in-process lock otherwise.
func (a *Application) newLocker(ctx context.Context, cfg *config.Config) (bookingservice.Locker, error) {
	if cfg.RedisAddress == "" {
		zap.L().Info("redis address is empty, using in-process booking locks")
		return lock.NewLocal(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	a.closers = append(a.closers, client)
	return lock.NewRedis(client, cfg.LockTTL), nil
}

func newPublisher(cfg *config.Config) publisher {
	if len(cfg.KafkaBrokers) == 0 {
		zap.L().Info("kafka brokers are not set, notifications are stored only")
		return kafka.Discard{}
	}
	return kafka.NewProducer(cfg.KafkaBrokers, cfg.NotificationsTopic)
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:    a.cfg.Address,
		Handler: router,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// closeOnDone releases external connections once ctx is cancelled.
func (a *Application) closeOnDone(ctx context.Context, pool *pgxpool.Pool) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		for _, c := range a.closers {
			if err := c.Close(); err != nil {
				zap.L().Warn("close failed", zap.Error(err))
			}
		}
		pool.Close()
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
