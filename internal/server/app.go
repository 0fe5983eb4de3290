// Package server wires the taskkeeper API together: configuration, the
// PostgreSQL pool and migrations, the token ledger backend, mail delivery,
// the REST server and the gRPC health endpoint. It also owns graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mail"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/taskkeeper/internal/server/grpc"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	repomanager repomanager.RepositoryManager
	notifier    *mail.Notifier
	handler     *httpserver.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	opts, rdb, err := tokenStoreOptions(ctx, c)
	if err != nil {
		db.Close()
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager(opts...)

	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		if rdb != nil {
			rdb.Close()
		}
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	notifier := mail.NewNotifier(newMailer(c, logger), logger, c.MailTimeout)

	us := services.NewUserService(db, rm, c, notifier, logger)
	ts := services.NewTaskService(db, rm, logger)
	as := services.NewAvatarService(db, rm, c, logger)
	us.SetObjectRemover(as)

	h := httpserver.NewHandler(us, ts, as, db.PingContext, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		redis:       rdb,
		repomanager: rm,
		notifier:    notifier,
		handler:     h,
	}, nil
}

// tokenStoreOptions selects the token ledger backend. The redis backend
// returns the client so the app can close it.
func tokenStoreOptions(ctx context.Context, c *config.Config) ([]repomanager.Option, *redis.Client, error) {
	switch c.TokenStore {
	case "", config.TokenStorePostgres:
		return nil, nil, nil
	case config.TokenStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis init error: %w", err)
		}
		return []repomanager.Option{repomanager.WithRedisTokens(rdb)}, rdb, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store %q", c.TokenStore)
	}
}

func newMailer(c *config.Config, l logging.Logger) mail.Mailer {
	if c.SendGridAPIKey == "" {
		l.Warn(context.Background(), "SENDGRID_API_KEY is not set, emails are only logged")
		return mail.NewNopMailer(l)
	}
	return mail.NewSendGridMailer(c.SendGridAPIKey, c.MailFrom)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpserver.NewServer(app.config.HTTPAddr, app.handler.Routes(), app.logger, app.config.ShutdownTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.db.PingContext, 0)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or a server fails, then
// drains pending mail and closes the stores.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()

	if err := app.notifier.Wait(ctx); err != nil {
		app.logger.Warn(ctx, "pending emails dropped", "error", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
