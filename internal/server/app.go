// Package server wires the chat server together: storage, the chat hub,
// the TCP listener and the admin HTTP endpoint, with graceful shutdown on
// SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/api"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/chat"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/events"
	"github.com/dmitrijs2005/gophchat/internal/server/metrics"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/dmitrijs2005/gophchat/internal/server/tcp"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	recorder *events.Recorder
	chat     *tcp.Server
	admin    *api.Server
}

// NewApp opens storage and builds every component. An empty DSN selects the
// in-memory store, otherwise migrations run before the app is returned.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(out, level)

	db, rm, err := openStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	us := services.NewUserService(db, rm)
	ms := services.NewMessageService(db, rm)

	m := metrics.New()
	hub := chat.NewHub(logger, m)
	rec := events.NewRecorder(ms, logger, events.DefaultBufferSize)
	hs := auth.NewHandshake(us, logger, auth.WithMaxAttempts(c.MaxLoginAttempts), auth.WithMetrics(m))

	cs := tcp.NewServer(tcp.Config{
		Addr:         c.EndpointAddrTCP,
		QueueSize:    c.OutboundQueueSize,
		MaxFrameSize: c.MaxFrameSize,
		IdleTimeout:  c.IdleTimeout,
	}, hs, hub, rec, logger)

	app := &App{config: c, logger: logger, db: db, recorder: rec, chat: cs}
	if c.EndpointAddrHTTP != "" {
		app.admin = api.NewServer(c.EndpointAddrHTTP, us, ms, hub, m.Handler(), logger)
	}
	return app, nil
}

func openStore(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn == "" {
		return nil, repomanager.NewMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, rm, nil
}

// Run serves until ctx is done or a signal arrives. A listen failure on the
// chat endpoint is returned before anything is served.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.chat.Listen(); err != nil {
		return err
	}
	app.logger.Info(ctx, "Starting app...", "tcp", app.chat.Addr().String(), "http", app.config.EndpointAddrHTTP)

	recCtx, stopRecorder := context.WithCancel(context.Background())
	recDone := make(chan struct{})
	go func() {
		defer close(recDone)
		app.recorder.Run(recCtx)
	}()

	var wg sync.WaitGroup

	if app.admin != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.admin.Start(); err != nil {
				app.logger.Error(ctx, "admin server failed", "error", err)
			}
		}()
	}

	serveErr := app.chat.Serve(ctx)
	if serveErr != nil {
		app.logger.Error(ctx, "chat server failed", "error", serveErr)
	}

	app.logger.Info(context.Background(), "Shutting down...")

	if app.admin != nil {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := app.admin.Stop(sctx); err != nil {
			app.logger.Warn(sctx, "admin shutdown", "error", err)
		}
		cancel()
	}
	wg.Wait()

	stopRecorder()
	<-recDone

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close", "error", err)
		}
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}
