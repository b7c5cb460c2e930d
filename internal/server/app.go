// Package server wires the user-account service together: database and
// migrations, the admin bootstrap, the gRPC endpoint and the metrics
// endpoint, plus graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/portalusers/internal/logging"
	"github.com/dmitrijs2005/portalusers/internal/server/auth"
	"github.com/dmitrijs2005/portalusers/internal/server/config"
	"github.com/dmitrijs2005/portalusers/internal/server/metrics"
	"github.com/dmitrijs2005/portalusers/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portalusers/internal/server/services"

	gs "github.com/dmitrijs2005/portalusers/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	metrics     *metrics.Metrics
	userService *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us := services.NewUserService(db, rm, auth.NewBcryptHasher(c.BcryptCost), c)

	if c.AdminPassword != "" {
		created, err := us.EnsureAdmin(ctx, c.AdminUserName, c.AdminPassword)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("admin bootstrap error: %w", err)
		}
		if created {
			logger.Info(ctx, "Admin account created", "username", c.AdminUserName)
		}
	}

	return &App{config: c, logger: logger, db: db, metrics: metrics.New(), userService: us}, nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.metrics,
		app.config.SecretKey, app.config.AdminUserName)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := metrics.NewServer(app.config.MetricsAddr, app.metrics, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
