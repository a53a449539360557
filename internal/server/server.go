// Package server is the composition root: it connects the database, wires
// the queue, scheduler, and middleware stack, and runs the HTTP server until
// a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/herbveda/storefront/app/jobs"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/app/routes"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/logger"
	"github.com/herbveda/storefront/pkg/metrics"
	"github.com/herbveda/storefront/pkg/middleware"
	"github.com/herbveda/storefront/pkg/mongodb"
	"github.com/herbveda/storefront/pkg/queue"
	"github.com/herbveda/storefront/pkg/reqid"
	"github.com/herbveda/storefront/pkg/router"
	"github.com/herbveda/storefront/pkg/schedule"
)

const (
	queueWorkers    = 5
	otpSweepEvery   = time.Hour
	shutdownTimeout = 10 * time.Second
)

// Start boots everything and blocks until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := mongodb.Connect(connectCtx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongodb.Close(closeCtx)
	}()

	if err := mongodb.EnsureIndexes(connectCtx); err != nil {
		return err
	}
	db := mongodb.DB()

	if config.Get("LOG_MONGO", "false") == "true" {
		logger.SetHandler(logger.NewMongoHandler(db.Collection(mongodb.LogsCollection), logger.L.Handler()))
	}

	// Queue: memory by default, Redis when jobs must survive restarts.
	// Failed jobs land in Mongo either way.
	if config.QueueDriver() == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
		})
		queue.SetDriver(queue.NewRedisDriver(rdb))
	}
	queue.UseCollection(db.Collection(mongodb.FailedJobsCollection))
	jobs.RegisterInvoiceListener()
	queue.StartWorkers(ctx, queueWorkers)

	otps := repositories.NewOtpRepository(db)
	schedule.Every(otpSweepEvery, "otp-sweep", func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := otps.SweepExpired(sweepCtx)
		if err != nil {
			logger.Error("otp sweep failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("otp sweep", "deleted", n)
		}
	})
	schedule.Start(ctx)

	r := router.New()
	r.Use(
		reqid.Middleware(),
		metrics.Middleware(),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(corsOptions()),
	)
	routes.RegisterAPI(r, db)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func corsOptions() middleware.CORSOptions {
	opts := middleware.DefaultCORSOptions()
	if origins := config.ClientOrigins(); len(origins) > 0 {
		opts.AllowedOrigins = origins
	}
	return opts
}
