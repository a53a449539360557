package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/herbveda/storefront/app/jobs"
	"github.com/herbveda/storefront/app/repositories"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/mongodb"
	"github.com/herbveda/storefront/pkg/queue"
	"github.com/herbveda/storefront/pkg/schedule"
)

var queueWorkersFlag int

// storefront queue:work — run queue workers in a standalone process. Only
// useful with the Redis driver; the memory driver is per-process.
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start standalone queue workers (requires QUEUE_DRIVER=redis)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bootCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		cleanup, err := bootDB(bootCtx)
		if err != nil {
			return err
		}
		defer cleanup()

		if config.QueueDriver() != "redis" {
			return fmt.Errorf("queue:work needs QUEUE_DRIVER=redis; the memory driver cannot be shared across processes")
		}
		queue.SetDriver(queue.NewRedisDriver(redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr(),
			Password: config.RedisPassword(),
		})))
		queue.UseCollection(mongodb.DB().Collection(mongodb.FailedJobsCollection))
		jobs.RegisterInvoiceListener()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 5
		}

		fmt.Printf("Queue workers started (%d). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers)

		<-ctx.Done()
		fmt.Println("\nQueue workers stopped.")
		return nil
	},
}

// storefront schedule:run — run the scheduler in a standalone process.
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bootCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		cleanup, err := bootDB(bootCtx)
		if err != nil {
			return err
		}
		defer cleanup()

		otps := repositories.NewOtpRepository(mongodb.DB())
		schedule.Every(time.Hour, "otp-sweep", func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if n, err := otps.SweepExpired(sweepCtx); err == nil && n > 0 {
				fmt.Printf("otp sweep: deleted %d\n", n)
			}
		})

		for _, t := range schedule.List() {
			fmt.Println("  -", t)
		}
		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		schedule.Start(ctx)

		<-ctx.Done()
		fmt.Println("\nScheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "Number of concurrent workers")
}
