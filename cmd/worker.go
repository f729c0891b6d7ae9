package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/donation"
	donationPostgres "github.com/frahmantamala/donation-management/internal/donation/postgres"
	"github.com/frahmantamala/donation-management/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers for donation lifecycle maintenance.`,
}

var expirerWorkerCmd = &cobra.Command{
	Use:   "expirer",
	Short: "Start the pending-donation expiry sweeper",
	Long:  `Periodically expires donations that stayed pending past the expiry window.`,
	Run: func(cmd *cobra.Command, args []string) {
		startExpirerWorker()
	},
}

var (
	sweepBatchSize int
)

func startExpirerWorker() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	gormDB, err := initGorm(sqlDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	eventBus := events.NewEventBus(lg)
	donationRepo := donationPostgres.NewDonationRepository(gormDB)
	donationService := donation.NewService(donationRepo, eventBus, lg)

	lg.Info("expirer worker started",
		"expiry_window", cfg.Donation.ExpiryWindow,
		"sweep_interval", cfg.Donation.SweepInterval,
		"batch_size", sweepBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Donation.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired, err := donationService.ExpireStale(ctx, cfg.Donation.ExpiryWindow, sweepBatchSize)
			if err != nil {
				lg.Error("expiry sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				lg.Info("expiry sweep complete", "expired", expired)
			}
		case sig := <-sigChan:
			lg.Info("received signal, shutting down expirer worker", "signal", sig)
			return
		}
	}
}

func init() {
	expirerWorkerCmd.Flags().IntVar(&sweepBatchSize, "batch-size", 100, "Maximum donations expired per sweep")

	workerCmd.AddCommand(expirerWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
