package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/internal/auth"
	authPostgres "github.com/frahmantamala/donation-management/internal/auth/postgres"
	"github.com/frahmantamala/donation-management/internal/core/events"
	"github.com/frahmantamala/donation-management/internal/donation"
	donationPostgres "github.com/frahmantamala/donation-management/internal/donation/postgres"
	"github.com/frahmantamala/donation-management/internal/emaillog"
	emaillogPostgres "github.com/frahmantamala/donation-management/internal/emaillog/postgres"
	"github.com/frahmantamala/donation-management/internal/organization"
	organizationPostgres "github.com/frahmantamala/donation-management/internal/organization/postgres"
	"github.com/frahmantamala/donation-management/internal/paymentevent"
	paymenteventPostgres "github.com/frahmantamala/donation-management/internal/paymentevent/postgres"
	"github.com/frahmantamala/donation-management/internal/transport"
	"github.com/frahmantamala/donation-management/internal/transport/rest"
	"github.com/frahmantamala/donation-management/internal/user"
	userPostgres "github.com/frahmantamala/donation-management/internal/user/postgres"
	"github.com/frahmantamala/donation-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler     *auth.Handler
	UserHandler     *user.Handler
	DonationHandler *donation.Handler
	WebhookHandler  *paymentevent.WebhookHandler
	EmailHandler    *emaillog.Handler
	OrgHandler      *organization.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB,
		deps.AuthHandler, deps.UserHandler, deps.DonationHandler,
		deps.WebhookHandler, deps.EmailHandler, deps.OrgHandler,
		deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	donationRepo := donationPostgres.NewDonationRepository(gormDB)
	donationService := donation.NewService(donationRepo, eventBus, lg)
	donationHandler := donation.NewHandler(donationService)

	eventRepo := paymenteventPostgres.NewPaymentEventRepository(gormDB)
	eventService := paymentevent.NewService(eventRepo, donationRepo, eventBus, lg)
	webhookHandler := paymentevent.NewWebhookHandler(transport.NewBaseHandler(lg), eventService, lg)

	emailRepo := emaillogPostgres.NewEmailLogRepository(gormDB)
	emailService := emaillog.NewService(emailRepo, lg)
	emailService.SubscribeToDonationEvents(eventBus)
	emailHandler := emaillog.NewHandler(emailService, donationService)

	tokenGen := auth.NewJWTTokenGenerator(config.Security.JWTAccessSecret, config.Security.JWTRefreshSecret)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, authService, lg)
	userHandler := user.NewHandler(userService)

	orgRepo := organizationPostgres.NewOrganizationRepository(gormDB)
	orgService := organization.NewService(orgRepo, lg)
	orgHandler := organization.NewHandler(orgService)

	return &Dependencies{
		Config: config,
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
		Logger: lg,

		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		DonationHandler: donationHandler,
		WebhookHandler:  webhookHandler,
		EmailHandler:    emailHandler,
		OrgHandler:      orgHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already-pooled connection.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{})
}
