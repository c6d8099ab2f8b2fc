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

	"github.com/mir-ashiq/Travelers-sub001/internal"
	"github.com/mir-ashiq/Travelers-sub001/internal/audit"
	auditPostgres "github.com/mir-ashiq/Travelers-sub001/internal/audit/postgres"
	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	authPostgres "github.com/mir-ashiq/Travelers-sub001/internal/auth/postgres"
	"github.com/mir-ashiq/Travelers-sub001/internal/booking"
	bookingPostgres "github.com/mir-ashiq/Travelers-sub001/internal/booking/postgres"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/events"
	"github.com/mir-ashiq/Travelers-sub001/internal/core/locks"
	"github.com/mir-ashiq/Travelers-sub001/internal/payment"
	paymentPostgres "github.com/mir-ashiq/Travelers-sub001/internal/payment/postgres"
	"github.com/mir-ashiq/Travelers-sub001/internal/paymentgateway"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport/rest"
	"github.com/mir-ashiq/Travelers-sub001/internal/user"
	userPostgres "github.com/mir-ashiq/Travelers-sub001/internal/user/postgres"
	"github.com/mir-ashiq/Travelers-sub001/pkg/logger"
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
	Config  *internal.Config
	DB      *sqlx.DB
	GormDB  *gorm.DB
	Router  *chi.Mux
	Gateway paymentgateway.Client
	Logger  *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := wireServices(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to wire services: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

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
		if sim, ok := deps.Gateway.(*paymentgateway.Simulator); ok {
			sim.Shutdown()
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

// wireServices builds every module and registers the route table. The
// permission table validates first: a hole in the role-capability matrix
// refuses startup rather than surfacing as a runtime denial.
func wireServices(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	table := auth.NewPermissionTable()
	if err := table.Validate(); err != nil {
		return fmt.Errorf("permission table: %w", err)
	}

	auditRepo := auditPostgres.NewAuditRepository(deps.GormDB)
	auditService := audit.NewService(auditRepo, lg)
	auditHandler := audit.NewHandler(auditService)

	guard := auth.NewGuard(table, auditService, lg)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(deps.GormDB)
	authService := auth.NewService(authRepo, tokenGen, cfg.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewUserRepository(deps.GormDB)
	userService := user.NewService(userRepo, table, auditService, lg)
	userHandler := user.NewHandler(userService)

	// One mutex set shared by every writer that serializes on booking id.
	keyMutex := locks.NewKeyMutex()
	eventBus := events.NewEventBus(lg)

	audit.NewEventHandler(auditService, lg).RegisterEventHandlers(eventBus)

	bookingRepo := bookingPostgres.NewBookingRepository(deps.GormDB)
	txRepo := paymentPostgres.NewTransactionRepository(deps.GormDB)

	bookingService := booking.NewService(bookingRepo, txRepo, keyMutex, auditService, lg)
	bookingHandler := booking.NewHandler(bookingService)

	paymentService := payment.NewService(
		txRepo,
		&bookingStoreAdapter{repo: bookingRepo},
		deps.Gateway,
		keyMutex,
		eventBus,
		auditService,
		lg,
	)
	paymentHandler := payment.NewHandler(paymentService)
	webhookHandler := payment.NewWebhookHandler(
		transport.NewBaseHandler(lg),
		paymentService,
		cfg.Gateway.WebhookSecret,
		lg,
	)

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB,
		authHandler,
		guard,
		userHandler,
		bookingHandler,
		paymentHandler,
		webhookHandler,
		auditHandler,
		lg,
	)
	return nil
}

// bookingStoreAdapter narrows the booking repository to the columns the
// payment service reads and writes.
type bookingStoreAdapter struct {
	repo booking.Repository
}

func (a *bookingStoreAdapter) GetByID(id int64) (*payment.BookingRecord, error) {
	b, err := a.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return &payment.BookingRecord{
		ID:            b.ID,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		Amount:        b.Amount,
		Currency:      b.Currency,
	}, nil
}

func (a *bookingStoreAdapter) UpdateFields(id int64, fields map[string]interface{}) error {
	return a.repo.UpdateFields(id, fields)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return &Dependencies{
		Config:  config,
		Logger:  lg,
		DB:      db,
		GormDB:  gormDB,
		Router:  chi.NewRouter(),
		Gateway: newGatewayClient(config.Gateway, lg),
	}, nil
}

// newGatewayClient picks the processor client. The simulator keeps local
// development independent of processor credentials.
func newGatewayClient(cfg internal.GatewayConfig, lg *slog.Logger) paymentgateway.Client {
	gwCfg := paymentgateway.Config{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		WebhookSecret:  cfg.WebhookSecret,
		WebhookURL:     cfg.WebhookURL,
		RequestTimeout: cfg.RequestTimeout,
		MaxWorkers:     cfg.MaxWorkers,
		JobQueueSize:   cfg.JobQueueSize,
	}
	if cfg.BaseURL == "simulator" {
		return paymentgateway.NewSimulator(gwCfg, lg)
	}
	return paymentgateway.NewHTTPClient(gwCfg, lg)
}

// initDB initializes the pgx-backed connection pool.
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

// initGorm layers GORM over the same connection pool the health check pings.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
}
