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
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rahadianw/dealer-crm/internal"
	"github.com/rahadianw/dealer-crm/internal/attendance"
	attendancedb "github.com/rahadianw/dealer-crm/internal/attendance/postgres"
	"github.com/rahadianw/dealer-crm/internal/core/events"
	"github.com/rahadianw/dealer-crm/internal/dealer"
	dealerdb "github.com/rahadianw/dealer-crm/internal/dealer/postgres"
	"github.com/rahadianw/dealer-crm/internal/interaction"
	interactiondb "github.com/rahadianw/dealer-crm/internal/interaction/postgres"
	"github.com/rahadianw/dealer-crm/internal/session"
	sessiondb "github.com/rahadianw/dealer-crm/internal/session/postgres"
	"github.com/rahadianw/dealer-crm/internal/transport/rest"
	"github.com/rahadianw/dealer-crm/pkg/logger"
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
	Gorm   *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger

	SessionService     *session.Service
	SessionHandler     *session.Handler
	InteractionHandler *interaction.Handler
	DealerHandler      *dealer.Handler
	AttendanceHandler  *attendance.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.SessionHandler,
		deps.SessionService,
		deps.InteractionHandler,
		deps.DealerHandler,
		deps.AttendanceHandler,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

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
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
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

	bus := events.NewEventBus(lg)
	registerEventLoggers(bus, lg)

	credRepo := sessiondb.NewCredentialRepository(gormDB)
	logRepo := sessiondb.NewSessionLogRepository(gormDB)
	tokens := session.NewJWTTokenGenerator(config.Security.SessionSecret, config.Security.SessionDuration)
	sessionService := session.NewService(credRepo, logRepo, tokens, bus, lg, config.Security.SessionDuration)
	sessionHandler := session.NewHandler(sessionService)

	vocab := interaction.NewStageVocabulary(config.Pipeline.ExtraStages)
	historyRepo := interactiondb.NewHistoryRepository(gormDB)
	summaryRepo := interactiondb.NewSummaryRepository(gormDB)
	interactionService := interaction.NewService(historyRepo, summaryRepo, vocab, bus, lg)
	interactionHandler := interaction.NewHandler(interactionService)

	dealerRepo := dealerdb.NewDealerRepository(gormDB)
	dealerService := dealer.NewService(dealerRepo, lg)
	dealerHandler := dealer.NewHandler(dealerService)

	attendanceRepo := attendancedb.NewAttendanceRepository(gormDB)
	attendanceService := attendance.NewService(attendanceRepo, lg)
	attendanceHandler := attendance.NewHandler(attendanceService)

	return &Dependencies{
		Config: config,
		DB:     db,
		Gorm:   gormDB,
		Router: chi.NewRouter(),
		Logger: lg,

		SessionService:     sessionService,
		SessionHandler:     sessionHandler,
		InteractionHandler: interactionHandler,
		DealerHandler:      dealerHandler,
		AttendanceHandler:  attendanceHandler,
	}, nil
}

// registerEventLoggers wires the audit trail: every published domain event
// ends up in the structured log even if nothing else consumes it.
func registerEventLoggers(bus *events.EventBus, lg *slog.Logger) {
	for _, eventType := range []string{
		events.SessionExpiredEvent,
		events.AccessRequestedEvent,
		events.AccessGrantedEvent,
		events.InteractionRecordedEvent,
	} {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			lg.Info("domain event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}
}

// initDB opens the pgx stdlib connection used for health checks and
// migrations.
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

// initGorm layers the ORM over the already-open pgx connection so both
// share one pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpg.New(gormpg.Config{Conn: db.DB}), &gorm.Config{})
}
