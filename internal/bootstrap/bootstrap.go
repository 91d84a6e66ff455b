// Package bootstrap wires configuration into stores, services and handlers.
// Both binaries build their dependency graph here.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/mux"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	httpapi "velorent-backend/internal/api/http"
	"velorent-backend/internal/config"
	"velorent-backend/internal/jobs"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/repository/memory"
	"velorent-backend/internal/repository/mongo"
	"velorent-backend/internal/repository/postgres"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/security"
	"velorent-backend/internal/service"
	"velorent-backend/internal/utils"
	"velorent-backend/internal/validation"
)

// App is the fully wired engine.
type App struct {
	Config    *config.Config
	Clock     utils.Clock
	Store     *repository.Store
	Resolver  *scheduling.Resolver
	Projector scheduling.Projector
	Tokens    security.TokenManager

	Fleet         service.FleetService
	Customers     service.CustomerService
	Rentals       service.RentalService
	Calendar      service.CalendarService
	Dashboard     service.DashboardService
	Notifications service.NotificationService
	Auth          service.AuthService
	Email         service.EmailService
	Reminders     service.ReminderService

	closers []func() error
}

// New opens the configured stores and wires the engine over them. A nil
// clock means the system clock.
func New(ctx context.Context, cfg *config.Config, clock utils.Clock) (*App, error) {
	app := &App{Config: cfg}
	store, err := app.openStore(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	if err := app.wire(ctx, store, clock); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// NewWithStore wires the engine over an already opened store.
func NewWithStore(ctx context.Context, cfg *config.Config, store *repository.Store, clock utils.Clock) (*App, error) {
	app := &App{Config: cfg}
	if err := app.wire(ctx, store, clock); err != nil {
		return nil, err
	}
	return app, nil
}

// wire rebuilds the interval index from the persisted rentals and constructs
// every service.
func (a *App) wire(ctx context.Context, store *repository.Store, clock utils.Clock) error {
	cfg := a.Config
	if clock == nil {
		clock = utils.SystemClock()
	}
	a.Clock = clock
	a.Store = store

	index := scheduling.NewIntervalIndex()
	rentals, err := store.Rentals.List(ctx, repository.RentalFilter{IncludeCancelled: true})
	if err != nil {
		return fmt.Errorf("load rentals for interval index: %w", err)
	}
	index.Load(rentals)
	logger.Info("Interval index rebuilt", "rentals", len(rentals), "indexed", index.Len())
	if v := index.IntegrityViolations(); len(v) > 0 {
		logger.Warn("Stored rentals overlap; run audit-bookings for details", "violations", len(v))
	}

	a.Resolver = scheduling.NewResolver(index, store.Cars, store.Rentals)
	a.Projector = scheduling.NewProjector(cfg.Location(), cfg.Rentals.OverdueGraceDays)
	v := validation.New(clock)

	a.Notifications = service.NewNotificationService(store.Notifications, store.Settings, clock)
	a.Fleet = service.NewFleetService(store.Cars, store.Rentals, a.Resolver, a.Projector, a.Notifications, v, clock)
	a.Customers = service.NewCustomerService(store.Customers, store.Rentals, a.Resolver, a.Projector, v, clock)
	a.Rentals = service.NewRentalService(store.Rentals, store.Cars, store.Customers, a.Resolver, a.Projector, a.Notifications, v, clock)
	a.Calendar = service.NewCalendarService(store.Cars, store.Rentals, a.Resolver, a.Projector, clock)
	a.Dashboard = service.NewDashboardService(store.Cars, store.Rentals, a.Projector)

	a.Tokens = security.NewTokenManager(cfg.JWT.Secret, security.TTLFromMinutes(cfg.JWT.AccessTokenExpiry))
	a.Auth = service.NewAuthService(service.AdminAccount{
		Email:        cfg.Admin.Email,
		PasswordHash: cfg.Admin.PasswordHash,
	}, a.Tokens)

	sender, err := service.NewEmailSender(emailSettings(cfg))
	if err != nil {
		return fmt.Errorf("email sender: %w", err)
	}
	logger.Info("Email provider configured", "provider", sender.Name())
	a.Email = service.NewEmailService(sender, cfg.Email.FromName)
	a.Reminders = service.NewReminderService(store.Rentals, store.Cars, store.Customers, a.Email, a.Notifications, clock)
	return nil
}

func emailSettings(cfg *config.Config) service.EmailSettings {
	fromName := cfg.Email.FromName
	if cfg.Email.Provider == service.EmailProviderSendGrid && cfg.SendGrid.FromName != "" {
		fromName = cfg.SendGrid.FromName
	}
	return service.EmailSettings{
		Provider:       cfg.Email.Provider,
		FromName:       fromName,
		From:           cfg.SenderAddress(),
		SMTPHost:       cfg.SMTP.Host,
		SMTPPort:       cfg.SMTP.Port,
		SMTPUser:       cfg.SMTP.User,
		SMTPPassword:   cfg.SMTP.Password,
		SendGridAPIKey: cfg.SendGrid.APIKey,
	}
}

func (a *App) openStore(ctx context.Context) (*repository.Store, error) {
	cfg := a.Config
	var db *sql.DB
	if cfg.Storage.Driver == config.DriverPostgres || cfg.Storage.Notifications == config.DriverPostgres {
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		var err error
		db, err = postgres.Open(cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		logger.Info("Database connection established")

		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
	}

	var store *repository.Store
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store = postgres.NewStore(db)
	default:
		logger.Warn("Using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	}

	switch cfg.Storage.Notifications {
	case config.DriverMemory:
		store.Notifications = memory.NewNotificationRepository()
	case config.DriverPostgres:
		store.Notifications = postgres.NewNotificationRepository(db)
	case config.DriverMongo:
		coll, err := a.openMongo(ctx)
		if err != nil {
			return nil, err
		}
		store.Notifications = mongo.NewNotificationRepository(coll)
	}
	return store, nil
}

func (a *App) openMongo(ctx context.Context) (*mongodriver.Collection, error) {
	cfg := a.Config.Mongo
	logger.Info("Connecting to MongoDB...", "database", cfg.Database, "collection", cfg.Collection)
	client, err := mongo.Connect(ctx, cfg.URI)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	if err := mongo.EnsureIndexes(ctx, coll); err != nil {
		return nil, fmt.Errorf("ensure notification indexes: %w", err)
	}
	return coll, nil
}

// Router builds the HTTP API over the app's services.
func (a *App) Router() *mux.Router {
	loc := a.Config.Location()
	h := httpapi.Handlers{
		Auth:          httpapi.NewAuthHandler(a.Auth),
		Fleet:         httpapi.NewFleetHandler(a.Fleet),
		Customers:     httpapi.NewCustomerHandler(a.Customers),
		Rentals:       httpapi.NewRentalHandler(a.Rentals, a.Reminders, loc),
		Calendar:      httpapi.NewCalendarHandler(a.Calendar, a.Clock, loc),
		Dashboard:     httpapi.NewDashboardHandler(a.Dashboard, a.Clock, loc),
		Notifications: httpapi.NewNotificationHandler(a.Notifications),
	}
	return httpapi.NewRouter(h, httpapi.NewAuthMiddleware(a.Tokens))
}

// JobRunner builds the nightly job runner over the app's services.
func (a *App) JobRunner() *jobs.JobRunner {
	return jobs.NewJobRunner(&jobs.Services{
		Email:         a.Email,
		Rentals:       a.Rentals,
		Dashboard:     a.Dashboard,
		Notifications: a.Notifications,
		Fleet:         a.Fleet,
		Customers:     a.Customers,
	}, a.Config, a.Clock)
}

// Close releases database and Mongo connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
