package app

import (
	"context"
	"time"

	"pms/config"
	"pms/internal/database"
	"pms/internal/events"
	"pms/internal/handlers/middleware"
	"pms/internal/jobs"
	"pms/internal/repositories"
	"pms/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	EventBus   *events.EventBus
	Config     config.Config

	// Services
	TransactionService    *services.TransactionService
	TransitionGraph       *services.TransitionGraph
	RuleEngine            *services.RuleEngineService
	LockService           *services.ReservationLockService
	TransitionCoordinator *services.TransitionCoordinatorService
	AutomationService     *services.AutomationService
	DayRollService        *services.DayRollService
	SchedulerService      *services.SchedulerService

	// Repositories
	Repos repositories.Repository
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db, config.ConfigCacheTTLMinutes)

	clock := services.NewSystemClock()
	transactionService := services.NewTransactionService(db)
	graph := services.NewTransitionGraph()
	ruleEngine := services.NewRuleEngineService(graph, config.EarlyArrivalThresholdHours, clock)
	lockService := services.NewReservationLockService(
		time.Duration(config.LockTimeoutSeconds) * time.Second,
	)
	coordinator := services.NewTransitionCoordinatorService(
		graph,
		ruleEngine,
		lockService,
		repos.Reservation,
		repos.StatusHistory,
		transactionService,
		eventBus,
		clock,
	)
	automationService := services.NewAutomationService(
		repos.PropertySettings,
		repos.Reservation,
		coordinator,
		transactionService,
		eventBus,
		clock,
		config.SweepConcurrency,
	)
	dayRollService := services.NewDayRollService(repos.Reservation, transactionService)
	schedulerService := services.NewSchedulerService(config.SweepIntervalMinutes)

	middleware := middleware.New(db, eventBus, config)

	if config.SchedulerEnabled {
		sweepJob := jobs.NewAutomationSweepJob(automationService, services.EveryTick)
		if err := schedulerService.AddJob(sweepJob); err != nil {
			return &App{}, log.Err("failed to register automation sweep job", err)
		}
		log.Info("Registered automation sweep job with scheduler")

		retentionJob := jobs.NewAuditRetentionJob(
			repos.PropertySettings,
			repos.StatusHistory,
			transactionService,
			services.Daily,
		)
		if err := schedulerService.AddJob(retentionJob); err != nil {
			return &App{}, log.Err("failed to register audit retention job", err)
		}
		log.Info("Registered audit retention job with scheduler")
	}

	app := &App{
		Database:              db,
		Config:                config,
		Middleware:            middleware,
		EventBus:              eventBus,
		TransactionService:    transactionService,
		TransitionGraph:       graph,
		RuleEngine:            ruleEngine,
		LockService:           lockService,
		TransitionCoordinator: coordinator,
		AutomationService:     automationService,
		DayRollService:        dayRollService,
		SchedulerService:      schedulerService,
		Repos:                 repos,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.TransactionService,
		a.TransitionGraph,
		a.RuleEngine,
		a.LockService,
		a.TransitionCoordinator,
		a.AutomationService,
		a.DayRollService,
		a.SchedulerService,
		a.Repos.Reservation,
		a.Repos.StatusHistory,
		a.Repos.PropertySettings,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Start(ctx context.Context) error {
	if a.Config.SchedulerEnabled {
		return a.SchedulerService.Start(ctx)
	}
	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.SchedulerService != nil {
		if closeErr := a.SchedulerService.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
