package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/internal/app/commands"
	accommodationapp "staybook/internal/app/handlers/accommodation"
	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/schedule"
	"staybook/internal/app/uow"
	domainaccommodation "staybook/internal/domain/accommodation"
	domainavailability "staybook/internal/domain/availability"
	domainpolicy "staybook/internal/domain/policy"
	"staybook/internal/domain/shared/money"
	kafkabroker "staybook/internal/infra/broker/kafka"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	redisidem "staybook/internal/infra/idempotency"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	if err := bookingapp.RebuildIndex(ctx, app.uowFactory, app.index, logger); err != nil {
		logger.Error("availability index rebuild failed", "error", err)
		os.Exit(1)
	}

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultFixturesPath()
	}
	if err := app.loadFixtures(ctx, fixturesPath, logger); err != nil {
		logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
	}

	sweeper := &schedule.Sweeper{
		Commands: app.commandBus,
		Interval: cfg.SweepInterval,
		Logger:   logger,
	}
	go sweeper.Run(ctx)

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if app.producer != nil {
			if err := app.producer.Close(); err != nil {
				logger.Error("kafka producer close failed", "error", err)
			}
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	commandBus   commands.Bus
	uowFactory   uow.UoWFactory
	index        *domainavailability.Index
	producer     *kafkabroker.Producer
	outboxWorker *infraoutbox.Worker
	ready        func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	index := domainavailability.NewIndex()

	var (
		uowFactory  uow.UoWFactory
		outboxStore outbox.Outbox
		idemStore   middleware.IdempotencyStore
		ready       = func() error { return nil }
		producer    *kafkabroker.Producer
		worker      *infraoutbox.Worker
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		uowFactory = mongodb.Factory{
			DB:                client.DB,
			AccommodationRepo: mongodb.NewAccommodationRepository(client.DB),
			BookingRepo:       mongodb.NewBookingRepository(client.DB),
			PolicyRepo:        mongodb.NewPolicyRepository(client.DB),
		}
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if len(cfg.KafkaBrokers) > 0 {
			var err error
			producer, err = kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
		} else {
			logger.Warn("kafka brokers not configured, outbox events stay staged")
		}
	default:
		uowFactory = memory.Factory{
			AccommodationRepo: memory.NewAccommodationRepository(),
			BookingRepo:       memory.NewBookingRepository(),
			PolicyRepo:        memory.NewPolicyRepository(),
		}
		outboxStore = memory.NewOutbox()
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		idemStore = redisidem.NewRedisStore(client, cfg.IdempotencyTTL)
	} else {
		idemStore = memory.NewIdempotencyStore()
	}

	payments := memory.NewPayments()
	encoder := outbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory,
		Index:      index,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		UoWFactory: uowFactory,
		Payments:   payments,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Index:      index,
		Payments:   payments,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.RescheduleBookingCommand{}.Key(), &bookingapp.RescheduleBookingHandler{
		UoWFactory: uowFactory,
		Index:      index,
		Outbox:     outboxStore,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.ExpireSweepCommand{}.Key(), &bookingapp.ExpireSweepHandler{
		UoWFactory: uowFactory,
		Index:      index,
		Outbox:     outboxStore,
		Encoder:    encoder,
		HoldWindow: cfg.HoldWindow,
		Logger:     logger,
	})
	stayProgress := &bookingapp.StayProgressHandler{
		UoWFactory: uowFactory,
		Index:      index,
		Payments:   payments,
		Outbox:     outboxStore,
		Encoder:    encoder,
	}
	commands.RegisterHandler(commandBus, bookingapp.CheckInBookingCommand{}.Key(), stayProgress.CheckInHandler())
	commands.RegisterHandler(commandBus, bookingapp.CheckOutBookingCommand{}.Key(), stayProgress.CheckOutHandler())
	commands.RegisterHandler(commandBus, bookingapp.MarkNoShowCommand{}.Key(), stayProgress.NoShowHandler())
	commands.RegisterHandler(commandBus, availabilityapp.BlockRangeCommand{}.Key(), &availabilityapp.BlockRangeHandler{
		UoWFactory: uowFactory,
		Index:      index,
	})
	commands.RegisterHandler(commandBus, availabilityapp.ReleaseRangeCommand{}.Key(), &availabilityapp.ReleaseRangeHandler{
		Index: index,
	})
	commands.RegisterHandler(commandBus, accommodationapp.DeleteAccommodationCommand{}.Key(), &accommodationapp.DeleteAccommodationHandler{
		UoWFactory: uowFactory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GuestBookingsQuery{}.Key(), &bookingapp.GuestBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		Index: index,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idemStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return &application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Availability: ginserver.AvailabilityHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Accommodation: ginserver.AccommodationHandler{
				Commands: commandBusWithMiddleware,
			},
		},
		commandBus:   commandBusWithMiddleware,
		uowFactory:   uowFactory,
		index:        index,
		producer:     producer,
		outboxWorker: worker,
		ready:        ready,
	}, nil
}

type fixtureFile struct {
	Policies       []policyFixture        `json:"policies"`
	Accommodations []accommodationFixture `json:"accommodations"`
}

type policyFixture struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Tiers           []tierFixture `json:"tiers"`
	DefaultFraction float64       `json:"default_fraction"`
	StayInterrupted bool          `json:"stay_interrupted"`
}

type tierFixture struct {
	DaysBefore int     `json:"days_before"`
	Fraction   float64 `json:"fraction"`
}

type accommodationFixture struct {
	ID               string `json:"id"`
	PropertyID       string `json:"property_id"`
	Title            string `json:"title"`
	NightlyRateCents int64  `json:"nightly_rate_cents"`
	Currency         string `json:"currency"`
	MaxGuests        int    `json:"max_guests"`
	PolicyID         string `json:"policy_id"`
	Tier             string `json:"tier"`
}

func (a *application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures fixtureFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	unit, err := a.uowFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	for _, fx := range fixtures.Policies {
		tiers := make([]domainpolicy.Tier, 0, len(fx.Tiers))
		for _, t := range fx.Tiers {
			tiers = append(tiers, domainpolicy.Tier{DaysBefore: t.DaysBefore, Fraction: t.Fraction})
		}
		p, err := domainpolicy.New(domainpolicy.PolicyID(fx.ID), fx.Name, tiers, fx.DefaultFraction, fx.StayInterrupted)
		if err != nil {
			logger.Error("policy fixture invalid", "policy_id", fx.ID, "error", err)
			continue
		}
		if err := unit.Policies().Save(ctx, p); err != nil {
			logger.Error("cannot store fixture policy", "policy_id", fx.ID, "error", err)
			continue
		}
		logger.Info("policy fixture imported", "policy_id", fx.ID)
	}

	now := time.Now()
	for _, fx := range fixtures.Accommodations {
		currency := fx.Currency
		if currency == "" {
			currency = "EUR"
		}
		rate, err := money.New(fx.NightlyRateCents, currency)
		if err != nil {
			logger.Error("accommodation fixture invalid", "accommodation_id", fx.ID, "error", err)
			continue
		}
		acc, err := domainaccommodation.New(domainaccommodation.CreateParams{
			ID:          domainaccommodation.AccommodationID(fx.ID),
			PropertyID:  fx.PropertyID,
			Title:       fx.Title,
			NightlyRate: rate,
			MaxGuests:   fx.MaxGuests,
			PolicyID:    domainpolicy.PolicyID(fx.PolicyID),
			Tier:        domainaccommodation.Tier(fx.Tier),
			CreatedAt:   now,
		})
		if err != nil {
			logger.Error("accommodation fixture invalid", "accommodation_id", fx.ID, "error", err)
			continue
		}
		if err := unit.Accommodations().Save(ctx, acc); err != nil {
			logger.Error("cannot store fixture accommodation", "accommodation_id", fx.ID, "error", err)
			continue
		}
		logger.Info("accommodation fixture imported", "accommodation_id", fx.ID)
	}

	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "fixtures.json"),
		filepath.Join("staybook", "data", "fixtures.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
