package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alxtravel/internal/app/commands"
	appoutbox "alxtravel/internal/app/outbox"
	availabilityapp "alxtravel/internal/app/handlers/availability"
	bookingapp "alxtravel/internal/app/handlers/booking"
	listingapp "alxtravel/internal/app/handlers/listings"
	reviewsapp "alxtravel/internal/app/handlers/reviews"
	"alxtravel/internal/app/middleware"
	"alxtravel/internal/app/queries"
	"alxtravel/internal/domain/availability"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
	"alxtravel/internal/infra/broker/kafka"
	redisstore "alxtravel/internal/infra/cache/redis"
	"alxtravel/internal/infra/config"
	mongostore "alxtravel/internal/infra/db/mongo"
	pgstore "alxtravel/internal/infra/db/postgres"
	ginserver "alxtravel/internal/infra/http/gin"
	"alxtravel/internal/infra/obs"
	outboxworker "alxtravel/internal/infra/outbox"
	"alxtravel/internal/infra/storage/memory"
)

type stores struct {
	listings    domainlistings.Store
	bookings    domainbooking.Store
	reviews     domainreviews.Store
	outbox      appoutbox.Source
	idempotency middleware.IdempotencyStore
	checks      map[string]obs.Check
	closers     []func(context.Context) error
}

func (s *stores) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	st := &stores{checks: map[string]obs.Check{}}
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		st.closers = append(st.closers, client.Close)
		if err := client.EnsureIndexes(ctx); err != nil {
			st.close(logger)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		db := client.DB
		outbox := mongostore.NewOutbox(db)
		st.outbox = outbox
		st.listings = mongostore.NewListingRepository(db, outbox)
		st.bookings = mongostore.NewBookingRepository(db, outbox)
		st.reviews = mongostore.NewReviewRepository(db, outbox)
		st.checks["mongo"] = client.Ping
		if cfg.RedisAddr == "" {
			idem, err := mongostore.NewIdempotencyStore(ctx, db, cfg.IdempotencyTTL)
			if err != nil {
				st.close(logger)
				return nil, fmt.Errorf("mongo idempotency: %w", err)
			}
			st.idempotency = idem
		}
	case config.DriverPostgres:
		db, err := pgstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		st.closers = append(st.closers, func(context.Context) error { return pgstore.Close(db) })
		if err := pgstore.Migrate(ctx, db); err != nil {
			st.close(logger)
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		outbox := pgstore.NewOutbox(db)
		st.outbox = outbox
		st.listings = pgstore.NewListingRepository(db, outbox)
		st.bookings = pgstore.NewBookingRepository(db, outbox)
		st.reviews = pgstore.NewReviewRepository(db, outbox)
		st.checks["postgres"] = func(ctx context.Context) error { return pgstore.Ping(ctx, db) }
	default:
		outbox := memory.NewOutbox()
		st.outbox = outbox
		st.listings = memory.NewListingRepository(outbox)
		st.bookings = memory.NewBookingRepository(outbox)
		st.reviews = memory.NewReviewsRepository(outbox)
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.New(ctx, redisstore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			st.close(logger)
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		st.closers = append(st.closers, func(context.Context) error { return client.Close() })
		st.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		st.idempotency = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}
	if st.idempotency == nil {
		if cfg.StoreDriver != config.DriverMemory {
			logger.Warn("idempotency records are process-local", "store", cfg.StoreDriver)
		}
		st.idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}
	return st, nil
}

func newRelay(cfg config.Config, source appoutbox.Source, logger *slog.Logger) (*outboxworker.Worker, func(), error) {
	worker := &outboxworker.Worker{
		Source:      source,
		Logger:      logger.With("component", "outbox"),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	if len(cfg.KafkaBrokers) == 0 {
		worker.Producer = outboxworker.LogProducer{Logger: worker.Logger}
		return worker, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, "alxtravel", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	worker.Producer = producer
	return worker, func() {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}, nil
}

type application struct {
	handlers ginserver.Handlers
	commands commands.Bus
	queries  queries.Bus
}

func buildApplication(cfg config.Config, st *stores, notifier appoutbox.Notifier, logger *slog.Logger) application {
	engine := availability.NewEngine(st.bookings, st.listings)
	clock := func() time.Time { return time.Now().UTC() }

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, listingapp.CreateListingKey, &listingapp.CreateListingHandler{
		Listings: st.listings, Logger: logger, Now: clock,
	})
	commands.RegisterHandler(commandBus, listingapp.UpdateListingPriceKey, &listingapp.UpdateListingPriceHandler{
		Listings: st.listings, Logger: logger,
	})
	setActive := &listingapp.SetListingActiveHandler{Listings: st.listings, Logger: logger}
	commands.RegisterHandler(commandBus, listingapp.ActivateListingKey, setActive)
	commands.RegisterHandler(commandBus, listingapp.DeactivateListingKey, setActive)
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingKey, &bookingapp.RequestBookingHandler{
		Listings:     st.listings,
		Bookings:     st.bookings,
		Engine:       engine,
		Logger:       logger.With("component", "booking"),
		StoreTimeout: cfg.StoreTimeout,
		Now:          clock,
		NewID:        uuid.NewString,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingKey, &bookingapp.CancelBookingHandler{
		Listings: st.listings, Bookings: st.bookings, Logger: logger.With("component", "booking"), StoreTimeout: cfg.StoreTimeout,
	})
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewKey, &reviewsapp.SubmitReviewHandler{
		Listings: st.listings, Bookings: st.bookings, Reviews: st.reviews, Logger: logger, Now: clock,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, listingapp.GetListingKey, &listingapp.GetListingHandler{Listings: st.listings, Reviews: st.reviews})
	queries.RegisterHandler(queryBus, availabilityapp.GetAvailabilityKey, &availabilityapp.GetAvailabilityHandler{Listings: st.listings, Engine: engine})
	queries.RegisterHandler(queryBus, availabilityapp.QuoteKey, &availabilityapp.QuoteHandler{Engine: engine})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingKey, &bookingapp.GetBookingHandler{Listings: st.listings, Bookings: st.bookings})
	queries.RegisterHandler(queryBus, bookingapp.ListGuestBookingsKey, &bookingapp.ListGuestBookingsHandler{
		Listings: st.listings, Bookings: st.bookings, Logger: logger, Now: clock,
	})
	queries.RegisterHandler(queryBus, reviewsapp.ListListingReviewsKey, &reviewsapp.ListListingReviewsHandler{
		Listings: st.listings, Reviews: st.reviews, Logger: logger,
	})

	validator := middleware.NewStructValidator()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Idempotency(st.idempotency, nil),
		middleware.OutboxNotify(notifier),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)
	logger.Debug("buses ready", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	return application{
		commands: commandBusWithMiddleware,
		queries:  queryBusWithMiddleware,
		handlers: ginserver.Handlers{
			Listing: ginserver.ListingHandler{
				Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger, DefaultCurrency: cfg.Currency,
			},
			Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware, Logger: logger},
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger,
			},
			Reviews: ginserver.ReviewsHandler{
				Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware, Logger: logger,
			},
			Me: ginserver.MeHandler{Queries: queryBusWithMiddleware, Logger: logger},
		},
	}
}

var errNoStore = errors.New("no store configured")
