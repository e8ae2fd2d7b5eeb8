package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	availabilityapp "gearshare/internal/app/handlers/availability"
	listingapp "gearshare/internal/app/handlers/listing"
	reconcileapp "gearshare/internal/app/handlers/reconcile"
	rentalapp "gearshare/internal/app/handlers/rental"
	"gearshare/internal/app/middleware"
	appoutbox "gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/schedule"
	"gearshare/internal/app/uow"
	"gearshare/internal/infra/broker/kafka"
	"gearshare/internal/infra/config"
	mongodb "gearshare/internal/infra/db/mongo"
	"gearshare/internal/infra/gateway"
	ginserver "gearshare/internal/infra/http/gin"
	"gearshare/internal/infra/obs"
	infraoutbox "gearshare/internal/infra/outbox"
	"gearshare/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	sweeper := &schedule.Sweeper{
		UoWFactory: app.uowFactory,
		Outbox:     app.outbox,
		Grace:      cfg.ReservationGrace,
		Interval:   cfg.SweepInterval,
		Logger:     logger,
	}
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("reservation sweeper stopped", "error", err)
		}
	}()

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if app.consumer != nil {
		go func() {
			defer app.consumer.Close()
			if err := app.consumer.Run(ctx, []string{cfg.KafkaTopicPrefix + cfg.KafkaPaymentsTopic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("payment consumer stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	uowFactory   uow.UoWFactory
	outbox       appoutbox.Outbox
	outboxWorker *infraoutbox.Worker
	consumer     *kafka.Consumer
	ready        func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		app       application
		uowFac    uow.UoWFactory
		box       appoutbox.Outbox
		idStore   middleware.IdempotencyStore
		inbox     policies.InboxPort
		audit     policies.AuditPort
		payments  policies.PaymentsPort
		lookup    policies.PaymentLookup
		mongoCli  *mongodb.Client
		boxStore  *infraoutbox.Store
	)

	switch cfg.StorageDriver {
	case "mongo":
		cli, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return app, err
		}
		mongoCli = cli
		listings := mongodb.NewListingRepository(cli.DB)
		calendars := mongodb.NewCalendarRepository(cli.DB)
		rentals := mongodb.NewRentalRepository(cli.DB)
		uowFac = mongodb.Factory{
			DB:            cli.DB,
			ListingsRepo:  listings,
			CalendarsRepo: calendars,
			RentalsRepo:   rentals,
		}
		boxStore = infraoutbox.NewStore(cli.DB)
		box = boxStore
		mongoID := mongodb.NewIdempotencyStore(cli.DB, cfg.IdempotencyTTL)
		idStore = mongoID
		mongoInbox := mongodb.NewInboxStore(cli.DB)
		inbox = mongoInbox
		auditRepo := mongodb.NewAuditRepository(cli.DB)
		audit = auditRepo
		for _, ensure := range []func(context.Context) error{
			boxStore.EnsureIndexes,
			mongoID.EnsureIndexes,
			mongoInbox.EnsureIndexes,
			auditRepo.EnsureIndexes,
		} {
			if err := ensure(ctx); err != nil {
				logger.Warn("index creation failed", "error", err)
			}
		}
	default:
		uowFac = memory.Factory{
			ListingsRepo:  memory.NewListingRepository(),
			CalendarsRepo: memory.NewCalendarRepository(),
			RentalsRepo:   memory.NewRentalRepository(),
		}
		box = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		inbox = memory.NewInbox()
		audit = memory.NewAuditLog()
	}

	switch cfg.GatewayMode {
	case "http":
		gw := &gateway.HTTPGateway{
			Client:     &http.Client{Timeout: cfg.GatewayTimeout},
			IntentURL:  cfg.GatewayIntentURL,
			PaymentURL: cfg.GatewayPaymentURL,
			Logger:     logger,
		}
		payments = gw
		lookup = gw
	default:
		gw := gateway.NewMemoryGateway()
		payments = gw
		lookup = gw
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[rentalapp.RequestRentalCommand, *rentalapp.RequestRentalResult](commandBus, rentalapp.RequestRentalCommand{}.Key(), &rentalapp.RequestRentalHandler{
		UoWFactory: uowFac,
		Payments:   payments,
		Outbox:     box,
		FeePercent: cfg.PlatformFeePercent,
	})
	commands.RegisterHandler[rentalapp.CancelRentalCommand, *rentalapp.CancelRentalResult](commandBus, rentalapp.CancelRentalCommand{}.Key(), &rentalapp.CancelRentalHandler{
		UoWFactory: uowFac,
		Outbox:     box,
	})
	progress := &rentalapp.ProgressHandler{UoWFactory: uowFac, Outbox: box}
	commands.RegisterHandler[rentalapp.StartRentalCommand, *rentalapp.ProgressResult](commandBus, rentalapp.StartRentalCommand{}.Key(),
		commands.HandlerFunc[rentalapp.StartRentalCommand, *rentalapp.ProgressResult](progress.HandleStart))
	commands.RegisterHandler[rentalapp.CompleteRentalCommand, *rentalapp.ProgressResult](commandBus, rentalapp.CompleteRentalCommand{}.Key(),
		commands.HandlerFunc[rentalapp.CompleteRentalCommand, *rentalapp.ProgressResult](progress.HandleComplete))
	commands.RegisterHandler[listingapp.CreateListingCommand, *listingapp.CreateListingResult](commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{
		UoWFactory: uowFac,
		Outbox:     box,
	})
	commands.RegisterHandler[reconcileapp.ApplyPaymentCommand, *reconcileapp.ApplyPaymentResult](commandBus, reconcileapp.ApplyPaymentCommand{}.Key(), &reconcileapp.ApplyPaymentHandler{
		UoWFactory: uowFac,
		Audit:      audit,
		Outbox:     box,
		Logger:     logger,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFac, nil),
		middleware.OutboxFlush(box),
	)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[availabilityapp.GetCalendarQuery, dto.Calendar](queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{UoWFactory: uowFac})
	queries.RegisterHandler[availabilityapp.FreeSlotsQuery, dto.SlotList](queryBus, availabilityapp.FreeSlotsQuery{}.Key(), &availabilityapp.FreeSlotsHandler{UoWFactory: uowFac})
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	if boxStore != nil && len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return app, err
		}
		app.outboxWorker = &infraoutbox.Worker{
			Store:       boxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			ID:          uuid.NewString(),
			Backoff:     cfg.RetryBackoff,
		}
	}
	if len(cfg.KafkaBrokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, nil, &kafka.PaymentEventsHandler{
			Commands: commandBusWithMiddleware,
			Inbox:    inbox,
			Consumer: cfg.ConsumerGroup,
			Logger:   logger,
		})
		if err != nil {
			return app, err
		}
		app.consumer = consumer
	}

	app.uowFactory = uowFac
	app.outbox = box
	app.ready = func() error { return nil }
	if mongoCli != nil {
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return mongoCli.Ping(pingCtx)
		}
	}
	app.handlers = ginserver.Handlers{
		Rental:       ginserver.RentalHandler{Commands: commandBusWithMiddleware},
		Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
		Listing:      ginserver.ListingHandler{Commands: commandBusWithMiddleware},
		Webhook: ginserver.WebhookHandler{
			Commands: commandBusWithMiddleware,
			Lookup:   lookup,
			Inbox:    inbox,
			Logger:   logger,
		},
	}
	return app, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
