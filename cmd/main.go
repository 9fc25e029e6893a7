package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelReservationHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/cancel_reservation"
	createReservationHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/create_reservation"
	getAvailableSlotsHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/get_available_slots"
	getReservationHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/get_reservation"
	getRestaurantHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/get_restaurant"
	healthHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/health"
	listRestaurantReservationsHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/list_restaurant_reservations"
	listReservationsHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/list_reservations"
	listRestaurantsHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/list_restaurants"
	postMessageHandler "github.com/m04kA/SMC-TableBooking/internal/api/handlers/post_message"
	"github.com/m04kA/SMC-TableBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TableBooking/internal/config"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/migrations"
	reservationRepo "github.com/m04kA/SMC-TableBooking/internal/infra/storage/reservation"
	restaurantRepo "github.com/m04kA/SMC-TableBooking/internal/infra/storage/restaurant"
	"github.com/m04kA/SMC-TableBooking/internal/infra/storage/seed"
	sessionStore "github.com/m04kA/SMC-TableBooking/internal/infra/storage/session"
	"github.com/m04kA/SMC-TableBooking/internal/integrations/events"
	"github.com/m04kA/SMC-TableBooking/internal/integrations/gemini"
	"github.com/m04kA/SMC-TableBooking/internal/integrations/localnlp"
	"github.com/m04kA/SMC-TableBooking/internal/service/availability"
	"github.com/m04kA/SMC-TableBooking/internal/service/intents"
	"github.com/m04kA/SMC-TableBooking/internal/service/recommendations"
	reservationsService "github.com/m04kA/SMC-TableBooking/internal/service/reservations"
	conversationUC "github.com/m04kA/SMC-TableBooking/internal/usecase/conversation"
	createReservationUC "github.com/m04kA/SMC-TableBooking/internal/usecase/create_reservation"
	getAvailableSlotsUC "github.com/m04kA/SMC-TableBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-TableBooking/internal/worker/holdexpiry"
	"github.com/m04kA/SMC-TableBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TableBooking/pkg/logger"
	"github.com/m04kA/SMC-TableBooking/pkg/metrics"
	"github.com/m04kA/SMC-TableBooking/pkg/txmanager"
)

// storage репозитории, за которыми стоит либо Postgres, либо память процесса
type storage interface {
	availability.RestaurantRepository
	availability.ReservationRepository
	reservationsService.ReservationRepository
}

type (
	restaurantTable  = restaurantRepo.Repository
	reservationTable = reservationRepo.Repository
)

// pgStorage склеивает два Postgres репозитория в один storage
type pgStorage struct {
	*restaurantTable
	*reservationTable
}

// redisPinger адаптирует redis.Client к health.Pinger
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-TableBooking...")
	log.Info("Configuration loaded from %s", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	healthChecks := make(map[string]healthHandler.Pinger)

	// Хранилище: Postgres, если задан хост, иначе память процесса
	var (
		store     storage
		txManager availability.TransactionManager
	)
	if cfg.Database.Enabled() {
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.PingContext(ctx); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
		healthChecks["postgres"] = db

		var executor dbmetrics.DBExecutor = db
		var beginner txmanager.TxBeginner = txmanager.SQLDB{DB: db}
		if cfg.Metrics.Enabled {
			wrapped := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
			executor, beginner = wrapped, wrapped
			log.Info("Database metrics collection started")
		}

		applied, err := migrations.Up(ctx, executor)
		if err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
		for _, name := range applied {
			log.Info("Migration applied: %s", name)
		}

		restaurants := restaurantRepo.NewRepository(executor)
		if cfg.Database.SeedDemo {
			n, err := restaurants.SeedIfEmpty(ctx, seed.Restaurants(cfg.NLP.Timezone, cfg.Booking.SeatingMinutes))
			if err != nil {
				log.Fatal("Failed to seed restaurants: %v", err)
			}
			if n > 0 {
				log.Info("Seeded %d demo restaurants", n)
			}
		}

		store = pgStorage{restaurants, reservationRepo.NewRepository(executor)}
		txManager = txmanager.NewTransactionManager(beginner)
	} else {
		store = memory.NewStore(seed.Restaurants(cfg.NLP.Timezone, cfg.Booking.SeatingMinutes))
		txManager = txmanager.Noop{}
		log.Warn("database.host is empty: reservations are kept in memory and lost on restart")
	}

	// Redis нужен сессиям и очереди холдов
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		healthChecks["redis"] = redisPinger{client: redisClient}
		log.Info("Connected to redis at %s", cfg.Redis.Addr)
	}

	// Движок доступности
	engineOpts := []availability.Option{
		availability.WithHoldTTL(cfg.Holds.HoldTTL()),
		availability.WithCatalogTTL(cfg.Booking.CatalogRefresh()),
		availability.WithCatalogTimeout(cfg.Booking.Timeout()),
	}
	if cfg.Metrics.Enabled {
		engineOpts = append(engineOpts, availability.WithMetrics(metricsCollector))
	}

	if cfg.Events.NATSURL != "" {
		publisher, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.ClientName)
		if err != nil {
			log.Fatal("Failed to connect to NATS: %v", err)
		}
		defer publisher.Close()
		engineOpts = append(engineOpts, availability.WithEventPublisher(publisher))
		log.Info("Reservation events are published to %s", cfg.Events.NATSURL)
	}

	var asynqClient *asynq.Client
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	if cfg.Holds.Scheduler == config.SchedulerAsynq {
		asynqClient = asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		engineOpts = append(engineOpts,
			availability.WithHoldScheduler(holdexpiry.NewScheduler(asynqClient, cfg.Holds.Queue, log)))
	}

	engine := availability.NewEngine(store, store, txManager, log, engineOpts...)

	// Воркеры снятия холдов: очередь asynq (если включена) и периодический sweep
	var asynqServer *asynq.Server
	if asynqClient != nil {
		asynqServer = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: cfg.Holds.Concurrency,
			Queues:      map[string]int{cfg.Holds.Queue: 1},
		})
		if err := asynqServer.Start(holdexpiry.NewServeMux(holdexpiry.NewHandler(engine, log))); err != nil {
			log.Fatal("Failed to start hold expiry worker: %v", err)
		}
		log.Info("Hold expiry worker started (queue=%s, concurrency=%d)", cfg.Holds.Queue, cfg.Holds.Concurrency)
	}
	go holdexpiry.NewSweeper(engine, cfg.Holds.SweepEvery(), log).Run(ctx)

	// Хранилище сессий
	var sessions conversationUC.SessionStore
	switch cfg.Sessions.Backend {
	case config.SessionsRedis:
		sessions = sessionStore.NewRedisStore(redisClient, cfg.Sessions.IdleTTL())
	default:
		memSessions := sessionStore.NewMemoryStore(cfg.Sessions.IdleTTL())
		go memSessions.Run(ctx, cfg.Sessions.SweepEvery(), log)
		sessions = memSessions
	}
	log.Info("Session store: %s (idle timeout %s)", cfg.Sessions.Backend, cfg.Sessions.IdleTTL())

	// NLP бэкенд разбора реплик
	var backend intents.NLPBackend
	switch cfg.NLP.Backend {
	case config.NLPGemini:
		client, err := gemini.NewClient(ctx, cfg.NLP.APIKey, cfg.NLP.Model)
		if err != nil {
			log.Fatal("Failed to create Gemini client: %v", err)
		}
		defer client.Close()
		backend = gemini.NewBackend(client, cfg.NLP.RateLimit, cfg.NLP.Burst, log)
	default:
		backend = localnlp.New(engine, log)
	}
	log.Info("NLP backend: %s", cfg.NLP.Backend)

	location, err := time.LoadLocation(cfg.NLP.Timezone)
	if err != nil {
		log.Fatal("Failed to load timezone %s: %v", cfg.NLP.Timezone, err)
	}

	parserOpts := []intents.Option{
		intents.WithTimeout(cfg.NLP.CallTimeout()),
		intents.WithLocation(location),
	}
	conversationOpts := []conversationUC.Option{
		conversationUC.WithStoreTimeout(cfg.Booking.Timeout()),
		conversationUC.WithGranularity(cfg.Booking.Granularity()),
		conversationUC.WithMaxOffered(cfg.Booking.MaxOffered),
		conversationUC.WithMaxAttempts(cfg.Booking.MaxAttempts),
		conversationUC.WithLockStripes(cfg.Sessions.LockStripes),
	}
	if cfg.Metrics.Enabled {
		parserOpts = append(parserOpts, intents.WithMetrics(metricsCollector))
		conversationOpts = append(conversationOpts, conversationUC.WithMetrics(metricsCollector))
	}

	// Инициализируем сервисы
	parser := intents.NewParser(backend, log, parserOpts...)
	ranker := recommendations.NewRanker(engine, log, recommendations.WithStoreTimeout(cfg.Booking.Timeout()))
	reservationSvc := reservationsService.NewService(engine, store, log, reservationsService.WithStoreTimeout(cfg.Booking.Timeout()))

	// Инициализируем use cases
	conversationUseCase := conversationUC.NewUseCase(parser, engine, ranker, sessions, log, conversationOpts...)
	createReservationUseCase := createReservationUC.NewUseCase(
		engine,
		cfg.Booking.Granularity(),
		cfg.Booking.LookaheadDays,
		log,
		createReservationUC.WithStoreTimeout(cfg.Booking.Timeout()),
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		engine,
		cfg.Booking.Granularity(),
		cfg.Booking.LookaheadDays,
		log,
		getAvailableSlotsUC.WithStoreTimeout(cfg.Booking.Timeout()),
	)

	// Инициализируем handlers
	postMessage := postMessageHandler.NewHandler(conversationUseCase, log)
	listRestaurants := listRestaurantsHandler.NewHandler(engine, ranker, 0, log)
	recommend := listRestaurantsHandler.NewHandler(engine, ranker, cfg.Booking.MaxOffered, log)
	getRestaurant := getRestaurantHandler.NewHandler(engine, log)
	listRestaurantReservations := listRestaurantReservationsHandler.NewHandler(reservationSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(reservationSvc, log)
	listReservations := listReservationsHandler.NewHandler(reservationSvc, log)
	health := healthHandler.NewHandler("SMC-TableBooking", healthChecks)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recover(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Диалог ---
	api.HandleFunc("/messages", postMessage.Handle).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{sessionId}/messages", postMessage.Handle).Methods(http.MethodPost)

	// --- Каталог ---
	api.HandleFunc("/restaurants", listRestaurants.Handle).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", recommend.Handle).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{restaurantId}", getRestaurant.Handle).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{restaurantId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{restaurantId}/reservations", listRestaurantReservations.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	api.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	api.HandleFunc("/reservations", listReservations.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{ref}", getReservation.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{ref}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if asynqServer != nil {
		asynqServer.Shutdown()
		log.Info("Hold expiry worker stopped")
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
