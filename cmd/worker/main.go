package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lmcorreia/backend-pedidos/internal/catalog"
	"github.com/lmcorreia/backend-pedidos/internal/config"
	"github.com/lmcorreia/backend-pedidos/internal/customer"
	"github.com/lmcorreia/backend-pedidos/internal/db"
	"github.com/lmcorreia/backend-pedidos/internal/document"
	"github.com/lmcorreia/backend-pedidos/internal/freight"
	"github.com/lmcorreia/backend-pedidos/internal/obs"
	"github.com/lmcorreia/backend-pedidos/internal/order"
	"github.com/lmcorreia/backend-pedidos/internal/pricing"
	"github.com/lmcorreia/backend-pedidos/internal/queue"
)

// The worker consumes tasks the API enqueues on submit. Its only job today
// is archiving the printable document pair for submitted orders, so it
// carries a read-only slice of the service graph: enough to reload an order
// and reprice its snapshot, nothing that mutates.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pedidos")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "pedidos-worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store: &catalog.PGStore{Pool: pool},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}

	orderService := &order.Service{
		Store:     &order.PGStore{Pool: pool},
		Products:  catalogService,
		Customers: &customer.Service{Store: &customer.PGStore{Pool: pool}},
		Freight:   &freight.Service{Store: &freight.PGStore{Pool: pool}},
		Pricing:   cfg.Pricing,
		Catalog:   pricing.DefaultCatalog(cfg.Pricing.TaxSubstitutionPercent),
		Log:       logger,
	}

	documentService := &document.Service{
		Orders: orderService,
		Store:  &document.PGStore{Pool: pool},
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Username: redisOpts.Username,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		asynq.Config{
			Concurrency: cfg.QueueConcurrency,
			Queues:      map[string]int{queue.QueueDefault: 1},
			Logger:      asynqLogger{logger},
		},
	)

	handlers := &queue.Handlers{Documents: documentService, Log: logger}

	logger.Info().Int("concurrency", cfg.QueueConcurrency).Msg("worker starting")
	if err := srv.Run(handlers.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msgf("%v", args) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info().Msgf("%v", args) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msgf("%v", args) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error().Msgf("%v", args) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msgf("%v", args) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
