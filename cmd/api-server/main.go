// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"rental-marketplace/internal/analytics"
	"rental-marketplace/internal/api"
	"rental-marketplace/internal/assistant"
	"rental-marketplace/internal/common/auth"
	awsclient "rental-marketplace/internal/common/aws"
	"rental-marketplace/internal/common/camunda"
	"rental-marketplace/internal/common/config"
	"rental-marketplace/internal/common/database"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/observability"
	"rental-marketplace/internal/common/validation"
	"rental-marketplace/internal/common/zoho"
	"rental-marketplace/internal/consultations"
	"rental-marketplace/internal/geocode"
	"rental-marketplace/internal/listings"
	"rental-marketplace/internal/notify"
	"rental-marketplace/internal/quota"
	"rental-marketplace/internal/search"

	crm "rental-marketplace/internal/workers/consultation/crm-lead-create"
	na "rental-marketplace/internal/workers/consultation/notify-agent"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// pingFunc adapts a health check to api.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting api server...", zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, zapLog)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Stores ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Database.Postgres.AutoMigrate {
		if err := database.EnsureSchema(ctx, pg.DB); err != nil {
			zapLog.Fatal("schema bootstrap failed", zap.Error(err))
		}
	}

	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}

	index := search.NewIndex(es.Client, cfg.Database.Elasticsearch.ListingIndex)
	if err := index.EnsureIndex(ctx); err != nil {
		zapLog.Fatal("listing index setup failed", zap.Error(err))
	}
	zapLog.Info("Stores connected")

	validator, err := validation.NewValidator()
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	// --- Search ---
	geocoder := geocode.NewCachedGeocoder(
		geocode.NewClient(geocode.Config{
			BaseURL: cfg.APIs.Geocoding.BaseURL,
			APIKey:  cfg.APIs.Geocoding.APIKey,
			Region:  cfg.APIs.Geocoding.Region,
			Timeout: config.GetDuration(cfg.APIs.Geocoding.Timeout),
		}, log),
		rdb.Client,
		time.Duration(cfg.APIs.Geocoding.CacheTTL)*time.Second,
		log,
	)

	searchCache := search.NewCachedSearcher(index, rdb.Client, time.Duration(cfg.Search.CacheTTL)*time.Second, log)
	var searcher search.Searcher = index
	if cfg.Search.CacheTTL > 0 {
		searcher = searchCache
	}
	builder := search.NewBuilder(geocoder, search.BuilderConfig{
		HitsPerPage:     cfg.Search.HitsPerPage,
		GeoRadiusMeters: cfg.Search.GeoRadiusMeters,
		MaxRent:         cfg.Search.MaxRent,
		DefaultAnchor:   search.DefaultAnchor,
	}, log)
	searchService := search.NewService(builder, searcher, config.GetDuration(cfg.Search.Timeout), log)

	// --- Quota ---
	quotaCfg, err := quota.LoadConfig(cfg.Quota)
	if err != nil {
		zapLog.Fatal("quota config invalid", zap.Error(err))
	}
	quotaStore, err := quota.NewStore(cfg.Quota.Backend, rdb.Client, pg.DB, cfg.Quota.MaxRetries)
	if err != nil {
		zapLog.Fatal("quota store setup failed", zap.Error(err))
	}
	gate := quota.NewGate(quotaStore, quotaCfg, log)

	// --- Assistant ---
	generator, err := assistant.NewGenAIGenerator(ctx, cfg.APIs.GenAI.APIKey, cfg.APIs.GenAI.Model, cfg.APIs.GenAI.Temperature)
	if err != nil {
		zapLog.Fatal("genai client failed", zap.Error(err))
	}
	relay := assistant.NewRelay(generator,
		config.GetDuration(cfg.APIs.GenAI.Timeout),
		config.GetDuration(cfg.APIs.GenAI.StreamTimeout),
		log,
	)

	// --- Listings, analytics, consultations ---
	listingRepo := listings.NewRepository(pg.DB)
	importer := listings.NewImporter(listingRepo, index, searchCache, validator, log)
	recorder := analytics.NewRecorder(pg.DB)
	consultationRepo := consultations.NewRepository(pg.DB)

	dispatcher := newDispatcher(ctx, cfg, consultationRepo, log, zapLog)

	checks := map[string]api.Pinger{
		"postgres":      pg,
		"redis":         rdb,
		"elasticsearch": es,
	}

	var notifier consultations.Notifier = dispatcher
	var workers *camunda.WorkerGroup
	if cfg.Camunda.Enabled {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()

		notifier = notify.NewWorkflow(zeebe, cfg.Camunda.FollowUpProcessID, log)
		checks["zeebe"] = pingFunc(zeebe.HealthCheck)

		workers = camunda.NewWorkerGroup(zeebe.GetClient(), zapLog)
		workers.Start(na.TaskType, config.GetWorkerConfig(cfg, na.TaskType),
			na.NewHandler(na.LoadConfig(cfg), dispatcher, consultationRepo, log))
		workers.Start(crm.TaskType, config.GetWorkerConfig(cfg, crm.TaskType),
			crm.NewHandler(crm.LoadConfig(cfg), zoho.NewCRMClient(
				cfg.Integrations.Zoho.BaseURL,
				cfg.Integrations.Zoho.APIKey,
				cfg.Integrations.Zoho.AuthToken,
			), log))
		zapLog.Info("Consultation follow-up runs on Zeebe", zap.Strings("workers", workers.TaskTypes()))
	}

	consultationService := consultations.NewService(consultationRepo, listingRepo, notifier, validator, log)

	verifier := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
		config.GetDuration(cfg.Auth.Keycloak.Timeout),
	)

	server := api.NewServer(api.Deps{
		Config:        cfg,
		Logger:        log,
		Obs:           obs,
		Verifier:      verifier,
		Validator:     validator,
		Quota:         gate,
		Search:        searchService,
		SearchCache:   searchCache,
		Listings:      listingRepo,
		Analytics:     recorder,
		Consultations: consultationService,
		Importer:      importer,
		Relay:         relay,
		Geocoder:      geocoder,
		Checks:        checks,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := server.Shutdown(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout)); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if workers != nil {
		workers.Stop()
	}

	zapLog.Info("API server stopped")
}

// newDispatcher wires the SNS and SES channels that are enabled in config.
func newDispatcher(ctx context.Context, cfg *config.Config, agents notify.AgentStore, log logger.Logger, zapLog *zap.Logger) *notify.Dispatcher {
	aws := cfg.Integrations.AWS

	var push notify.Publisher
	if aws.SNS.Enabled {
		client, err := awsclient.NewSNSClient(ctx, aws.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		push = client
	}

	var mail notify.Mailer
	if aws.SES.Enabled {
		client, err := awsclient.NewSESClient(ctx, aws.Region, aws.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		mail = client
	}

	return notify.NewDispatcher(agents, push, mail, aws.SNS.AgentTopicARN, log)
}
