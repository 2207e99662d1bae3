package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libredis "gridpulse/backend/libs/redis"
	"gridpulse/backend/services/grid-service/internal/changefeed"
	"gridpulse/backend/services/grid-service/internal/config"
	"gridpulse/backend/services/grid-service/internal/db"
	"gridpulse/backend/services/grid-service/internal/extract"
	"gridpulse/backend/services/grid-service/internal/fetcher"
	httpserver "gridpulse/backend/services/grid-service/internal/http"
	"gridpulse/backend/services/grid-service/internal/http/handlers"
	"gridpulse/backend/services/grid-service/internal/http/middleware"
	"gridpulse/backend/services/grid-service/internal/ingest"
	"gridpulse/backend/services/grid-service/internal/kafka"
	"gridpulse/backend/services/grid-service/internal/metrics"
	"gridpulse/backend/services/grid-service/internal/notify"
	redisstore "gridpulse/backend/services/grid-service/internal/redis"
	"gridpulse/backend/services/grid-service/internal/repository"
	"gridpulse/backend/services/grid-service/internal/scheduler"
	"gridpulse/backend/services/grid-service/internal/ws"
)

// App wires grid service dependencies.
type App struct {
	server    *httpserver.Server
	scheduler *scheduler.Scheduler
	listener  *changefeed.Listener
	publisher *kafka.Publisher
	hub       *notify.Hub
	wsManager *ws.Manager

	db     *sql.DB
	redis  *goredis.Client
	logger *zap.Logger
}

// New constructs application components and applies migrations.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := db.Migrate(cfg.Database.DSN, logger); err != nil {
		return nil, err
	}

	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a := &App{db: sqlDB, logger: logger}

	telemetryRepo := repository.NewTelemetryRepository(sqlDB)
	newsRepo := repository.NewNewsRepository(sqlDB)
	reportRepo := repository.NewReportRepository(sqlDB)

	m := metrics.New()
	a.hub = notify.NewHub(cfg.WebSocket.SendBuffer, m, logger)
	relay := notify.NewRelay(a.hub, reportRepo, logger)
	dsn := cfg.Database.DSN
	a.listener = changefeed.NewListener(
		changefeed.PgxConnector(func(ctx context.Context) (*pgx.Conn, error) { return db.NewListener(ctx, dsn) }),
		relay.Handle, 0, logger,
	)

	telemetrySrc := cfg.Sources.Telemetry
	telemetryJob := ingest.NewTelemetryJob(
		ingest.TelemetrySource{URL: telemetrySrc.URL, Tag: telemetrySrc.Tag},
		newFetcher(telemetrySrc, logger),
		extract.NewTelemetryExtractor(),
		telemetryRepo,
		logger,
	)

	newsSrc := cfg.Sources.News
	newsJob := ingest.NewNewsJob(
		ingest.NewsSource{
			URL:                 newsSrc.URL,
			MaxInsert:           cfg.News.MaxInsert,
			DedupWindow:         cfg.News.DedupWindow,
			SentinelTitle:       cfg.News.SentinelTitle,
			SentinelDescription: cfg.News.SentinelDescription,
		},
		newFetcher(newsSrc, logger),
		extract.NewNewsExtractor(newsSrc.URL),
		newsRepo,
		logger,
	)

	var locker ingest.Locker
	if cfg.RedisEnabled() {
		client, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		locker = redisstore.NewLockStore(client, cfg.Redis.LockTTL)
	}

	ingestService := ingest.NewService(telemetryJob, newsJob, locker, m, logger)
	a.scheduler = scheduler.ForService(ingestService, cfg.Schedule.TelemetryInterval, cfg.Schedule.NewsInterval, nil, logger)

	if cfg.KafkaEnabled() {
		writer := kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.publisher = kafka.NewPublisher(writer, a.hub, logger, m.Exported)
	}

	a.wsManager = ws.NewManager()
	wsServer := ws.NewServer(a.hub, a.wsManager, cfg.WebSocket.WriteTimeout, cfg.WebSocket.PingInterval, logger)

	routes := httpserver.Routes{
		TriggerTelemetry: handlers.NewTelemetryTriggerHandler(ingestService, logger),
		TriggerNews:      handlers.NewNewsTriggerHandler(ingestService, logger),
		Snapshot:         handlers.NewSnapshotHandler(telemetryRepo, reportRepo, logger),
		RecentNews:       handlers.NewRecentNewsHandler(newsRepo, logger),
		RecentReports:    handlers.NewRecentReportsHandler(reportRepo, logger),
		Subscribe:        http.HandlerFunc(wsServer.HandleWS),
		Health:           handlers.NewHealthHandler(),
		Metrics:          m.Handler(),
	}
	limit := middleware.RateLimit(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst), logger)
	router := httpserver.NewRouter(routes, limit)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return a, nil
}

func newFetcher(src config.Source, logger *zap.Logger) *fetcher.Fetcher {
	return fetcher.New(fetcher.Config{
		UserAgent: src.UserAgent,
		Accept:    src.Accept,
		Timeout:   src.Timeout,
	}, nil, logger.With(zap.String("source", src.Tag)))
}

// Run starts the scheduler, change feed, optional export and HTTP server, and blocks
// until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.listener.Run(ctx)
	})
	if a.publisher != nil {
		g.Go(func() error {
			return a.publisher.Run(ctx)
		})
	}
	g.Go(func() error {
		if err := a.scheduler.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		a.scheduler.Stop()
		return nil
	})
	g.Go(func() error {
		err := a.server.Run(ctx)
		a.wsManager.CloseAll()
		a.hub.Close()
		return err
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
