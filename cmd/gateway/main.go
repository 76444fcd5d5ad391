package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coaching2100/sallyport/pkg/audit"
	"github.com/coaching2100/sallyport/pkg/claims"
	"github.com/coaching2100/sallyport/pkg/clientip"
	"github.com/coaching2100/sallyport/pkg/compliance"
	"github.com/coaching2100/sallyport/pkg/config"
	"github.com/coaching2100/sallyport/pkg/emergency"
	"github.com/coaching2100/sallyport/pkg/environment"
	"github.com/coaching2100/sallyport/pkg/gateway"
	"github.com/coaching2100/sallyport/pkg/httpserver"
	"github.com/coaching2100/sallyport/pkg/logger"
	"github.com/coaching2100/sallyport/pkg/pg"
	"github.com/coaching2100/sallyport/pkg/policy"
	"github.com/coaching2100/sallyport/pkg/principal"
	"github.com/coaching2100/sallyport/pkg/ratelimit"
	"github.com/coaching2100/sallyport/pkg/redis"
	"github.com/coaching2100/sallyport/pkg/region"
	"github.com/coaching2100/sallyport/pkg/requestid"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"sallyport"`

	SigningKey string `env:"TOKEN_SIGNING_KEY,required"`
	Audience   string `env:"TOKEN_AUDIENCE"`

	DefaultRegion      string `env:"DEFAULT_REGION" envDefault:"us-west1"`
	CompliancePolicy   string `env:"COMPLIANCE_POLICY_FILE"`
	MappingRules       string `env:"MAPPING_RULES_FILE"`
	PublicPathPrefixes []string `env:"PUBLIC_PATH_PREFIXES" envSeparator:","`

	// UpstreamURL, when set, proxies admitted requests to the protected
	// service; otherwise the gateway answers with the decision itself.
	UpstreamURL string `env:"UPSTREAM_URL"`

	// AuditDatabaseURL enables durable audit storage. Empty falls back to
	// structured log output only.
	AuditDatabaseURL    string `env:"AUDIT_DATABASE_URL"`
	AuditMigrationsPath string `env:"AUDIT_MIGRATIONS_PATH" envDefault:"internal/db/migrations"`

	Server httpserver.Config
	Redis  redis.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("gateway exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close() //nolint:errcheck

	// Identity.
	decoderOpts := []claims.Option{}
	if cfg.Audience != "" {
		decoderOpts = append(decoderOpts, claims.WithAudience(cfg.Audience))
	}
	decoder, err := claims.NewDecoder([]byte(cfg.SigningKey), decoderOpts...)
	if err != nil {
		return err
	}

	mapperOpts := []principal.MapperOption{}
	if cfg.MappingRules != "" {
		mapperOpts, err = principal.LoadRules(cfg.MappingRules)
		if err != nil {
			return err
		}
	}
	mapper := principal.NewMapper(mapperOpts...)

	// Region compliance.
	compliancePolicy := compliance.Policy{AllowedRegions: []string{cfg.DefaultRegion}}
	if cfg.CompliancePolicy != "" {
		compliancePolicy, err = compliance.LoadPolicy(cfg.CompliancePolicy)
		if err != nil {
			return err
		}
	}
	gate := compliance.NewGate(compliancePolicy)
	resolver := region.NewResolver(region.WithDefaultRegion(cfg.DefaultRegion))

	// Shared admission state.
	latch, err := emergency.NewLatch(emergency.NewRedisStore(redisClient))
	if err != nil {
		return err
	}
	limiter, err := ratelimit.NewWindow(ratelimit.NewRedisStore(redisClient))
	if err != nil {
		return err
	}

	// Audit.
	recorder, closeAudit, err := buildRecorder(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()

	gw, err := gateway.New(gateway.Dependencies{
		Decoder:  decoder,
		Mapper:   mapper,
		Resolver: resolver,
		Gate:     gate,
		Latch:    latch,
		Limiter:  limiter,
		Engine:   policy.NewEngine(),
		Recorder: recorder,
	},
		gateway.WithLogger(log),
		gateway.WithPublicPaths(cfg.PublicPathPrefixes...),
	)
	if err != nil {
		return err
	}

	emergencyHandler, err := gateway.NewEmergencyHandler(latch, recorder,
		gateway.WithEmergencyLogger(log))
	if err != nil {
		return err
	}

	admitted, err := admittedHandler(cfg)
	if err != nil {
		return err
	}

	gated := chi.NewRouter()
	gated.Use(requestid.Middleware)
	gated.Use(environment.Middleware(environment.Environment(cfg.Env)))
	gated.Use(clientip.Middleware)
	gated.Use(gw.Middleware)
	gated.Mount("/emergency", emergencyHandler.Router())
	gated.NotFound(admitted.ServeHTTP)

	// Probes bypass the decision pipeline; they carry no identity and
	// must work while the latch is active.
	r := chi.NewRouter()
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, redis.Healthcheck(redisClient)))
	r.Mount("/", gated)

	srv := httpserver.NewFromConfig(cfg.Server, httpserver.WithLogger(log))
	log.Info("gateway listening",
		slog.String("addr", cfg.Server.Addr),
		slog.String("default_region", cfg.DefaultRegion))
	return srv.Run(ctx, r)
}

// buildRecorder picks the audit backend: postgres behind an async batch
// writer when a database is configured, structured logs otherwise.
func buildRecorder(ctx context.Context, cfg appConfig, log *slog.Logger) (*audit.Recorder, func(), error) {
	extractors := []audit.Option{
		audit.WithRequestIDExtractor(func(ctx context.Context) (string, bool) {
			id := requestid.FromContext(ctx)
			return id, id != ""
		}),
		audit.WithIPExtractor(func(ctx context.Context) (string, bool) {
			ip := clientip.GetIPFromContext(ctx)
			return ip, ip != ""
		}),
	}

	if cfg.AuditDatabaseURL == "" {
		log.Info("audit database not configured, recording decisions to log only")
		recorder, err := audit.NewRecorder(audit.NewSlogStorage(log), extractors...)
		return recorder, func() {}, err
	}

	pgCfg := pg.Config{
		ConnectionString:  cfg.AuditDatabaseURL,
		MaxOpenConns:      10,
		MaxIdleConns:      5,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     5 * time.Second,
		MigrationsPath:    cfg.AuditMigrationsPath,
		MigrationsTable:   "schema_migrations",
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		pool.Close()
		return nil, nil, err
	}

	storage, err := audit.NewPostgresStorage(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	writer, err := audit.NewAsyncWriter(storage, log, audit.AsyncOptions{})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	recorder, err := audit.NewRecorder(writer, extractors...)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	closeFn := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := writer.Close(shutdownCtx); err != nil {
			log.Error("audit writer shutdown", slog.Any("error", err))
		}
		pool.Close()
	}
	return recorder, closeFn, nil
}

// admittedHandler is what runs after the pipeline admits a request:
// a reverse proxy when an upstream is configured, or an identity echo
// for standalone deployments and smoke tests.
func admittedHandler(cfg appConfig) (http.Handler, error) {
	if cfg.UpstreamURL != "" {
		upstream, err := url.Parse(cfg.UpstreamURL)
		if err != nil {
			return nil, err
		}
		return httputil.NewSingleHostReverseProxy(upstream), nil
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := principal.FromContext(r.Context())
		regionDecision, _ := region.FromContext(r.Context())

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"principal_id": p.ID,
			"agent_id":     p.AgentID,
			"tier":         string(ratelimit.TierFor(p)),
			"squadron":     string(p.Squadron),
			"region":       regionDecision.Region,
		})
	}), nil
}
