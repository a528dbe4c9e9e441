package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/tenantcore/internal/authctx"
	"github.com/dropDatabas3/tenantcore/internal/cache"
	"github.com/dropDatabas3/tenantcore/internal/config"
	"github.com/dropDatabas3/tenantcore/internal/domain/repository"
	"github.com/dropDatabas3/tenantcore/internal/httpx"
	"github.com/dropDatabas3/tenantcore/internal/httpx/controllers/authn"
	"github.com/dropDatabas3/tenantcore/internal/httpx/controllers/health"
	tenantsctl "github.com/dropDatabas3/tenantcore/internal/httpx/controllers/tenants"
	tenantssvc "github.com/dropDatabas3/tenantcore/internal/httpx/services/tenants"
	"github.com/dropDatabas3/tenantcore/internal/identity"
	"github.com/dropDatabas3/tenantcore/internal/observability/logger"
	"github.com/dropDatabas3/tenantcore/internal/permissions"
	"github.com/dropDatabas3/tenantcore/internal/rate"
	memstore "github.com/dropDatabas3/tenantcore/internal/store/memory"
	pgstore "github.com/dropDatabas3/tenantcore/internal/store/pg"
)

func main() {
	// .env si existe; en containers van variables de entorno directas.
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "ruta del config YAML (vacío = defaults + env)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg = config.Default()
		err = cfg.Validate()
	}
	if err != nil {
		// Logger todavía no inicializado: stderr y listo.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "tenantcored",
	})
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	var st repository.Store
	switch cfg.Storage.Driver {
	case "pg":
		pgs, serr := pgstore.New(ctx, pgstore.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: config.MustDuration(cfg.Storage.Postgres.ConnMaxLifetime),
		})
		if serr != nil {
			log.Fatal("no se pudo abrir postgres", logger.Err(serr))
		}
		st = pgs
	default:
		st = memstore.New()
		log.Warn("storage en memoria: solo para dev/tests")
	}
	defer st.Close()

	// --- Cache ---
	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		log.Fatal("no se pudo crear el cache", logger.Err(err))
	}
	defer cacheClient.Close()

	// --- Verifier de tokens del identity provider ---
	verifier, err := identity.NewJWTVerifier(identity.Config{
		Alg:          cfg.Identity.Alg,
		Secret:       cfg.Identity.Secret,
		PublicKeyHex: cfg.Identity.PublicKey,
		Issuer:       cfg.Identity.Issuer,
		Leeway:       config.MustDuration(cfg.Identity.Leeway),
	})
	if err != nil {
		log.Fatal("verifier inválido", logger.Err(err))
	}

	// --- Rate limit del switch ---
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.MustDuration(cfg.Rate.Switch.Window)
		if cfg.Cache.Kind == "redis" {
			rc := rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			limiter = rate.NewRedisLimiter(rc, "rate", cfg.Rate.Switch.Limit, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Switch.Limit, window)
		}
	}

	// --- Cadena de resolución de contexto ---
	resolver := authctx.NewTenantRoleResolver(st.Profiles(), st.Tenants())
	assembler := authctx.NewAssembler(verifier, resolver)

	evaluator := permissions.New(
		st.Profiles(), st.Tenants(), cacheClient,
		config.MustDuration(cfg.Permissions.Timeout),
		config.MustDuration(cfg.Permissions.CacheTTL),
	)

	svc := tenantssvc.NewService(st.Profiles(), st.Tenants())

	router := httpx.NewRouter(httpx.RouterDeps{
		Verifier:      verifier,
		Context:       authn.NewContextController(assembler),
		Permissions:   authn.NewPermissionsController(evaluator),
		Tenants:       tenantsctl.NewTenantsController(svc),
		Health:        health.NewHealthController(st),
		SwitchLimiter: limiter,
		Metrics:       httpx.RegisterMetrics(nil),
		CORSOrigins:   cfg.Server.CORSAllowedOrigins,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router,
		config.MustDuration(cfg.Server.ReadTimeout),
		config.MustDuration(cfg.Server.WriteTimeout),
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	log.Info("tenantcored escuchando",
		logger.String("addr", cfg.Server.Addr),
		logger.String("storage", cfg.Storage.Driver),
	)

	select {
	case err := <-errc:
		if err != nil {
			log.Fatal("server caído", logger.Err(err))
		}
	case <-ctx.Done():
		log.Info("señal recibida, apagando")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error("shutdown con error", logger.Err(err))
		}
	}
}
