package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/cache"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/migrations"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	ctx := context.Background()

	// 1. Open DB pool
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled
	// for local testing. In production, the connection string should be
	// provided with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Run migrations over a short-lived database/sql connection; goose
	// needs *sql.DB, the repositories use the pgx pool.
	migrateDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Run(ctx, migrateDB); err != nil {
		migrateDB.Close()
		logger.Error().Err(err).Msg("Failed to run migrations")
		return nil, nil, err
	}
	migrateDB.Close()
	logger.Info().Msg("Migrations applied")

	// 3. Pick the cache backend. A single replica runs fine on the in-memory
	// store; REDIS_ADDR switches to the shared one.
	var store cache.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error().Err(err).Msg("Failed to ping Redis")
			return nil, nil, err
		}
		store = cache.NewRedis(rdb, cache.WithPrefix(cfg.CacheKeyPrefix))
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis cache")
	} else {
		mem := cache.NewMemory()
		mem.StartJanitor(ctx)
		store = mem
	}

	// 4. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 5. Initialize repositories & services & handlers
	clock := service.NewRealClock()
	listingTTL := time.Duration(cfg.ListingCacheTTLSec) * time.Second
	dashboardTTL := time.Duration(cfg.DashboardCacheTTLSec) * time.Second

	userRepo := repository.NewUserRepo(pool)
	viewRepo := repository.NewViewRepo(pool)
	savedRepo := repository.NewSavedRepo(pool)
	agencyRepo := repository.NewAgencyRepo(pool)
	contactRepo := repository.NewContactRepo(pool)

	quotaSvc := service.NewQuotaService(viewRepo, cfg.DailyViewLimit, clock, logger)
	viewSvc := service.NewViewService(viewRepo, userRepo, contactRepo, cfg.DailyViewLimit, clock, logger)
	savedSvc := service.NewSavedService(savedRepo, userRepo, contactRepo, viewRepo, logger)
	agencySvc := service.NewAgencyService(agencyRepo, store, cfg.PageSize, listingTTL, logger)
	contactSvc := service.NewContactService(contactRepo, viewRepo, store, cfg.PageSize, listingTTL, logger)
	dashboardSvc := service.NewDashboardService(agencyRepo, contactRepo, store, cfg.TopAgencyCount, dashboardTTL, logger)

	quotaHandler := handler.NewQuotaHandler(quotaSvc, logger)
	contactHandler := handler.NewContactHandler(contactSvc, viewSvc, savedSvc, quotaSvc, validate, logger)
	agencyHandler := handler.NewAgencyHandler(agencySvc, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, quotaSvc, agencySvc, contactSvc, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	limiterStore := middleware.NewLimiterStore(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiterStore.StartJanitor(ctx.Done())
	rateLimitMiddleware := middleware.RateLimitMiddleware(limiterStore)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	quotaHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	contactHandler.RegisterRoutes(apiV1Mux, authMiddleware, rateLimitMiddleware)
	agencyHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	dashboardHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}
