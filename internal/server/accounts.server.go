package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"accounts-service/internal/config"
	"accounts-service/internal/handler"
	"accounts-service/internal/rate"
	"accounts-service/internal/repository"
	"accounts-service/internal/router"
	"accounts-service/internal/usecase"
	"accounts-service/pkg/cache"
	"accounts-service/pkg/id"
	"accounts-service/pkg/jwtutil"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// New assembles the whole service: storage, migrations, usecases, routes.
// Dependencies are constructed once here and handed down explicitly.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*http.Server, func(), error) {
	dbpool, err := pgxpool.New(ctx, cfg.DBConnString)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}

	migrDB, err := sql.Open("pgx", cfg.DBConnString)
	if err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("open migration conn: %w", err)
	}
	if err := repository.RunMigrations(ctx, migrDB); err != nil {
		dbpool.Close()
		_ = migrDB.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	_ = migrDB.Close()

	redisCache := cache.NewCache(cfg.RedisAddr, cfg.RedisPass)

	sf, err := id.NewSnowflake(cfg.SnowflakeNode)
	if err != nil {
		dbpool.Close()
		return nil, nil, fmt.Errorf("snowflake: %w", err)
	}

	var geoIP usecase.GeoIPService
	if cfg.GeoIPDBPath != "" {
		geoIP, err = usecase.NewGeoIPService(cfg.GeoIPDBPath)
		if err != nil {
			logger.Warn("geoip database unavailable, login locations disabled", zap.Error(err))
			geoIP = nil
		}
	}

	userRepo := repository.NewUserRepository(dbpool)
	otpRepo := repository.NewOTPRepo(dbpool)
	auditRepo := repository.NewAuditRepo(dbpool)
	sessionRepo := repository.NewSessionRepository(dbpool)

	limiter := rate.NewLimiter(redisCache, cfg.OTP_Window, cfg.OTP_MaxPerWindow, cfg.OTP_Cooldown)
	jwtGen := jwtutil.NewGenerator([]byte(cfg.JWTSecret), cfg.SessionTTL)

	auditUC := usecase.NewAuditUsecase(auditRepo, geoIP, sf, logger)
	otpUC := usecase.NewOTPUsecase(otpRepo, limiter, sf, cfg.OTP_TTL, logger)
	accountUC := usecase.NewAccountUsecase(userRepo, sf, logger)
	authUC := usecase.NewAuthUsecase(userRepo, sessionRepo, redisCache, auditUC, jwtGen, logger)

	h := handler.NewAccountHandler(accountUC, authUC, otpUC, auditUC, logger)

	r := chi.NewRouter()
	router.SetupRoutes(r, h, authUC, auditUC, logger)

	cleanup := func() {
		dbpool.Close()
		if geoIP != nil {
			_ = geoIP.Close()
		}
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}, cleanup, nil
}
