// Trueque marketplace API.
//
// @title        Trueque marketplace API
// @version      1.0
// @description  Service-bartering marketplace: listings, search intents, favorites and reference data.
// @BasePath     /api
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/trueque/marketplace/internal/api"
	"github.com/trueque/marketplace/internal/core/search"
	"github.com/trueque/marketplace/internal/core/service"
	mongodb "github.com/trueque/marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/trueque/marketplace/internal/infrastructure/db/redis"
	"github.com/trueque/marketplace/internal/infrastructure/queue"
	"github.com/trueque/marketplace/internal/pkg/config"
	"github.com/trueque/marketplace/pkg/logger"
)

func main() {
	// Local development reads .env; in deployed environments the file is
	// absent and the variables come from the runtime.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	// --- Repositories ---
	users := mongodb.NewUserRepository(db)
	listings := mongodb.NewListingRepository(db)
	favorites := mongodb.NewFavoriteRepository(db)
	categories := mongodb.NewCategoryRepository(db)
	provinces := mongodb.NewProvinceRepository(db)
	tokens := redisdb.NewTokenStore(rdb, cfg.TokenTTL)
	counter := redisdb.NewSearchCounter(rdb)

	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user indexes failed")
	}
	if err := favorites.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("favorite indexes failed")
	}

	// --- Core services and stores ---
	identity := service.NewIdentityService(users, tokens, cfg.JWTSecret, cfg.TokenTTL, log)
	registry := service.NewSessionRegistry(identity, cfg.TokenTTL, log)
	carrier := search.NewCarrier(uuid.NewString, 2*time.Minute, log)

	refdata := service.NewRefDataStore(categories, provinces, log)
	refdata.Load(ctx)
	defer refdata.Close()

	listingSvc := service.NewListingService(listings, favorites, users, refdata, counter, log)

	recorder := queue.NewSearchRecorder(0, counter, log)
	recorder.Start(ctx)

	e := api.NewRouter(api.Deps{
		Config:    cfg,
		Mongo:     db,
		Redis:     rdb,
		RefData:   refdata,
		Registry:  registry,
		Carrier:   carrier,
		Listings:  listingSvc,
		Provinces: provinces,
		Recorder:  recorder,
	})

	// --- Serve until interrupted ---
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("api listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("api stopped")
}
