package app

import (
	"catalog-backend/internal/config"
	"catalog-backend/internal/database"
	"catalog-backend/internal/health"
	"catalog-backend/internal/listings"
	"catalog-backend/internal/middleware"
	"catalog-backend/internal/properties"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with global middleware and route
// registration. DB and Redis handles are returned so main can verify
// connectivity before listening.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.CORS(""))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
	}

	healthHandlers := &health.Handlers{DB: db, Rdb: rdb}
	app.Get("/health/json", healthHandlers.JSON)

	registry := &properties.Registry{Kinds: &properties.KindCache{Rdb: rdb}}
	listingHandlers := &listings.Handlers{
		Service: &listings.Service{DB: db, Registry: registry},
	}
	group := app.Group("/api/v1/listings")
	group.Get("/", listingHandlers.GetListings)
	group.Put("/", listingHandlers.UpsertListings)

	return app, db, rdb, nil
}
