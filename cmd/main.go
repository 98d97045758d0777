package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	emiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"catalog-service/internal/handler"
	"catalog-service/internal/imagestore"
	mid "catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/service"
	"catalog-service/pkg/config"
	"catalog-service/pkg/database"
	"catalog-service/pkg/jwtutil"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"
)

func main() {
	// Load configuration (reads .env when present)
	appConfig, err := config.Load("catalog-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Connect database; the handle is owned here and injected downward
	db, err := database.Connect(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Remote image store
	images, err := imagestore.NewCloudinary(&appConfig.Cloudinary)
	if err != nil {
		log.Fatal("Failed to initialize image store", zap.Error(err))
	}
	log.Info("Image store client initialized",
		zap.String("folder", appConfig.Cloudinary.Folder))

	// Repositories and services
	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	lifecycle := service.NewProductService(products, users, images, appConfig.Cloudinary.Folder, log)

	// Handlers
	authHandler := handler.NewAuthHandler(users)
	productHandler := handler.NewProductHandler(lifecycle, appConfig.Upload.MaxSizeBytes, appConfig.IsDevelopment())

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(emiddleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// User registration and login
	e.POST("/api/users/register", authHandler.Register)
	e.POST("/api/users/login", authHandler.Login)

	// Product API routes - auth middleware supplies the verified caller identity
	productAPI := e.Group("/api/products", mid.AuthMiddleware)
	productAPI.GET("", productHandler.ListProducts)
	productAPI.GET("/:id", productHandler.GetProduct)
	productAPI.POST("", productHandler.CreateProduct)
	productAPI.PUT("/:id", productHandler.UpdateProduct)
	productAPI.DELETE("/:id", productHandler.DeleteProduct)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
