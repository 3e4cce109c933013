package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"parcel-dispatch/internal/adapters/client"
	"parcel-dispatch/internal/adapters/db"
	httpHandler "parcel-dispatch/internal/adapters/http"
	"parcel-dispatch/internal/app"
	"parcel-dispatch/internal/config"
	"parcel-dispatch/internal/domain"
	"parcel-dispatch/shared/auth"
	"parcel-dispatch/shared/database"
	"parcel-dispatch/shared/logger"
	"parcel-dispatch/shared/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Dispatch & Route Core API
// @version 1.0
// @description Parcel pickup/delivery dispatch with live-traffic-aware re-routing
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const seoulDistrictCount = 25

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Env)

	mysqlDB := database.ConnectMySQL(database.MySQLConfig{
		Host:     cfg.MySQLHost,
		Port:     cfg.MySQLPort,
		User:     cfg.MySQLUser,
		Password: cfg.MySQLPassword,
		Database: cfg.MySQLDatabase,
	}, &domain.Parcel{})
	redisClient := database.ConnectRedis(database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})

	pickupDistricts, deliveryDistricts, err := config.LoadDistrictMaps(cfg.DistrictMapPath)
	if err != nil {
		log.Fatalf("failed to load district map: %v", err)
	}
	if len(pickupDistricts)+len(deliveryDistricts) == 0 {
		log.Warnf("district maps loaded empty, expected up to %d districts per phase", seoulDistrictCount)
	}

	linkMappings, err := config.LoadLinkMappings(cfg.ServiceLinkCSVPath)
	if err != nil {
		log.Fatalf("failed to load service-link mapping: %v", err)
	}

	location, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Fatalf("failed to load Asia/Seoul timezone: %v", err)
	}

	repo := db.NewParcelRepository(mysqlDB)
	geocoder := client.NewGeocoderClient(cfg.KakaoAPIKey, redisClient, log)
	routingRaw := client.NewRoutingClient(cfg.ValhallaHost, cfg.ValhallaPort)
	optimizer := client.NewOptimizerClient(cfg.LKHServiceURL)
	speedFeed := client.NewSpeedFeedClient(cfg.SeoulAPIKey)
	speedTable := domain.NewSpeedTable()
	hub := domain.NewHubStatus()

	trafficService := app.NewTrafficService(
		routingRaw,
		speedFeed,
		speedTable,
		linkMappings,
		cfg.TrafficUpdateInterval,
		location,
		log,
	)

	pickupConfig := domain.PhaseConfig{Phase: domain.PhasePickup, WindowOpenHour: 7, Districts: pickupDistricts}
	deliveryConfig := domain.PhaseConfig{Phase: domain.PhaseDelivery, WindowOpenHour: 15, Districts: deliveryDistricts}

	dispatchService := app.NewDispatchService(
		repo,
		geocoder,
		trafficService,
		optimizer,
		hub,
		pickupConfig,
		deliveryConfig,
		location,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go trafficService.Run(ctx)

	validator := auth.NewValidator(cfg.JWTSecret)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "dispatch-server"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	dispatchHandler := httpHandler.NewDispatchHandler(dispatchService, location)
	dispatchHandler.SetupRoutes(api, validator)

	trafficHandler := httpHandler.NewTrafficHandler(trafficService, geocoder)
	trafficHandler.SetupRoutes(router.Group("/"))

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("dispatch-server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}
}
