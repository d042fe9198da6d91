package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"aquamonitor/database"
	"aquamonitor/docs"
	"aquamonitor/internal/cache"
	"aquamonitor/internal/config"
	"aquamonitor/internal/controllers"
	"aquamonitor/internal/events"
	"aquamonitor/internal/explain"
	"aquamonitor/internal/middleware"
	"aquamonitor/internal/ml"
	"aquamonitor/internal/observability"
	"aquamonitor/internal/repository"
	"aquamonitor/internal/services"
	"aquamonitor/internal/telemetry"
	"aquamonitor/internal/utils"
	"aquamonitor/routes"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := observability.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logger configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Swagger Documentation
	docs.SwaggerInfo.Title = "AquaMonitor API"
	docs.SwaggerInfo.Description = "Water tank monitoring with consumption forecasting and model explainability."
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	db, err := database.ConnectDatabase(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateDatabase(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	monitorStop := make(chan struct{})
	defer close(monitorStop)
	database.MonitorDBConnections(db, 30*time.Second, monitorStop)

	tankRepo := repository.NewTankRepository(db)
	truckRepo := repository.NewTruckRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	consumptionRepo := repository.NewConsumptionRepository(db)

	clock := clockwork.NewRealClock()
	thresholds := services.AlertThresholds{Critical: cfg.AlertCriticalLevel, Low: cfg.AlertLowLevel}

	if cfg.SeedSampleData {
		opts := utils.DefaultSeedOptions()
		opts.CriticalLevel, opts.LowLevel = thresholds.Critical, thresholds.Low
		if _, err := utils.NewSeeder(db, clock, opts).Seed(ctx); err != nil {
			log.WithError(err).Warn("Failed to seed sample data")
		}
	}

	metrics := observability.NewMetrics()

	// Model lifecycle: load the persisted model or train one. Failures leave the API up
	// with prediction endpoints answering 503.
	store := ml.NewModelStore(cfg.ModelPath)
	predictor := ml.NewPredictor(store, ml.WithClock(clock), ml.WithRecorder(metrics))
	modelStatus := services.EnsureModel(ctx, predictor, consumptionRepo, filepath.Dir(cfg.ModelPath))
	log.WithField("status", modelStatus).Info("Model lifecycle initialized")

	explainer := explain.New(store, explain.WithClock(clock), explain.WithRecorder(metrics))

	var (
		explanationCache services.ExplanationCache
		healthChecks     = map[string]routes.HealthCheck{}
	)
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, explanation caching disabled")
		} else {
			defer redisClient.Close()
			explanationCache = redisClient
			healthChecks["redis"] = func(ctx context.Context) error {
				_, err := redisClient.GetStatus(ctx)
				return err
			}
		}
	}
	explainService := services.NewExplainService(explainer, explanationCache, predictor, cfg.ExplainCacheTTL, metrics)
	modelService := services.NewModelService(predictor, consumptionRepo, explainService)

	var publishers events.MultiPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic))
		log.WithFields(log.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaAlertTopic}).Info("Publishing alerts to Kafka")
	}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPAlertQueue)
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable, alerts will not be queued")
		} else {
			publishers = append(publishers, amqpPublisher)
			log.WithField("queue", cfg.AMQPAlertQueue).Info("Publishing alerts to RabbitMQ")
		}
	}
	var publisher events.AlertPublisher = events.NopPublisher{}
	if len(publishers) > 0 {
		publisher = publishers
	}
	defer publisher.Close()

	tankService := services.NewTankService(tankRepo, alertRepo, consumptionRepo, publisher, thresholds, clock, metrics)
	forecastService := services.NewForecastService(tankRepo, truckRepo, consumptionRepo, predictor,
		services.WeatherDefaults{DaysWithoutRain: cfg.DefaultDaysWithoutRain, Temperature: cfg.DefaultTemperature}, clock)
	dashboardService := services.NewDashboardService(tankRepo, truckRepo, alertRepo, consumptionRepo, thresholds, clock)

	if cfg.MQTTBroker != "" {
		subscriber := telemetry.NewSubscriber(telemetry.Config{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
		}, tankService, metrics)
		if err := subscriber.Start(); err != nil {
			log.WithError(err).Warn("MQTT ingestion disabled")
		} else {
			defer subscriber.Stop()
		}
	}

	// Initialize controllers
	tankController := controllers.NewTankController(tankRepo, tankService)
	truckController := controllers.NewTruckController(truckRepo)
	alertController := controllers.NewAlertController(alertRepo)
	analyticsController := controllers.NewAnalyticsController(dashboardService, forecastService, predictor, modelService)
	explainabilityController := controllers.NewExplainabilityController(explainService, cfg.ExplainSamples)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS())

	router.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "AquaMonitor API is running",
			"version": "1.0.0",
			"model":   predictor.Status().IsTrained,
		})
	})

	api := router.Group("/api")
	routes.RegisterTankRoutes(api, tankController)
	routes.RegisterTruckRoutes(api, truckController)
	routes.RegisterAlertRoutes(api, alertController)
	routes.RegisterAnalyticsRoutes(api, analyticsController, cfg.JWTSecret)
	routes.RegisterExplainabilityRoutes(api, explainabilityController)
	routes.RegisterSwaggerRoutes(router)
	routes.RegisterMetricsRoutes(router)
	routes.RegisterHealthRoutes(router, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}, healthChecks)
	routes.RegisterFallbackRoutes(router, cfg.StaticDir)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		log.Infof("API Documentation: http://localhost:%s/swagger/index.html", cfg.Port)
		log.Infof("Health Check: http://localhost:%s/health", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shut down")
	}
}
