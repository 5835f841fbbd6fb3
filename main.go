package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voyager/config"
	"voyager/cron"
	"voyager/database"
	bookingRepoPkg "voyager/database/repository/booking"
	passengerRepoPkg "voyager/database/repository/passenger"
	"voyager/handlers"
	"voyager/routes"
	"voyager/services/agent"
	"voyager/services/callstate"
	"voyager/services/flights"
	"voyager/services/location"
	"voyager/services/notification"
	"voyager/services/slots"
	"voyager/services/trip"
	"voyager/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// Repositories.
	passengers := passengerRepoPkg.NewMongoPassengerRepo()
	bookings := bookingRepoPkg.NewMongoBookingRepo()

	// Flight backend: deterministic mock by default, live Amadeus when
	// selected. Either way every call is timed through the metrics wrapper.
	var backend flights.Backend
	switch config.AppConfig.FlightBackend {
	case "amadeus":
		backend = flights.NewAmadeusBackend(
			config.AppConfig.AmadeusBaseURL,
			config.AppConfig.AmadeusClientID,
			config.AppConfig.AmadeusClientSecret,
		)
		logger.Sugar().Info("main: using Amadeus flight backend")
	default:
		backend = flights.NewMockBackend(time.Now().UnixNano())
		logger.Sugar().Info("main: using mock flight backend")
	}
	backend = flights.WithMetrics(backend)

	// Per-call conversation state.
	ttl := time.Duration(config.AppConfig.CallStateTTLMinutes) * time.Minute
	store := callstate.NewRedisStore(utils.GetCallStateClient(), ttl)

	// SMS delivery channel: webhook gateway when configured, log sender
	// otherwise.
	var sender notification.SMSSender = &notification.LogSender{From: config.AppConfig.SMSFromNumber}
	if url := config.AppConfig.SMSWebhookURL; url != "" {
		sender = notification.NewWebhookSender(url, config.AppConfig.SMSFromNumber)
	}

	// Confirmations are queued here and delivered by the cron worker.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()
	notifier := notification.NewQueueService(asynqClient)

	// Conversation services.
	resolver := location.NewResolver(backend)
	engine := slots.NewEngine(passengers, resolver,
		time.Duration(config.AppConfig.SaveCooldownSeconds)*time.Second)
	pipeline := trip.NewPipeline(backend, passengers, bookings, notifier)
	if n := config.AppConfig.SearchMaxOffers; n > 0 {
		pipeline.MaxOffers = n
	}

	voiceAgent, err := agent.NewAgent(store, passengers, engine, resolver, pipeline)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to wire agent: %v", err)
	}

	// Handlers.
	webhookHandler := handlers.NewWebhookHandler(voiceAgent)
	dashboardHandler := handlers.NewDashboardHandler(bookings, passengers, store)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		CallStartHandler: webhookHandler.CallStartHandler,
		ToolHandler:      webhookHandler.ToolHandler,
		HangupHandler:    webhookHandler.HangupHandler,

		AdminLoginHandler: handlers.AdminLoginHandler,

		ListBookingsHandler:        dashboardHandler.ListBookingsHandler,
		GetBookingHandler:          dashboardHandler.GetBookingHandler,
		UpdateBookingStatusHandler: dashboardHandler.UpdateBookingStatusHandler,
		GetPassengerHandler:        dashboardHandler.GetPassengerHandler,
		ListCallsHandler:           dashboardHandler.ListCallsHandler,
		GetCallSummaryHandler:      dashboardHandler.GetCallSummaryHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background workers: confirmation delivery and the stale-call sweep.
	cron.InitConfirmationWorker(sender)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	cron.StartStaleCallSweep(sweepCtx, store, 24*time.Hour, time.Hour)
	utils.StartHealthMonitor(utils.GetCallStateClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
