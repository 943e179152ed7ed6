package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/rtsant123/myteer-backend/configs"
	"github.com/rtsant123/myteer-backend/internal/betsvc/broker"
	"github.com/rtsant123/myteer-backend/internal/betsvc/handlers"
	"github.com/rtsant123/myteer-backend/internal/betsvc/scheduler"
	"github.com/rtsant123/myteer-backend/internal/betsvc/service"
	"github.com/rtsant123/myteer-backend/internal/betsvc/store"
	"github.com/rtsant123/myteer-backend/internal/db"
	nats "github.com/rtsant123/myteer-backend/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "bet"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// mongo connection
	mongoDB, cancelConn, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer cancelConn()
	log.Printf("mongo connection established successfully")

	if err := db.EnsureIndexes(mongoDB); err != nil {
		log.Fatalf("Failed to ensure mongo indexes: %v", err)
	}

	houseStore := store.NewHouseStore(mongoDB)
	roundStore := store.NewRoundStore(mongoDB)
	betStore := store.NewBetStore(mongoDB)
	userStore := store.NewUserStore(mongoDB)
	txnStore := store.NewTransactionStore(mongoDB)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(n.Conn)

	houseService := service.NewHouseService(houseStore)
	userService := service.NewUserService(userStore, txnStore)
	roundService := service.NewRoundService(roundStore, houseService, b)
	betService := service.NewBetService(betStore, roundStore, userStore, txnStore,
		houseService, service.LoadBetLimits())
	settlementService := service.NewSettlementService(roundStore, betStore, userStore, txnStore, b)

	// round lifecycle timers
	sched := scheduler.New(roundService, houseService, settlementService, b)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(betService, roundService, settlementService, houseService, userService)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("BET_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
