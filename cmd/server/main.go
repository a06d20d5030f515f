package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/convocation-seat-allocation/internal/allocation"
	"github.com/iliyamo/convocation-seat-allocation/internal/config"
	"github.com/iliyamo/convocation-seat-allocation/internal/database"
	"github.com/iliyamo/convocation-seat-allocation/internal/handler"
	"github.com/iliyamo/convocation-seat-allocation/internal/queue"
	"github.com/iliyamo/convocation-seat-allocation/internal/repository"
	"github.com/iliyamo/convocation-seat-allocation/internal/router"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the stats/venue response cache.
	// A nil client disables both; the allocation engine never needs it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}

	enclosureRepo := repository.NewEnclosureRepo(db)
	attendeeRepo := repository.NewAttendeeRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)
	accountRepo := repository.NewAccountRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	engine := allocation.NewEngine(enclosureRepo, attendeeRepo, allocationRepo)

	authHandler := handler.NewAuthHandler(cfg, accountRepo, tokenRepo)
	allocationHandler := handler.NewAllocationHandler(cfg, engine, allocationRepo)
	venueHandler := handler.NewVenueHandler(enclosureRepo)
	attendeeHandler := handler.NewAttendeeHandler(attendeeRepo)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterAllocation(e, allocationHandler, cfg, rdb)
	router.RegisterVenue(e, venueHandler, cfg, rdb)
	router.RegisterAttendees(e, attendeeHandler, cfg)

	// Background consumer appends completed-run events to logs/allocation.log.
	go func() {
		if err := queue.StartAllocationConsumer(); err != nil {
			log.Printf("allocation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
