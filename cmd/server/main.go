package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/allelectronic/repair-service/internal/config"
	"github.com/allelectronic/repair-service/internal/database"
	"github.com/allelectronic/repair-service/internal/handler"
	"github.com/allelectronic/repair-service/internal/queue"
	"github.com/allelectronic/repair-service/internal/repository"
	"github.com/allelectronic/repair-service/internal/router"
	"github.com/allelectronic/repair-service/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// The store is optional: without MONGODB_URI the intake form still
	// acknowledges submissions, flagged as not persisted.
	var db *mongo.Database
	if cfg.MongoURI == "" {
		log.Printf("MONGODB_URI not set; running without database (submissions acknowledged, not persisted)")
	} else {
		var err error
		db, err = database.Open(cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Printf("mongo unavailable: %v; running without database", err)
			db = nil
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := database.EnsureIndexes(ctx, db); err != nil {
				log.Printf("index bootstrap failed: %v", err)
			}
			cancel()
		}
	}

	accounts := repository.NewAccountRepo(db, cfg.BcryptCost)
	requests := repository.NewRequestRepo(db)

	if db != nil && cfg.AdminUser != "" && cfg.AdminPass != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := accounts.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPass); err != nil {
			log.Printf("admin seed failed: %v", err)
		}
		cancel()
	}

	var events *service.EventPublisher
	if cfg.AMQPURL != "" {
		events = service.NewEventPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartAuditConsumer(cfg.AMQPURL); err != nil {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; intake rate limiting disabled")
	}

	h := router.Handlers{
		Intake: handler.NewIntakeHandler(requests, service.NewDuplicateDetector(requests), events),
		Auth:   handler.NewAuthHandler(cfg, accounts),
		Admin:  handler.NewAdminRequestHandler(requests, service.NewWorkflow(cfg.WorkflowStrict), events),
		Users:  handler.NewUserHandler(accounts),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.CORS())
	router.Register(e, cfg, config.LoadRateLimitConfig(), rdb, h)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
