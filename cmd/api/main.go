package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/config"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/model"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/server"
)

func main() {
	log.Println("[API] Starting telemetry API server...")

	cfg := config.Load()

	// Connect to database (reading history)
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("[API] Failed to connect to database: %v", err)
	}
	log.Println("[API] Connected to database")

	if err := db.AutoMigrate(&model.Reading{}); err != nil {
		log.Fatalf("[API] Failed to migrate database: %v", err)
	}
	log.Println("[API] Database migrated")

	// Connect to Redis (shadow mirror, best effort)
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
		DB:   0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("[API] Redis unavailable, shadow mirror disabled: %v", err)
		redisClient.Close()
		redisClient = nil
	} else {
		log.Println("[API] Connected to Redis")
		defer redisClient.Close()
	}
	cancel()

	// Connect to NATS (uplink bus, best effort)
	natsConn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Printf("[API] NATS unavailable, uplink publishing disabled: %v", err)
		natsConn = nil
	} else {
		log.Println("[API] Connected to NATS")
		defer natsConn.Close()
	}

	srv := server.NewServer(cfg, db, redisClient, natsConn)
	srv.Setup()

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	go func() {
		if err := srv.Run(addr); err != nil {
			log.Fatalf("[API] Failed to start server: %v", err)
		}
	}()

	log.Printf("[API] Server ready on %s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("[API] Shutting down...")
}
