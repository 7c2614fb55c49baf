package server

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Cobblo/AiaeroConnectDashboard/internal/config"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/handler"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/service"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/snapshot"
	"github.com/Cobblo/AiaeroConnectDashboard/internal/source"
)

// Server represents the HTTP server.
type Server struct {
	router *gin.Engine
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	nats   *nats.Conn
	store  *snapshot.Store
}

// NewServer creates a new server instance. Redis and NATS may be nil;
// the ingest path degrades to snapshot-and-DB only.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) *Server {
	return &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
		nats:   natsConn,
		store:  snapshot.NewStore(),
	}
}

// Setup initializes sources, services, handlers and routes.
func (s *Server) Setup() {
	// Upstream sources in fixed priority order.
	local := source.NewSnapshotSource(s.store)
	lora := registryOrNil("lora", s.config.LoRaRegistryURL, s.config)
	loraBulk := registryOrNil("lora-bulk", s.config.LoRaBulkURL, s.config)
	gsm := registryOrNil("gsm", s.config.GSMRegistryURL, s.config)

	aggregator := service.NewAggregator(local, lora, loraBulk, gsm, s.config.TieBreak)
	readings := service.NewReadingService(s.db)

	ingestHandler := handler.NewIngestHandler(s.store, readings, s.redis, s.nats, s.config.IngestSecret)
	currentHandler := handler.NewCurrentHandler(aggregator, s.config.MaxAgeMin)
	trackingHandler := handler.NewTrackingHandler(readings, s.config.LocalTZ, s.config.TripMaxGapMin)
	exportHandler := handler.NewExportHandler(aggregator, s.config.LocalTZ, s.config.MaxAgeMin)

	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, x-ingest-secret")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"sources": gin.H{
				"local":     true,
				"lora":      lora != nil,
				"lora_bulk": loraBulk != nil,
				"gsm":       gsm != nil,
			},
			"redis": s.redis != nil,
			"nats":  s.nats != nil,
		})
	})

	api := s.router.Group("/api")
	{
		api.POST("/ingest", ingestHandler.Ingest)
		api.GET("/current", currentHandler.GetCurrent)
		api.GET("/track", trackingHandler.GetTrack)
		api.GET("/track/export", trackingHandler.ExportTrack)
		api.GET("/export/vitals.xlsx", exportHandler.GetVitalsWorkbook)
	}
}

func registryOrNil(name, url string, cfg *config.Config) source.Source {
	if url == "" {
		log.Printf("[Server] %s registry not configured, skipping", name)
		return nil
	}
	return source.NewRegistry(name, url, cfg.IngestSecret, cfg.UpstreamTimeout)
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	log.Printf("[Server] HTTP server listening on %s", addr)
	return s.router.Run(addr)
}

// GetRouter returns the gin router for testing.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
