package main

import (
	"context"
	"log"
	"os"

	"dolo/internal/api"
	"dolo/internal/cache"
	"dolo/internal/config"
	"dolo/internal/service/ai"
	"dolo/internal/service/consult"
	"dolo/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("DOLO_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("DOLO_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: conversations, messages, reports
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	cacheClient, err := cache.New(cfg)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	defer cacheClient.Close()

	gateway, err := ai.NewGateway(context.Background(), cfg)
	if err != nil {
		log.Fatalf("init inference gateway: %v", err)
	}

	uploadDir := cfg.BasicConfig.UploadDir
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("create upload dir: %v", err)
	}

	service := consult.NewService(db, cacheClient, gateway, uploadDir)
	handlers := api.NewHandler(service, uploadDir)

	router := gin.New()
	router.Use(gin.Logger(), api.Recovery())
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8000"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
