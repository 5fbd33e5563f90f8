package main

import (
	"context"
	"log"

	"ai-chat-platform-be/internal/bootstrap"
	"ai-chat-platform-be/internal/config"
	"ai-chat-platform-be/internal/server"
	"ai-chat-platform-be/internal/tracer"
	"ai-chat-platform-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (optional, memory repositories without it)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Panicf("Unable to migrate schema: %v", err)
		}
		gormDB = db
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.JobQueue.Close()
	defer container.Logger.Sync()
	if container.EventSubscriber != nil {
		defer container.EventSubscriber.Close()
	}

	// 4. Start Background Worker
	go func() {
		log.Println("Background: Starting chat worker...")
		if err := container.WorkerService.Start(context.Background()); err != nil {
			log.Printf("Background Worker Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
