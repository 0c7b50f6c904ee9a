package main

import (
	"context"
	"log"

	"github.com/auroraa/watermark-engine/internal/api"
	"github.com/auroraa/watermark-engine/internal/config"
	"github.com/auroraa/watermark-engine/internal/identity"
	"github.com/auroraa/watermark-engine/internal/repository"
	"github.com/auroraa/watermark-engine/internal/watermark/key"
)

func main() {
	log.Println("starting the AURORAA watermark engine...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	sched, err := key.New(cfg.Secret)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	var repo repository.Repository
	if cfg.DatabaseURL != "" {
		store, err := repository.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("FATAL: failed to connect to database: %v", err)
		}
		defer store.Close()
		if err := store.InitSchema(context.Background()); err != nil {
			log.Fatalf("FATAL: failed to initialize schema: %v", err)
		}
		repo = store
	} else {
		log.Fatal("FATAL: DATABASE_URL is required")
	}

	idClient := identity.NewClient(cfg.IdentityServiceURL)

	hub := api.NewHub()
	go hub.Run()

	r := api.SetupRouter(repo, idClient, sched, cfg, hub)

	log.Printf("watermark engine listening on :%s\n", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: failed to start server: %v", err)
	}
}
