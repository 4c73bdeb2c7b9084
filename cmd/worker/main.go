package main

import (
	"context"
	"log"
	"time"

	"paperxray/internal/activities"
	"paperxray/internal/config"
	"paperxray/internal/generator"
	"paperxray/internal/storage"
	"paperxray/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	activities.Register(w, activities.New(db, generator.New(cfg)))

	log.Printf("paperxray worker listening on %s queue=%s generator=%s", cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.Generator)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
