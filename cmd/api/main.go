package main

import (
	"log"
	"net/http"

	"paperxray/internal/api"
	"paperxray/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	h := api.NewServer(cfg)
	log.Printf("paperxray api listening on %s generator=%s langs=%q", cfg.APIAddr, cfg.Generator, cfg.Languages)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		log.Fatal(err)
	}
}
