package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/itas-team/itas/internal/app"
)

func main() {
	// Optional .env for local development; real deployments set env vars.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
