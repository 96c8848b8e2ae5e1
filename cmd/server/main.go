package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/ritvika/paintshop/internal/app"
	"github.com/ritvika/paintshop/internal/config"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
