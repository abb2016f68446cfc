package main

import (
	"context"
	"log"
	"os"

	"github.com/bps3275/sinora/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	runtime, err := bootstrap.NewAPIRuntime(ctx, configPath())
	if err != nil {
		log.Fatalf("bootstrap api runtime: %v", err)
	}
	if err := runtime.RunAPI(ctx); err != nil {
		log.Fatalf("run api: %v", err)
	}
}

func configPath() string {
	if path := os.Getenv("SINORA_CONFIG"); path != "" {
		return path
	}
	return "configs/default.yaml"
}
