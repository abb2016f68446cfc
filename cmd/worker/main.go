package main

import (
	"context"
	"log"
	"os"

	"github.com/bps3275/sinora/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	path := os.Getenv("SINORA_CONFIG")
	if path == "" {
		path = "configs/default.yaml"
	}
	runtime, err := bootstrap.NewWorkerRuntime(ctx, path)
	if err != nil {
		log.Fatalf("bootstrap worker runtime: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("run worker: %v", err)
	}
}
