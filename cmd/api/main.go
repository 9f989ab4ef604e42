package main

import (
	"context"
	"log"

	"agora/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Start HTTP server.
func main() {
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("close api app: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("run api app: %v", err)
	}
}
