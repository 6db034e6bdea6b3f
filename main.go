package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"blog/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	log.Printf("Starting server on port %s (store: %s, env: %s)", cfg.Port, cfg.StoreDriver, cfg.Env)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if err := app.Close(); err != nil {
		log.Printf("Error releasing resources: %v", err)
	}

	log.Println("Server gracefully stopped")
}
