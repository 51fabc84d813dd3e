package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource it opens so that deferred closes execute on both
// normal shutdown and startup failures.
func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Store ---
	var repos Repositories
	checks := map[string]server.HealthCheck{}
	if cfg.DBDriver == config.DriverMemory {
		log.Println("Using in-memory repositories; data is lost on exit")
		repos = NewMemoryRepositories()
	} else {
		db, err := database.Open(cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if err := database.Close(db); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		}()
		if err := database.Migrate(db, cfg); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		repos = NewGORMRepositories(db)
		checks["database"] = func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		}
	}

	// --- Order events ---
	var publisher services.OrderEventPublisher
	if cfg.RabbitMQEnabled {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		}()
		publisher = events.NewPublisher(mqClient)

		if cfg.OrderEventsConsumer {
			if err := mqClient.Consume(ctx, "storefront-order-events", events.LogDelivery); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}
	} else {
		log.Println("RabbitMQ disabled; order events will not be published")
	}

	app := NewApp(cfg, repos, publisher, server.Options{HealthChecks: checks})
	if cfg.SeedProducts {
		seedProducts(ctx, app.Products)
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Printf("Server stopped: %v", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	cancel()

	if err := app.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}
