// Command migrate creates or updates the PostgreSQL tables and checks the connection.
package main

import (
	"log"

	"github.com/starbooks/monitoring-api/app"
	"github.com/starbooks/monitoring-api/config"
	"github.com/starbooks/monitoring-api/utils"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatal("Failed to read configuration: ", err)
	}

	logger, err := utils.NewLogger(env.GO_ENV, env.LOG_LEVEL)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}

	// OpenStore runs the migrations
	store, err := app.OpenStore(env, logger)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	defer store.Close()

	if err := store.HealthCheck(); err != nil {
		log.Fatal("Database health check failed: ", err)
	}

	log.Println("Migrations completed; tables: users, institutions, trainings, notifications")
}
