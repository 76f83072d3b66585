package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/starbooks/monitoring-api/app"
	"github.com/starbooks/monitoring-api/config"
	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/utils"
)

func main() {
	if err := config.LoadENV(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	username := flag.String("admin-username", env.ADMIN_USERNAME, "username of the first admin account")
	password := flag.String("admin-password", env.ADMIN_PASSWORD, "password of the first admin account")
	samples := flag.Bool("samples", false, "insert sample institutions")
	flag.Parse()

	logger, err := utils.NewLogger(env.GO_ENV, env.LOG_LEVEL)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	store, err := app.OpenStore(env, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	var registry *schema.Registry
	if *samples {
		registry, err = app.NewRegistry(env)
		if err != nil {
			log.Fatalf("Invalid institution taxonomy: %v", err)
		}
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("STARBOOKS Monitoring - Database Seeding")
	fmt.Println(separator)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.NewSeeder(store, logger).SeedAll(ctx, *username, *password, registry); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully!")
	fmt.Println(separator)
}
