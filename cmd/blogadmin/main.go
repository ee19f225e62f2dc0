package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/pkg/config"
	"github.com/blogicum/blogicum/pkg/logging"
)

const usage = `Usage: blogadmin <command> [flags]

Commands:
  migrate          create or update the database schema
  createsuperuser  create a staff user (--username, --email, --password)
  add-category     create a category (--title, --slug, --description, --unpublished)
  add-location     create a location (--name, --unpublished)
`

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := run(context.Background(), database, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		logger.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}
