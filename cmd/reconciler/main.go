// Command reconciler runs a single reconciliation pass and exits. Suitable
// for cron-style scheduling when the long-running worker is not wanted.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/draftwise/wp-publisher/internal/app"
	"github.com/draftwise/wp-publisher/internal/logger"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	application, err := app.New(app.Options{
		ConfigPath: *configPath,
		Version:    version,
	})
	if err != nil {
		log.Printf("failed to initialize: %v", err)
		return err
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			log.Printf("close error: %v", closeErr)
		}
	}()

	result, err := application.RunReconcileOnce(context.Background())
	if err != nil {
		application.Logger().Error("reconciliation failed", logger.Error(err))
		return err
	}

	application.Logger().Info("reconciliation finished",
		logger.Int("updated", len(result.Updated)),
		logger.Int("unchanged", result.Unchanged),
		logger.Int("errors", result.Errors),
	)
	return nil
}
