// Command api runs the HTTP API with the periodic reconciliation worker.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/draftwise/wp-publisher/internal/app"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	application, err := app.New(app.Options{
		ConfigPath: *configPath,
		Version:    version,
		ServeHTTP:  true,
		RunWorker:  true,
	})
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			log.Printf("close error: %v", closeErr)
		}
	}()

	if err := application.Run(context.Background()); err != nil {
		os.Exit(1)
	}
}
