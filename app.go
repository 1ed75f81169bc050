// Package main is the entry point for the cloudposture API server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/saravanakr/cloudposture/service/api"
	"github.com/saravanakr/cloudposture/service/awsconfig"
	"github.com/saravanakr/cloudposture/service/scanner"
	"github.com/saravanakr/cloudposture/service/storage"
	"github.com/saravanakr/cloudposture/shared/logging"
	flag "github.com/spf13/pflag"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	listenAddr := flag.String("listen", ":8080", "address the API server binds to")
	dbPath := flag.String("db", "", "path to the SQLite database (default ~/.cloudposture/cloudposture.db)")
	envFile := flag.String("env-file", "", "optional .env file to load before reading the environment")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cloudposture %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", *envFile, err)
		}
	} else {
		// A missing default .env is not an error.
		_ = godotenv.Load()
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" && !flag.CommandLine.Changed("listen") {
		*listenAddr = addr
	}
	if path := os.Getenv("DB_PATH"); path != "" && !flag.CommandLine.Changed("db") {
		*dbPath = path
	}

	probeTimeout := scanner.DefaultProbeTimeout
	if raw := os.Getenv("PROBE_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid PROBE_TIMEOUT %q: %w", raw, err)
		}
		probeTimeout = parsed
	}

	log, err := logging.New(*debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer log.Sync()

	store, err := storage.NewService(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	scanService := scanner.NewService(
		store,
		awsconfig.NewService(),
		scanner.DefaultProbes(),
		scanner.CanaryProbe(),
		probeTimeout,
		log,
	)

	handler := api.NewHandler(store, scanService, log)
	router := handler.Router()

	log.Infow("starting api server",
		"listen", *listenAddr,
		"version", version,
		"probeTimeout", probeTimeout)
	return router.Run(*listenAddr)
}
