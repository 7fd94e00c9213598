// Package main is the entry point for the bookshelf API server.
// It wires together configuration, logging, the book store, and the HTTP router.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/aoideee/bookshelf-api/internal/data"
)

// appVersion is the current version of the API, shown in logs and the healthcheck.
const appVersion = "1.0.0"

// serverConfig holds all the values that can be tweaked at startup via command-line flags.
type serverConfig struct {
	port        int    // TCP port the HTTP server listens on (default 4000)
	environment string // Runtime environment: development, staging, or production
	limiter     struct {
		rps     float64 // Tokens added per second to each client's bucket
		burst   int     // Bucket capacity
		enabled bool    // Turns per-IP rate limiting on or off
	}
	log logConfig
}

// applicationDependencies bundles every shared resource that HTTP handlers need.
// A pointer to this struct is passed as the receiver on all handler and route methods.
type applicationDependencies struct {
	config serverConfig // Server configuration loaded from flags
	logger *slog.Logger // Structured logger
	models data.Models  // Book store and any future models
}

// main is the application entry point.
// It parses flags, builds the logger and store, wires up dependencies, and starts the HTTP server.
func main() {
	var settings serverConfig

	// Register command-line flags so operators can override defaults at runtime.
	flag.IntVar(&settings.port, "port", 4000, "Server port")
	flag.StringVar(&settings.environment, "env", "development", "Environment(development|staging|production)")

	flag.Float64Var(&settings.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	flag.IntVar(&settings.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&settings.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")

	flag.StringVar(&settings.log.level, "log-level", "info", "Log level(debug|info|warn|error)")
	flag.StringVar(&settings.log.format, "log-format", "", "Log format(text|json); defaults to text in development, json otherwise")
	flag.StringVar(&settings.log.dir, "log-dir", "", "Directory for the app.log file; empty logs to stdout only")
	flag.BoolVar(&settings.log.clearOnStart, "log-clear", true, "Remove old log files from log-dir at startup")
	flag.IntVar(&settings.log.maxSizeMB, "log-max-size", 10, "Rotate app.log once it reaches this many megabytes")
	flag.IntVar(&settings.log.maxBackups, "log-max-backups", 5, "Rotated log files to keep (0 keeps all)")
	flag.BoolVar(&settings.log.compress, "log-compress", false, "Gzip rotated log files")

	flag.Parse()

	logger, closeLog, err := newLogger(settings.log, settings.environment, os.Stdout)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("application startup", "version", appVersion)

	// The store lives for the whole process; nothing needs tearing down.
	appInstance := &applicationDependencies{
		config: settings,
		logger: logger,
		models: data.NewModels(data.NewStore(logger)),
	}

	err = appInstance.serve()
	if err != nil {
		logger.Error(err.Error())
		closeLog()
		os.Exit(1)
	}
	logger.Info("application shutdown")
}
