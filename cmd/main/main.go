package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CTAG07/Podium/pkg/templating"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	actionShutdown = "shutdown"
	actionRestart  = "restart"
)

const usage = `Usage: podium <command> [flags]

Commands:
  serve     Serve the site over HTTP
  build     Export the site as static files
  version   Print version information

Run 'podium <command> --help' for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serveCommand(os.Args[2:])
	case "build":
		err = buildCommand(os.Args[2:])
	case "version":
		fmt.Printf("podium %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadEnvFile reads .env into the environment outside production. Variables
// already set win.
func loadEnvFile() {
	if strings.EqualFold(os.Getenv("ENVIRONMENT"), environmentProduction) {
		return
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}
}

// loadRuntimeConfig reads the config file and layers the environment over it.
func loadRuntimeConfig(path string) (*Config, error) {
	loadEnvFile()
	config, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.ApplyEnv(os.Getenv)
	return config, nil
}

type serveOptions struct {
	configPath string
	port       string
}

func serveCommand(args []string) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	var opts serveOptions
	flags.StringVarP(&opts.configPath, "config", "c", "./config.json", "path to the config file")
	flags.StringVarP(&opts.port, "port", "p", "", "port to listen on, overrides PORT and server_addr")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		for sig := range osSignalChan {
			if sig == syscall.SIGHUP {
				baseLogger.Info("SIGHUP received, reloading.")
				actionChan <- actionRestart
				continue
			}
			baseLogger.Info("OS signal received, initiating shutdown.")
			actionChan <- actionShutdown
			return
		}
	}()

	for {
		action, err := run(opts, actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			return err
		}

		if action == actionRestart {
			baseLogger.Info("--- Server Restarting ---")
			continue
		}
		break
	}

	baseLogger.Info("Application stopped.")
	return nil
}

// run hosts the server for one configuration, and returns whenever the server
// is shut down or restarted.
func run(opts serveOptions, actionChan chan string) (string, error) {
	config, err := loadRuntimeConfig(opts.configPath)
	if err != nil {
		return "", err
	}
	if opts.port != "" {
		config.Server.ServerAddr = ":" + opts.port
	}

	logger := newLogger(os.Stdout, config.Server)
	logger.Info("Starting server cycle...", "version", Version)

	site, err := NewSite(config, logger, config.Production(), templating.DefaultConfig(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create site: %w", err)
	}
	defer func() {
		if err := site.Close(); err != nil {
			logger.Error("Failed to close site", "error", err)
		}
	}()

	var stats *StatsAPI
	if config.Server.StatsDSN != "" {
		db, d, err := openStatsDB(config.Server.StatsDSN)
		if err != nil {
			return "", fmt.Errorf("failed to open stats database: %w", err)
		}
		defer func() {
			logger.Info("Closing database connection.")
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}()
		if err = setupStatsSchema(context.Background(), db); err != nil {
			return "", fmt.Errorf("failed to setup stats schema: %w", err)
		}
		stats = NewStatsAPI(db, d, logger)
		logger.Info("Request stats enabled", "dialect", d.String())
	}

	server := NewServer(config, logger, site, stats)
	httpServer := &http.Server{
		Addr:              config.Server.ServerAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	logger.Info("Application started.",
		"port", strings.TrimPrefix(config.Server.ServerAddr, ":"),
		"environment", config.Server.Environment)

	var action string
	select {
	case action = <-actionChan:
	case err = <-serveErr:
		return "", fmt.Errorf("http server failed: %w", err)
	}

	logger.Info("Stopping server for " + action + "...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped.")

	return action, nil
}

func buildCommand(args []string) error {
	flags := pflag.NewFlagSet("build", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "./config.json", "path to the config file")
	outDir := flags.StringP("out", "o", "", "output directory, overrides build_config.out_dir")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	config, err := loadRuntimeConfig(*configPath)
	if err != nil {
		return err
	}
	if *outDir != "" {
		config.Build.OutDir = *outDir
	}
	logger := newLogger(os.Stdout, config.Server)

	site, err := NewSite(config, logger, true, templating.ExportConfig(), nil)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}
	defer func() {
		if err := site.Close(); err != nil {
			logger.Error("Failed to close site", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	written, err := NewExporter(config, logger, site).Export(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	logger.Info("Build finished.", "out_dir", config.Build.OutDir, "files", written, "elapsed", time.Since(start).String())
	return nil
}
