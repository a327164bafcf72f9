package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/carlosrabelo/portsec/internal/config"
	"github.com/carlosrabelo/portsec/internal/logging"
	"github.com/carlosrabelo/portsec/internal/switchmanager"
	"github.com/carlosrabelo/portsec/internal/web"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	yamlFile := flag.String("y", "config.yaml", "YAML configuration file")
	envFile := flag.String("e", ".env", "Environment file loaded before the configuration")
	verbosity := flag.Int("v", -1, "Verbosity level: 0=info, 1=debug, 2=raw switch output (overrides LOG_LEVEL)")
	mock := flag.Bool("m", false, "Start in mock mode regardless of configuration")
	flag.Parse()

	fmt.Printf("portsec %s (built %s)\n", version, buildTime)

	if *verbosity < -1 || *verbosity > 2 {
		fmt.Fprintf(os.Stderr, "Error: -v must be 0, 1 or 2\n")
		flag.Usage()
		os.Exit(1)
	}

	// a missing .env is normal outside development
	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(resolveConfigPath(*yamlFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *mock {
		cfg.MockMode = true
	}
	if *verbosity >= 0 {
		cfg.Log.Level = []string{"info", "debug", "trace"}[*verbosity]
	}

	logger, closer, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	manager := switchmanager.New(*cfg, logger)
	app := web.New(manager, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Web.Addr()).
			Bool("mock_mode", cfg.MockMode).
			Str("switch", cfg.Switch.Target).
			Msg("Server running")
		errCh <- app.Listen(cfg.Web.Addr())
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Server stopped")
			manager.Disconnect()
			closer.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
	manager.Disconnect()
}

// resolveConfigPath searches the usual locations when the default name was not overridden.
// A path that does not exist is returned as is; Load treats it as "environment only".
func resolveConfigPath(yamlFile string) string {
	if yamlFile != "config.yaml" {
		return yamlFile
	}
	possiblePaths := []string{filepath.Join(".", "config.yaml")}
	switch runtime.GOOS {
	case "linux":
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			possiblePaths = append(possiblePaths, filepath.Join(userConfigDir, "portsec", "config.yaml"))
		}
		possiblePaths = append(possiblePaths, "/etc/portsec/config.yaml")
	case "windows":
		if appDataDir := os.Getenv("APPDATA"); appDataDir != "" {
			possiblePaths = append(possiblePaths, filepath.Join(appDataDir, "portsec", "config.yaml"))
		}
		if programDataDir := os.Getenv("ProgramData"); programDataDir != "" {
			possiblePaths = append(possiblePaths, filepath.Join(programDataDir, "portsec", "config.yaml"))
		}
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return yamlFile
}
