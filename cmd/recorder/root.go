package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"motion-recorder-go/internal/api"
	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/services"
)

var (
	envFile     string
	storagePath string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:          "recorder",
	Short:        "Motion-triggered recorder for a single network camera",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecorder(cmd.Context())
	},
}

func Execute() {
	// Cancelled on Ctrl+C (SIGINT) or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Recorder exited with error")
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default: .env)")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "segment directory, overrides STORAGE_PATH")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides LOG_LEVEL")
}

// loadConfig applies the env file and flag overrides, sets the log level and validates
func loadConfig() (*config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg := config.Load(files...)
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogdy(cfg *config.Config) {
	if !cfg.LogdyEnabled {
		return
	}
	w, _, err := logging.StartLogdy(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to start Logdy, continuing with console logging only")
		return
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, w))
}

func runRecorder(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureStorage(); err != nil {
		return err
	}
	setupLogdy(cfg)

	log.Info().
		Str("camera_id", cfg.CameraID).
		Str("version", cfg.Version).
		Str("camera_host", cfg.CameraHost).
		Str("storage", cfg.StoragePath).
		Bool("api_enabled", cfg.APIEnabled).
		Int("port", cfg.Port).
		Msg("Starting motion recorder")

	sc, err := services.NewServiceContainer(ctx, cfg)
	if err != nil {
		return err
	}
	sc.Start(ctx)

	var server *api.Server
	if cfg.APIEnabled {
		server = api.NewServer(cfg, apiDependencies(sc))
		if err := server.Setup(); err != nil {
			return err
		}
		go func() {
			if err := server.Start(); err != nil {
				log.Error().Err(err).Msg("API server failed")
			}
		}()
	}

	runErr := sc.Run(ctx)

	log.Info().Msg("Shutdown signal received")

	// The signal context is already cancelled here
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server forced to shutdown")
		}
	}
	if err := sc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Service shutdown incomplete")
	} else {
		log.Info().Msg("Shutdown complete")
	}

	return runErr
}

// apiDependencies keeps disabled services as untyped nils so the handlers see them as absent
func apiDependencies(sc *services.ServiceContainer) api.Dependencies {
	deps := api.Dependencies{
		Status: sc.Supervisor.Status(),
		Events: sc.Hub,
		Bus:    sc.Bus,
	}
	if sc.Journal != nil {
		deps.Journal = sc.Journal
	}
	if sc.Preview != nil {
		deps.Preview = sc.Preview
	}
	return deps
}
