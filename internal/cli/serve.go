package cli

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/server"
	"resumeforge/internal/storage"
	"resumeforge/internal/tailor"
	"resumeforge/internal/types"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start an HTTP server that tailors uploaded resumes.

Available endpoints:
- POST /upload: Tailor a .docx resume to a job description file
- GET /download/{sessionID}: Download a tailored resume
- POST /reconstruct: Substitute bullets into a resume without a model
- POST /suggest: Compare resume and job keywords
- GET /health: Health check endpoint (?model=true also checks the model)
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	serveCmd.Flags().String("storage-dir", "", "Directory for tailored documents (overrides config)")

	bindFlag(serveCmd, "server.port", "port")
	bindFlag(serveCmd, "server.host", "host")
	bindFlag(serveCmd, "server.tls.mode", "tls-mode")
	bindFlag(serveCmd, "server.tls.certFile", "cert-file")
	bindFlag(serveCmd, "server.tls.keyFile", "key-file")
	bindFlag(serveCmd, "server.tls.caFile", "ca-file")
	bindFlag(serveCmd, "storage.dir", "storage-dir")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	obs, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()
	metrics := obs.GetMetrics()

	generator, err := ai.NewGenerator(cfg.AI, logger)
	if err != nil {
		return err
	}
	defer func() { _ = generator.Close() }()

	prompts, err := ai.NewPromptLibrary(cfg.AI.Prompts, logger)
	if err != nil {
		return err
	}
	if watcher, err := watchPrompts(cfg.AI.Prompts, prompts, metrics, logger); err != nil {
		return err
	} else if watcher != nil {
		defer func() { _ = watcher.Stop() }()
	}

	store, err := storage.NewStore(cfg.Storage, metrics, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := tailor.NewService(generator, prompts, cfg.AI.Provider, types.TailorMode(cfg.App.TailorMode), metrics, logger)

	srv := server.NewServer(cfg, Version, server.Dependencies{
		Generator: generator,
		Tailor:    svc,
		Store:     store,
		Obs:       obs,
	}, logger)
	return srv.Run(ctx)
}

// watchPrompts reloads the prompt library when a prompt file changes. It
// returns a nil watcher when watching is off or no prompt file is set.
func watchPrompts(cfg config.PromptConfig, prompts *ai.PromptLibrary, metrics *observability.Metrics, logger *errors.Logger) (*config.FileWatcher, error) {
	files := cfg.Files()
	if !cfg.Watch || len(files) == 0 {
		return nil, nil
	}

	watcher := config.NewFileWatcher(files, cfg.DebounceDelay, func() {
		err := prompts.Reload()
		metrics.RecordBusinessMetric(context.Background(), "prompt_reloaded", err == nil)
		if err != nil {
			logger.LogError(err, "Prompt reload failed, keeping previous prompts")
			return
		}
		logger.Info("Prompts reloaded", "files", files)
	}, logger)

	if err := watcher.Start(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to watch prompt files", err)
	}
	return watcher, nil
}
