package cli

import (
	"context"
	"fmt"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

const (
	// viperKeyAnnotation marks a flag as an override for a configuration key
	viperKeyAnnotation = "resumeforge/config-key"
	// skipConfigAnnotation marks commands that run without configuration
	skipConfigAnnotation = "resumeforge/skip-config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "resumeforge",
	Short: "Tailor a resume to a job description without losing its layout",
	Long: `Resumeforge rewrites the bullet points of a .docx resume for a specific
job description using a language model, and writes them back into the
original document so headings, styles and ordering survive.

It also runs as an HTTP service, compares resume and job keywords, and can
submit an application form in a headless browser.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadRuntime,
}

// Execute runs the root command. Cancelling ctx stops long running commands.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadRuntime loads configuration, applying flags bound to configuration
// keys, creates the logger and attaches both to the command context
func loadRuntime(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		return nil
	}

	cfg, err := config.Load(configFile, flagBindings(cmd)...)
	if err != nil {
		return err
	}

	logger, err := errors.NewWithFormat(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	logger.Info("Starting resumeforge",
		"version", Version,
		"command", cmd.Name(),
		"log_level", cfg.App.LogLevel,
		"ai_provider", cfg.AI.Provider)

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return nil
}

// bindFlag makes flagName of cmd override the configuration key
func bindFlag(cmd *cobra.Command, key, flagName string) {
	if err := cmd.Flags().SetAnnotation(flagName, viperKeyAnnotation, []string{key}); err != nil {
		panic(err)
	}
}

func flagBindings(cmd *cobra.Command) []config.FlagBinding {
	var bindings []config.FlagBinding
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[viperKeyAnnotation]; len(keys) == 1 {
			bindings = append(bindings, config.FlagBinding{Key: keys[0], Flag: f})
		}
	})
	return bindings
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: config.yaml in /etc/resumeforge, $HOME/.resumeforge or .)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tailorCmd)
	rootCmd.AddCommand(reconstructCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versionCmd)
}
