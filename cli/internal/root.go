package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/devilmonastery/inkwell/internal/app"
	"github.com/devilmonastery/inkwell/internal/config"
	"github.com/devilmonastery/inkwell/internal/pkg/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const cliContextKey contextKey = "cliContext"

// CliContext holds shared CLI context
type CliContext struct {
	Config      *Config
	ContextName string
	Context     *Context
	App         *app.App
	Logger      *slog.Logger
}

// Global logging flags
var (
	logLevel      string
	logFile       string
	logToStderr   bool
	alsoLogStderr bool
	logFormat     string
)

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	var ctx CliContext

	rootCmd := &cobra.Command{
		Use:           "inkwell",
		Short:         "CLI for reading and managing the blog",
		Long:          `A command line interface for the blog API: browse categories and articles, manage tokens and check the weather.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors (main.go handles it)
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup logging first
			if err := setupLogging(); err != nil {
				return fmt.Errorf("failed to setup logging: %w", err)
			}

			ctx.Logger = slog.Default().With("component", "cli")
			ctx.Logger.Debug("CLI started", "command", cmd.Name())

			// Config commands edit ~/.inkwell and need no client
			if isConfigCommand(cmd) {
				return nil
			}

			cliConfig, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			current, err := cliConfig.GetCurrentContext()
			if err != nil {
				return err
			}
			ctx.Config = cliConfig
			ctx.ContextName = cliConfig.CurrentContext
			ctx.Context = current
			ctx.Logger = logger.WithContext(ctx.Logger, ctx.ContextName)

			settings, err := loadSettings(current, ctx.ContextName)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), settings,
				app.WithStoreName(ctx.ContextName),
				app.WithFeedback(newTerminalFeedback(cmd.ErrOrStderr())),
				app.WithLogger(ctx.Logger),
			)
			if err != nil {
				return err
			}
			ctx.App = a

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey, &ctx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ctx.App != nil {
				return ctx.App.Close()
			}
			return nil
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newAuthCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newCategoriesCommand())
	rootCmd.AddCommand(newArticlesCommand())
	rootCmd.AddCommand(newArticleCommand())
	rootCmd.AddCommand(newWeatherCommand())

	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path (if specified, logs to file instead of stderr)")
	rootCmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false,
		"Log to stderr (default behavior unless --log-file specified)")
	rootCmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false,
		"Log to both file and stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format (text, json)")

	return rootCmd
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return true
		}
	}
	return false
}

// loadSettings reads the client configuration for a context. The context's
// base URL wins over the file, and the in-memory store is swapped for a
// per-context token file so logins survive between invocations.
func loadSettings(current *Context, contextName string) (*config.Config, error) {
	settings, err := config.Load(current.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if current.API.BaseURL != "" {
		settings.API.BaseURL = current.API.BaseURL
	}
	if current.API.AuthScheme != "" {
		settings.API.AuthScheme = current.API.AuthScheme
	}
	if settings.Store.Backend == "" || settings.Store.Backend == "memory" {
		settings.Store.Backend = "file"
	}
	// The CLI reports failures itself
	settings.API.ShowError = false
	return settings, nil
}

// setupLogging configures the global logger based on CLI flags
func setupLogging() error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	// Set as default logger
	slog.SetDefault(globalLogger)
	return nil
}

// getCliContext extracts the CLI context from the command context
func getCliContext(cmd *cobra.Command) *CliContext {
	return cmd.Context().Value(cliContextKey).(*CliContext)
}
