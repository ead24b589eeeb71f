package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration and contexts",
		Long:  `Manage CLI configuration including API contexts, similar to kubectl contexts.`,
	}

	cmd.AddCommand(newCurrentContextCommand())
	cmd.AddCommand(newUseContextCommand())
	cmd.AddCommand(newListContextsCommand())
	cmd.AddCommand(newAddContextCommand())
	cmd.AddCommand(newDeleteContextCommand())
	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// current-context command
func newCurrentContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "current-context",
		Short: "Display the current context",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), config.CurrentContext)
			return nil
		},
	}
}

// use-context command
func newUseContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use-context CONTEXT_NAME",
		Short: "Switch to a different context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := config.SetCurrentContext(contextName); err != nil {
				return err
			}

			if err := SaveConfig(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", contextName)
			return nil
		},
	}
}

// list-contexts command
func newListContextsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list-contexts",
		Aliases: []string{"get-contexts"},
		Short:   "List all available contexts",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if len(config.Contexts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "CURRENT\tNAME\tBASE URL\tTHEME")

			for _, name := range config.ContextNames() {
				ctx := config.Contexts[name]
				current := " "
				if name == config.CurrentContext {
					current = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					current,
					name,
					ctx.API.BaseURL,
					ctx.Rendering.Theme,
				)
			}
			return w.Flush()
		},
	}
}

// add-context command
func newAddContextCommand() *cobra.Command {
	var (
		baseURL    string
		authScheme string
		settings   string
		theme      string
		timezone   string
	)

	cmd := &cobra.Command{
		Use:   "add-context CONTEXT_NAME",
		Short: "Add or update a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx := newContext(baseURL)
			ctx.API.AuthScheme = authScheme
			ctx.Settings = settings
			ctx.Rendering.Theme = theme
			ctx.Rendering.Timezone = timezone

			config.AddContext(contextName, ctx)

			// If this is the first context, make it current
			if len(config.Contexts) == 1 {
				config.CurrentContext = contextName
			}

			if err := SaveConfig(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q added/updated\n", contextName)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Blog API base URL")
	cmd.Flags().StringVar(&authScheme, "auth-scheme", "", "Authorization scheme prefix (empty sends the bare token)")
	cmd.Flags().StringVar(&settings, "settings", "", "Path to an inkwell.yaml client configuration")
	cmd.Flags().StringVar(&theme, "theme", "auto", "Rendering theme")
	cmd.Flags().StringVar(&timezone, "timezone", "", "Timezone for dates (IANA name)")
	_ = cmd.MarkFlagRequired("base-url")

	return cmd
}

// delete-context command
func newDeleteContextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-context CONTEXT_NAME",
		Short: "Delete a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contextName := args[0]

			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := config.DeleteContext(contextName); err != nil {
				return err
			}

			if err := SaveConfig(config); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Context %q deleted\n", contextName)
			return nil
		},
	}
}

// show command prints the current context
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current context configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, err := config.GetCurrentContext()
			if err != nil {
				return fmt.Errorf("failed to get current context: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Current context: %s\n", config.CurrentContext)
			fmt.Fprintf(out, "  Base URL: %s\n", ctx.API.BaseURL)
			if ctx.API.AuthScheme != "" {
				fmt.Fprintf(out, "  Auth Scheme: %s\n", ctx.API.AuthScheme)
			}
			if ctx.Settings != "" {
				fmt.Fprintf(out, "  Settings: %s\n", ctx.Settings)
			}
			fmt.Fprintf(out, "  Glamour Theme: %s\n", ctx.Rendering.Theme)
			if ctx.Rendering.Timezone != "" {
				fmt.Fprintf(out, "  Timezone: %s\n", ctx.Rendering.Timezone)
			}

			configPath, _ := GetConfigPath()
			fmt.Fprintf(out, "  Config File: %s\n", configPath)

			return nil
		},
	}
}
