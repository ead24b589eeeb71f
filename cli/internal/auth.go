package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devilmonastery/inkwell/internal/client"
)

// formatDuration formats a duration in a human-friendly way (e.g., "2 days, 3 hours and 45 minutes")
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	parts = appendUnit(parts, days, "day")
	parts = appendUnit(parts, hours, "hour")
	parts = appendUnit(parts, minutes, "minute")
	if len(parts) == 0 {
		parts = appendUnit(parts, seconds, "second")
	}

	switch len(parts) {
	case 0:
		return "0 seconds"
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func appendUnit(parts []string, n int, unit string) []string {
	switch {
	case n == 1:
		return append(parts, "1 "+unit)
	case n > 1:
		return append(parts, fmt.Sprintf("%d %ss", n, unit))
	default:
		return parts
	}
}

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Manage the blog API token for the current context`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthTokenCommand())
	cmd.AddCommand(newAuthSetTokenCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the blog API",
		Long: `Exchange a username and password for a token and store it for the current context.

Examples:
  # Prompt for credentials
  inkwell auth login

  # Non-interactive
  inkwell auth login --username admin --password secret`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			out := cmd.OutOrStdout()

			if username == "" || password == "" {
				var err error
				username, password, err = promptCredentials(cmd.InOrStdin(), out, username)
				if err != nil {
					return err
				}
			}

			a := cliCtx.App
			a.Tokens.SetAuthenticator(client.NewPasswordLogin(a.Client, a.Settings.Auth.LoginPath, username, password))

			res := a.Tokens.RefreshToken(cmd.Context())
			if !res.Success {
				return fmt.Errorf("login failed: %s", res.Error)
			}

			fmt.Fprintf(out, "✓ Successfully logged in as %s\n", username)
			if expiresAt, ok := a.Tokens.Expiry(cmd.Context()); ok {
				fmt.Fprintf(out, "  Token expires: %s\n", expiresAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			getCliContext(cmd).App.Tokens.RemoveToken(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Successfully logged out")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := getCliContext(cmd)
			tokens := cliCtx.App.Tokens
			out := cmd.OutOrStdout()

			token, ok := tokens.GetToken(cmd.Context())
			if !ok {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			fmt.Fprintf(out, "Context: %s\n", cliCtx.ContextName)
			if claims, err := client.ParseTokenClaims(token); err == nil {
				if claims.Username != "" {
					fmt.Fprintf(out, "Logged in as: %s\n", claims.Username)
				}
				if claims.Subject != "" {
					fmt.Fprintf(out, "User ID: %s\n", claims.Subject)
				}
			}

			expiresAt, ok := tokens.Expiry(cmd.Context())
			if !ok {
				fmt.Fprintln(out, "Token expiry unknown")
				return nil
			}

			// Show expiry in local timezone
			fmt.Fprintf(out, "Token expires: %s\n", expiresAt.Local().Format("2006-01-02 15:04:05 MST"))

			now := time.Now()
			if !now.Before(expiresAt) {
				fmt.Fprintf(out, "⚠  Token expired %s ago - automatic refresh will be attempted on next request\n", formatDuration(now.Sub(expiresAt)))
			} else {
				fmt.Fprintf(out, "✓  Valid for %s\n", formatDuration(expiresAt.Sub(now)))
			}
			return nil
		},
	}
}

func newAuthTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Display the current access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, ok := getCliContext(cmd).App.Tokens.GetToken(cmd.Context())
			if !ok {
				return fmt.Errorf("not logged in")
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newAuthSetTokenCommand() *cobra.Command {
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "set-token TOKEN",
		Short: "Store a token obtained elsewhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			getCliContext(cmd).App.Tokens.SetToken(cmd.Context(), args[0], expiresIn)
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Token stored")
			return nil
		},
	}

	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Token lifetime (default from settings)")

	return cmd
}

func promptCredentials(in io.Reader, out io.Writer, username string) (string, string, error) {
	reader := bufio.NewReader(in)

	if username == "" {
		fmt.Fprint(out, "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		// Get password (hidden)
		passwordBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out) // newline after password input
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		return username, string(passwordBytes), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return username, strings.TrimSpace(line), nil
}
