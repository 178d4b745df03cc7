package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/tessro/cuecard/internal/errors"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long:  `Opens a browser to authenticate with Spotify using OAuth PKCE flow.`,
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth token and the saved playback device.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	s, err := newSession(logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	fmt.Println("Opening browser for Spotify authentication...")
	if err := s.flow.InitiateLogin(ctx); err != nil {
		return fmt.Errorf("failed to start sign-in: %w", err)
	}
	fmt.Printf("If the browser did not open, visit:\n\n%s\n\n", s.flow.AuthURL())

	fmt.Println("Waiting for authentication...")
	token, err := s.flow.ResolveCallback(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	s.player.SetToken(token)

	profile, err := s.player.GetUserProfile(ctx)
	if err != nil {
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":       "authenticated",
			"user_id":      profile.ID,
			"display_name": profile.DisplayName,
			"email":        profile.Email,
			"product":      profile.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s (%s)\n", profile.DisplayName, profile.Email)
	if profile.Product != "premium" {
		fmt.Println("Note: playback control requires Spotify Premium.")
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	s, err := newSession(logger)
	if err != nil {
		return err
	}

	if !s.tokens.Exists() {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := s.flow.ClearToken(); err != nil {
		return err
	}
	if err := s.devices.Clear(); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	s, err := newSession(logger)
	if err != nil {
		return err
	}

	token, err := s.tokens.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == nil {
		if JSONOutput() {
			return printJSON(map[string]any{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'cuecard auth login' to authenticate.")
		return nil
	}

	ctx := cmd.Context()
	if err := s.signIn(ctx); err != nil {
		return err
	}
	profile, err := s.player.GetUserProfile(ctx)
	if err != nil {
		expired := errors.Is(err, apperrors.ErrUnauthorized)
		if JSONOutput() {
			return printJSON(map[string]any{
				"authenticated": true,
				"expired":       expired,
				"error":         err.Error(),
			})
		}
		fmt.Printf("Token may be expired or invalid: %v\n", err)
		fmt.Println("Run 'cuecard auth login' to re-authenticate.")
		return nil
	}

	// StoredToken may have refreshed the token on disk.
	if fresh, err := s.tokens.Load(); err == nil && fresh != nil {
		token = fresh
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"authenticated": true,
			"expired":       false,
			"user_id":       profile.ID,
			"display_name":  profile.DisplayName,
			"email":         profile.Email,
			"product":       profile.Product,
			"expires_at":    token.Expiry,
		})
	}
	fmt.Printf("Authenticated as: %s (%s)\n", profile.DisplayName, profile.Email)
	fmt.Printf("Account type: %s\n", profile.Product)
	if !token.Expiry.IsZero() {
		fmt.Printf("Token expires: %s\n", token.Expiry.Format(time.RFC3339))
	}
	fmt.Fprintf(os.Stderr, "Token file: %s\n", s.tokens.Path())
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
