package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/gpxup/internal/server"
	"github.com/desertthunder/gpxup/internal/services"
	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// tokenPath returns the location of the persisted OAuth token.
func tokenPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".gpxup", "token.json"), nil
}

// saveToken persists the OAuth token for later runs.
func saveToken(token *oauth2.Token) (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write token file: %w", err)
	}

	return path, nil
}

// loadToken reads the persisted OAuth token, if any.
func loadToken() (*oauth2.Token, error) {
	path, err := tokenPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// AuthLogin performs the OAuth2 authentication flow for OpenStreetMap.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.OSM.ClientID == "" || config.Credentials.OSM.ClientSecret == "" {
		return fmt.Errorf("%w: OSM client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	oauthSvc, ok := r.service.(services.OAuthService)
	if !ok || oauthSvc == nil {
		svc, err := services.NewOSMService(config.Credentials.OSM.Map())
		if err != nil {
			return fmt.Errorf("failed to create OSM service: %w", err)
		}
		oauthSvc = svc
		r.service = svc
	}

	token, err := r.doOAuth(config, oauthSvc)
	if err != nil {
		return err
	}

	oauthSvc.SetToken(token)

	path, err := saveToken(token)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", path)
	r.writePlain("You can now use: gpxup upload run <dir>\n")

	return nil
}

// AuthStatus checks the current authentication state by fetching user details.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil {
		return fmt.Errorf("%w: OSM service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("checking auth status")

	user, err := r.service.UserDetails(ctx)
	if err != nil {
		r.writePlain("✗ Not authenticated: %v\n", err)
		r.writePlain("Run 'gpxup auth login' to authorize.\n")
		return nil
	}

	r.writePlain("✓ Authenticated with %s\n", r.service.Name())
	r.writePlain("User: %s (id %d)\n", user.DisplayName, user.ID)
	if !user.AccountCreated.IsZero() {
		r.writePlain("Account created: %s\n", user.AccountCreated.Format("2006-01-02"))
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, oauthSvc services.OAuthService) (*oauth2.Token, error) {
	state := shared.GenerateID()

	authURL := oauthSvc.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSvc.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for OpenStreetMap authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
