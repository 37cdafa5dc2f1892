// OpenStreetMap implementation of [TraceService]
//
// API shapes based on https://wiki.openstreetmap.org/wiki/API_v0.6#GPS_traces
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/gpxup/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	osmWebURL = "https://www.openstreetmap.org"
	osmAPIURL = "https://api.openstreetmap.org"
)

// osmTrace mirrors one entry of the gpx_files listing response.
type osmTrace struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
	Tags        []string `json:"tags"`
	Pending     bool     `json:"pending"`
	Timestamp   string   `json:"timestamp"`
}

// osmTraceList mirrors the trace listing response. The API documents the
// "traces" key but older deployments used "gpx_files", so both are accepted.
type osmTraceList struct {
	Traces   []osmTrace `json:"traces"`
	GPXFiles []osmTrace `json:"gpx_files"`
}

type osmUserDetails struct {
	User struct {
		ID             int64  `json:"id"`
		DisplayName    string `json:"display_name"`
		AccountCreated string `json:"account_created"`
	} `json:"user"`
}

// OSMService implements the TraceService interface for the OpenStreetMap API.
// Uses [oauth2] for authentication and rate-limits outgoing requests.
type OSMService struct {
	config      *oauth2.Config
	token       *oauth2.Token
	httpClient  *http.Client
	limiter     *rate.Limiter
	apiURL      string
	credentials map[string]string
}

// NewOSMService creates a new OpenStreetMap service with the given OAuth2 credentials.
//
// Optional credentials keys "api_url" and "web_url" override the production
// endpoints (used against the dev server and in tests).
func NewOSMService(credentials map[string]string) (*OSMService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8000/callback"
	}

	webURL := credentials["web_url"]
	if webURL == "" {
		webURL = osmWebURL
	}

	apiURL := credentials["api_url"]
	if apiURL == "" {
		apiURL = osmAPIURL
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"read_gpx", "write_gpx"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   webURL + "/oauth2/authorize",
			TokenURL:  webURL + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	return &OSMService{
		config:      config,
		httpClient:  http.DefaultClient,
		limiter:     rate.NewLimiter(rate.Limit(2), 5),
		apiURL:      apiURL,
		credentials: credentials,
	}, nil
}

// Authenticate performs OAuth2 authentication. Expects either an "access_token" or "auth_code" in credentials.
func (s *OSMService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// SetToken installs a previously obtained OAuth2 token.
func (s *OSMService) SetToken(token *oauth2.Token) {
	s.token = token
}

func (s *OSMService) Name() string {
	return "OpenStreetMap"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *OSMService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// OAuthConfig exposes the OAuth2 config for the callback handler.
func (s *OSMService) OAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated, rate-limited HTTP request against the API.
func (s *OSMService) doRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string, result any) (string, error) {
	if s.token == nil {
		return "", fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter interrupted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL+endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", fmt.Errorf("%w: status 401", shared.ErrAuthFailed)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return string(raw), nil
}

// ListTraces retrieves all GPS traces owned by the authenticated user.
func (s *OSMService) ListTraces(ctx context.Context) ([]RemoteTrace, error) {
	var listing osmTraceList
	if _, err := s.doRequest(ctx, http.MethodGet, "/api/0.6/user/gpx_files.json", nil, "", &listing); err != nil {
		return nil, err
	}

	entries := listing.Traces
	if len(entries) == 0 {
		entries = listing.GPXFiles
	}

	traces := make([]RemoteTrace, 0, len(entries))
	for _, entry := range entries {
		trace := RemoteTrace{
			ID:          entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			Visibility:  Visibility(entry.Visibility),
			Tags:        entry.Tags,
			Pending:     entry.Pending,
		}
		if ts, err := time.Parse(time.RFC3339, entry.Timestamp); err == nil {
			trace.Timestamp = ts
		}
		traces = append(traces, trace)
	}

	return traces, nil
}

// UploadTrace uploads a single GPX file with its metadata.
//
// The API responds to a successful create with the numeric trace id as plain text.
func (s *OSMService) UploadTrace(ctx context.Context, upload *TraceUpload) (string, error) {
	if upload == nil || len(upload.Data) == 0 {
		return "", fmt.Errorf("%w: empty upload", shared.ErrInvalidInput)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	fields := map[string]string{
		"description": upload.Description,
		"tags":        strings.Join(upload.Tags, ","),
		"visibility":  string(upload.Visibility),
	}
	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}

	raw, err := s.doRequest(ctx, http.MethodPost, "/api/0.6/gpx/create", &buf, writer.FormDataContentType(), nil)
	if err != nil {
		return "", err
	}

	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("%w: empty trace id in response", shared.ErrAPIRequest)
	}

	return id, nil
}

// UserDetails retrieves the authenticated user's profile.
func (s *OSMService) UserDetails(ctx context.Context) (*User, error) {
	var details osmUserDetails
	if _, err := s.doRequest(ctx, http.MethodGet, "/api/0.6/user/details.json", nil, "", &details); err != nil {
		return nil, err
	}

	user := &User{
		ID:          details.User.ID,
		DisplayName: details.User.DisplayName,
	}
	if ts, err := time.Parse(time.RFC3339, details.User.AccountCreated); err == nil {
		user.AccountCreated = ts
	}

	return user, nil
}
