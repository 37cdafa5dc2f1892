// package services defines interface TraceService for interacting with GPS trace hosts
//
// OpenStreetMap is the only implementation; the interface exists so the
// reconcile engine and CLI can be tested against doubles.
package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Visibility enumerates the trace visibility levels accepted by the remote service.
type Visibility string

const (
	VisibilityPublic       Visibility = "public"
	VisibilityIdentifiable Visibility = "identifiable"
	VisibilityTrackable    Visibility = "trackable"
	VisibilityPrivate      Visibility = "private"
)

// ParseVisibility validates a configured visibility string.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPublic, VisibilityIdentifiable, VisibilityTrackable, VisibilityPrivate:
		return Visibility(s), nil
	default:
		return "", fmt.Errorf("invalid visibility %q (must be public, identifiable, trackable or private)", s)
	}
}

// TraceService defines the interface for GPS trace hosting providers.
type TraceService interface {
	// Authenticate performs OAuth2 authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// ListTraces retrieves all traces owned by the authenticated user.
	ListTraces(ctx context.Context) ([]RemoteTrace, error)

	// UploadTrace uploads a single trace and returns the service-assigned id.
	UploadTrace(ctx context.Context, upload *TraceUpload) (string, error)

	// UserDetails retrieves the authenticated user's profile.
	UserDetails(ctx context.Context) (*User, error)

	// Name returns the name of the service (e.g., "OpenStreetMap")
	Name() string
}

// OAuthService is implemented by trace services that authenticate via the
// OAuth2 authorization code flow with a local callback server.
type OAuthService interface {
	TraceService

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// OAuthConfig exposes the OAuth2 config for the callback handler.
	OAuthConfig() *oauth2.Config

	// SetToken installs a previously obtained token.
	SetToken(token *oauth2.Token)
}

// RemoteTrace represents a trace already known to the hosting service.
type RemoteTrace struct {
	ID          int64
	Name        string
	Description string
	Visibility  Visibility
	Tags        []string
	Pending     bool
	Timestamp   time.Time
}

// TraceUpload represents one trace file plus the metadata sent alongside it.
type TraceUpload struct {
	Filename    string
	Data        []byte
	Description string
	Tags        []string
	Visibility  Visibility
}

// User represents the authenticated remote account.
type User struct {
	ID             int64
	DisplayName    string
	AccountCreated time.Time
}
