package services

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/gpxup/internal/shared"
	"golang.org/x/oauth2"
)

func testCredentials(apiURL string) map[string]string {
	creds := map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}
	if apiURL != "" {
		creds["api_url"] = apiURL
	}
	return creds
}

func authenticatedService(t *testing.T, apiURL string) *OSMService {
	t.Helper()
	srv, err := NewOSMService(testCredentials(apiURL))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	srv.SetToken(&oauth2.Token{AccessToken: "test_access_token"})
	return srv
}

func TestOSMService(t *testing.T) {
	t.Run("NewOSMService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv, err := NewOSMService(testCredentials(""))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv == nil {
				t.Fatal("expected service to be created")
			}
			if srv.Name() != "OpenStreetMap" {
				t.Errorf("expected service name 'OpenStreetMap', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewOSMService(map[string]string{"client_secret": "x"})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewOSMService(map[string]string{"client_id": "x"})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewOSMService(testCredentials(""))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.config.RedirectURL != "http://127.0.0.1:8000/callback" {
				t.Errorf("unexpected default redirect URI: %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("GetAuthURL", func(t *testing.T) {
		srv, err := NewOSMService(testCredentials(""))
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Error("expected auth URL to be generated")
		}
		if !strings.Contains(authURL, "openstreetmap.org") {
			t.Error("auth URL should contain OSM domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "read_gpx") || !strings.Contains(authURL, "write_gpx") {
			t.Error("auth URL should request GPX scopes")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewOSMService(testCredentials(""))
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{
				"access_token": "test_access_token",
			})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}
			if srv.token == nil || srv.token.AccessToken != "test_access_token" {
				t.Error("expected token to be set")
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if err == nil {
				t.Error("expected error for missing credentials")
			}
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("ListTraces", func(t *testing.T) {
		t.Run("decodes the traces key", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/0.6/user/gpx_files.json" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test_access_token" {
					t.Errorf("unexpected auth header: %s", got)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"traces": [
					{"id": 42, "name": "ride.gpx", "description": "20240315 - 09:23 - survey", "visibility": "identifiable", "tags": ["survey"], "pending": false, "timestamp": "2024-03-15T10:00:00Z"}
				]}`)
			}))
			defer ts.Close()

			srv := authenticatedService(t, ts.URL)
			traces, err := srv.ListTraces(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(traces) != 1 {
				t.Fatalf("expected 1 trace, got %d", len(traces))
			}

			trace := traces[0]
			if trace.ID != 42 {
				t.Errorf("expected id 42, got %d", trace.ID)
			}
			if trace.Description != "20240315 - 09:23 - survey" {
				t.Errorf("unexpected description: %q", trace.Description)
			}
			if trace.Visibility != VisibilityIdentifiable {
				t.Errorf("unexpected visibility: %q", trace.Visibility)
			}
			if trace.Timestamp.IsZero() {
				t.Error("expected timestamp to be parsed")
			}
		})

		t.Run("accepts the legacy gpx_files key", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"gpx_files": [{"id": 7, "description": "old trace"}]}`)
			}))
			defer ts.Close()

			srv := authenticatedService(t, ts.URL)
			traces, err := srv.ListTraces(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(traces) != 1 || traces[0].ID != 7 {
				t.Errorf("expected the gpx_files entry, got %+v", traces)
			}
		})

		t.Run("unauthorized", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer ts.Close()

			srv := authenticatedService(t, ts.URL)
			_, err := srv.ListTraces(context.Background())
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("without token", func(t *testing.T) {
			srv, err := NewOSMService(testCredentials(""))
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			_, err = srv.ListTraces(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("UploadTrace", func(t *testing.T) {
		t.Run("sends multipart form and returns the id", func(t *testing.T) {
			var fields map[string]string
			var filename, fileBody string

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/0.6/gpx/create" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}

				mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
					t.Errorf("expected multipart content type, got %q", r.Header.Get("Content-Type"))
				}

				reader := multipart.NewReader(r.Body, params["boundary"])
				fields = map[string]string{}
				for {
					part, err := reader.NextPart()
					if err == io.EOF {
						break
					}
					if err != nil {
						t.Fatalf("failed to read part: %v", err)
					}
					data, _ := io.ReadAll(part)
					if part.FormName() == "file" {
						filename = part.FileName()
						fileBody = string(data)
					} else {
						fields[part.FormName()] = string(data)
					}
				}

				io.WriteString(w, "12345\n")
			}))
			defer ts.Close()

			srv := authenticatedService(t, ts.URL)
			id, err := srv.UploadTrace(context.Background(), &TraceUpload{
				Filename:    "ride.gpx",
				Data:        []byte("<gpx></gpx>"),
				Description: "20240315 - 09:23 - Uploaded with gpxup",
				Tags:        []string{"survey", "bike"},
				Visibility:  VisibilityIdentifiable,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if id != "12345" {
				t.Errorf("expected trimmed id '12345', got %q", id)
			}
			if filename != "ride.gpx" || fileBody != "<gpx></gpx>" {
				t.Errorf("unexpected file part: %q %q", filename, fileBody)
			}
			if fields["description"] != "20240315 - 09:23 - Uploaded with gpxup" {
				t.Errorf("unexpected description field: %q", fields["description"])
			}
			if fields["tags"] != "survey,bike" {
				t.Errorf("unexpected tags field: %q", fields["tags"])
			}
			if fields["visibility"] != "identifiable" {
				t.Errorf("unexpected visibility field: %q", fields["visibility"])
			}
		})

		t.Run("empty upload", func(t *testing.T) {
			srv := authenticatedService(t, "")
			_, err := srv.UploadTrace(context.Background(), &TraceUpload{})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("server error", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "daily upload limit exceeded", http.StatusBadRequest)
			}))
			defer ts.Close()

			srv := authenticatedService(t, ts.URL)
			_, err := srv.UploadTrace(context.Background(), &TraceUpload{
				Filename: "ride.gpx",
				Data:     []byte("<gpx></gpx>"),
			})
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), "daily upload limit exceeded") {
				t.Errorf("expected server message in error, got %v", err)
			}
		})
	})

	t.Run("UserDetails", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/0.6/user/details.json" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"user": {"id": 99, "display_name": "mapper", "account_created": "2015-04-01T12:00:00Z"}}`)
		}))
		defer ts.Close()

		srv := authenticatedService(t, ts.URL)
		user, err := srv.UserDetails(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.ID != 99 || user.DisplayName != "mapper" {
			t.Errorf("unexpected user: %+v", user)
		}
		if user.AccountCreated.IsZero() {
			t.Error("expected account_created to be parsed")
		}
	})
}

func TestParseVisibility(t *testing.T) {
	for _, valid := range []string{"public", "identifiable", "trackable", "private"} {
		if _, err := ParseVisibility(valid); err != nil {
			t.Errorf("expected %q to be valid, got %v", valid, err)
		}
	}

	if _, err := ParseVisibility("everyone"); err == nil {
		t.Error("expected error for unknown visibility")
	}
}
