package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// oauthConfig points the token endpoint at a local test server.
func oauthConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig(""), "state")
		routes := handler.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("expected [/callback], got %v", routes)
		}
	})

	t.Run("exchanges the code and sends the token", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"access_token": "test_access_token", "token_type": "Bearer"}`)
		}))
		defer ts.Close()

		handler := NewOAuthHandler(oauthConfig(ts.URL), "good_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=good_state&code=auth_code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("expected success page in response")
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token == nil || result.Token.AccessToken != "test_access_token" {
			t.Errorf("expected exchanged token, got %+v", result.Token)
		}
	})

	t.Run("rejects a bad state", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig(""), "good_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=evil&code=auth_code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state validation error")
		}
	})

	t.Run("reports provider errors", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig(""), "good_state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=good_state&error=access_denied&error_description=user+said+no", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected provider error, got %v", result.Error())
		}
	})

	t.Run("handles the callback only once", func(t *testing.T) {
		handler := NewOAuthHandler(oauthConfig(""), "good_state")

		first := httptest.NewRequest(http.MethodGet, "/callback?state=evil", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=good_state&code=auth_code", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected repeat callback to be rejected, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already processed") {
			t.Errorf("expected already-processed message, got %q", rec.Body.String())
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("routes registered handlers", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %q", rec.Body.String())
		}
	})

	t.Run("rejects wrong methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("applies middleware in order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
			t.Errorf("unexpected middleware order: %v", order)
		}
	})
}
