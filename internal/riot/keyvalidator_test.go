package riot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(url), WithRateLimit(0, 0)}, opts...)
	client, err := NewClient("RGAPI-test-key", opts...)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// TestValidateKey_ValidKey tests that a valid API key passes validation
func TestValidateKey_ValidKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Riot-Token") != "RGAPI-test-key" {
			t.Errorf("Expected X-Riot-Token header to be set, got %q", r.Header.Get("X-Riot-Token"))
		}
		if r.URL.Path != statusPath {
			t.Errorf("Expected path %s, got %s", statusPath, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name":"North America","slug":"na","hostname":"prod.na1.lol.riotgames.com","locales":["en_US"]}`))
	}))
	defer server.Close()

	valid, err := newTestClient(t, server.URL).ValidateKey(context.Background())

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if !valid {
		t.Error("Expected key to be valid")
	}
}

// TestValidateKey_InvalidKey tests that 401 and 403 mark the key as invalid without an error
func TestValidateKey_InvalidKey(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(`{"status":{"message":"Forbidden"}}`))
			}))
			defer server.Close()

			valid, err := newTestClient(t, server.URL).ValidateKey(context.Background())

			if err != nil {
				t.Errorf("Expected no error for invalid key, got: %v", err)
			}
			if valid {
				t.Error("Expected key to be invalid")
			}
		})
	}
}

// TestValidateKey_NetworkError tests that network errors return an error (not invalid)
func TestValidateKey_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer server.Close()

	valid, err := newTestClient(t, server.URL).ValidateKey(context.Background())

	if err == nil {
		t.Error("Expected network error to be returned")
	}
	if valid {
		t.Error("Expected key to not be valid on network error")
	}
}

// TestValidateKey_Timeout tests that timeouts return an error
func TestValidateKey_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithTimeout(50*time.Millisecond))
	valid, err := client.ValidateKey(context.Background())

	if err == nil {
		t.Error("Expected timeout error to be returned")
	}
	if valid {
		t.Error("Expected key to not be valid on timeout")
	}
}

// TestNewClient_EmptyKey tests that an empty key is rejected up front
func TestNewClient_EmptyKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("Expected error for empty key")
	}
}

// TestValidateKey_ServerError tests that 5xx errors return an error (not invalid)
func TestValidateKey_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	valid, err := newTestClient(t, server.URL).ValidateKey(context.Background())

	if err == nil {
		t.Error("Expected server error to be returned")
	}
	if valid {
		t.Error("Expected key to not be valid on server error")
	}
}

// TestValidateKey_ContextCancelled tests that cancelled context is handled
func TestValidateKey_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	valid, err := newTestClient(t, server.URL).ValidateKey(ctx)

	if err == nil {
		t.Error("Expected context cancelled error")
	}
	if valid {
		t.Error("Expected key to not be valid on cancelled context")
	}
}
