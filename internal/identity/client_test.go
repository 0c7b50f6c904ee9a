package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUsernameForReturnsUsernameOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"username":"alice"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	username, ok := c.UsernameFor(context.Background(), "owner-1")
	if !ok || username != "alice" {
		t.Fatalf("expected (alice, true), got (%q, %v)", username, ok)
	}
}

func TestUsernameForDegradesOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, ok := c.UsernameFor(context.Background(), "owner-1")
	if ok {
		t.Fatalf("expected ok=false for a 404 response")
	}
}

func TestUsernameForDegradesOnEmptyBaseURL(t *testing.T) {
	c := NewClient("")
	_, ok := c.UsernameFor(context.Background(), "owner-1")
	if ok {
		t.Fatalf("expected ok=false when no identity service is configured")
	}
}

func TestUsernameForDegradesOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"username":"late"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	_, ok := c.UsernameFor(ctx, "owner-1")
	if ok {
		t.Fatalf("expected ok=false when the context deadline is already exceeded")
	}
}
