package attestation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestFetchComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/messages/3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("nonce"); got != "42" {
			t.Errorf("unexpected nonce query %q", got)
		}
		fmt.Fprint(w, `{"messages":[{"message":"0xdead","attestation":"0xbeef","status":"complete","eventNonce":"42"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())

	attested, err := client.Fetch(context.Background(), 3, 42)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !bytes.Equal(attested.Message, []byte{0xde, 0xad}) {
		t.Errorf("message mismatch: %x", attested.Message)
	}
	if !bytes.Equal(attested.Attestation, []byte{0xbe, 0xef}) {
		t.Errorf("attestation mismatch: %x", attested.Attestation)
	}
}

func TestFetchPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"messages":[{"message":"0x","attestation":"0x","status":"pending_confirmations","eventNonce":"42"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())

	if _, err := client.Fetch(context.Background(), 3, 42); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestFetchUnknownNonce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())

	if _, err := client.Fetch(context.Background(), 3, 99); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady for 404, got %v", err)
	}
}

func TestFetchIgnoresOtherNonces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"messages":[{"message":"0x01","attestation":"0x02","status":"complete","eventNonce":"7"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())

	if _, err := client.Fetch(context.Background(), 3, 42); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady when nonce absent, got %v", err)
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, zap.NewNop())

	_, err := client.Fetch(context.Background(), 3, 42)
	if err == nil || errors.Is(err, ErrNotReady) {
		t.Fatalf("expected hard error, got %v", err)
	}
}
