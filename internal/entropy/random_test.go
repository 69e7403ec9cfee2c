package entropy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNilClientUsesCrypto(t *testing.T) {
	var c *Client
	if NewClient("") != nil {
		t.Fatal("expected nil client without a key")
	}
	if seed := c.Seed(context.Background()); seed <= 0 {
		t.Fatalf("expected a positive seed, got %d", seed)
	}
}

func TestSeedFromRandomOrg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[3,5]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	if got, want := c.Seed(context.Background()), int64(3<<31|5); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestSeedFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"bad key"},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key")
	c.endpoint = srv.URL
	if seed := c.Seed(context.Background()); seed <= 0 {
		t.Fatalf("expected a positive fallback seed, got %d", seed)
	}
}
