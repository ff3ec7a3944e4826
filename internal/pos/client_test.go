package pos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryNotConfigured(t *testing.T) {
	client := NewClient("http://localhost:6000", "")

	snap := client.Inventory(context.Background(), "store-1")

	assert.False(t, snap.Success)
	assert.Equal(t, "POS not configured", snap.Error)
}

func TestInventorySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory", r.URL.Path)
		assert.Equal(t, "store-1", r.URL.Query().Get("location_id"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"sku":"P1","qty":3}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	snap := client.Inventory(context.Background(), "store-1")

	require.True(t, snap.Success)
	assert.NotNil(t, snap.Data)
	assert.Empty(t, snap.Error)
}

func TestInventoryUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	snap := client.Inventory(context.Background(), "")

	assert.False(t, snap.Success)
	assert.Contains(t, snap.Error, "status 502")
}
