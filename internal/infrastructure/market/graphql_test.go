package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/cache"
)

const itemResponse = `{
  "data": {
    "item": {
      "id": "id-salewa",
      "name": "Salewa first aid kit",
      "avg24hPrice": 21000,
      "lastLowPrice": 19500,
      "sellFor": [
        {"priceRUB": 14000, "vendor": {"name": "Therapist"}},
        {"priceRUB": 16000, "vendor": {"name": "Fence"}},
        {"priceRUB": 25000, "vendor": {"name": "Flea Market"}}
      ]
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*APIClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewAPIClient(server.URL, 5*time.Second, cache.NewMemoryCache(), 5*time.Minute)
	return client, server
}

func TestItemPrices(t *testing.T) {
	ctx := context.Background()

	t.Run("parses prices and excludes fence and flea from trader offer", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			var req graphqlRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "id-salewa", req.Variables["id"])
			w.Write([]byte(itemResponse))
		})

		snap, err := client.ItemPrices(ctx, "id-salewa")
		require.NoError(t, err)
		assert.Equal(t, 21000, snap.FleaPrice)
		assert.Equal(t, "Therapist", snap.TraderName)
		assert.Equal(t, 14000, snap.TraderPrice)
		assert.Equal(t, domain.PriceSourceAPI, snap.Source)
	})

	t.Run("second call is served from cache", func(t *testing.T) {
		requests := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Write([]byte(itemResponse))
		})

		_, err := client.ItemPrices(ctx, "id-salewa")
		require.NoError(t, err)

		snap, err := client.ItemPrices(ctx, "id-salewa")
		require.NoError(t, err)
		assert.Equal(t, domain.PriceSourceCache, snap.Source)
		assert.Equal(t, 1, requests)
	})

	t.Run("unknown item yields ErrItemNotFound", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"item": null}}`))
		})

		_, err := client.ItemPrices(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("graphql errors yield ErrPriceUnavailable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"errors": [{"message": "boom"}]}`))
		})

		_, err := client.ItemPrices(ctx, "id-salewa")
		assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	})

	t.Run("server errors are retried then fail", func(t *testing.T) {
		requests := 0
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.ItemPrices(ctx, "id-salewa")
		assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
		assert.Equal(t, 3, requests)
	})

	t.Run("falls back to last low price when avg is zero", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"item": {"id": "x", "name": "X", "avg24hPrice": 0, "lastLowPrice": 9000, "sellFor": []}}}`))
		})

		snap, err := client.ItemPrices(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, 9000, snap.FleaPrice)
	})
}
