package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tarkovlens/scanner/internal/domain"
)

const itemPriceQuery = `query ItemPrices($id: ID!) {
  item(id: $id) {
    id
    name
    avg24hPrice
    lastLowPrice
    sellFor {
      priceRUB
      vendor { name }
    }
  }
}`

// APIClient is the secondary price source: a GraphQL market API consulted
// per item when the sheet feed has no answer. Responses are cached with a
// short TTL so repeated hovers over the same item stay cheap.
type APIClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	cache       domain.CacheRepository
	cacheTTL    time.Duration
	maxRetries  int
}

// NewAPIClient creates the GraphQL client. The request timeout is short on
// purpose: a slow API must not stall a hover scan.
func NewAPIClient(baseURL string, timeout time.Duration, cache domain.CacheRepository, cacheTTL time.Duration) *APIClient {
	return &APIClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
		cache:       cache,
		cacheTTL:    cacheTTL,
		maxRetries:  2,
	}
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphqlResponse struct {
	Data struct {
		Item *struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			Avg24hPrice  int    `json:"avg24hPrice"`
			LastLowPrice int    `json:"lastLowPrice"`
			SellFor      []struct {
				PriceRUB int `json:"priceRUB"`
				Vendor   struct {
					Name string `json:"name"`
				} `json:"vendor"`
			} `json:"sellFor"`
		} `json:"item"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// ItemPrices resolves current prices for one catalog item id, consulting the
// short-TTL cache first.
func (c *APIClient) ItemPrices(ctx context.Context, itemID string) (*domain.PriceSnapshot, error) {
	cacheKey := "api:" + itemID
	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		if snap, ok := cached.(*domain.PriceSnapshot); ok {
			hit := *snap
			hit.Source = domain.PriceSourceCache
			return &hit, nil
		}
	}

	resp, err := c.query(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if resp.Data.Item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrItemNotFound, itemID)
	}

	item := resp.Data.Item
	snap := &domain.PriceSnapshot{
		FleaPrice: item.Avg24hPrice,
		Source:    domain.PriceSourceAPI,
		FetchedAt: time.Now(),
	}
	if snap.FleaPrice == 0 {
		snap.FleaPrice = item.LastLowPrice
	}
	for _, offer := range item.SellFor {
		vendor := strings.ToLower(offer.Vendor.Name)
		if vendor == "fence" || vendor == domain.FleaMarketVendor {
			continue
		}
		if offer.PriceRUB > snap.TraderPrice {
			snap.TraderPrice = offer.PriceRUB
			snap.TraderName = offer.Vendor.Name
		}
	}

	if err := c.cache.Set(ctx, cacheKey, snap, c.cacheTTL); err != nil {
		log.Printf("[API] Failed to cache prices for %s: %v", itemID, err)
	}
	return snap, nil
}

func (c *APIClient) query(ctx context.Context, itemID string) (*graphqlResponse, error) {
	payload, err := json.Marshal(graphqlRequest{
		Query:     itemPriceQuery,
		Variables: map[string]interface{}{"id": itemID},
	})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.post(ctx, payload)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrPriceUnavailable, resp.Errors[0].Message)
		}
		return resp, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, lastErr)
}

func (c *APIClient) post(ctx context.Context, payload []byte) (*graphqlResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "TarkovLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited by API")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}
