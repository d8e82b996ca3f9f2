package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/catalog"
)

// PriceResolver answers "what is this item worth right now" by walking the
// source layers in freshness order: snapshot cache, sheet feed, remote API,
// then the static catalog record. A catalog item always resolves to some
// snapshot; degraded sources only degrade the answer's freshness.
type PriceResolver struct {
	cache       domain.CacheRepository
	feed        domain.PriceFeed
	api         domain.PriceAPI
	catalog     *catalog.Store
	snapshotTTL time.Duration

	group singleflight.Group

	mu          sync.Mutex
	refreshing  bool
	lastRefresh time.Time
	lastUpdated int
}

// NewPriceResolver wires the price layers together. feed and api may be nil
// when unconfigured; the resolver skips the missing layer.
func NewPriceResolver(cache domain.CacheRepository, feed domain.PriceFeed, api domain.PriceAPI, store *catalog.Store, snapshotTTL time.Duration) *PriceResolver {
	return &PriceResolver{
		cache:       cache,
		feed:        feed,
		api:         api,
		catalog:     store,
		snapshotTTL: snapshotTTL,
	}
}

// Resolve returns the freshest available snapshot for item. It never blocks
// on a feed refresh and never fails for a known catalog item.
func (r *PriceResolver) Resolve(ctx context.Context, item *domain.Item) *domain.PriceSnapshot {
	cacheKey := "price:" + item.Key()
	if cached, err := r.cache.Get(ctx, cacheKey); err == nil {
		if snap, ok := cached.(*domain.PriceSnapshot); ok {
			hit := *snap
			hit.Source = domain.PriceSourceCache
			return &hit
		}
	}

	snap := r.resolveUncached(ctx, item)
	if err := r.cache.Set(ctx, cacheKey, snap, r.snapshotTTL); err != nil {
		log.Printf("[Price] Failed to cache snapshot for %s: %v", item.ShortName, err)
	}
	return snap
}

func (r *PriceResolver) resolveUncached(ctx context.Context, item *domain.Item) *domain.PriceSnapshot {
	if r.feed != nil {
		if entry, ok := r.feed.Lookup(item.Name); ok {
			snap := &domain.PriceSnapshot{
				FleaPrice:   entry.Price,
				TraderName:  entry.TraderName,
				TraderPrice: entry.TraderPrice,
				Source:      domain.PriceSourceSheet,
				FetchedAt:   time.Now(),
			}
			if snap.FleaPrice == 0 {
				snap.FleaPrice = entry.Avg24hPrice
			}
			if snap.FleaPrice > 0 {
				return snap
			}
		}
	}

	if r.api != nil && item.ID != "" {
		if snap, err := r.api.ItemPrices(ctx, item.ID); err == nil && snap.FleaPrice > 0 {
			return snap
		} else if err != nil {
			log.Printf("[Price] API lookup failed for %s: %v", item.ShortName, err)
		}
	}

	traderName, traderPrice := item.BestTraderOffer()
	flea := item.Avg24hPrice
	if flea == 0 {
		flea = item.FleaOffer()
	}
	return &domain.PriceSnapshot{
		FleaPrice:   flea,
		TraderName:  traderName,
		TraderPrice: traderPrice,
		Source:      domain.PriceSourceCatalog,
		FetchedAt:   time.Now(),
	}
}

// RefreshStatus describes the state of the catalog-wide price refresh.
type RefreshStatus struct {
	Running     bool  `json:"running"`
	LastRefresh int64 `json:"last_refresh"`
	LastUpdated int   `json:"last_updated"`
}

// RefreshAll re-resolves every catalog item against the live sources and
// folds the results back into the persisted catalog. Only one refresh runs
// at a time; a second caller gets ErrRefreshInProgress immediately.
func (r *PriceResolver) RefreshAll(ctx context.Context) error {
	r.mu.Lock()
	if r.refreshing {
		r.mu.Unlock()
		return domain.ErrRefreshInProgress
	}
	r.refreshing = true
	r.mu.Unlock()

	_, err, _ := r.group.Do("refresh-all", func() (interface{}, error) {
		return nil, r.refreshAll(ctx)
	})

	r.mu.Lock()
	r.refreshing = false
	r.lastRefresh = time.Now()
	r.mu.Unlock()
	return err
}

func (r *PriceResolver) refreshAll(ctx context.Context) error {
	log.Printf("[Price] Starting catalog price refresh (%d items)", r.catalog.Len())
	start := time.Now()

	if r.feed != nil {
		if err := r.feed.Refresh(ctx); err != nil {
			log.Printf("[Price] Feed refresh failed, falling through to API: %v", err)
		}
	}

	updated := 0
	for key, item := range r.catalog.All() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snap := r.resolveUncached(ctx, item)
		if snap.Source == domain.PriceSourceCatalog {
			continue
		}
		r.catalog.Update(key, func(it *domain.Item) {
			it.Avg24hPrice = snap.FleaPrice
			if it.SellFor == nil {
				it.SellFor = map[string]int{}
			}
			it.SellFor[domain.FleaMarketVendor] = snap.FleaPrice
			if snap.TraderName != "" {
				it.SellFor[snap.TraderName] = snap.TraderPrice
			}
		})
		updated++
	}

	if err := r.catalog.Save(); err != nil {
		return fmt.Errorf("persist refreshed catalog: %w", err)
	}

	r.mu.Lock()
	r.lastUpdated = updated
	r.mu.Unlock()

	log.Printf("[Price] Refreshed %d/%d items in %.1fs", updated, r.catalog.Len(), time.Since(start).Seconds())
	return nil
}

// Status reports refresh state for the control plane.
func (r *PriceResolver) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := RefreshStatus{Running: r.refreshing, LastUpdated: r.lastUpdated}
	if !r.lastRefresh.IsZero() {
		status.LastRefresh = r.lastRefresh.Unix()
	}
	return status
}

// FeedStatus exposes the sheet feed's freshness, or a zero status when no
// feed is configured.
func (r *PriceResolver) FeedStatus() domain.FeedStatus {
	if r.feed == nil {
		return domain.FeedStatus{}
	}
	return r.feed.Status()
}
