package domain

import "time"

// Price data sources, in fallback order.
const (
	PriceSourceSheet   = "sheet"   // hourly-synced market sheet (primary)
	PriceSourceAPI     = "api"     // GraphQL item query (secondary)
	PriceSourceCatalog = "catalog" // static catalog fields (always available)
	PriceSourceCache   = "cache"
)

// PriceSnapshot is the resolved price view for one item. Owned by the price
// cache; refreshed lazily on access when stale.
type PriceSnapshot struct {
	FleaPrice   int       `json:"fleaPrice"`
	TraderName  string    `json:"traderName"`
	TraderPrice int       `json:"traderPrice"`
	Source      string    `json:"source"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// FeedEntry is one row of the primary price feed, indexed by normalized
// item name.
type FeedEntry struct {
	UID         string
	Name        string
	Price       int
	Avg24hPrice int
	TraderName  string
	TraderPrice int
}

// FeedStatus describes the freshness of the primary price feed.
type FeedStatus struct {
	Loaded          bool    `json:"loaded"`
	ItemCount       int     `json:"item_count"`
	LastRefresh     int64   `json:"last_refresh_timestamp"`
	AgeSeconds      float64 `json:"age_seconds"`
	RefreshInterval int     `json:"refresh_interval_seconds"`
}
