package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tarkovlens/scanner/internal/domain"
)

// SheetFeed is the primary price source: a whole-market CSV export synced
// hourly with the flea market. The entire feed is held in memory, indexed
// by normalized item name, and replaced wholesale on refresh.
type SheetFeed struct {
	httpClient *http.Client
	url        string
	ttl        time.Duration
	now        func() time.Time

	mu          sync.RWMutex
	entries     map[string]*domain.FeedEntry
	lastRefresh time.Time

	group singleflight.Group
}

// NewSheetFeed creates the feed client. The feed URL points at a CSV export
// whose first line carries a "last update" timestamp rather than headers.
func NewSheetFeed(url string, ttl time.Duration) *SheetFeed {
	return &SheetFeed{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		ttl:        ttl,
		now:        time.Now,
		entries:    map[string]*domain.FeedEntry{},
	}
}

// Refresh fetches and reparses the whole feed. Concurrent callers share one
// in-flight fetch.
func (f *SheetFeed) Refresh(ctx context.Context) error {
	_, err, _ := f.group.Do("refresh", func() (interface{}, error) {
		return nil, f.refresh(ctx)
	})
	return err
}

func (f *SheetFeed) refresh(ctx context.Context) error {
	if f.url == "" {
		return fmt.Errorf("%w: no feed URL configured", domain.ErrPriceUnavailable)
	}

	log.Printf("[Feed] Fetching price sheet...")
	start := f.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "TarkovLens/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", domain.ErrPriceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}

	entries, err := parseSheet(string(body))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: feed parsed to zero rows", domain.ErrPriceUnavailable)
	}

	f.mu.Lock()
	f.entries = entries
	f.lastRefresh = f.now()
	f.mu.Unlock()

	log.Printf("[Feed] Loaded %d items in %.1fs", len(entries), f.now().Sub(start).Seconds())
	return nil
}

// parseSheet reads the CSV payload. The first line is a "last update"
// banner, not a header row.
func parseSheet(content string) (map[string]*domain.FeedEntry, error) {
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && strings.HasPrefix(lines[0], "last update") {
		log.Printf("[Feed] %s", strings.TrimSpace(lines[0]))
		content = strings.Join(lines[1:], "\n")
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	// Item names contain stray quotes ('Gunpowder "Eagle"').
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed feed header: %v", domain.ErrPriceUnavailable, err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	entries := map[string]*domain.FeedEntry{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		name := field(row, "name")
		if name == "" {
			continue
		}
		entry := &domain.FeedEntry{
			UID:         field(row, "uid"),
			Name:        name,
			Price:       parsePrice(field(row, "price")),
			Avg24hPrice: parsePrice(field(row, "avg24hprice")),
			TraderName:  field(row, "trader"),
			TraderPrice: parsePrice(field(row, "buy back price")),
		}
		entries[normalizeName(name)] = entry
	}
	return entries, nil
}

// parsePrice handles comma- and space-grouped numbers ("1,250 000").
func parsePrice(v string) int {
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, " ", "")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup finds a feed entry by item name: exact normalized match first, then
// substring containment in either direction. A stale feed still answers; it
// fires a fire-and-forget background refresh instead of blocking the caller.
func (f *SheetFeed) Lookup(name string) (*domain.FeedEntry, bool) {
	f.maybeRefreshInBackground()

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.entries) == 0 {
		return nil, false
	}

	key := normalizeName(name)
	if entry, ok := f.entries[key]; ok {
		return entry, true
	}
	for stored, entry := range f.entries {
		if strings.Contains(stored, key) || strings.Contains(key, stored) {
			return entry, true
		}
	}
	return nil, false
}

func (f *SheetFeed) maybeRefreshInBackground() {
	f.mu.RLock()
	stale := f.now().Sub(f.lastRefresh) > f.ttl
	f.mu.RUnlock()
	if !stale {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := f.Refresh(ctx); err != nil {
			log.Printf("[Feed] Background refresh failed: %v", err)
		}
	}()
}

// Status reports feed freshness for the /prices/status endpoint.
func (f *SheetFeed) Status() domain.FeedStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()

	age := -1.0
	var last int64
	if !f.lastRefresh.IsZero() {
		age = f.now().Sub(f.lastRefresh).Seconds()
		last = f.lastRefresh.Unix()
	}
	return domain.FeedStatus{
		Loaded:          len(f.entries) > 0,
		ItemCount:       len(f.entries),
		LastRefresh:     last,
		AgeSeconds:      age,
		RefreshInterval: int(f.ttl.Seconds()),
	}
}
