package domain

import "strings"

// Item is a canonical catalog entry, loaded once at startup and immutable
// during a scan session.
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ShortName   string         `json:"shortName"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	BasePrice   int            `json:"basePrice"`
	Avg24hPrice int            `json:"avg24hPrice"`
	SellFor     map[string]int `json:"sellFor,omitempty"`
}

// Slots returns the inventory footprint (width * height), never below 1.
func (i *Item) Slots() int {
	w := i.Width
	h := i.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w * h
}

// Key returns the normalized shortName used as the catalog index key.
func (i *Item) Key() string {
	return NormalizeKey(i.ShortName)
}

// BestTraderOffer returns the highest non-flea, non-fence vendor price.
func (i *Item) BestTraderOffer() (name string, price int) {
	for vendor, p := range i.SellFor {
		lower := strings.ToLower(vendor)
		if lower == "fence" || lower == FleaMarketVendor {
			continue
		}
		if p > price {
			price = p
			name = capitalize(vendor)
		}
	}
	return name, price
}

// FleaMarketVendor is the pseudo-vendor key used in SellFor for flea listings.
const FleaMarketVendor = "flea market"

// FleaOffer returns the flea-market price from SellFor, falling back to
// basePrice when the item has no flea listing.
func (i *Item) FleaOffer() int {
	if p, ok := i.SellFor[FleaMarketVendor]; ok && p > 0 {
		return p
	}
	return i.BasePrice
}

// NormalizeKey lowercases a display name and strips everything outside
// [a-z0-9-]. The result is the catalog's primary fuzzy-match key.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
