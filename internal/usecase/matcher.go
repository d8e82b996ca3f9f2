package usecase

import (
	"fmt"
	"log"
	"strings"

	"github.com/tarkovlens/scanner/internal/domain"
	"github.com/tarkovlens/scanner/internal/infrastructure/catalog"
)

// manualFixes repairs recurring extraction mistakes before matching. Keys and
// values are normalized form.
var manualFixes = map[string]string{
	"gpowder":    "gunpowder",
	"6powder":    "gunpowder",
	"multitool":  "multi-tool",
	"rnultitool": "multi-tool",
	"fircsteel":  "firesteel",
}

// ignoredTexts marks UI chrome that extraction picks up around the gear
// slots. Matching is case-insensitive substring containment.
var ignoredTexts = []string{
	"special slots", "pockets", "poches",
	"tactical rig", "backpack", "sac a dos", "sac à dos",
	"armband", "brassard", "scabbard", "fourreau", "holster",
	"on sling", "on back",
	"headwear", "earpiece", "eyewear", "face cover",
	"body armor", "armure", "rig", "melee",
	"primary", "secondary", "pistol",
	"usec", "arena", "gamma", "spear",
	"injector", "injectors", "key tool", "keytool",
	"m48 kukri", "takedown", "ms2000", "surv12",
	"goldenstar", "goldenstars", "grizzly",
	"keys", "key", "tool", "luxury",
}

// Matcher resolves noisy extracted strings to catalog entries.
type Matcher struct {
	catalog *catalog.Store
	debug   bool
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(store *catalog.Store, debug bool) *Matcher {
	return &Matcher{catalog: store, debug: debug}
}

// Blacklisted reports whether the text contains a known UI-chrome string.
func (m *Matcher) Blacklisted(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, ignored := range ignoredTexts {
		if strings.Contains(lowered, ignored) {
			return true
		}
	}
	return false
}

// Match resolves one extracted string against the catalog. The pipeline is:
// length gate, blacklist, normalization, manual fixes, exact index hit, then
// fuzzy scan over all keys with the given cutoff. Keys shorter than 3
// characters only ever match exactly; a fuzzy hit on them is noise.
func (m *Matcher) Match(text string, cutoff int) (*domain.Match, error) {
	if len(strings.TrimSpace(text)) < 2 {
		return nil, fmt.Errorf("%w: text too short", domain.ErrNoDetection)
	}
	if m.Blacklisted(text) {
		return nil, fmt.Errorf("%w: %q", domain.ErrBlacklisted, text)
	}

	normalized := domain.NormalizeKey(text)
	if len(normalized) < 2 {
		return nil, fmt.Errorf("%w: nothing left after normalization", domain.ErrNoDetection)
	}
	if fixed, ok := manualFixes[normalized]; ok {
		normalized = fixed
	}

	if _, ok := m.catalog.Lookup(normalized); ok {
		return &domain.Match{Key: normalized, Score: 100}, nil
	}

	bestKey, bestScore := "", 0
	for _, key := range m.catalog.Keys() {
		score := levenshteinRatio(normalized, key)
		if score > bestScore {
			bestKey, bestScore = key, score
		}
	}
	if bestKey == "" || bestScore < cutoff {
		if m.debug {
			log.Printf("[Match] REJECTED: %q (best %d < %d)", text, bestScore, cutoff)
		}
		return nil, fmt.Errorf("%w: %q", domain.ErrNoDetection, text)
	}
	if len(bestKey) < 3 && bestScore < 100 {
		return nil, fmt.Errorf("%w: short key %q needs exact match", domain.ErrNoDetection, bestKey)
	}
	if m.Blacklisted(bestKey) {
		return nil, fmt.Errorf("%w: matched key %q", domain.ErrBlacklisted, bestKey)
	}

	if m.debug {
		log.Printf("[Match] %q -> %q (%d)", text, bestKey, bestScore)
	}
	return &domain.Match{Key: bestKey, Score: bestScore}, nil
}

// MatchedPart is one resolved token of a compound text span.
type MatchedPart struct {
	Text  string
	Match *domain.Match // nil when the token resolved to nothing
}

// SplitCompound breaks a multi-word span into matchable tokens. Each word is
// tried alone first; a miss then tries concatenating up to two following
// words (extraction often splits one label across words, "Gold Chain").
// Unresolvable words are kept as nil-match parts so that the caller slices
// the span width across ALL parts, matched or not.
func (m *Matcher) SplitCompound(text string, cutoff int) []MatchedPart {
	words := strings.Fields(text)
	if len(words) <= 1 {
		match, _ := m.Match(text, cutoff)
		return []MatchedPart{{Text: strings.TrimSpace(text), Match: match}}
	}

	parts := make([]MatchedPart, 0, len(words))
	for i := 0; i < len(words); {
		word := words[i]
		if len(word) < 2 {
			i++
			continue
		}

		if match, err := m.Match(word, cutoff); err == nil {
			parts = append(parts, MatchedPart{Text: word, Match: match})
			i++
			continue
		}

		combinedHit := false
		for j := i + 1; j < len(words) && j <= i+2; j++ {
			combined := strings.Join(words[i:j+1], "")
			if match, err := m.Match(combined, cutoff); err == nil {
				if m.debug {
					log.Printf("[Match] COMBINED: %q -> %q", strings.Join(words[i:j+1], " "), combined)
				}
				parts = append(parts, MatchedPart{Text: combined, Match: match})
				i = j + 1
				combinedHit = true
				break
			}
		}
		if !combinedHit {
			parts = append(parts, MatchedPart{Text: word, Match: nil})
			i++
		}
	}
	return parts
}

// levenshteinRatio scores string similarity on a 0-100 scale.
func levenshteinRatio(a, b string) int {
	if a == b {
		return 100
	}
	lensum := len(a) + len(b)
	if lensum == 0 {
		return 100
	}
	dist := levenshteinDistance(a, b)
	return (lensum - 2*dist) * 100 / lensum
}

// levenshteinDistance computes edit distance with the two-row method.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
