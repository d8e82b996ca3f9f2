package usecase

import (
	"sort"

	"github.com/tarkovlens/scanner/internal/domain"
)

// DedupeMatches suppresses overlapping template hits: matches are visited in
// descending confidence order and any later match overlapping a kept one by
// more than iouThreshold is discarded.
func DedupeMatches(matches []domain.TemplateMatch, iouThreshold float64) []domain.TemplateMatch {
	if len(matches) <= 1 {
		return matches
	}

	sorted := make([]domain.TemplateMatch, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]domain.TemplateMatch, 0, len(sorted))
	for _, candidate := range sorted {
		overlaps := false
		for _, existing := range kept {
			if candidate.Rect.IoU(existing.Rect) > iouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}
	return kept
}
