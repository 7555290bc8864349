package reconcile

import (
	"context"
	"fmt"

	"heatmap/internal/omdb"
	"heatmap/internal/store"
)

// Signature fingerprints a season as "{confirmed}:{avg:.3f}". Only confirmed
// episodes count, and the average covers those with a rating (0 when none).
func Signature(episodes []*store.Episode) string {
	var (
		count int
		rated int
		sum   float64
	)
	for _, ep := range episodes {
		if !ep.Confirmed() {
			continue
		}
		count++
		if ep.Rating != nil {
			sum += *ep.Rating
			rated++
		}
	}
	return formatSignature(count, rated, sum)
}

// QuickSignature fingerprints a primary-source season listing the same way
// without touching the store. Entries without a usable episode number are
// never stored, so they are left out.
func QuickSignature(episodes []omdb.SeasonEpisode) string {
	var (
		count int
		rated int
		sum   float64
	)
	for _, entry := range episodes {
		if _, ok := entry.Number(); !ok {
			continue
		}
		count++
		if rating := entry.Rating(); rating != nil {
			sum += *rating
			rated++
		}
	}
	return formatSignature(count, rated, sum)
}

func formatSignature(count, rated int, sum float64) string {
	avg := 0.0
	if rated > 0 {
		avg = sum / float64(rated)
	}
	return fmt.Sprintf("%d:%.3f", count, avg)
}

// RecomputeSignature recalculates and stores one season's signature.
func (e *Engine) RecomputeSignature(ctx context.Context, showID int64, season int) (string, error) {
	episodes, err := e.store.EpisodesBySeason(ctx, showID, season)
	if err != nil {
		return "", err
	}
	sig := Signature(episodes)
	if err := e.store.PutSignature(ctx, showID, season, sig); err != nil {
		return "", err
	}
	return sig, nil
}
