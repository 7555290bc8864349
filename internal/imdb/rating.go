package imdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/avast/retry-go/v4"

	"heatmap/internal/imdb/extract"
	"heatmap/internal/logging"
	"heatmap/internal/services"
)

var errRatingNotFound = errors.New("rating not present on page")

// Rating scrapes a single title's aggregate rating. Failed fetches and pages
// without a rating are retried with doubling backoff. A nil rating with a nil
// error means the page loaded but carried no rating.
func (c *Client) Rating(ctx context.Context, titleID string) (*float64, error) {
	if c.cacheRatings {
		if cached, ok := c.ratings.Get(titleID, false); ok {
			return cached.value, nil
		}
	}

	endpoint := fmt.Sprintf("%s/title/%s/", c.baseURL, url.PathEscape(titleID))
	logger := logging.WithContext(services.WithShowID(ctx, titleID), c.logger)

	var rating *float64
	err := retry.Do(
		func() error {
			body, err := c.get(ctx, endpoint, "rating")
			if err != nil {
				return err
			}
			raw, ok := extract.RatingFromPage(body)
			if !ok {
				return errRatingNotFound
			}
			if rating = extract.ParseRating(raw); rating == nil {
				return errRatingNotFound
			}
			logger.Debug("rating scraped", logging.String("rating", raw))
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("rating scrape attempt failed",
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
	)

	if c.cacheRatings && ctx.Err() == nil {
		if rating != nil {
			c.ratings.SetWithTTL(titleID, ratingOutcome{value: rating, found: true}, c.ratingHitTTL)
		} else {
			c.ratings.SetWithTTL(titleID, ratingOutcome{}, c.ratingMissTTL)
		}
	}

	switch {
	case err == nil:
		return rating, nil
	case errors.Is(err, errRatingNotFound):
		logger.Debug("rating not found", logging.Int("attempts", int(c.attempts)))
		return nil, nil
	default:
		return nil, err
	}
}
