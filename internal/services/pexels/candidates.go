package pexels

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"storyreel/internal/logging"
	"storyreel/internal/scenario"
)

// MinDuration returns the shortest acceptable clip for a block. Unaligned
// blocks use fallback as their duration.
func MinDuration(block scenario.TextBlock, fallback, padding float64) float64 {
	d, err := block.Duration()
	if err != nil || d <= 0 {
		d = fallback
	}
	return d + padding
}

// Candidates searches every keyword and collects a pool of clips at least
// minDuration seconds long. Search failures for individual keywords are
// logged and skipped; an error is returned only when every search failed.
func (c *Client) Candidates(ctx context.Context, keywords []string, minDuration float64, logger *slog.Logger) (scenario.Pool, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var (
		pool     scenario.Pool
		failures int
		searched int
		lastErr  error
	)
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		searched++
		videos, err := c.searchWithFallback(ctx, keyword, logger)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			lastErr = err
			logging.WarnWithContext(logger, "stock search failed", "stock_search_failed",
				logging.String("keyword", keyword),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check stock.api_key and network access"),
				logging.String(logging.FieldImpact, "keyword contributes no footage candidates"),
			)
			continue
		}
		added := 0
		for _, v := range videos {
			if v.Duration < minDuration {
				continue
			}
			link, ok := v.BestFile()
			if !ok {
				continue
			}
			if pool.Add(scenario.Candidate{ID: strconv.FormatInt(v.ID, 10), URL: link}) {
				added++
			}
		}
		logger.Debug("stock search",
			logging.String("keyword", keyword),
			logging.Int("results", len(videos)),
			logging.Int("added", added),
			logging.Seconds("min_duration", minDuration),
		)
	}
	if searched > 0 && failures == searched {
		return nil, fmt.Errorf("all %d stock searches failed: %w", searched, lastErr)
	}
	return pool, nil
}

func (c *Client) searchWithFallback(ctx context.Context, keyword string, logger *slog.Logger) ([]Video, error) {
	videos, err := c.Search(ctx, keyword)
	if err != nil || len(videos) > 0 {
		return videos, err
	}
	parts := strings.Fields(keyword)
	if len(parts) < 2 {
		return nil, nil
	}
	logger.Debug("no stock results, searching word by word", logging.String("keyword", keyword))
	for _, part := range parts {
		videos, err = c.Search(ctx, part)
		if err != nil {
			return nil, err
		}
		if len(videos) > 0 {
			return videos, nil
		}
	}
	return nil, nil
}
