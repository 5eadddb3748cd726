package feed

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed/rss"

	"github.com/rajasatyajit/QuakeAlert/config"
	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
	"github.com/rajasatyajit/QuakeAlert/internal/models"
)

const userAgent = "QuakeAlert/1.0"

// Client fetches and parses the TMD earthquake feed. It owns the fetch
// retry budget: transport errors, bad statuses and parse failures all
// burn attempts, and exhaustion surfaces a single FetchError the poll
// loop treats as an empty cycle.
//
// The rss-level parser is used instead of the universal gofeed one
// because the generic item type drops the RSS <comments> element, which
// carries the quake detail text on this feed.
type Client struct {
	url       string
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	client    *http.Client
	parser    *rss.Parser
	sanitizer *bluemonday.Policy
}

// New creates a feed client
func New(cfg config.FeedConfig) *Client {
	return &Client{
		url:       cfg.URL,
		attempts:  cfg.RetryAttempts,
		baseDelay: cfg.RetryBaseDelay,
		maxDelay:  cfg.RetryMaxDelay,
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		parser:    &rss.Parser{},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Name identifies the source in logs and metrics
func (c *Client) Name() string {
	return "tmd-rss"
}

// Fetch retrieves the feed and converts its entries, retrying with
// exponential backoff. Entries come back in feed order (newest first).
func (c *Client) Fetch(ctx context.Context) ([]models.Quake, error) {
	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			logger.Debug("Retrying feed fetch", "source", c.Name(), "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if c.maxDelay > 0 && delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		quakes, err := c.fetchOnce(ctx)
		if err == nil {
			return quakes, nil
		}
		lastErr = err
		logger.Warn("Feed fetch attempt failed", "source", c.Name(), "attempt", attempt, "error", err)
	}

	return nil, apperrors.FetchError{URL: c.url, Attempts: c.attempts, Err: lastErr}
}

func (c *Client) fetchOnce(ctx context.Context) ([]models.Quake, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	parsed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	quakes := make([]models.Quake, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		quakes = append(quakes, c.convertItem(item))
	}
	return quakes, nil
}

// convertItem maps one RSS item onto the raw quake record. Identity is
// the guid, falling back to the link; when both are absent the ID stays
// empty and the pipeline discards the entry.
func (c *Client) convertItem(item *rss.Item) models.Quake {
	id := ""
	if item.GUID != nil {
		id = strings.TrimSpace(item.GUID.Value)
	}
	if id == "" {
		id = strings.TrimSpace(item.Link)
	}

	return models.Quake{
		ID:        id,
		Title:     c.clean(item.Title),
		Comments:  c.clean(item.Comments),
		Link:      strings.TrimSpace(item.Link),
		Magnitude: extValue(item, "tmd", "magnitude"),
		TimeUTC:   extValue(item, "tmd", "time"),
		Latitude:  extValue(item, "geo", "lat"),
		Longitude: extValue(item, "geo", "long"),
		Depth:     extValue(item, "tmd", "depth"),
	}
}

// clean strips markup from feed text and unescapes entities, leaving
// plain text for translation and formatting
func (c *Client) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}

// extValue reads a namespaced extension value such as tmd:magnitude or
// geo:lat from an item
func extValue(item *rss.Item, prefix, name string) string {
	if exts, ok := item.Extensions[prefix]; ok {
		if vals, ok := exts[name]; ok && len(vals) > 0 {
			return strings.TrimSpace(vals[0].Value)
		}
	}
	return ""
}
