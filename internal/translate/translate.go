package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rajasatyajit/QuakeAlert/config"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
)

// Result carries the outcome of a best-effort translation: the text to
// display, and whether it actually got translated or fell back to the
// original.
type Result struct {
	Text       string
	Translated bool
}

// Client translates text through a translate_a/single-compatible HTTP
// endpoint. Failures degrade to the original text; callers never see an
// error from Translate.
type Client struct {
	endpoint string
	target   string
	client   *http.Client
}

// New creates a translation client
func New(cfg config.TranslateConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		target:   cfg.TargetLang,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Translate renders text in the client's target language. Empty input
// short-circuits without touching the backend.
func (c *Client) Translate(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: "", Translated: false}
	}

	translated, err := c.request(ctx, text)
	if err != nil {
		logger.Warn("Translation failed", "error", err)
		return Result{Text: text, Translated: false}
	}
	return Result{Text: translated, Translated: true}
}

func (c *Client) request(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", c.target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate endpoint returned status %d", resp.StatusCode)
	}

	var payload []any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	return joinSegments(payload)
}

// joinSegments extracts the translated sentence pieces from the
// positional array the endpoint returns. payload[0] holds one
// [translated, original, ...] tuple per sentence.
func joinSegments(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation payload")
	}

	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected translation payload shape")
	}

	var b strings.Builder
	for _, seg := range segments {
		tuple, ok := seg.([]any)
		if !ok || len(tuple) == 0 {
			continue
		}
		if s, ok := tuple[0].(string); ok {
			b.WriteString(s)
		}
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no translated segments in payload")
	}
	return b.String(), nil
}
