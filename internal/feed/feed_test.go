package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rajasatyajit/QuakeAlert/config"
	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
)

const sampleFeed = `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0" xmlns:tmd="https://earthquake.tmd.go.th" xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#">
<channel>
<title>Earthquake Report</title>
<link>https://earthquake.tmd.go.th</link>
<description>Latest earthquake events</description>
<item>
<title>แผ่นดินไหว ประเทศเมียนมา (Myanmar)</title>
<link>https://earthquake.tmd.go.th/inside-info.html?earthquake=13101</link>
<comments>ห่างจากเมืองมัณฑะเลย์ ประมาณ 17 กม.</comments>
<guid isPermaLink="false">quake-13101</guid>
<tmd:time>2025-03-28 06:20:52 UTC</tmd:time>
<tmd:magnitude>7.7</tmd:magnitude>
<tmd:depth>10</tmd:depth>
<geo:lat>21.682</geo:lat>
<geo:long>96.121</geo:long>
</item>
<item>
<title>แผ่นดินไหว &amp; อาฟเตอร์ช็อก <b>ประเทศไทย</b></title>
<link>https://earthquake.tmd.go.th/inside-info.html?earthquake=13102</link>
<tmd:time>2025-03-28 07:01:10 UTC</tmd:time>
<geo:lat>19.906</geo:lat>
<geo:long>99.821</geo:long>
</item>
</channel>
</rss>`

func testConfig(url string) config.FeedConfig {
	return config.FeedConfig{
		URL:            url,
		FetchTimeout:   2 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}
}

func TestFetchParsesEntries(t *testing.T) {
	logger.Init("error", "text")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("Expected User-Agent %q, got %q", userAgent, got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	quakes, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(quakes) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(quakes))
	}

	first := quakes[0]
	if first.ID != "quake-13101" {
		t.Errorf("Expected guid identity, got %q", first.ID)
	}
	if first.Title != "แผ่นดินไหว ประเทศเมียนมา (Myanmar)" {
		t.Errorf("Unexpected title %q", first.Title)
	}
	if first.Comments != "ห่างจากเมืองมัณฑะเลย์ ประมาณ 17 กม." {
		t.Errorf("Unexpected comments %q", first.Comments)
	}
	if first.Magnitude != "7.7" {
		t.Errorf("Expected magnitude 7.7, got %q", first.Magnitude)
	}
	if first.TimeUTC != "2025-03-28 06:20:52 UTC" {
		t.Errorf("Unexpected time %q", first.TimeUTC)
	}
	if first.Latitude != "21.682" || first.Longitude != "96.121" {
		t.Errorf("Unexpected coordinates %q, %q", first.Latitude, first.Longitude)
	}
	if first.Depth != "10" {
		t.Errorf("Expected depth 10, got %q", first.Depth)
	}

	second := quakes[1]
	if second.ID != "https://earthquake.tmd.go.th/inside-info.html?earthquake=13102" {
		t.Errorf("Expected link fallback identity, got %q", second.ID)
	}
	if second.Title != "แผ่นดินไหว & อาฟเตอร์ช็อก ประเทศไทย" {
		t.Errorf("Expected markup stripped from title, got %q", second.Title)
	}
	if second.Magnitude != "" {
		t.Errorf("Expected empty magnitude for sparse item, got %q", second.Magnitude)
	}
	if second.Comments != "" {
		t.Errorf("Expected empty comments for sparse item, got %q", second.Comments)
	}
}

func TestFetchRetriesUntilSuccess(t *testing.T) {
	logger.Init("error", "text")

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	quakes, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if len(quakes) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(quakes))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestFetchExhaustsAttempts(t *testing.T) {
	logger.Init("error", "text")

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	quakes, err := client.Fetch(context.Background())
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if quakes != nil {
		t.Errorf("Expected no entries, got %d", len(quakes))
	}

	var fetchErr apperrors.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchError, got %T", err)
	}
	if fetchErr.Attempts != 3 {
		t.Errorf("Expected 3 attempts in error, got %d", fetchErr.Attempts)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
}

func TestFetchMalformedFeedBurnsAttempts(t *testing.T) {
	logger.Init("error", "text")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not xml"))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	if _, err := client.Fetch(context.Background()); err == nil {
		t.Fatal("Expected error for malformed feed")
	}
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	logger.Init("error", "text")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryBaseDelay = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(cfg)
	if _, err := client.Fetch(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context deadline error, got %v", err)
	}
}

func TestExtValueMissingNamespace(t *testing.T) {
	logger.Init("error", "text")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title><item><title>plain</title><link>https://example.com/1</link></item></channel></rss>`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	quakes, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(quakes) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(quakes))
	}
	q := quakes[0]
	if q.Magnitude != "" || q.TimeUTC != "" || q.Latitude != "" || q.Longitude != "" || q.Depth != "" {
		t.Errorf("Expected empty extension fields, got %+v", q)
	}
	if q.ID != "https://example.com/1" {
		t.Errorf("Expected link identity, got %q", q.ID)
	}
}
