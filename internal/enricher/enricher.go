package enricher

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rajasatyajit/QuakeAlert/internal/geocoder"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
	"github.com/rajasatyajit/QuakeAlert/internal/models"
	"github.com/rajasatyajit/QuakeAlert/internal/translate"
)

const (
	utcLayout = "2006-01-02 15:04:05 UTC"
	mmtLayout = "2006-01-02 15:04:05 MST"
)

// mmtZone is Myanmar time, UTC+06:30
var mmtZone = time.FixedZone("MMT", 6*3600+30*60)

// Geocoder resolves coordinates to the nearest reference place
type Geocoder interface {
	Nearest(lat, lon float64) (geocoder.Place, error)
}

// Translator renders source text into the display language
type Translator interface {
	Translate(ctx context.Context, text string) translate.Result
}

// Enricher derives the report fields a raw feed entry does not carry:
// local time, nearest city and country, translated text and the parsed
// magnitude. Every step degrades independently to a sentinel value, so
// enrichment never fails an entry outright.
type Enricher struct {
	geocoder   Geocoder
	translator Translator
}

// New creates an enricher
func New(geo Geocoder, translator Translator) *Enricher {
	return &Enricher{
		geocoder:   geo,
		translator: translator,
	}
}

// Enrich builds the report for one entry. It returns nil only for an
// entry with no identity, which the pipeline discards before this point.
func (e *Enricher) Enrich(ctx context.Context, q models.Quake) *models.Report {
	if q.ID == "" {
		return nil
	}

	report := &models.Report{
		ID:        q.ID,
		Magnitude: parseFloat(q.Magnitude),
		TimeUTC:   orUnknown(q.TimeUTC),
		TimeLocal: e.localTime(q.TimeUTC),
		Latitude:  orUnknown(q.Latitude),
		Longitude: orUnknown(q.Longitude),
		Depth:     orUnknown(q.Depth),
		Link:      strings.TrimSpace(q.Link),
	}

	e.locate(q, report)
	e.describe(ctx, q, report)
	return report
}

// localTime shifts the feed's UTC timestamp into Myanmar time
func (e *Enricher) localTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Unknown
	}
	t, err := time.Parse(utcLayout, raw)
	if err != nil {
		logger.Warn("Unparseable feed timestamp", "value", raw, "error", err)
		return models.Unknown
	}
	return t.In(mmtZone).Format(mmtLayout)
}

// locate resolves the nearest reference city and its country. The feed
// reports missing coordinates as 0, and the pair (0,0) is open ocean far
// outside the covered region, so it short-circuits to the sentinels.
func (e *Enricher) locate(q models.Quake, report *models.Report) {
	lat := parseFloat(q.Latitude)
	lon := parseFloat(q.Longitude)
	if lat == 0 && lon == 0 {
		report.NearestCity = models.Unknown
		report.CountryCode = models.Unknown
		return
	}

	place, err := e.geocoder.Nearest(lat, lon)
	if err != nil {
		logger.Warn("Reverse geocode failed", "lat", lat, "lon", lon, "error", err)
		report.NearestCity = models.Unknown
		report.CountryCode = models.Unknown
		return
	}
	report.NearestCity = place.Name
	report.CountryCode = place.CountryCode
}

// describe fills the translated text fields. Translation is best effort
// and falls back to the source text, so these never fail the entry.
func (e *Enricher) describe(ctx context.Context, q models.Quake, report *models.Report) {
	if strings.TrimSpace(q.Title) == "" {
		report.Location = models.Unknown
	} else {
		report.Location = e.translator.Translate(ctx, q.Title).Text
	}
	report.Details = e.translator.Translate(ctx, q.Comments).Text
}

// parseFloat reads a feed numeric, treating absent or malformed values
// as zero
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Unknown
	}
	return s
}
