package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rajasatyajit/QuakeAlert/config"
	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
	"github.com/rajasatyajit/QuakeAlert/internal/logger"
	"github.com/rajasatyajit/QuakeAlert/internal/metrics"
	"github.com/rajasatyajit/QuakeAlert/internal/models"
	"github.com/rajasatyajit/QuakeAlert/internal/telegram"
)

// recentAlerts is how many delivered reports the status endpoint shows
const recentAlerts = 5

// Source produces raw feed entries, newest first
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Quake, error)
}

// Enricher derives the report fields a raw entry does not carry
type Enricher interface {
	Enrich(ctx context.Context, q models.Quake) *models.Report
}

// Classifier assigns a severity class to a report
type Classifier interface {
	Classify(report *models.Report)
}

// Sender delivers one formatted alert
type Sender interface {
	Send(ctx context.Context, text string) (models.DeliveryOutcome, error)
}

// SeenStore tracks which entry ids have been handled
type SeenStore interface {
	Seen(id string) bool
	Mark(id string) error
	Len() int
}

// Status is a snapshot of the pipeline counters for the ops surface
type Status struct {
	Running    bool            `json:"running"`
	Cycles     uint64          `json:"cycles"`
	AlertsSent uint64          `json:"alerts_sent"`
	LastCycle  time.Time       `json:"last_cycle"`
	LastAlerts []models.Report `json:"last_alerts,omitempty"`
}

// Pipeline polls the feed and walks every new entry through the filter
// chain, enrichment, formatting and delivery, marking each one seen
// once its fate is final.
type Pipeline struct {
	source     Source
	enricher   Enricher
	classifier Classifier
	sender     Sender
	store      SeenStore
	collector  metrics.Collector
	limiter    *rate.Limiter
	cfg        config.PipelineConfig
	filter     config.FilterConfig

	mu         sync.RWMutex
	running    bool
	cycles     uint64
	alertsSent uint64
	lastCycle  time.Time
	lastAlerts []models.Report
}

// New creates a pipeline instance
func New(source Source, enricher Enricher, classifier Classifier, sender Sender, store SeenStore, collector metrics.Collector, cfg config.PipelineConfig, filter config.FilterConfig) *Pipeline {
	p := &Pipeline{
		source:     source,
		enricher:   enricher,
		classifier: classifier,
		sender:     sender,
		store:      store,
		collector:  collector,
		cfg:        cfg,
		filter:     filter,
		limiter:    rate.NewLimiter(rate.Every(cfg.MessageDelay), 1),
	}

	logger.Info("Pipeline initialized",
		"source", source.Name(),
		"min_magnitude", filter.MinMagnitude,
		"country", filter.CountryCode,
		"poll_interval", cfg.PollInterval,
		"message_delay", cfg.MessageDelay,
	)

	return p
}

// Run starts the poll loop and blocks until the context is cancelled
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	logger.Info("Starting pipeline", "source", p.source.Name())

	for {
		p.runCycle(ctx)

		select {
		case <-ctx.Done():
			logger.Info("Pipeline stopped")
			return nil
		case <-time.After(p.cfg.PollInterval):
		}
	}
}

// runCycle fetches the feed once and processes every entry. A fetch
// failure means no entries this cycle, never a dead loop.
func (p *Pipeline) runCycle(ctx context.Context) {
	start := time.Now()

	quakes, err := p.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.collector.RecordFetch("failure")
		logger.Error("Feed fetch failed, sleeping until next cycle", "source", p.source.Name(), "error", err)
		return
	}
	p.collector.RecordFetch("success")

	// The feed lists newest first; walk backwards so alerts reach the
	// channel in chronological order.
	for i := len(quakes) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return
		}
		p.processEntry(ctx, quakes[i])
	}

	duration := time.Since(start)
	p.collector.RecordCycle(duration)
	p.collector.SetSeenCount(float64(p.store.Len()))
	logger.Debug("Cycle completed", "entries", len(quakes), "duration_ms", duration.Milliseconds())

	p.mu.Lock()
	p.cycles++
	p.lastCycle = time.Now().UTC()
	p.mu.Unlock()
}

// processEntry runs one entry through the filter chain and, when it
// survives, on to delivery. Filtered entries are marked seen so they
// are never examined again; an entry is left unmarked only when nothing
// identifies it or its delivery failed transiently.
func (p *Pipeline) processEntry(ctx context.Context, q models.Quake) {
	if q.ID == "" {
		logger.Warn("Entry without identity discarded", "title", q.Title)
		p.collector.RecordEntry("discarded")
		return
	}

	if p.store.Seen(q.ID) {
		p.collector.RecordEntry("duplicate")
		return
	}

	magnitude, err := strconv.ParseFloat(strings.TrimSpace(q.Magnitude), 64)
	if err != nil {
		logger.Warn("Entry with unparseable magnitude skipped", "entry_id", q.ID, "value", q.Magnitude)
		p.collector.RecordEntry("bad_magnitude")
		p.markSeen(q.ID)
		return
	}
	if magnitude < p.filter.MinMagnitude {
		logger.Debug("Below magnitude threshold", "entry_id", q.ID, "magnitude", magnitude)
		p.collector.RecordEntry("below_threshold")
		p.markSeen(q.ID)
		return
	}

	report := p.enricher.Enrich(ctx, q)
	if report == nil {
		p.collector.RecordEntry("discarded")
		return
	}
	p.classifier.Classify(report)

	if report.CountryCode != p.filter.CountryCode {
		logger.Info("Filtered foreign quake", "entry_id", q.ID, "country", report.CountryCode, "magnitude", magnitude)
		p.collector.RecordEntry("foreign")
		p.markSeen(q.ID)
		return
	}

	p.deliver(ctx, q.ID, report)
}

// deliver formats and sends one alert, then marks the entry according
// to the outcome. Delivered and permanently undeliverable are final;
// transient failures leave the entry for the next cycle.
func (p *Pipeline) deliver(ctx context.Context, id string, report *models.Report) {
	// Paces sends so a burst of new quakes cannot flood the channel
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	outcome, err := p.sender.Send(ctx, telegram.Format(*report))
	if !outcome.Handled() {
		logger.Warn("Alert delivery failed, will retry next cycle", "entry_id", id, "error", err)
		p.collector.RecordEntry("send_failed")
		return
	}

	if outcome == models.Delivered {
		logger.Info("Alert sent",
			"entry_id", id,
			"magnitude", report.Magnitude,
			"severity", report.Severity,
			"city", report.NearestCity,
		)
		p.collector.RecordEntry("sent")
		p.collector.RecordAlertSent(report.Severity)
		p.recordAlert(*report)
	} else {
		logger.Error("Alert permanently undeliverable", "entry_id", id, "error", err)
		p.collector.RecordEntry("undeliverable")
	}

	p.markSeen(id)
}

// markSeen records the id, logging and continuing when the append
// fails. The in-memory set still guards this process; a failed append
// can at worst re-deliver after a restart.
func (p *Pipeline) markSeen(id string) {
	if err := p.store.Mark(id); err != nil {
		logger.Error("Failed to persist handled id",
			"error", apperrors.PipelineError{Stage: "mark_seen", EntryID: id, Err: err},
		)
	}
}

// recordAlert keeps a short ring of recent deliveries for the status
// endpoint
func (p *Pipeline) recordAlert(report models.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.alertsSent++
	p.lastAlerts = append(p.lastAlerts, report)
	if len(p.lastAlerts) > recentAlerts {
		p.lastAlerts = p.lastAlerts[len(p.lastAlerts)-recentAlerts:]
	}
}

// IsRunning returns whether the pipeline is currently running
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Status returns a snapshot of the pipeline counters
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	recent := make([]models.Report, len(p.lastAlerts))
	copy(recent, p.lastAlerts)

	return Status{
		Running:    p.running,
		Cycles:     p.cycles,
		AlertsSent: p.alertsSent,
		LastCycle:  p.lastCycle,
		LastAlerts: recent,
	}
}
