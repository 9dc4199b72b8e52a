package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
	"github.com/garyjia/engagement-tracker/internal/domain/event"
	"go.uber.org/zap"
)

// OverdueSource lists open engagements past their target date
type OverdueSource interface {
	ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*entity.Engagement, error)
}

// EventPublisher delivers domain events to subscribers
type EventPublisher interface {
	Dispatch(ctx context.Context, evt *event.Event) error
}

// OverdueWatcherConfig holds configuration for the overdue watcher
type OverdueWatcherConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultOverdueWatcherConfig returns default configuration
func DefaultOverdueWatcherConfig() OverdueWatcherConfig {
	return OverdueWatcherConfig{
		PollInterval: time.Hour,
		BatchSize:    100,
	}
}

// OverdueWatcherStatus is a snapshot of the watcher's progress
type OverdueWatcherStatus struct {
	IsRunning     bool      `json:"is_running"`
	LastScan      time.Time `json:"last_scan"`
	NotifiedCount int       `json:"notified_count"`
	LastError     string    `json:"last_error,omitempty"`
}

// OverdueWatcher periodically raises engagement.overdue once per reference
// for the lifetime of the process.
type OverdueWatcher struct {
	config    OverdueWatcherConfig
	source    OverdueSource
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.RWMutex
	notified  map[string]bool
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastScan  time.Time
	lastError error
}

// NewOverdueWatcher creates a new overdue watcher
func NewOverdueWatcher(config OverdueWatcherConfig, source OverdueSource, publisher EventPublisher, logger *zap.Logger) *OverdueWatcher {
	defaults := DefaultOverdueWatcherConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}

	return &OverdueWatcher{
		config:    config,
		source:    source,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		notified:  make(map[string]bool),
	}
}

// Start runs one scan immediately and then polls in the background
func (w *OverdueWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("overdue watcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("OverdueWatcher started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop(runCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for the in-flight scan to finish
func (w *OverdueWatcher) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("OverdueWatcher stopped", zap.Int("notified_count", w.Status().NotifiedCount))
	return nil
}

// Name returns the worker name for identification
func (w *OverdueWatcher) Name() string {
	return "OverdueWatcher"
}

// Status returns a snapshot of the watcher state
func (w *OverdueWatcher) Status() OverdueWatcherStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	status := OverdueWatcherStatus{
		IsRunning:     w.isRunning,
		LastScan:      w.lastScan,
		NotifiedCount: len(w.notified),
	}
	if w.lastError != nil {
		status.LastError = w.lastError.Error()
	}
	return status
}

func (w *OverdueWatcher) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.scanAndRecord(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanAndRecord(ctx)
		}
	}
}

func (w *OverdueWatcher) scanAndRecord(ctx context.Context) {
	_, err := w.Scan(ctx)

	w.mu.Lock()
	w.lastScan = w.now()
	w.lastError = err
	w.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		w.logger.Error("Failed to scan overdue engagements", zap.Error(err))
	}
}

// Scan raises events for overdue engagements not seen before and returns how many it raised.
// It pages through every overdue engagement, BatchSize at a time.
func (w *OverdueWatcher) Scan(ctx context.Context) (int, error) {
	now := w.now()
	raised := 0

	for offset := 0; ; offset += w.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return raised, err
		}

		engagements, err := w.source.ListOverdue(ctx, now, offset, w.config.BatchSize)
		if err != nil {
			return raised, fmt.Errorf("failed to list overdue engagements: %w", err)
		}

		raised += w.raise(ctx, engagements)

		if len(engagements) < w.config.BatchSize {
			return raised, nil
		}
	}
}

func (w *OverdueWatcher) raise(ctx context.Context, engagements []*entity.Engagement) int {
	raised := 0
	for _, e := range engagements {
		if w.seen(e.Reference) {
			continue
		}

		evt := event.NewEvent(event.TypeEngagementOverdue, e.ID, e.Reference, map[string]interface{}{
			event.PayloadClientName: e.ClientName,
			event.PayloadNewStatus:  e.Status,
		})
		if e.TargetDate != nil {
			evt = evt.WithPayload(event.PayloadTargetDate, *e.TargetDate)
		}

		if err := w.publisher.Dispatch(ctx, evt); err != nil {
			w.logger.Warn("Failed to publish overdue event",
				zap.String("reference", e.Reference),
				zap.Error(err))
			continue
		}

		w.markSeen(e.Reference)
		raised++
		w.logger.Info("Engagement overdue",
			zap.String("reference", e.Reference),
			zap.String("status", e.Status))
	}

	return raised
}

func (w *OverdueWatcher) seen(reference string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.notified[reference]
}

func (w *OverdueWatcher) markSeen(reference string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notified[reference] = true
}
