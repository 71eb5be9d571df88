package scoreboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/cache"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/metrics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoring"
)

// Store is the read side of the vote store the refresher needs
type Store interface {
	GetAllVotes(ctx context.Context) ([]models.Vote, error)
	GetVotingStatus(ctx context.Context) (models.VotingStatus, error)
}

// Cache persists the last good snapshot outside the process
type Cache interface {
	Save(ctx context.Context, key string, v any) error
	Load(ctx context.Context, key string, dst any) error
}

// Bus is the event bus the refresher listens on and announces snapshots to
type Bus interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
	PublishLocal(pubsub.Event)
}

// Snapshot is one computed scoreboard. Snapshots are never modified after
// they are applied, so readers may share them.
type Snapshot struct {
	Results      scoring.Results     `json:"results"`
	VotingStatus models.VotingStatus `json:"votingStatus"`
	ComputedAt   time.Time           `json:"computedAt"`
	Seq          uint64              `json:"seq"`
	FromCache    bool                `json:"fromCache"`
}

// Health describes the outcome of the most recent refresh attempts
type Health struct {
	LastAttempt time.Time `json:"lastAttempt"`
	LastSuccess time.Time `json:"lastSuccess"`
	LastError   string    `json:"lastError,omitempty"`
}

// Refresher owns the fetch-and-recompute cycle. The periodic poll, explicit
// refresh requests and bus events all converge on Refresh.
type Refresher struct {
	engine   *scoring.Engine
	store    Store
	bus      Bus
	cache    Cache
	interval time.Duration
	tracer   trace.Tracer

	trigger chan struct{}
	started atomic.Uint64

	mu          sync.RWMutex
	current     *Snapshot
	appliedSeq  uint64
	lastErr     error
	lastAttempt time.Time
	lastSuccess time.Time
}

// NewRefresher creates a refresher. cache may be nil.
func NewRefresher(engine *scoring.Engine, store Store, bus Bus, c Cache, interval time.Duration) *Refresher {
	return &Refresher{
		engine:   engine,
		store:    store,
		bus:      bus,
		cache:    c,
		interval: interval,
		tracer:   otel.Tracer("scoreboard-refresher"),
		trigger:  make(chan struct{}, 1),
	}
}

// Snapshot returns the current snapshot, or nil before the first success
func (r *Refresher) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Health reports the last attempt, last success and last error
func (r *Refresher) Health() Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h := Health{LastAttempt: r.lastAttempt, LastSuccess: r.lastSuccess}
	if r.lastErr != nil {
		h.LastError = r.lastErr.Error()
	}
	return h
}

// TriggerRefresh asks Run for a refresh without waiting. Requests arriving
// while one is pending collapse into it.
func (r *Refresher) TriggerRefresh() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches the full vote set and recomputes every aggregate. When
// the store fails the current snapshot is kept and the error returned. A
// cycle that finishes after a newer one has been applied is discarded and
// the newer snapshot returned.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	seq := r.started.Add(1)
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "Refresher.Refresh", trace.WithAttributes(attribute.Int64("seq", int64(seq))))
	defer span.End()

	r.mu.Lock()
	r.lastAttempt = start.UTC()
	r.mu.Unlock()

	snap, err := r.compute(ctx, seq)
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RefreshCycles.WithLabelValues("failed").Inc()
		logger.Warn("Scoreboard refresh failed, keeping last results", "seq", seq, "error", err)

		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		return r.Snapshot(), err
	}

	applied := r.apply(snap)
	span.SetAttributes(
		attribute.Bool("applied", applied),
		attribute.Int("votes", snap.Results.Stats.TotalVotes),
	)
	if !applied {
		metrics.RefreshCycles.WithLabelValues("stale").Inc()
		logger.Debug("Discarding stale scoreboard", "seq", seq)
		return r.Snapshot(), nil
	}

	metrics.RefreshCycles.WithLabelValues("applied").Inc()
	metrics.SnapshotVotes.Set(float64(snap.Results.Stats.TotalVotes))

	if r.cache != nil {
		if err := r.cache.Save(ctx, cache.SnapshotKey, snap); err != nil {
			logger.Warn("Failed to cache scoreboard", "error", err)
		}
	}

	r.bus.PublishLocal(pubsub.Event{
		Type: pubsub.EventScoreboardUpdated,
		Payload: map[string]any{
			"seq":          snap.Seq,
			"votingStatus": string(snap.VotingStatus),
			"computedAt":   snap.ComputedAt.Format(time.RFC3339),
		},
	})

	return snap, nil
}

func (r *Refresher) compute(ctx context.Context, seq uint64) (*Snapshot, error) {
	votes, err := r.store.GetAllVotes(ctx)
	if err != nil {
		return nil, err
	}

	status, err := r.store.GetVotingStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Results:      r.engine.Compute(votes),
		VotingStatus: status,
		ComputedAt:   time.Now().UTC(),
		Seq:          seq,
	}, nil
}

// apply swaps in snap unless a cycle that started later is already applied
func (r *Refresher) apply(snap *Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.Seq <= r.appliedSeq {
		return false
	}

	r.current = snap
	r.appliedSeq = snap.Seq
	r.lastErr = nil
	r.lastSuccess = snap.ComputedAt
	return true
}

// Warm loads the cached snapshot so results are available before the
// store answers. It never replaces a computed snapshot. The cached seq
// belongs to another process, so it is reset to 0 and the first cycle
// computed here supersedes it.
func (r *Refresher) Warm(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}

	var snap Snapshot
	if err := r.cache.Load(ctx, cache.SnapshotKey, &snap); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil
		}
		return err
	}
	snap.FromCache = true
	snap.Seq = 0

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		r.current = &snap
		logger.Info("Loaded cached scoreboard", "computed_at", snap.ComputedAt)
	}
	return nil
}

// Run drives the refresh loop until ctx is cancelled: one refresh on start,
// one per interval, and one per pending trigger or relevant bus event.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.Warm(ctx); err != nil {
		logger.Warn("Failed to load cached scoreboard", "error", err)
	}

	events := r.bus.Subscribe()
	defer r.bus.Unsubscribe(events)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info("Scoreboard refresher started", "interval", r.interval)
	r.TriggerRefresh()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.TriggerRefresh()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Type == pubsub.EventVotesChanged || ev.Type == pubsub.EventSettingsStatus {
				r.TriggerRefresh()
			}
		case <-r.trigger:
			_, _ = r.Refresh(ctx)
		}
	}
}
