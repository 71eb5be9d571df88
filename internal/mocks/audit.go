package mocks

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// AuditLog is an in-memory stand-in for the ClickHouse vote audit trail,
// used when no ClickHouse address is configured
type AuditLog struct {
	mu     sync.RWMutex
	events []models.VoteEvent
}

// NewAuditLog creates an empty audit log
func NewAuditLog() *AuditLog {
	logger.Info("Using MOCK audit log (in-memory) for local development")
	return &AuditLog{}
}

// Record appends one vote event
func (a *AuditLog) Record(ctx context.Context, ev models.VoteEvent) error {
	ev.Scores = maps.Clone(ev.Scores)

	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
	return nil
}

// Events returns the recorded events, oldest first
func (a *AuditLog) Events() []models.VoteEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]models.VoteEvent, len(a.events))
	copy(out, a.events)
	return out
}

// JudgeActivity summarises the events per judge, ordered by name
func (a *AuditLog) JudgeActivity(ctx context.Context) ([]models.JudgeActivity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byJudge := map[string]*models.JudgeActivity{}
	for _, ev := range a.events {
		act, ok := byJudge[ev.JudgeName]
		if !ok {
			act = &models.JudgeActivity{JudgeName: ev.JudgeName}
			byJudge[ev.JudgeName] = act
		}
		switch ev.Action {
		case models.ActionSubmitted:
			act.Submitted++
		case models.ActionReplaced:
			act.Replaced++
		case models.ActionDeleted:
			act.Deleted++
		}
		if ev.Time.After(act.LastEvent) {
			act.LastEvent = ev.Time
		}
	}

	out := make([]models.JudgeActivity, 0, len(byJudge))
	for _, act := range byJudge {
		out = append(out, *act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JudgeName < out[j].JudgeName })
	return out, nil
}

// Ping always succeeds
func (a *AuditLog) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (a *AuditLog) Close() error {
	return nil
}
