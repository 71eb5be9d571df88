// Package diagnostics checks the event roster and the vote store for
// problems that do not stop the service but should be shown to admins.
package diagnostics

import (
	"context"
	"fmt"
	"time"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// StatusUnknown is reported when the voting status cannot be read.
const StatusUnknown = "UNKNOWN"

// Store is the subset of the vote store the health check needs.
type Store interface {
	Ping(ctx context.Context) error
	GetAllVotes(ctx context.Context) ([]models.Vote, error)
	GetVotingSettings(ctx context.Context) (*models.VotingSettings, error)
}

// Report is the outcome of a health check. Success is false whenever
// Issues is non-empty; Warnings never fail the check.
type Report struct {
	Success   bool         `json:"success"`
	Issues    []string     `json:"issues"`
	Warnings  []string     `json:"warnings"`
	Stats     *SystemStats `json:"stats,omitempty"`
	CheckedAt time.Time    `json:"checkedAt"`
}

// SystemStats are the counters shown on the admin diagnostics panel.
type SystemStats struct {
	TotalSquads         int    `json:"totalSquads"`
	TotalJudges         int    `json:"totalJudges"`
	TotalCriteria       int    `json:"totalCriteria"`
	TotalAccessCodes    int    `json:"totalAccessCodes"`
	TotalVotes          int    `json:"totalVotes"`
	VotingStatus        string `json:"votingStatus"`
	CriteriaWeightTotal int    `json:"criteriaWeightTotal"`
}

// CheckConfig inspects the roster only.
func CheckConfig(ev *config.Event) Report {
	r := Report{Issues: []string{}, Warnings: []string{}, CheckedAt: time.Now()}

	if len(ev.Squads) == 0 {
		r.Issues = append(r.Issues, "No squads configured")
	}
	if len(ev.Criteria) == 0 {
		r.Issues = append(r.Issues, "No evaluation criteria configured")
	}
	if len(ev.AccessCodes) == 0 {
		r.Issues = append(r.Issues, "No access codes configured")
	}
	if len(ev.Judges) == 0 {
		r.Issues = append(r.Issues, "No judges configured")
	}

	if total := ev.TotalWeight(); total != 100 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("Criteria weights total %d%% instead of 100%%", total))
	}

	if hasDuplicate(ev.AccessCodes, func(a models.AccessCode) string { return a.Code }) {
		r.Issues = append(r.Issues, "Duplicate access codes found")
	}
	if hasDuplicate(ev.Squads, func(s models.Squad) string { return s.ID }) {
		r.Issues = append(r.Issues, "Duplicate squad IDs found")
	}
	if hasDuplicate(ev.Criteria, func(c models.Criterion) string { return c.ID }) {
		r.Issues = append(r.Issues, "Duplicate criteria IDs found")
	}

	for _, ac := range ev.AccessCodes {
		if ac.Role == models.RoleJudge && !ev.IsJudge(ac.Name) {
			r.Issues = append(r.Issues, fmt.Sprintf("Access code for unknown judge: %s", ac.Name))
		}
	}

	categories := make(map[string]struct{}, len(ev.Categories))
	for _, c := range ev.Categories {
		categories[c.ID] = struct{}{}
	}
	for _, s := range ev.Squads {
		if _, ok := categories[s.Category]; !ok {
			r.Issues = append(r.Issues, fmt.Sprintf("Squad %s has unknown category: %s", s.ID, s.Category))
		}
	}

	r.Success = len(r.Issues) == 0
	return r
}

// Run performs the full health check: store reachability, the roster
// checks and the system counters.
func Run(ctx context.Context, store Store, ev *config.Event) Report {
	r := CheckConfig(ev)

	storeIssues := []string{}
	if err := store.Ping(ctx); err != nil {
		storeIssues = append(storeIssues, fmt.Sprintf("Vote store connection failed: %v", err))
	}

	stats := &SystemStats{
		TotalSquads:         len(ev.Squads),
		TotalJudges:         len(ev.Judges),
		TotalCriteria:       len(ev.Criteria),
		TotalAccessCodes:    len(ev.AccessCodes),
		VotingStatus:        StatusUnknown,
		CriteriaWeightTotal: ev.TotalWeight(),
	}

	votes, err := store.GetAllVotes(ctx)
	if err != nil {
		storeIssues = append(storeIssues, fmt.Sprintf("Votes table not accessible: %v", err))
	} else {
		stats.TotalVotes = len(votes)
	}

	settings, err := store.GetVotingSettings(ctx)
	if err != nil {
		storeIssues = append(storeIssues, fmt.Sprintf("Settings table not accessible: %v", err))
	} else {
		stats.VotingStatus = string(settings.VotingStatus)
	}

	r.Issues = append(storeIssues, r.Issues...)
	r.Stats = stats
	r.Success = len(r.Issues) == 0

	if !r.Success {
		logger.Warn("Health check found issues", "issues", len(r.Issues), "warnings", len(r.Warnings))
	}

	return r
}

func hasDuplicate[T any](items []T, key func(T) string) bool {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		k := key(it)
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}
