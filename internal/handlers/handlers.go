package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/auth"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/config"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/dal"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/diagnostics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/report"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoreboard"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/scoring"
)

// Bus is the event bus handlers publish to and stream from
type Bus interface {
	Publish(pubsub.Event)
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Scoreboard serves computed results
type Scoreboard interface {
	Snapshot() *scoreboard.Snapshot
	Refresh(ctx context.Context) (*scoreboard.Snapshot, error)
	Health() scoreboard.Health
}

// AuditSink records vote mutations and summarises them per judge
type AuditSink interface {
	Record(ctx context.Context, ev models.VoteEvent) error
	JudgeActivity(ctx context.Context) ([]models.JudgeActivity, error)
}

// Deps are the collaborators of the API handlers
type Deps struct {
	Store      dal.VoteStore
	Event      *config.Event
	Engine     *scoring.Engine
	Reports    *report.Generator
	Validator  *diagnostics.ScoreValidator
	Scoreboard Scoreboard
	Bus        Bus
	Audit      AuditSink
}

// APIHandlers contains all API handler methods
type APIHandlers struct {
	store     dal.VoteStore
	event     *config.Event
	engine    *scoring.Engine
	reports   *report.Generator
	validator *diagnostics.ScoreValidator
	board     Scoreboard
	bus       Bus
	audit     AuditSink
	tracer    trace.Tracer
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(d Deps) *APIHandlers {
	return &APIHandlers{
		store:     d.Store,
		event:     d.Event,
		engine:    d.Engine,
		reports:   d.Reports,
		validator: d.Validator,
		board:     d.Scoreboard,
		bus:       d.Bus,
		audit:     d.Audit,
		tracer:    otel.Tracer("judging-api"),
	}
}

// Register mounts every /api route on mux
func (h *APIHandlers) Register(mux *http.ServeMux, sessions *auth.SessionManager) {
	judge := func(fn http.HandlerFunc) http.HandlerFunc { return sessions.RequireRole(models.RoleJudge, fn) }
	admin := func(fn http.HandlerFunc) http.HandlerFunc { return sessions.RequireRole(models.RoleAdmin, fn) }

	// Public dashboard
	mux.HandleFunc("/api/scoreboard", h.GetScoreboard)
	mux.HandleFunc("/api/mentions", h.GetHonorableMentions)
	mux.HandleFunc("/api/winners", h.GetWinners)
	mux.HandleFunc("/api/squads", h.ListSquads)
	mux.HandleFunc("/api/criteria", h.ListCriteria)
	mux.HandleFunc("/api/voting/status", h.GetVotingStatus)
	mux.HandleFunc("/api/refresh", h.Refresh)
	mux.HandleFunc("/api/events", h.EventsSSE)

	// Judges
	mux.HandleFunc("/api/votes", judge(h.SubmitVote))
	mux.HandleFunc("/api/votes/revote", judge(h.ReplaceVote))
	mux.HandleFunc("/api/votes/mine", judge(h.MyVotes))
	mux.HandleFunc("/api/votes/check", judge(h.CheckVote))

	// Administrators
	mux.HandleFunc("/api/admin/votes", admin(h.ListVotes))
	mux.HandleFunc("/api/admin/votes/delete", admin(h.DeleteVote))
	mux.HandleFunc("/api/admin/voting-status", admin(h.SetVotingStatus))
	mux.HandleFunc("/api/admin/export", admin(h.Export))
	mux.HandleFunc("/api/admin/diagnostics", admin(h.Diagnostics))
	mux.HandleFunc("/api/admin/audit", admin(h.Audit))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}

// snapshot returns the current results or answers 503 when none exist yet
func (h *APIHandlers) snapshot(w http.ResponseWriter) *scoreboard.Snapshot {
	snap := h.board.Snapshot()
	if snap == nil {
		http.Error(w, "Scoreboard not ready", http.StatusServiceUnavailable)
	}
	return snap
}

// GetScoreboard returns the latest computed results
func (h *APIHandlers) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	if snap := h.snapshot(w); snap != nil {
		writeJSON(w, http.StatusOK, snap)
	}
}

// GetHonorableMentions returns the per-criterion winners
func (h *APIHandlers) GetHonorableMentions(w http.ResponseWriter, r *http.Request) {
	if snap := h.snapshot(w); snap != nil {
		writeJSON(w, http.StatusOK, snap.Results.HonorableMentions)
	}
}

// GetWinners returns the podium overall and per category once voting is closed
func (h *APIHandlers) GetWinners(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	if snap.VotingStatus != models.VotingClosed {
		http.Error(w, "Winners are announced once voting is closed", http.StatusConflict)
		return
	}

	ranked := snap.Results.SquadScores
	if len(ranked) > scoring.PodiumSize {
		ranked = ranked[:scoring.PodiumSize]
	}

	type categoryPodium struct {
		Category     string              `json:"category"`
		CategoryName string              `json:"categoryName"`
		Icon         string              `json:"icon"`
		TopThree     []models.SquadScore `json:"topThree"`
	}
	categories := make([]categoryPodium, 0, len(snap.Results.CategoryRankings))
	for _, c := range snap.Results.CategoryRankings {
		categories = append(categories, categoryPodium{c.Category, c.CategoryName, c.Icon, c.TopThree})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"overall":           ranked,
		"categories":        categories,
		"honorableMentions": snap.Results.HonorableMentions,
	})
}

// ListSquads returns the configured squads
func (h *APIHandlers) ListSquads(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"squads":     h.engine.Squads(),
		"categories": h.engine.Categories(),
	})
}

// ListCriteria returns the rubric
func (h *APIHandlers) ListCriteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Criteria())
}

// GetVotingStatus returns the settings row
func (h *APIHandlers) GetVotingStatus(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.GetVotingSettings(r.Context())
	if err != nil {
		logger.Error("Failed to read voting settings", "error", err)
		http.Error(w, "Failed to read voting status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Refresh recomputes the scoreboard now
func (h *APIHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.board.Refresh(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":    "Refresh failed, serving last known results",
			"snapshot": snap,
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
