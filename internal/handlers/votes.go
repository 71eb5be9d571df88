package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/auth"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/dal"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/diagnostics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/metrics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
)

// maxSuggestionDistance bounds how far an unknown squad id may be from a
// configured one to be offered as a suggestion
const maxSuggestionDistance = 3

type voteRequest struct {
	SquadID string         `json:"squadId"`
	Scores  map[string]any `json:"scores"`
}

// SubmitVote records the logged-in judge's first vote for a squad
func (h *APIHandlers) SubmitVote(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.ActionSubmitted)
}

// ReplaceVote overwrites the logged-in judge's vote for a squad
func (h *APIHandlers) ReplaceVote(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.ActionReplaced)
}

func (h *APIHandlers) castVote(w http.ResponseWriter, r *http.Request, action models.VoteAction) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	judge := auth.FromContext(ctx).Name

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("Failed to decode vote request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.votingOpen(ctx) {
		metrics.VoteMutations.WithLabelValues(string(action), "closed").Inc()
		http.Error(w, "Voting is closed", http.StatusLocked)
		return
	}

	if _, ok := h.engine.Squad(req.SquadID); !ok {
		metrics.VoteMutations.WithLabelValues(string(action), "unknown_squad").Inc()
		body := map[string]any{"error": fmt.Sprintf("Unknown squad: %s", req.SquadID)}
		if s := h.suggestSquad(req.SquadID); s != "" {
			body["suggestion"] = s
		}
		writeJSON(w, http.StatusNotFound, body)
		return
	}

	result, err := h.validator.Validate(req.Scores)
	if err != nil {
		logger.Error("Score validation failed", "error", err)
		http.Error(w, "Failed to validate scores", http.StatusInternalServerError)
		return
	}
	if !result.Valid {
		metrics.VoteMutations.WithLabelValues(string(action), "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	scores := diagnostics.ToScores(req.Scores)
	var vote *models.Vote
	if action == models.ActionReplaced {
		vote, err = h.store.ReplaceVote(ctx, judge, req.SquadID, scores)
	} else {
		vote, err = h.store.SubmitVote(ctx, judge, req.SquadID, scores)
	}
	if errors.Is(err, dal.ErrVoteExists) {
		metrics.VoteMutations.WithLabelValues(string(action), "duplicate").Inc()
		http.Error(w, "You have already voted for this squad", http.StatusConflict)
		return
	}
	if err != nil {
		metrics.VoteMutations.WithLabelValues(string(action), "error").Inc()
		logger.Error("Failed to store vote", "error", err, "judge", judge, "squad_id", req.SquadID)
		http.Error(w, "Failed to store vote", http.StatusInternalServerError)
		return
	}

	weighted := h.engine.WeightedScore(vote.Scores)
	metrics.VoteMutations.WithLabelValues(string(action), "ok").Inc()
	logger.Info("Vote stored", "action", action, "judge", judge, "squad_id", req.SquadID, "weighted_score", weighted)

	h.recordAudit(ctx, models.VoteEvent{
		Time:          vote.CreatedAt,
		Action:        action,
		JudgeName:     judge,
		SquadID:       req.SquadID,
		Actor:         judge,
		WeightedScore: weighted,
		Scores:        vote.Scores,
	})
	h.publishVotesChanged(action, judge, req.SquadID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"vote":          vote,
		"weightedScore": weighted,
	})
}

// votingOpen reads the gate; a failed read counts as open
func (h *APIHandlers) votingOpen(ctx context.Context) bool {
	status, err := h.store.GetVotingStatus(ctx)
	if err != nil {
		logger.Warn("Failed to read voting status, assuming OPEN", "error", err)
		return true
	}
	return status != models.VotingClosed
}

// suggestSquad returns the closest configured squad id, if close enough
func (h *APIHandlers) suggestSquad(id string) string {
	best, bestDist := "", maxSuggestionDistance+1
	for _, s := range h.engine.Squads() {
		if d := levenshtein.ComputeDistance(id, s.ID); d < bestDist {
			best, bestDist = s.ID, d
		}
	}
	return best
}

// MyVotes lists the logged-in judge's votes, newest first
func (h *APIHandlers) MyVotes(w http.ResponseWriter, r *http.Request) {
	judge := auth.FromContext(r.Context()).Name

	votes, err := h.store.GetVotesByJudge(r.Context(), judge)
	if err != nil {
		logger.Error("Failed to list votes", "error", err, "judge", judge)
		http.Error(w, "Failed to list votes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// CheckVote reports whether the logged-in judge already scored ?squadId=
func (h *APIHandlers) CheckVote(w http.ResponseWriter, r *http.Request) {
	squadID := r.URL.Query().Get("squadId")
	if squadID == "" {
		http.Error(w, "Missing squadId parameter", http.StatusBadRequest)
		return
	}

	voted, err := h.store.HasJudgeVoted(r.Context(), auth.FromContext(r.Context()).Name, squadID)
	if err != nil {
		http.Error(w, "Failed to check vote", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"voted": voted})
}

// ListVotes lists every vote, optionally filtered by ?judge= or ?squadId=
func (h *APIHandlers) ListVotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		votes []models.Vote
		err   error
	)
	switch {
	case q.Get("judge") != "":
		votes, err = h.store.GetVotesByJudge(ctx, q.Get("judge"))
	case q.Get("squadId") != "":
		votes, err = h.store.GetVotesBySquad(ctx, q.Get("squadId"))
	default:
		votes, err = h.store.GetAllVotes(ctx)
	}
	if err != nil {
		logger.Error("Failed to list votes", "error", err)
		http.Error(w, "Failed to list votes", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, votes)
}

// DeleteVote removes one judge's vote for one squad
func (h *APIHandlers) DeleteVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		JudgeName string `json:"judgeName"`
		SquadID   string `json:"squadId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JudgeName == "" || req.SquadID == "" {
		http.Error(w, "judgeName and squadId are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err := h.store.DeleteVote(ctx, req.JudgeName, req.SquadID)
	if errors.Is(err, dal.ErrVoteNotFound) {
		metrics.VoteMutations.WithLabelValues(string(models.ActionDeleted), "not_found").Inc()
		http.Error(w, "Vote not found", http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.VoteMutations.WithLabelValues(string(models.ActionDeleted), "error").Inc()
		logger.Error("Failed to delete vote", "error", err, "judge", req.JudgeName, "squad_id", req.SquadID)
		http.Error(w, "Failed to delete vote", http.StatusInternalServerError)
		return
	}

	admin := auth.FromContext(ctx).Name
	metrics.VoteMutations.WithLabelValues(string(models.ActionDeleted), "ok").Inc()
	logger.Info("Vote deleted", "judge", req.JudgeName, "squad_id", req.SquadID, "by", admin)

	h.recordAudit(ctx, models.VoteEvent{
		Time:      time.Now().UTC(),
		Action:    models.ActionDeleted,
		JudgeName: req.JudgeName,
		SquadID:   req.SquadID,
		Actor:     admin,
	})
	h.publishVotesChanged(models.ActionDeleted, req.JudgeName, req.SquadID)

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *APIHandlers) recordAudit(ctx context.Context, ev models.VoteEvent) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(ctx, ev); err != nil {
		logger.Warn("Failed to record vote event", "error", err, "action", ev.Action)
	}
}

func (h *APIHandlers) publishVotesChanged(action models.VoteAction, judge, squadID string) {
	h.bus.Publish(pubsub.Event{
		Type: pubsub.EventVotesChanged,
		Payload: map[string]any{
			"action":    string(action),
			"judgeName": judge,
			"squadId":   squadID,
		},
	})
}
