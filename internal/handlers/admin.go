package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/auth"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/dal"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/diagnostics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/report"
)

// SetVotingStatus opens or closes voting
func (h *APIHandlers) SetVotingStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Status models.VotingStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err := h.store.SetVotingStatus(ctx, req.Status)
	if errors.Is(err, dal.ErrInvalidStatus) {
		http.Error(w, fmt.Sprintf("Invalid status %q (valid: OPEN, CLOSED)", req.Status), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Error("Failed to update voting status", "error", err)
		http.Error(w, "Failed to update voting status", http.StatusInternalServerError)
		return
	}

	logger.Info("Voting status changed", "status", req.Status, "by", auth.FromContext(ctx).Name)
	h.bus.Publish(pubsub.Event{
		Type:    pubsub.EventSettingsStatus,
		Payload: map[string]any{"status": string(req.Status)},
	})

	settings, err := h.store.GetVotingSettings(ctx)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"votingStatus": req.Status})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Export streams the standard or ?detailed=true workbook
func (h *APIHandlers) Export(w http.ResponseWriter, r *http.Request) {
	detailed := r.URL.Query().Get("detailed") == "true"

	ctx, span := h.tracer.Start(r.Context(), "APIHandlers.Export")
	defer span.End()
	span.SetAttributes(attribute.Bool("report.detailed", detailed))

	votes, err := h.store.GetAllVotes(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read votes")
		logger.Error("Failed to read votes for export", "error", err)
		http.Error(w, "Failed to read votes", http.StatusInternalServerError)
		return
	}

	var tables []report.Table
	if detailed {
		tables = h.reports.Detailed(votes)
	} else {
		tables = h.reports.Standard(votes)
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, tables); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write workbook")
		logger.Error("Failed to build workbook", "error", err)
		http.Error(w, "Failed to build workbook", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.Int("report.votes", len(votes)), attribute.Int("report.sheets", len(tables)))

	filename := report.Filename(detailed, time.Now())
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("Export client went away", "error", err)
	}
	logger.Info("Report exported", "file", filename, "votes", len(votes), "by", auth.FromContext(ctx).Name)
}

// Diagnostics runs the roster and store health check
func (h *APIHandlers) Diagnostics(w http.ResponseWriter, r *http.Request) {
	rep := diagnostics.Run(r.Context(), h.store, h.event)
	writeJSON(w, http.StatusOK, map[string]any{
		"report":     rep,
		"scoreboard": h.board.Health(),
	})
}

// Audit returns the per-judge activity summary
func (h *APIHandlers) Audit(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		http.Error(w, "Audit trail not configured", http.StatusNotFound)
		return
	}

	activity, err := h.audit.JudgeActivity(r.Context())
	if err != nil {
		logger.Error("Failed to query judge activity", "error", err)
		http.Error(w, "Failed to query audit trail", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}
