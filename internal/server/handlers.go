package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	eventdomain "interview-integrity/backend/internal/event/domain"
	"interview-integrity/backend/internal/observation"
	"interview-integrity/backend/internal/report"
	sessiondomain "interview-integrity/backend/internal/session/domain"
)

type handlers struct {
	deps Deps
}

func (h *handlers) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	if h.deps.Pinger != nil {
		if err := h.deps.Pinger.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "database unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type createSessionRequest struct {
	CandidateName string `json:"candidateName"`
}

type createSessionResponse struct {
	SessionID string    `json:"sessionId"`
	StartedAt time.Time `json:"startTime"`
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.CandidateName = strings.TrimSpace(req.CandidateName)
	if req.CandidateName == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "candidateName is required")
		return
	}

	now := time.Now().UTC()
	s := &sessiondomain.Session{
		ID:            uuid.New().String(),
		CandidateName: req.CandidateName,
		StartedAt:     now,
		CreatedAt:     now,
	}
	if err := h.deps.Sessions.Create(r.Context(), s); err != nil {
		h.deps.Logger.Error().Err(err).Msg("create session failed")
		writeError(w, http.StatusInternalServerError, "internal", "could not create session")
		return
	}
	if h.deps.Monitor != nil {
		h.deps.Monitor.Start(s.ID)
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: s.ID, StartedAt: s.StartedAt})
}

func (h *handlers) appendEvent(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var e eventdomain.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if e.Type == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "type is required")
		return
	}

	stored, err := h.deps.Events.Append(r.Context(), sessionID, &e)
	if err != nil {
		if errors.Is(err, sessiondomain.ErrInvalidSession) {
			writeError(w, http.StatusConflict, "invalid_session", "session is unknown or already ended")
			return
		}
		h.deps.Logger.Error().Err(err).Str("sessionId", sessionID).Msg("append event failed")
		writeError(w, http.StatusInternalServerError, "internal", "could not save event")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *handlers) pushObservation(w http.ResponseWriter, r *http.Request) {
	if h.deps.Observations == nil {
		writeError(w, http.StatusNotImplemented, "not_supported", "observation ingest is disabled")
		return
	}
	sessionID := chi.URLParam(r, "id")
	var obs observation.RawObservation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	s, err := h.deps.Sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		h.deps.Logger.Error().Err(err).Str("sessionId", sessionID).Msg("load session failed")
		writeError(w, http.StatusInternalServerError, "internal", "could not load session")
		return
	}
	if s == nil || s.Ended() {
		writeError(w, http.StatusConflict, "invalid_session", "session is unknown or already ended")
		return
	}
	if dropped := h.deps.Observations.Push(sessionID, &obs); dropped {
		h.deps.Metrics.ObservationsDropped.Inc()
	}
	w.WriteHeader(http.StatusAccepted)
}

type finalizeRequest struct {
	RecordingURL string `json:"recordingUrl"`
}

type finalizeResponse struct {
	SessionID string    `json:"sessionId"`
	EndedAt   time.Time `json:"endTime"`
}

func (h *handlers) finalizeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var req finalizeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
	}

	now := time.Now().UTC()
	updated, err := h.deps.Sessions.Finalize(r.Context(), sessionID, now, req.RecordingURL)
	if err != nil {
		h.deps.Logger.Error().Err(err).Str("sessionId", sessionID).Msg("finalize failed")
		writeError(w, http.StatusInternalServerError, "internal", "could not finalize session")
		return
	}
	if !updated {
		// Either unknown or already finalized; repeated finalize is a no-op.
		s, err := h.deps.Sessions.GetByID(r.Context(), sessionID)
		if err != nil {
			h.deps.Logger.Error().Err(err).Str("sessionId", sessionID).Msg("load session failed")
			writeError(w, http.StatusInternalServerError, "internal", "could not load session")
			return
		}
		if s == nil {
			writeError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		writeJSON(w, http.StatusOK, finalizeResponse{SessionID: sessionID, EndedAt: *s.EndedAt})
		return
	}

	// Stop sampling before anything else can observe the ended session.
	if h.deps.Monitor != nil {
		h.deps.Monitor.Stop(sessionID)
	}
	writeJSON(w, http.StatusOK, finalizeResponse{SessionID: sessionID, EndedAt: now})
}

func (h *handlers) generateReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	csv, cacheHit, err := h.deps.Reports.GenerateCSV(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, sessiondomain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "session not found")
		case errors.Is(err, report.ErrNoEvents):
			writeError(w, http.StatusUnprocessableEntity, "no_events", "session has no recorded events")
		default:
			h.deps.Logger.Error().Err(err).Str("sessionId", sessionID).Msg("generate report failed")
			writeError(w, http.StatusInternalServerError, "internal", "could not generate report")
		}
		return
	}
	if cacheHit {
		h.deps.Metrics.ReportCacheHits.Inc()
	} else {
		h.deps.Metrics.ReportsGenerated.Inc()
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.csv", sessionID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}
