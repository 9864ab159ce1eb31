package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/goodtune/kquota/internal/detector"
	"github.com/goodtune/kquota/internal/engine"
	"github.com/goodtune/kquota/internal/executor"
	"github.com/gorilla/mux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	records := []executor.Record{}
	if s.recorder != nil {
		records = s.recorder.Records()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"actions": records,
		"count":   len(records),
	})
}

func (s *Server) handleSetApps(w http.ResponseWriter, r *http.Request) {
	var req AppsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.policy.SetBlockedApps(r.Context(), req.Apps); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set blocked apps")
		writeError(w, http.StatusInternalServerError, "Failed to save blocked apps")
		return
	}

	s.logger.Info().Int("count", len(req.Apps)).Msg("Blocked apps updated")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDomains(w http.ResponseWriter, r *http.Request) {
	var req DomainsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.policy.SetBlockedDomains(r.Context(), req.Domains); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set blocked domains")
		writeError(w, http.StatusInternalServerError, "Failed to save blocked domains")
		return
	}

	s.logger.Info().Int("count", len(req.Domains)).Msg("Blocked domains updated")
	w.WriteHeader(http.StatusNoContent)
}

// secondsHandler builds a handler for a setting stored as whole seconds.
func (s *Server) secondsHandler(name string, minimum int64, set func(context.Context, uint32) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SecondsRequest
		if err := decodeJSON(r, &req); err != nil || req.Seconds == nil {
			writeError(w, http.StatusBadRequest, "Request body must be {\"seconds\": N}")
			return
		}
		if *req.Seconds < minimum || *req.Seconds > math.MaxUint32 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be between %d and %d seconds", name, minimum, uint32(math.MaxUint32)))
			return
		}

		if err := set(r.Context(), uint32(*req.Seconds)); err != nil {
			s.logger.Error().Err(err).Str("setting", name).Msg("Failed to save setting")
			writeError(w, http.StatusInternalServerError, "Failed to save "+name)
			return
		}

		s.logger.Info().Str("setting", name).Int64("seconds", *req.Seconds).Msg("Setting updated")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleBonus(w http.ResponseWriter, r *http.Request) {
	granted, err := s.engine.GrantBonus(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BonusResponse{BonusSeconds: granted})
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	granted, err := s.engine.Choose(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BonusResponse{BonusSeconds: granted})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var cooldown *engine.CooldownError
	switch {
	case errors.As(err, &cooldown):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:               http.StatusText(http.StatusConflict),
			Message:             err.Error(),
			Code:                http.StatusConflict,
			RemainingCooldownMs: cooldown.RemainingCooldownMs(),
		})
	case errors.Is(err, engine.ErrNoQuota), errors.Is(err, engine.ErrQuotaRemaining):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Engine request failed")
		writeError(w, http.StatusInternalServerError, "Engine request failed")
	}
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	kind, err := detector.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req EventRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ev detector.Event
	switch kind {
	case detector.KindForeground:
		ev = detector.Foreground(req.Target)
	case detector.KindDomain:
		if req.Domain == "" {
			writeError(w, http.StatusBadRequest, "domain is required")
			return
		}
		ev = detector.DomainVisited(req.Domain, req.SourceApp)
	case detector.KindScreenOff:
		ev = detector.ScreenOff()
	case detector.KindScreenOn:
		ev = detector.ScreenOn()
	case detector.KindUserPresent:
		ev = detector.UserPresent()
	}

	if err := s.events.Publish(r.Context(), ev); err != nil {
		s.logger.Warn().Err(err).Stringer("kind", kind).Msg("Failed to publish event")
		writeError(w, http.StatusServiceUnavailable, "Event not accepted")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
