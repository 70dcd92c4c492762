package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/scrimhub/scrim-lineup/internal/application/command"
	"github.com/scrimhub/scrim-lineup/internal/application/query"
	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
	"github.com/scrimhub/scrim-lineup/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		status.Version = s.config.Version
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, r, http.StatusOK, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerPlayerRequest struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
}

// handleRegisterPlayer handles POST /api/v1/players
func (s *Server) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerPlayerRequest
	if !s.decode(w, r, &req) {
		return
	}

	p, err := s.deps.RegisterPlayer.Handle(r.Context(), command.RegisterPlayerCommand{
		ID:          req.ID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, p)
}

// handleGetPlayer handles GET /api/v1/players/{id}
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.GetPlayer.Handle(r.Context(), query.GetPlayerQuery{PlayerID: r.PathValue("id")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, p, &ResponseMeta{TotalCount: len(p.Matches)})
}

type recordMatchRequest struct {
	MatchID            string             `json:"match_id"`
	Role               string             `json:"role"`
	Champion           string             `json:"champion,omitempty"`
	Kills              *int               `json:"kills"`
	Deaths             *int               `json:"deaths"`
	Assists            *int               `json:"assists"`
	CreepScore         *int               `json:"creep_score"`
	VisionScore        *int               `json:"vision_score"`
	WardsPlaced        *int               `json:"wards_placed"`
	WardsKilled        *int               `json:"wards_killed"`
	ControlWardsBought *int               `json:"control_wards_bought"`
	DurationSeconds    *int               `json:"duration_seconds"`
	Result             string             `json:"result"`
	Side               string             `json:"side"`
	LaneAllocation     string             `json:"lane_allocation"`
	CompositionStyle   string             `json:"composition_style"`
	PlayedAt           timeutil.Timestamp `json:"played_at"`
}

// handleRecordMatch handles POST /api/v1/players/{id}/matches
func (s *Server) handleRecordMatch(w http.ResponseWriter, r *http.Request) {
	var req recordMatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	m, err := s.deps.RecordMatch.Handle(r.Context(), command.RecordMatchCommand{
		PlayerID:           r.PathValue("id"),
		MatchID:            req.MatchID,
		Role:               req.Role,
		Champion:           req.Champion,
		Kills:              req.Kills,
		Deaths:             req.Deaths,
		Assists:            req.Assists,
		CreepScore:         req.CreepScore,
		VisionScore:        req.VisionScore,
		WardsPlaced:        req.WardsPlaced,
		WardsKilled:        req.WardsKilled,
		ControlWardsBought: req.ControlWardsBought,
		DurationSeconds:    req.DurationSeconds,
		Result:             req.Result,
		Side:               req.Side,
		LaneAllocation:     req.LaneAllocation,
		CompositionStyle:   req.CompositionStyle,
		PlayedAt:           req.PlayedAt.Time,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, m)
}

// handleGetPlayerScores handles GET /api/v1/players/{id}/scores
// Optional query parameters: side, lane_allocation, composition_style.
func (s *Server) handleGetPlayerScores(w http.ResponseWriter, r *http.Request) {
	q := query.GetPlayerScoresQuery{PlayerID: r.PathValue("id")}

	values := r.URL.Query()
	if values.Has("side") || values.Has("lane_allocation") || values.Has("composition_style") {
		q.Filter = &query.FilterInput{
			Side:             values.Get("side"),
			LaneAllocation:   values.Get("lane_allocation"),
			CompositionStyle: values.Get("composition_style"),
		}
	}

	card, err := s.deps.PlayerScores.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, card)
}

// ══════════════════════════════════════════════════════════════════════════════
// LINEUP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type recommendRequest struct {
	PlayerIDs      []string                     `json:"player_ids"`
	Mode           string                       `json:"mode,omitempty"`
	CurrentFilters map[string]query.FilterInput `json:"current_filters,omitempty"`
}

// handleRecommendLineup handles POST /api/v1/lineups/recommend
// The mode may also be given as ?mode=quick|peak.
func (s *Server) handleRecommendLineup(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = r.URL.Query().Get("mode")
	}

	a, err := s.deps.RecommendLineup.Handle(r.Context(), query.RecommendLineupQuery{
		PlayerIDs:      req.PlayerIDs,
		Mode:           query.RecommendMode(req.Mode),
		CurrentFilters: req.CurrentFilters,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

type compositionRequest struct {
	Family    string   `json:"family"`
	PlayerIDs []string `json:"player_ids"`
}

// handleBuildComposition handles POST /api/v1/lineups/composition
func (s *Server) handleBuildComposition(w http.ResponseWriter, r *http.Request) {
	var req compositionRequest
	if !s.decode(w, r, &req) {
		return
	}

	a, err := s.deps.Compositions.Build(r.Context(), query.BuildCompositionQuery{
		Family:    req.Family,
		PlayerIDs: req.PlayerIDs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}

// handleRankCompositions handles POST /api/v1/lineups/compositions/rank
func (s *Server) handleRankCompositions(w http.ResponseWriter, r *http.Request) {
	var req compositionRequest
	if !s.decode(w, r, &req) {
		return
	}

	ranked, err := s.deps.Compositions.Rank(r.Context(), query.RankCompositionsQuery{PlayerIDs: req.PlayerIDs})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSONWithMeta(w, r, http.StatusOK, ranked, &ResponseMeta{TotalCount: len(ranked)})
}

// handleListCompositions handles GET /api/v1/compositions
func (s *Server) handleListCompositions(w http.ResponseWriter, r *http.Request) {
	view := s.deps.Compositions.List()
	writeJSONWithMeta(w, r, http.StatusOK, view, &ResponseMeta{TotalCount: len(view.Families)})
}

// ══════════════════════════════════════════════════════════════════════════════
// SAVED LINEUP HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type saveLineupRequest struct {
	Assignment *lineup.LineupAssignment `json:"assignment"`
}

// handleSaveLineup handles PUT /api/v1/lineups/saved/{name}
func (s *Server) handleSaveLineup(w http.ResponseWriter, r *http.Request) {
	var req saveLineupRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Assignment == nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "assignment is required")
		return
	}

	saved, err := s.deps.SaveLineup.Save(r.Context(), command.SaveLineupCommand{
		Name:       r.PathValue("name"),
		Assignment: *req.Assignment,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}

// handleGetSavedLineup handles GET /api/v1/lineups/saved/{name}
func (s *Server) handleGetSavedLineup(w http.ResponseWriter, r *http.Request) {
	saved, err := s.deps.SavedLineups.Get(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}

// handleListSavedLineups handles GET /api/v1/lineups/saved
func (s *Server) handleListSavedLineups(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.SavedLineups.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []lineup.SavedLineup{}
	}
	writeJSONWithMeta(w, r, http.StatusOK, list, &ResponseMeta{TotalCount: len(list)})
}

// handleDeleteSavedLineup handles DELETE /api/v1/lineups/saved/{name}
func (s *Server) handleDeleteSavedLineup(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.SaveLineup.Delete(r.Context(), command.DeleteLineupCommand{Name: r.PathValue("name")}); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING & ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// decode reads a JSON body into v. It writes a 400/413 and returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
	case errors.Is(err, io.EOF):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", "Request body is required")
	default:
		writeJSONError(w, r, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid JSON payload: %v", err))
	}
	return false
}

// statusFor maps an application error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case shared.IsConfiguration(err):
		return http.StatusUnprocessableEntity, "invalid_configuration"
	case shared.IsNoValidAssignment(err):
		return http.StatusUnprocessableEntity, "no_valid_assignment"
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, shared.ErrComputationCanceled), errors.Is(err, context.Canceled), shared.IsRetryable(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError writes the mapped error. Only unexpected failures are logged
// as errors; the client sees their generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	log := logger.FromContext(r.Context())

	message := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		log.Error("request failed", logger.String("path", r.URL.Path), logger.Err(err))
		message = "An unexpected error occurred"
	case status >= http.StatusInternalServerError:
		log.Warn("request degraded", logger.String("path", r.URL.Path), logger.Err(err))
	}
	writeJSONError(w, r, status, code, message)
}
