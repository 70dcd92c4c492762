package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/scrimhub/scrim-lineup/internal/application/command"
	"github.com/scrimhub/scrim-lineup/internal/application/query"
	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/internal/infrastructure/persistence/memory"
	"github.com/scrimhub/scrim-lineup/internal/interface/http/handlers"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	RequestID string          `json:"request_id"`
}

type testEnv struct {
	server *Server
	store  *memory.MatchStore
	health *handlers.CompositeHealthChecker
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	store := memory.NewMatchStore()
	repo := memory.NewLineupRepository()
	catalog := lineup.DefaultCatalog()
	log := logger.Nop()
	health := handlers.NewCompositeHealthChecker("test")
	health.AddCheck("store", handlers.NewPingCheck(store))

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	if mutate != nil {
		mutate(&cfg)
	}

	s := NewServer(cfg, Dependencies{
		RegisterPlayer:  command.NewRegisterPlayerHandler(store, log),
		RecordMatch:     command.NewRecordMatchHandler(store, 1000, log),
		SaveLineup:      command.NewSavedLineupHandler(repo, nil, 0, log),
		GetPlayer:       query.NewGetPlayerHandler(store),
		PlayerScores:    query.NewPlayerScoresHandler(store),
		RecommendLineup: query.NewRecommendLineupHandler(store, 0, log),
		Compositions:    query.NewCompositionHandler(catalog, store, 0, time.Second, log),
		SavedLineups:    query.NewSavedLineupsHandler(repo, nil, 0, log),
		Logger:          log,
		HealthChecker:   health,
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	return &testEnv{server: s, store: store, health: health}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func playerID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

func matchBody(matchID string, role lineup.Role, result, style string) map[string]any {
	return map[string]any{
		"match_id":          matchID,
		"role":              role,
		"kills":             6,
		"deaths":            2,
		"assists":           7,
		"creep_score":       250,
		"vision_score":      16,
		"duration_seconds":  1800,
		"result":            result,
		"side":              "BLUE",
		"lane_allocation":   "STRONG_SIDE",
		"composition_style": style,
		"played_at":         "2026-03-01T18:00:00Z",
	}
}

// seedRoster registers one specialist per role through the API.
func (e *testEnv) seedRoster(t *testing.T) []string {
	t.Helper()
	ids := make([]string, 0, lineup.RoleCount)
	for i, role := range lineup.CanonicalRoles() {
		id := playerID(i + 1)
		rec, _ := e.do(t, http.MethodPost, "/api/v1/players", map[string]string{"id": id, "display_name": string(role)})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec, _ = e.do(t, http.MethodPost, "/api/v1/players/"+id+"/matches", matchBody("g1", role, "WIN", "ENGAGE"))
		require.Equal(t, http.StatusCreated, rec.Code)
		rec, _ = e.do(t, http.MethodPost, "/api/v1/players/"+id+"/matches", matchBody("g2", role, "LOSS", "PICKUP"))
		require.Equal(t, http.StatusCreated, rec.Code)

		ids = append(ids, id)
	}
	return ids
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func TestHealthAndReady(t *testing.T) {
	e := newTestEnv(t, nil)

	rec, env := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, _ = e.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	e.health.AddOptionalCheck("lineup_cache", func(context.Context) error { return errors.New("redis down") })
	rec, _ = e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = e.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "an optional check does not block readiness")

	e.health.AddCheck("store", func(context.Context) error { return errors.New("db down") })
	rec, _ = e.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	e := newTestEnv(t, nil)

	rec, env := e.do(t, http.MethodGet, "/api/v1/players/nope", nil, "X-Request-ID", "req-42")
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", env.RequestID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Players & matches
// ─────────────────────────────────────────────────────────────────────────────

func TestPlayersAndMatches(t *testing.T) {
	e := newTestEnv(t, nil)

	rec, env := e.do(t, http.MethodPost, "/api/v1/players", map[string]string{"display_name": "Zeus"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p lineup.Player
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.True(t, p.ID.IsValid())

	body := matchBody("scrim-7", lineup.RoleTop, "win", "siege")
	body["played_at"] = 1775158200
	rec, env = e.do(t, http.MethodPost, "/api/v1/players/"+p.ID.String()+"/matches", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m lineup.MatchParticipation
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.True(t, time.Date(2026, 4, 2, 19, 30, 0, 0, time.UTC).Equal(m.PlayedAt), m.PlayedAt)
	assert.Equal(t, lineup.StyleSiege, m.CompositionStyle)

	rec, env = e.do(t, http.MethodPost, "/api/v1/players/"+p.ID.String()+"/matches", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", env.Error.Code)

	rec, env = e.do(t, http.MethodGet, "/api/v1/players/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Len(t, p.Matches, 1)
	assert.Equal(t, "scrim-7", p.Matches[0].MatchID)
}

func TestPlayerErrors(t *testing.T) {
	e := newTestEnv(t, nil)
	ids := e.seedRoster(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"duplicate player", http.MethodPost, "/api/v1/players", map[string]string{"id": ids[0], "display_name": "again"}, http.StatusConflict, "already_exists"},
		{"missing name", http.MethodPost, "/api/v1/players", map[string]string{}, http.StatusBadRequest, "invalid_request"},
		{"malformed json", http.MethodPost, "/api/v1/players", "{", http.StatusBadRequest, "invalid_request"},
		{"empty body", http.MethodPost, "/api/v1/players", nil, http.StatusBadRequest, "invalid_request"},
		{"unknown player", http.MethodGet, "/api/v1/players/" + playerID(77), nil, http.StatusNotFound, "not_found"},
		{"bad player id", http.MethodGet, "/api/v1/players/faker", nil, http.StatusBadRequest, "invalid_request"},
		{"match for unknown player", http.MethodPost, "/api/v1/players/" + playerID(77) + "/matches", matchBody("x", lineup.RoleMid, "WIN", "ENGAGE"), http.StatusNotFound, "not_found"},
		{"bad role", http.MethodPost, "/api/v1/players/" + ids[0] + "/matches", matchBody("x", "ROAMER", "WIN", "ENGAGE"), http.StatusBadRequest, "invalid_request"},
		{"bad timestamp", http.MethodPost, "/api/v1/players/" + ids[0] + "/matches", `{"match_id":"x","role":"TOP","played_at":"yesterday"}`, http.StatusBadRequest, "invalid_request"},
		{"bad score filter", http.MethodGet, "/api/v1/players/" + ids[0] + "/scores?side=GREEN", nil, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := e.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestPlayerScores(t *testing.T) {
	e := newTestEnv(t, nil)
	ids := e.seedRoster(t)

	rec, env := e.do(t, http.MethodGet, "/api/v1/players/"+ids[1]+"/scores?composition_style=ENGAGE", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var card query.PlayerScoreCard
	require.NoError(t, json.Unmarshal(env.Data, &card))
	require.Len(t, card.Roles, lineup.RoleCount)
	jungle := card.Roles[1]
	assert.Equal(t, lineup.RoleJungle, jungle.Role)
	assert.Equal(t, 1, jungle.Result.MatchCount)
	assert.True(t, jungle.Peak.Found)

	// Roles without data render the score as "-".
	assert.Contains(t, string(env.Data), `"score":"-"`)
}

// ─────────────────────────────────────────────────────────────────────────────
// Lineups
// ─────────────────────────────────────────────────────────────────────────────

func TestRecommendLineup(t *testing.T) {
	e := newTestEnv(t, nil)
	ids := e.seedRoster(t)

	for _, mode := range []string{"quick", "peak"} {
		t.Run(mode, func(t *testing.T) {
			rec, env := e.do(t, http.MethodPost, "/api/v1/lineups/recommend", map[string]any{"player_ids": ids, "mode": mode})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var a lineup.LineupAssignment
			require.NoError(t, json.Unmarshal(env.Data, &a))
			assert.True(t, a.IsComplete())
			assert.Equal(t, lineup.Strategy(strings.ToUpper(mode)), a.Strategy)
			assert.NoError(t, a.Validate())
		})
	}

	rec, env := e.do(t, http.MethodPost, "/api/v1/lineups/recommend?mode=peak", map[string]any{"player_ids": ids})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"strategy":"PEAK"`)

	rec, env = e.do(t, http.MethodPost, "/api/v1/lineups/recommend", map[string]any{"player_ids": ids, "mode": "chaos"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", env.Error.Code)

	rec, _ = e.do(t, http.MethodPost, "/api/v1/lineups/recommend", map[string]any{"player_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendLineup_Idempotent(t *testing.T) {
	e := newTestEnv(t, nil)
	ids := e.seedRoster(t)

	_, first := e.do(t, http.MethodPost, "/api/v1/lineups/recommend", map[string]any{"player_ids": ids})
	_, second := e.do(t, http.MethodPost, "/api/v1/lineups/recommend", map[string]any{"player_ids": ids})
	assert.JSONEq(t, string(first.Data), string(second.Data))
}

func TestCompositions(t *testing.T) {
	e := newTestEnv(t, nil)
	ids := e.seedRoster(t)

	rec, env := e.do(t, http.MethodPost, "/api/v1/lineups/composition", map[string]any{"family": "ENGAGE", "player_ids": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var a lineup.LineupAssignment
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "ENGAGE", a.Family)
	assert.True(t, a.IsComplete())

	rec, env = e.do(t, http.MethodPost, "/api/v1/lineups/composition", map[string]any{"family": "POKE", "player_ids": ids})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_configuration", env.Error.Code)

	rec, env = e.do(t, http.MethodPost, "/api/v1/lineups/composition", map[string]any{"family": "SIEGE", "player_ids": ids})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "no_valid_assignment", env.Error.Code)

	rec, env = e.do(t, http.MethodPost, "/api/v1/lineups/compositions/rank", map[string]any{"player_ids": ids})
	require.Equal(t, http.StatusOK, rec.Code)
	var ranked []query.RankedComposition
	require.NoError(t, json.Unmarshal(env.Data, &ranked))
	require.Len(t, ranked, 5)
	assert.NotNil(t, ranked[0].Assignment)
	assert.Nil(t, ranked[4].Assignment)

	rec, env = e.do(t, http.MethodGet, "/api/v1/compositions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view query.CatalogView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Len(t, view.Families, 5)
}

func TestSavedLineups(t *testing.T) {
	e := newTestEnv(t, nil)
	ids := e.seedRoster(t)

	_, env := e.do(t, http.MethodPost, "/api/v1/lineups/recommend", map[string]any{"player_ids": ids})
	var a lineup.LineupAssignment
	require.NoError(t, json.Unmarshal(env.Data, &a))

	rec, env := e.do(t, http.MethodPut, "/api/v1/lineups/saved/Finals", map[string]any{"assignment": a})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved lineup.SavedLineup
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.Equal(t, shared.LineupName("finals"), saved.Name)
	assert.NotEmpty(t, saved.ID)

	rec, env = e.do(t, http.MethodGet, "/api/v1/lineups/saved/finals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got lineup.SavedLineup
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, a.Slots, got.Assignment.Slots)

	rec, env = e.do(t, http.MethodGet, "/api/v1/lineups/saved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []lineup.SavedLineup
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = e.do(t, http.MethodDelete, "/api/v1/lineups/saved/finals", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = e.do(t, http.MethodGet, "/api/v1/lineups/saved/finals", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, _ = e.do(t, http.MethodPut, "/api/v1/lineups/saved/finals", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = e.do(t, http.MethodPut, "/api/v1/lineups/saved/bad%20name", map[string]any{"assignment": a})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	a.Slots[0].PlayerID = a.Slots[1].PlayerID
	rec, _ = e.do(t, http.MethodPut, "/api/v1/lineups/saved/broken", map[string]any{"assignment": a})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavedLineups_EmptyListIsArray(t *testing.T) {
	e := newTestEnv(t, nil)

	rec, env := e.do(t, http.MethodGet, "/api/v1/lineups/saved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

func TestAPIKeyRequired(t *testing.T) {
	hash, err := handlers.HashAPIKey("coach-key", bcrypt.MinCost)
	require.NoError(t, err)
	e := newTestEnv(t, func(c *Config) { c.APIKeyHashes = []string{hash} })

	rec, _ := e.do(t, http.MethodGet, "/api/v1/compositions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/api/v1/compositions", nil, "X-API-Key", "coach-key")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "probes stay open")
}

func TestRateLimit(t *testing.T) {
	e := newTestEnv(t, func(c *Config) { c.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		rec, _ := e.do(t, http.MethodGet, "/live", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := e.do(t, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit_exceeded", env.Error.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec, _ = e.do(t, http.MethodGet, "/live", nil, "X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per client IP")
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.requests)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t, func(c *Config) { c.AllowedOrigins = []string{"https://coach.example"} })

	rec, _ := e.do(t, http.MethodOptions, "/api/v1/lineups/recommend", nil, "Origin", "https://coach.example")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://coach.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = e.do(t, http.MethodOptions, "/api/v1/lineups/recommend", nil, "Origin", "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	e := newTestEnv(t, nil)
	h := e.server.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_server_error")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{lineup.ErrInvalidRole, http.StatusBadRequest},
		{shared.ErrInvalidPlayerID, http.StatusBadRequest},
		{lineup.ErrDoubleBooked, http.StatusBadRequest},
		{lineup.ErrUnknownFamily, http.StatusUnprocessableEntity},
		{lineup.ErrNoValidComposition, http.StatusUnprocessableEntity},
		{shared.ErrPlayerNotFound, http.StatusNotFound},
		{shared.ErrDuplicateMatch, http.StatusConflict},
		{shared.WrapError("lineup", "BuildComposition", lineup.ErrSearchCanceled, "canceled", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{shared.WrapError("lineup", "BuildComposition", lineup.ErrSearchCanceled, "canceled", context.Canceled), http.StatusServiceUnavailable},
		{shared.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{shared.ErrStoreTimeout, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, _ := statusFor(fmt.Errorf("wrapped: %w", tt.err))
			assert.Equal(t, tt.status, status)
		})
	}
}
