package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MATCH RECORD STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MatchStore implements lineup.MatchRecordStore for PostgreSQL.
type MatchStore struct {
	conn *Connection
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(conn *Connection) *MatchStore {
	return &MatchStore{conn: conn}
}

var _ lineup.MatchRecordStore = (*MatchStore)(nil)

const matchColumns = `
	player_id::text, match_id, role, champion, kills, deaths, assists,
	creep_score, vision_score, duration_seconds, result, side,
	lane_allocation, composition_style, played_at`

// ─────────────────────────────────────────────────────────────────────────────
// Players
// ─────────────────────────────────────────────────────────────────────────────

// CreatePlayer stores a player without matches.
func (s *MatchStore) CreatePlayer(ctx context.Context, p lineup.Player) error {
	_, err := s.conn.Exec(ctx,
		`INSERT INTO players (id, display_name) VALUES ($1, $2)`,
		p.ID.String(), p.DisplayName)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrPlayerAlreadyExists
		}
		return storeError("CreatePlayer", err)
	}
	return nil
}

// GetPlayer returns the player with its full match history.
func (s *MatchStore) GetPlayer(ctx context.Context, id shared.PlayerID) (lineup.Player, error) {
	players, err := s.GetPlayers(ctx, []shared.PlayerID{id})
	if err != nil {
		return lineup.Player{}, err
	}
	return players[0], nil
}

// GetPlayers loads the players and their histories with two queries and
// returns them in the order of ids.
func (s *MatchStore) GetPlayers(ctx context.Context, ids []shared.PlayerID) ([]lineup.Player, error) {
	if len(ids) == 0 {
		return []lineup.Player{}, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		if !id.IsValid() {
			return nil, shared.ErrPlayerNotFound
		}
		raw[i] = id.String()
	}

	rows, err := s.conn.Query(ctx,
		`SELECT id::text, display_name FROM players WHERE id = ANY($1::uuid[])`, raw)
	if err != nil {
		return nil, storeError("GetPlayers", err)
	}
	byID := make(map[shared.PlayerID]*lineup.Player, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		byID[shared.PlayerID(id)] = &lineup.Player{ID: shared.PlayerID(id), DisplayName: name, Matches: []lineup.MatchParticipation{}}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeError("GetPlayers", err)
	}

	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, shared.WrapError("player", "GetPlayers", shared.ErrNotFound, "player "+id.String()+" not found", shared.ErrPlayerNotFound)
		}
	}

	rows, err = s.conn.Query(ctx,
		`SELECT `+matchColumns+` FROM match_participations
		WHERE player_id = ANY($1::uuid[])
		ORDER BY player_id, played_at, seq`, raw)
	if err != nil {
		return nil, storeError("GetPlayers", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		p := byID[m.PlayerID]
		p.Matches = append(p.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("GetPlayers", err)
	}

	out := make([]lineup.Player, len(ids))
	for i, id := range ids {
		out[i] = *byID[id]
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Matches
// ─────────────────────────────────────────────────────────────────────────────

// AppendMatch inserts an immutable participation record.
func (s *MatchStore) AppendMatch(ctx context.Context, m lineup.MatchParticipation) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO match_participations (
			player_id, match_id, role, champion, kills, deaths, assists,
			creep_score, vision_score, duration_seconds, result, side,
			lane_allocation, composition_style, played_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.PlayerID.String(),
		m.MatchID,
		string(m.Role),
		m.Champion,
		m.Kills,
		m.Deaths,
		m.Assists,
		m.CreepScore,
		m.VisionScore,
		m.DurationSeconds,
		string(m.Result),
		string(m.Side),
		string(m.LaneAllocation),
		string(m.CompositionStyle),
		m.PlayedAt,
	)
	if err != nil {
		switch {
		case IsUniqueViolation(err):
			return shared.ErrDuplicateMatch
		case IsForeignKeyViolation(err):
			return shared.ErrPlayerNotFound
		}
		return storeError("AppendMatch", err)
	}
	return nil
}

// HasMatch reports whether (player, match) is recorded.
func (s *MatchStore) HasMatch(ctx context.Context, playerID shared.PlayerID, matchID string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM match_participations WHERE player_id = $1 AND match_id = $2)`,
		playerID.String(), matchID,
	).Scan(&exists)
	if err != nil {
		return false, storeError("HasMatch", err)
	}
	return exists, nil
}

// Ping checks that the database is reachable.
func (s *MatchStore) Ping(ctx context.Context) error {
	if err := s.conn.Ping(ctx); err != nil {
		return storeError("Ping", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanMatch(row pgx.Row) (lineup.MatchParticipation, error) {
	var (
		m                                      lineup.MatchParticipation
		playerID, role, result, side, lane, st string
	)
	err := row.Scan(
		&playerID, &m.MatchID, &role, &m.Champion,
		&m.Kills, &m.Deaths, &m.Assists,
		&m.CreepScore, &m.VisionScore, &m.DurationSeconds,
		&result, &side, &lane, &st, &m.PlayedAt,
	)
	if err != nil {
		return lineup.MatchParticipation{}, fmt.Errorf("failed to scan match: %w", err)
	}
	m.PlayerID = shared.PlayerID(playerID)
	m.Role = lineup.Role(role)
	m.Result = lineup.MatchResult(result)
	m.Side = lineup.Side(side)
	m.LaneAllocation = lineup.LaneAllocation(lane)
	m.CompositionStyle = lineup.CompositionStyle(st)
	m.PlayedAt = m.PlayedAt.UTC()
	return m, nil
}

// storeError classifies driver failures so callers can decide on retries.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return shared.WrapError("store", op, shared.ErrStoreTimeout, "postgres request timed out", err)
	case IsTransient(err), errors.Is(err, ErrConnectionClosed):
		return shared.WrapError("store", op, shared.ErrStoreUnavailable, "postgres unavailable", err)
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}
