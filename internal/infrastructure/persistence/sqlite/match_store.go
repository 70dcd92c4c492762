package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// MatchStore implements lineup.MatchRecordStore on SQLite.
type MatchStore struct {
	db *DB
}

// NewMatchStore creates a new MatchStore.
func NewMatchStore(db *DB) *MatchStore {
	return &MatchStore{db: db}
}

var _ lineup.MatchRecordStore = (*MatchStore)(nil)

// CreatePlayer stores a player without matches.
func (s *MatchStore) CreatePlayer(ctx context.Context, p lineup.Player) error {
	_, err := s.db.db.ExecContext(ctx,
		`INSERT INTO players (id, display_name, created_at) VALUES (?, ?, ?)`,
		p.ID.String(), p.DisplayName, time.Now().UTC().UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
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

// GetPlayers returns players in the order of ids.
func (s *MatchStore) GetPlayers(ctx context.Context, ids []shared.PlayerID) ([]lineup.Player, error) {
	if len(ids) == 0 {
		return []lineup.Player{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}

	rows, err := s.db.db.QueryContext(ctx,
		`SELECT id, display_name FROM players WHERE id IN (`+placeholders+`)`, args...)
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

	rows, err = s.db.db.QueryContext(ctx, `
		SELECT player_id, match_id, role, champion, kills, deaths, assists,
			creep_score, vision_score, duration_seconds, result, side,
			lane_allocation, composition_style, played_at_ns
		FROM match_participations
		WHERE player_id IN (`+placeholders+`)
		ORDER BY player_id, played_at_ns, seq`, args...)
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

// AppendMatch inserts an immutable participation record.
func (s *MatchStore) AppendMatch(ctx context.Context, m lineup.MatchParticipation) error {
	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO match_participations (
			player_id, match_id, role, champion, kills, deaths, assists,
			creep_score, vision_score, duration_seconds, result, side,
			lane_allocation, composition_style, played_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		m.PlayedAt.UTC().UnixNano(),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return shared.ErrDuplicateMatch
		case isForeignKeyViolation(err):
			return shared.ErrPlayerNotFound
		}
		return storeError("AppendMatch", err)
	}
	return nil
}

// HasMatch reports whether (player, match) is recorded.
func (s *MatchStore) HasMatch(ctx context.Context, playerID shared.PlayerID, matchID string) (bool, error) {
	var exists bool
	err := s.db.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM match_participations WHERE player_id = ? AND match_id = ?)`,
		playerID.String(), matchID,
	).Scan(&exists)
	if err != nil {
		return false, storeError("HasMatch", err)
	}
	return exists, nil
}

// Ping checks that the database is usable.
func (s *MatchStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return storeError("Ping", err)
	}
	return nil
}

func scanMatch(rows *sql.Rows) (lineup.MatchParticipation, error) {
	var (
		m                                      lineup.MatchParticipation
		playerID, role, result, side, lane, st string
		playedAt                               int64
	)
	err := rows.Scan(
		&playerID, &m.MatchID, &role, &m.Champion,
		&m.Kills, &m.Deaths, &m.Assists,
		&m.CreepScore, &m.VisionScore, &m.DurationSeconds,
		&result, &side, &lane, &st, &playedAt,
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
	m.PlayedAt = time.Unix(0, playedAt).UTC()
	return m, nil
}
