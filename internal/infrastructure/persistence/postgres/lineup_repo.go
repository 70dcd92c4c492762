package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVED LINEUP REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LineupRepository implements lineup.LineupRepository for PostgreSQL.
// Assignments are stored as JSONB.
type LineupRepository struct {
	conn *Connection
}

// NewLineupRepository creates a new LineupRepository.
func NewLineupRepository(conn *Connection) *LineupRepository {
	return &LineupRepository{conn: conn}
}

var _ lineup.LineupRepository = (*LineupRepository)(nil)

// Save upserts by name. On conflict the existing id and created_at survive.
func (r *LineupRepository) Save(ctx context.Context, l lineup.SavedLineup) (lineup.SavedLineup, error) {
	payload, err := json.Marshal(l.Assignment)
	if err != nil {
		return lineup.SavedLineup{}, fmt.Errorf("failed to marshal assignment: %w", err)
	}

	id := l.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()

	row := r.conn.QueryRow(ctx, `
		INSERT INTO saved_lineups (id, name, assignment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (name) DO UPDATE SET
			assignment = EXCLUDED.assignment,
			updated_at = EXCLUDED.updated_at
		RETURNING id::text, name, assignment, created_at, updated_at`,
		id, l.Name.String(), payload, now)

	saved, err := scanLineup(row)
	if err != nil {
		return lineup.SavedLineup{}, storeError("SaveLineup", err)
	}
	return saved, nil
}

// Get returns the lineup saved under name.
func (r *LineupRepository) Get(ctx context.Context, name shared.LineupName) (lineup.SavedLineup, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id::text, name, assignment, created_at, updated_at
		FROM saved_lineups WHERE name = $1`, name.String())

	saved, err := scanLineup(row)
	if err != nil {
		if IsNoRows(err) {
			return lineup.SavedLineup{}, shared.ErrLineupNotFound
		}
		return lineup.SavedLineup{}, storeError("GetLineup", err)
	}
	return saved, nil
}

// List returns every saved lineup ordered by name.
func (r *LineupRepository) List(ctx context.Context) ([]lineup.SavedLineup, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id::text, name, assignment, created_at, updated_at
		FROM saved_lineups ORDER BY name`)
	if err != nil {
		return nil, storeError("ListLineups", err)
	}
	defer rows.Close()

	out := []lineup.SavedLineup{}
	for rows.Next() {
		saved, err := scanLineup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("ListLineups", err)
	}
	return out, nil
}

// Delete removes the lineup saved under name.
func (r *LineupRepository) Delete(ctx context.Context, name shared.LineupName) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM saved_lineups WHERE name = $1`, name.String())
	if err != nil {
		return storeError("DeleteLineup", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLineupNotFound
	}
	return nil
}

func scanLineup(row pgx.Row) (lineup.SavedLineup, error) {
	var (
		l       lineup.SavedLineup
		name    string
		payload []byte
	)
	if err := row.Scan(&l.ID, &name, &payload, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return lineup.SavedLineup{}, err
	}
	if err := json.Unmarshal(payload, &l.Assignment); err != nil {
		return lineup.SavedLineup{}, fmt.Errorf("failed to unmarshal assignment: %w", err)
	}
	l.Name = shared.LineupName(name)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}
