package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

// LineupRepository implements lineup.LineupRepository on SQLite. Assignments
// are stored as JSON text.
type LineupRepository struct {
	db *DB
}

// NewLineupRepository creates a new LineupRepository.
func NewLineupRepository(db *DB) *LineupRepository {
	return &LineupRepository{db: db}
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
	now := time.Now().UTC().UnixNano()

	row := r.db.db.QueryRowContext(ctx, `
		INSERT INTO saved_lineups (id, name, assignment, created_at_ns, updated_at_ns)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			assignment = excluded.assignment,
			updated_at_ns = excluded.updated_at_ns
		RETURNING id, name, assignment, created_at_ns, updated_at_ns`,
		id, l.Name.String(), string(payload), now, now)

	saved, err := scanLineup(row)
	if err != nil {
		return lineup.SavedLineup{}, storeError("SaveLineup", err)
	}
	return saved, nil
}

// Get returns the lineup saved under name.
func (r *LineupRepository) Get(ctx context.Context, name shared.LineupName) (lineup.SavedLineup, error) {
	row := r.db.db.QueryRowContext(ctx, `
		SELECT id, name, assignment, created_at_ns, updated_at_ns
		FROM saved_lineups WHERE name = ?`, name.String())

	saved, err := scanLineup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lineup.SavedLineup{}, shared.ErrLineupNotFound
		}
		return lineup.SavedLineup{}, storeError("GetLineup", err)
	}
	return saved, nil
}

// List returns every saved lineup ordered by name.
func (r *LineupRepository) List(ctx context.Context) ([]lineup.SavedLineup, error) {
	rows, err := r.db.db.QueryContext(ctx, `
		SELECT id, name, assignment, created_at_ns, updated_at_ns
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
	res, err := r.db.db.ExecContext(ctx, `DELETE FROM saved_lineups WHERE name = ?`, name.String())
	if err != nil {
		return storeError("DeleteLineup", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("DeleteLineup", err)
	}
	if n == 0 {
		return shared.ErrLineupNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLineup(row rowScanner) (lineup.SavedLineup, error) {
	var (
		l                  lineup.SavedLineup
		name, payload      string
		created, updatedAt int64
	)
	if err := row.Scan(&l.ID, &name, &payload, &created, &updatedAt); err != nil {
		return lineup.SavedLineup{}, err
	}
	if err := json.Unmarshal([]byte(payload), &l.Assignment); err != nil {
		return lineup.SavedLineup{}, fmt.Errorf("failed to unmarshal assignment: %w", err)
	}
	l.Name = shared.LineupName(name)
	l.CreatedAt = time.Unix(0, created).UTC()
	l.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return l, nil
}
