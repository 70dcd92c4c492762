package command

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
	"github.com/scrimhub/scrim-lineup/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD MATCH COMMAND
// Appends one player's participation in one match. Records are immutable;
// re-sending the same (player, match) is rejected as a duplicate.
// ══════════════════════════════════════════════════════════════════════════════

// RecordMatchCommand contains the raw values of a participation record.
// Nil counters mean "not recorded".
type RecordMatchCommand struct {
	PlayerID string
	MatchID  string
	Role     string
	Champion string

	Kills      *int
	Deaths     *int
	Assists    *int
	CreepScore *int

	// VisionScore wins over the ward counters when both are set.
	VisionScore        *int
	WardsPlaced        *int
	WardsKilled        *int
	ControlWardsBought *int

	DurationSeconds *int

	Result           string
	Side             string
	LaneAllocation   string
	CompositionStyle string

	// PlayedAt defaults to now when zero.
	PlayedAt time.Time
}

// build parses the command into a validated record.
func (c RecordMatchCommand) build(now time.Time) (lineup.MatchParticipation, error) {
	playerID, err := shared.NewPlayerID(c.PlayerID)
	if err != nil {
		return lineup.MatchParticipation{}, err
	}
	role, err := lineup.ParseRole(c.Role)
	if err != nil {
		return lineup.MatchParticipation{}, err
	}
	result, err := lineup.ParseMatchResult(c.Result)
	if err != nil {
		return lineup.MatchParticipation{}, err
	}
	side, err := lineup.ParseSide(c.Side)
	if err != nil {
		return lineup.MatchParticipation{}, err
	}
	lane, err := lineup.ParseLaneAllocation(c.LaneAllocation)
	if err != nil {
		return lineup.MatchParticipation{}, err
	}
	style, err := lineup.ParseCompositionStyle(c.CompositionStyle)
	if err != nil {
		return lineup.MatchParticipation{}, err
	}

	vision := c.VisionScore
	if vision == nil && (c.WardsPlaced != nil || c.WardsKilled != nil || c.ControlWardsBought != nil) {
		for _, w := range []*int{c.WardsPlaced, c.WardsKilled, c.ControlWardsBought} {
			if w != nil && *w < 0 {
				return lineup.MatchParticipation{}, shared.NewDomainError("match", "Record", lineup.ErrInvalidMatch, "ward counters cannot be negative")
			}
		}
		vision = lineup.IntPtr(lineup.VisionFromWards(deref(c.WardsPlaced), deref(c.WardsKilled), deref(c.ControlWardsBought)))
	}

	playedAt := c.PlayedAt
	if playedAt.IsZero() {
		playedAt = now
	}

	return lineup.NewMatchParticipation(lineup.NewMatchParticipationParams{
		MatchID:          c.MatchID,
		PlayerID:         playerID,
		Role:             role,
		Champion:         c.Champion,
		Kills:            c.Kills,
		Deaths:           c.Deaths,
		Assists:          c.Assists,
		CreepScore:       c.CreepScore,
		VisionScore:      vision,
		DurationSeconds:  c.DurationSeconds,
		Result:           result,
		Side:             side,
		LaneAllocation:   lane,
		CompositionStyle: style,
		PlayedAt:         playedAt,
	})
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordMatchHandler handles the RecordMatchCommand.
//
// A Bloom filter of recorded (player, match) keys only affects latency.
// A negative answer is certain, so fresh records go straight to AppendMatch.
// A positive answer is confirmed with HasMatch, which answers a known
// duplicate with a read instead of a failed insert. Duplicate detection
// itself rests on the store's uniqueness check: the filter starts empty after
// a restart and the handler returns the same errors with or without it.
type RecordMatchHandler struct {
	store lineup.MatchRecordStore
	log   *logger.Logger

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewRecordMatchHandler creates a handler. expectedMatches sizes the filter
// for a 0.1% false positive rate.
func NewRecordMatchHandler(store lineup.MatchRecordStore, expectedMatches uint, log *logger.Logger) *RecordMatchHandler {
	if expectedMatches == 0 {
		expectedMatches = 100_000
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RecordMatchHandler{
		store: store,
		log:   log,
		seen:  bloom.NewWithEstimates(expectedMatches, 0.001),
	}
}

func seenKey(m lineup.MatchParticipation) string {
	return m.PlayerID.String() + "|" + m.MatchID
}

func (h *RecordMatchHandler) maybeSeen(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen.TestString(key)
}

func (h *RecordMatchHandler) markSeen(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen.AddString(key)
}

// Handle validates and appends the record, returning it as stored.
func (h *RecordMatchHandler) Handle(ctx context.Context, cmd RecordMatchCommand) (lineup.MatchParticipation, error) {
	m, err := cmd.build(timeutil.Now())
	if err != nil {
		return lineup.MatchParticipation{}, err
	}

	key := seenKey(m)
	if h.maybeSeen(key) {
		dup, err := h.store.HasMatch(ctx, m.PlayerID, m.MatchID)
		if err != nil {
			return lineup.MatchParticipation{}, fmt.Errorf("record_match: %w", err)
		}
		if dup {
			return lineup.MatchParticipation{}, shared.ErrDuplicateMatch
		}
	}

	if err := h.store.AppendMatch(ctx, m); err != nil {
		if shared.IsAlreadyExists(err) {
			h.markSeen(key)
			return lineup.MatchParticipation{}, err
		}
		if !shared.IsNotFound(err) {
			h.log.Error("failed to append match", logger.PlayerID(m.PlayerID.String()), logger.MatchID(m.MatchID), logger.Err(err))
		}
		return lineup.MatchParticipation{}, fmt.Errorf("record_match: %w", err)
	}
	h.markSeen(key)

	h.log.Debug("match recorded",
		logger.PlayerID(m.PlayerID.String()),
		logger.MatchID(m.MatchID),
		logger.Role(string(m.Role)))
	return m, nil
}
