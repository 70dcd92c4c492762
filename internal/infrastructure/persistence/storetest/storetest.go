// Package storetest holds the behavioural contract every match record store
// and lineup repository must satisfy. Each backend's tests call these with a
// constructor for a fresh, empty instance.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

func newPlayerID() shared.PlayerID {
	return shared.PlayerID(uuid.NewString())
}

func match(t *testing.T, player shared.PlayerID, matchID string, playedAt time.Time, kills *int) lineup.MatchParticipation {
	t.Helper()
	m, err := lineup.NewMatchParticipation(lineup.NewMatchParticipationParams{
		MatchID:          matchID,
		PlayerID:         player,
		Role:             lineup.RoleMid,
		Champion:         "Orianna",
		Kills:            kills,
		Deaths:           lineup.IntPtr(2),
		CreepScore:       lineup.IntPtr(250),
		DurationSeconds:  lineup.IntPtr(1500),
		Result:           lineup.ResultWin,
		Side:             lineup.SideBlue,
		LaneAllocation:   lineup.LaneStrongSide,
		CompositionStyle: lineup.StyleEngage,
		PlayedAt:         playedAt,
	})
	require.NoError(t, err)
	return m
}

// RunMatchRecordStore exercises a lineup.MatchRecordStore implementation.
func RunMatchRecordStore(t *testing.T, open func(t *testing.T) lineup.MatchRecordStore) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

	t.Run("create and get", func(t *testing.T) {
		s := open(t)
		id := newPlayerID()

		require.NoError(t, s.CreatePlayer(ctx, lineup.Player{ID: id, DisplayName: "Faker"}))
		err := s.CreatePlayer(ctx, lineup.Player{ID: id, DisplayName: "again"})
		assert.ErrorIs(t, err, shared.ErrPlayerAlreadyExists)

		p, err := s.GetPlayer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "Faker", p.DisplayName)
		assert.Empty(t, p.Matches)

		_, err = s.GetPlayer(ctx, newPlayerID())
		assert.ErrorIs(t, err, shared.ErrPlayerNotFound)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("history ordered by played_at then insertion", func(t *testing.T) {
		s := open(t)
		id := newPlayerID()
		require.NoError(t, s.CreatePlayer(ctx, lineup.Player{ID: id}))

		require.NoError(t, s.AppendMatch(ctx, match(t, id, "m3", base.Add(2*time.Hour), nil)))
		require.NoError(t, s.AppendMatch(ctx, match(t, id, "m1", base, lineup.IntPtr(4))))
		require.NoError(t, s.AppendMatch(ctx, match(t, id, "m2", base, lineup.IntPtr(0))))

		p, err := s.GetPlayer(ctx, id)
		require.NoError(t, err)
		require.Len(t, p.Matches, 3)
		assert.Equal(t, "m1", p.Matches[0].MatchID)
		assert.Equal(t, "m2", p.Matches[1].MatchID)
		assert.Equal(t, "m3", p.Matches[2].MatchID)

		first := p.Matches[0]
		assert.Equal(t, lineup.RoleMid, first.Role)
		assert.Equal(t, "Orianna", first.Champion)
		require.NotNil(t, first.Kills)
		assert.Equal(t, 4, *first.Kills)
		assert.Nil(t, first.Assists, "unrecorded counters stay unrecorded")
		assert.Equal(t, 0, *p.Matches[1].Kills, "zero is kept distinct from unrecorded")
		assert.Nil(t, p.Matches[2].Kills)
		assert.Equal(t, lineup.SideBlue, first.Side)
		assert.Equal(t, lineup.LaneStrongSide, first.LaneAllocation)
		assert.Equal(t, lineup.StyleEngage, first.CompositionStyle)
		assert.Equal(t, lineup.ResultWin, first.Result)
		assert.True(t, base.Equal(first.PlayedAt))
	})

	t.Run("append rejections", func(t *testing.T) {
		s := open(t)
		id := newPlayerID()
		require.NoError(t, s.CreatePlayer(ctx, lineup.Player{ID: id}))
		require.NoError(t, s.AppendMatch(ctx, match(t, id, "m1", base, nil)))

		err := s.AppendMatch(ctx, match(t, id, "m1", base.Add(time.Hour), nil))
		assert.ErrorIs(t, err, shared.ErrDuplicateMatch)
		assert.True(t, shared.IsAlreadyExists(err))

		err = s.AppendMatch(ctx, match(t, newPlayerID(), "m1", base, nil))
		assert.ErrorIs(t, err, shared.ErrPlayerNotFound)

		p, err := s.GetPlayer(ctx, id)
		require.NoError(t, err)
		assert.Len(t, p.Matches, 1)
	})

	t.Run("same match id for different players", func(t *testing.T) {
		s := open(t)
		a, b := newPlayerID(), newPlayerID()
		require.NoError(t, s.CreatePlayer(ctx, lineup.Player{ID: a}))
		require.NoError(t, s.CreatePlayer(ctx, lineup.Player{ID: b}))

		require.NoError(t, s.AppendMatch(ctx, match(t, a, "scrim-7", base, nil)))
		require.NoError(t, s.AppendMatch(ctx, match(t, b, "scrim-7", base, nil)))

		ok, err := s.HasMatch(ctx, a, "scrim-7")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.HasMatch(ctx, a, "scrim-8")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("get players keeps request order", func(t *testing.T) {
		s := open(t)
		ids := []shared.PlayerID{newPlayerID(), newPlayerID(), newPlayerID()}
		for _, id := range ids {
			require.NoError(t, s.CreatePlayer(ctx, lineup.Player{ID: id}))
		}
		require.NoError(t, s.AppendMatch(ctx, match(t, ids[1], "m1", base, nil)))

		got, err := s.GetPlayers(ctx, []shared.PlayerID{ids[2], ids[0], ids[1]})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, ids[2], got[0].ID)
		assert.Equal(t, ids[0], got[1].ID)
		assert.Equal(t, ids[1], got[2].ID)
		assert.Len(t, got[2].Matches, 1)
		assert.Empty(t, got[0].Matches)

		_, err = s.GetPlayers(ctx, []shared.PlayerID{ids[0], newPlayerID()})
		assert.ErrorIs(t, err, shared.ErrPlayerNotFound)

		got, err = s.GetPlayers(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, open(t).Ping(ctx))
	})
}

func sampleAssignment(player shared.PlayerID, score int) lineup.LineupAssignment {
	var a lineup.LineupAssignment
	a.Strategy = lineup.StrategyQuick
	for i, r := range lineup.CanonicalRoles() {
		a.Slots[i] = lineup.Slot{Role: r, Score: lineup.NoScore}
	}
	filter := lineup.AllFilter()
	a.Slots[2] = lineup.Slot{Role: lineup.RoleMid, PlayerID: player, Filter: &filter, Score: lineup.Score(score)}
	a.TotalScore = score
	a.AverageScore = float64(score)
	return a
}

// RunLineupRepository exercises a lineup.LineupRepository implementation.
func RunLineupRepository(t *testing.T, open func(t *testing.T) lineup.LineupRepository) {
	ctx := context.Background()

	t.Run("save get list delete", func(t *testing.T) {
		r := open(t)
		first := sampleAssignment(newPlayerID(), 70)

		saved, err := r.Save(ctx, lineup.SavedLineup{Name: "week-12", Assignment: first})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())
		assert.Equal(t, first, saved.Assignment)

		got, err := r.Get(ctx, "week-12")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, first, got.Assignment)

		_, err = r.Save(ctx, lineup.SavedLineup{Name: "alpha", Assignment: first})
		require.NoError(t, err)

		list, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, shared.LineupName("alpha"), list[0].Name)
		assert.Equal(t, shared.LineupName("week-12"), list[1].Name)

		require.NoError(t, r.Delete(ctx, "week-12"))
		_, err = r.Get(ctx, "week-12")
		assert.ErrorIs(t, err, shared.ErrLineupNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "week-12"), shared.ErrLineupNotFound)
	})

	t.Run("save replaces by name", func(t *testing.T) {
		r := open(t)
		saved, err := r.Save(ctx, lineup.SavedLineup{Name: "main", Assignment: sampleAssignment(newPlayerID(), 50)})
		require.NoError(t, err)

		replacement := sampleAssignment(newPlayerID(), 90)
		again, err := r.Save(ctx, lineup.SavedLineup{Name: "main", Assignment: replacement})
		require.NoError(t, err)
		assert.Equal(t, saved.ID, again.ID)
		assert.True(t, saved.CreatedAt.Equal(again.CreatedAt))
		assert.False(t, again.UpdatedAt.Before(saved.UpdatedAt))
		assert.Equal(t, replacement, again.Assignment)

		list, err := r.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("empty list", func(t *testing.T) {
		list, err := open(t).List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
