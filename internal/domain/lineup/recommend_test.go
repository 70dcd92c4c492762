package lineup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_GreedyWithRoleOrderTieBreak(t *testing.T) {
	// A scores the same on TOP and MID; TOP comes first in generation order.
	a := player(1,
		rec(RoleTop, ResultWin, 6, 2, 6, 280, 14),
		rec(RoleMid, ResultWin, 6, 2, 6, 280, 14),
	)
	b := player(2, rec(RoleMid, ResultLoss, 2, 4, 3, 200, 8))

	got := Recommend([]Player{a, b}, nil)

	top, ok := got.PlayerFor(RoleTop)
	require.True(t, ok)
	assert.Equal(t, a.ID, top)
	mid, ok := got.PlayerFor(RoleMid)
	require.True(t, ok)
	assert.Equal(t, b.ID, mid)

	assert.Equal(t, StrategyQuick, got.Strategy)
	assert.Equal(t, 2, got.FilledCount())
	assertNoDoubleBooking(t, got)
}

func TestRecommend_NoDataExcluded(t *testing.T) {
	idle := player(9)
	mid := specialist(2, RoleMid)

	got := Recommend([]Player{idle, mid}, nil)

	for _, s := range got.Slots {
		assert.NotEqual(t, idle.ID, s.PlayerID)
		if !s.IsFilled() {
			assert.False(t, s.Score.Present)
			assert.Nil(t, s.Filter)
		}
	}
	assert.Equal(t, 1, got.FilledCount())
}

func TestRecommend_UsesCurrentFilters(t *testing.T) {
	red := player(1, rec(RoleTop, ResultWin, 5, 1, 5, 300, 15, onSide(SideRed)))
	blue := player(2, rec(RoleTop, ResultLoss, 1, 5, 1, 100, 3, onSide(SideBlue)))

	unfiltered := Recommend([]Player{red, blue}, nil)
	top, _ := unfiltered.PlayerFor(RoleTop)
	assert.Equal(t, red.ID, top)
	slot, _ := unfiltered.Slot(RoleTop)
	assert.Equal(t, AllFilter(), *slot.Filter)

	filtered := Recommend([]Player{red, blue}, map[Role]FilterCombination{RoleTop: {Side: SideBlue}})
	top, _ = filtered.PlayerFor(RoleTop)
	assert.Equal(t, blue.ID, top)
	slot, _ = filtered.Slot(RoleTop)
	assert.Equal(t, FilterCombination{Side: SideBlue, LaneAllocation: LaneAll, CompositionStyle: StyleAll}, *slot.Filter)
}

func TestRecommend_DuplicatePlayerIgnored(t *testing.T) {
	a := specialist(1, RoleTop)
	again := player(1, rec(RoleMid, ResultWin, 9, 1, 9, 300, 18))

	got := Recommend([]Player{a, again}, nil)

	assert.Equal(t, 1, got.FilledCount())
	assertNoDoubleBooking(t, got)
}

func TestRecommend_EmptyPlayerIDIgnored(t *testing.T) {
	anonymous := player(1, rec(RoleTop, ResultWin, 9, 1, 9, 300, 18))
	anonymous.ID = ""

	got := Recommend([]Player{anonymous, specialist(2, RoleTop)}, nil)

	top, ok := got.PlayerFor(RoleTop)
	require.True(t, ok)
	assert.Equal(t, pid(2), top)
	assert.Equal(t, 1, got.FilledCount())
}

func TestRecommendPeak(t *testing.T) {
	p := player(1,
		rec(RoleADC, ResultWin, 8, 1, 7, 300, 18, inLane(LaneStrongSide)),
		rec(RoleADC, ResultLoss, 1, 7, 1, 120, 4, inLane(LaneWeakSide)),
	)
	q := specialist(2, RoleSupport)

	got := RecommendPeak([]Player{p, q})

	assert.Equal(t, StrategyPeak, got.Strategy)
	slot, ok := got.Slot(RoleADC)
	require.True(t, ok)
	assert.Equal(t, p.ID, slot.PlayerID)
	assert.Equal(t, LaneStrongSide, slot.Filter.LaneAllocation)
	assert.Equal(t, FindPeak(p, RoleADC).Score, slot.Score)

	sup, _ := got.PlayerFor(RoleSupport)
	assert.Equal(t, q.ID, sup)
	assertNoDoubleBooking(t, got)
}

func TestRecommend_NeverDoubleBooks(t *testing.T) {
	var players []Player
	for n := 1; n <= 7; n++ {
		var matches []MatchParticipation
		for i, role := range canonicalRoles {
			if (n+i)%2 == 0 {
				continue
			}
			matches = append(matches, rec(role, ResultWin, n+i, 2, n, 120+n*20, 4+i))
		}
		players = append(players, player(n, matches...))
	}

	assertNoDoubleBooking(t, Recommend(players, nil))
	assertNoDoubleBooking(t, RecommendPeak(players))
}

func TestRecommend_Idempotent(t *testing.T) {
	players := specialistRoster()
	filters := map[Role]FilterCombination{RoleMid: {CompositionStyle: StyleEngage}}

	first, err := json.Marshal(Recommend(players, filters))
	require.NoError(t, err)
	second, err := json.Marshal(Recommend(players, filters))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	first, err = json.Marshal(RecommendPeak(players))
	require.NoError(t, err)
	second, err = json.Marshal(RecommendPeak(players))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
