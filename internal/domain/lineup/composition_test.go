package lineup

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

func specialistRoster() []Player {
	players := make([]Player, 0, RoleCount)
	for i, role := range canonicalRoles {
		players = append(players, specialist(i+1, role))
	}
	return players
}

func flexCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(CatalogDefinition{Families: []FamilyDefinition{
		{Name: "OPEN", Variants: [][]string{{"FLEX", "FLEX", "FLEX", "FLEX", "FLEX"}}},
	}})
	require.NoError(t, err)
	return c
}

func assertNoDoubleBooking(t *testing.T, a LineupAssignment) {
	t.Helper()
	seen := make(map[shared.PlayerID]bool)
	for _, s := range a.Slots {
		if !s.IsFilled() {
			continue
		}
		assert.False(t, seen[s.PlayerID], "player %s booked twice", s.PlayerID)
		seen[s.PlayerID] = true
	}
	assert.NoError(t, a.Validate())
}

func TestBuildComposition_SpecialistsFillOwnRoles(t *testing.T) {
	players := specialistRoster()

	a, err := BuildComposition(context.Background(), DefaultCatalog(), "ENGAGE", players)
	require.NoError(t, err)

	assert.Equal(t, StrategyComposition, a.Strategy)
	assert.Equal(t, "ENGAGE", a.Family)
	assert.True(t, a.IsComplete())
	assertNoDoubleBooking(t, a)

	for i, role := range canonicalRoles {
		id, ok := a.PlayerFor(role)
		require.True(t, ok)
		assert.Equal(t, players[i].ID, id)

		slot, _ := a.Slot(role)
		require.NotNil(t, slot.Filter)
		assert.NotEmpty(t, slot.Label)
		assert.True(t, slot.Score.Present)
	}

	total := 0
	for _, s := range a.Slots {
		total += s.Score.Value
	}
	assert.Equal(t, total, a.TotalScore)
}

func TestBuildComposition_LabelRestrictsStyles(t *testing.T) {
	players := specialistRoster()

	a, err := BuildComposition(context.Background(), DefaultCatalog(), "ENGAGE", players)
	require.NoError(t, err)

	for _, s := range a.Slots {
		switch s.Label {
		case LabelEngage:
			assert.Equal(t, StyleEngage, s.Filter.CompositionStyle)
		case LabelPick:
			assert.Equal(t, StylePickup, s.Filter.CompositionStyle)
		case LabelFlex:
			assert.Equal(t, StyleAll, s.Filter.CompositionStyle)
		}
	}
}

func TestBuildComposition_FirstPlayerWinsTies(t *testing.T) {
	twin := func(n int, extra ...MatchParticipation) Player {
		return player(n, append([]MatchParticipation{rec(RoleADC, ResultWin, 6, 2, 4, 280, 10)}, extra...)...)
	}
	players := []Player{
		twin(1),
		twin(2, rec(RoleMid, ResultWin, 4, 2, 4, 250, 10)),
		specialist(3, RoleTop),
		specialist(4, RoleJungle),
		specialist(5, RoleSupport),
	}

	a, err := BuildComposition(context.Background(), flexCatalog(t), "OPEN", players)
	require.NoError(t, err)

	adc, _ := a.PlayerFor(RoleADC)
	mid, _ := a.PlayerFor(RoleMid)
	assert.Equal(t, pid(1), adc)
	assert.Equal(t, pid(2), mid)
	assert.True(t, a.IsComplete())
}

func TestBuildComposition_NoValidComposition(t *testing.T) {
	t.Run("fewer than five players", func(t *testing.T) {
		players := specialistRoster()[:4]

		_, err := BuildComposition(context.Background(), DefaultCatalog(), "ENGAGE", players)
		assert.ErrorIs(t, err, ErrNoValidComposition)
		assert.True(t, shared.IsNoValidAssignment(err))
	})

	t.Run("styles never played", func(t *testing.T) {
		var players []Player
		for i, role := range canonicalRoles {
			players = append(players, player(i+1, rec(role, ResultWin, 5, 1, 5, 250, 12, withStyle(StyleSiege))))
		}

		_, err := BuildComposition(context.Background(), DefaultCatalog(), "ENGAGE", players)
		assert.ErrorIs(t, err, ErrNoValidComposition)
	})

	t.Run("role without data", func(t *testing.T) {
		players := specialistRoster()
		players[4] = specialist(5, RoleTop)

		_, err := BuildComposition(context.Background(), flexCatalog(t), "OPEN", players)
		assert.ErrorIs(t, err, ErrNoValidComposition)
	})
}

func TestBuildComposition_UnknownFamily(t *testing.T) {
	_, err := BuildComposition(context.Background(), DefaultCatalog(), "POKE", specialistRoster())

	assert.ErrorIs(t, err, ErrUnknownFamily)
	assert.True(t, shared.IsConfiguration(err))
}

func TestBuildComposition_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildComposition(ctx, DefaultCatalog(), "SPLIT", specialistRoster())

	assert.ErrorIs(t, err, ErrSearchCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildComposition_AllFamiliesNeverDoubleBook(t *testing.T) {
	// each player is decent everywhere, so every permutation is contested
	var players []Player
	for n := 1; n <= 6; n++ {
		var matches []MatchParticipation
		for i, role := range canonicalRoles {
			for j, style := range Styles() {
				result := ResultLoss
				if (n+i+j)%3 == 0 {
					result = ResultWin
				}
				matches = append(matches, rec(role, result, n+j, 1+i%3, 2+n%4, 150+n*10+j*7, 5+n+i, withStyle(style)))
			}
		}
		players = append(players, player(n, matches...))
	}

	catalog := DefaultCatalog()
	for _, family := range catalog.Families() {
		a, err := BuildComposition(context.Background(), catalog, family, players)
		require.NoError(t, err, family)
		assert.True(t, a.IsComplete(), family)
		assertNoDoubleBooking(t, a)
		for _, s := range a.Slots {
			assert.GreaterOrEqual(t, s.Score.Value, 0)
			assert.LessOrEqual(t, s.Score.Value, 100)
		}
	}
}

// mirrored has identical records under ENGAGE and PICKUP, so both labels
// score the same for it.
func mirrored(n int, role Role) Player {
	return player(n,
		rec(role, ResultWin, 5, 2, 5, 250, 15, withStyle(StyleEngage)),
		rec(role, ResultWin, 5, 2, 5, 250, 15, withStyle(StylePickup)),
	)
}

func tiedCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(CatalogDefinition{Families: []FamilyDefinition{
		{Name: "DIVE", Variants: [][]string{{"ENGAGE", "PICK", "PICK", "PICK", "PICK"}}},
	}})
	require.NoError(t, err)
	return c
}

func mirroredRoster() []Player {
	players := make([]Player, 0, RoleCount)
	for i, role := range canonicalRoles {
		players = append(players, mirrored(i+1, role))
	}
	return players
}

func TestBuildComposition_Idempotent(t *testing.T) {
	cases := []struct {
		name    string
		catalog *Catalog
		family  string
		players []Player
	}{
		{"specialists", DefaultCatalog(), "ENGAGE", specialistRoster()},
		{"tied permutations", tiedCatalog(t), "DIVE", mirroredRoster()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first, err := BuildComposition(context.Background(), tc.catalog, tc.family, tc.players)
			require.NoError(t, err)
			second, err := BuildComposition(context.Background(), tc.catalog, tc.family, tc.players)
			require.NoError(t, err)

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestBuildComposition_FirstPermutationWinsTies(t *testing.T) {
	catalog := tiedCatalog(t)
	templates, err := catalog.Templates("DIVE")
	require.NoError(t, err)
	perms := labelPermutations(templates[0])
	require.Len(t, perms, RoleCount)

	a, err := BuildComposition(context.Background(), catalog, "DIVE", mirroredRoster())
	require.NoError(t, err)

	// every permutation totals the same, so the first enumerated one is kept
	for i, s := range a.Slots {
		assert.Equal(t, perms[0][i], s.Label, s.Role)
	}
	top, _ := a.Slot(RoleTop)
	assert.Equal(t, LabelEngage, top.Label)
	assert.Equal(t, StyleEngage, top.Filter.CompositionStyle)
}

func TestBuildComposition_FillsADCBeforeTop(t *testing.T) {
	star := player(1,
		rec(RoleADC, ResultWin, 8, 1, 8, 300, 20),
		rec(RoleTop, ResultWin, 8, 1, 8, 300, 20),
	)
	backupADC := player(2, rec(RoleADC, ResultWin, 4, 3, 4, 220, 10))
	backupTop := player(3, rec(RoleTop, ResultLoss, 0, 6, 1, 100, 3))
	players := []Player{
		star, backupADC, backupTop,
		specialist(4, RoleMid), specialist(5, RoleJungle), specialist(6, RoleSupport),
	}

	a, err := BuildComposition(context.Background(), flexCatalog(t), "OPEN", players)
	require.NoError(t, err)

	adc, _ := a.PlayerFor(RoleADC)
	top, _ := a.PlayerFor(RoleTop)
	assert.Equal(t, star.ID, adc)
	assert.Equal(t, backupTop.ID, top)

	// taking TOP first would have scored higher; the fill order is not a search
	space := DefaultFilterSpace().Restrict(nil)
	score := func(p Player, r Role) int { return FindPeakIn(space, p, r).Score.Value }
	adcFirst := score(star, RoleADC) + score(backupTop, RoleTop)
	topFirst := score(star, RoleTop) + score(backupADC, RoleADC)
	assert.Less(t, adcFirst, topFirst)

	adcSlot, _ := a.Slot(RoleADC)
	topSlot, _ := a.Slot(RoleTop)
	assert.Equal(t, adcFirst, adcSlot.Score.Value+topSlot.Score.Value)
}

func TestBuildComposition_EmptyPlayerIDIgnored(t *testing.T) {
	anonymous := player(9, rec(RoleADC, ResultWin, 9, 1, 9, 320, 20))
	anonymous.ID = ""
	players := append([]Player{anonymous}, specialistRoster()...)

	a, err := BuildComposition(context.Background(), flexCatalog(t), "OPEN", players)
	require.NoError(t, err)

	assert.True(t, a.IsComplete())
	adc, _ := a.PlayerFor(RoleADC)
	assert.Equal(t, pid(4), adc)
	assertNoDoubleBooking(t, a)
}
