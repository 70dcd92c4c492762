package lineup

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScore_SaturatedSubScores(t *testing.T) {
	p := player(1,
		rec(RoleTop, ResultWin, 3, 1, 2, 300, 18),
		rec(RoleTop, ResultWin, 3, 1, 2, 300, 18),
		rec(RoleTop, ResultWin, 3, 1, 2, 300, 18),
	)

	res := ComputeScore(p, RoleTop, AllFilter())

	assert.True(t, res.Score.Present)
	assert.Equal(t, 100, res.Score.Value)
	assert.Equal(t, 3, res.MatchCount)
	assert.Equal(t, 100, res.WinRatePercent)
	assert.True(t, res.IsReliable)
	assert.Equal(t, 5.0, res.KDA)
	assert.Equal(t, 10.0, res.CSPerMinute)
	assert.Equal(t, 0.6, res.VisionPerMinute)
}

func TestComputeScore_PartialSubScores(t *testing.T) {
	// wr 0, kda 2 -> 4, cs 150/300 -> 5, vision 0.3/min -> 5
	p := player(1, rec(RoleTop, ResultLoss, 0, 2, 4, 150, 9))

	res := ComputeScore(p, RoleTop, AllFilter())

	assert.Equal(t, Score(35), res.Score)
	assert.Equal(t, 0, res.WinRatePercent)
	assert.False(t, res.IsReliable)
}

func TestComputeScore_NoData(t *testing.T) {
	p := player(1, rec(RoleMid, ResultWin, 5, 1, 5, 250, 10))

	res := ComputeScore(p, RoleTop, AllFilter())

	assert.False(t, res.Score.Present)
	assert.Equal(t, "-", res.Score.String())
	assert.Equal(t, 0, res.MatchCount)
	assert.Equal(t, 0, res.WinRatePercent)
	assert.False(t, res.IsReliable)
	assert.False(t, res.HasData())
}

func TestComputeScore_ZeroDeathsUsesRawKillsPlusAssists(t *testing.T) {
	p := player(1, rec(RoleADC, ResultLoss, 2, 0, 3, 0, 0))

	res := ComputeScore(p, RoleADC, AllFilter())

	assert.Equal(t, 5.0, res.KDA)
	// only the KDA sub-score contributes
	assert.Equal(t, Score(25), res.Score)
}

func TestComputeScore_DurationDefaults(t *testing.T) {
	base := rec(RoleJungle, ResultWin, 4, 2, 6, 180, 12)

	zero := base
	zero.DurationSeconds = IntPtr(0)
	explicit := base
	explicit.DurationSeconds = IntPtr(DefaultDurationSeconds)

	want := ComputeScore(player(1, base), RoleJungle, AllFilter())
	assert.Equal(t, want, ComputeScore(player(1, zero), RoleJungle, AllFilter()))
	assert.Equal(t, want, ComputeScore(player(1, explicit), RoleJungle, AllFilter()))

	// jungle target is 8/min, so 180 cs in 30 min is 0.75 of target
	assert.Equal(t, 6.0, want.CSPerMinute)
}

func TestComputeScore_NilCountersCountAsZero(t *testing.T) {
	m := MatchParticipation{MatchID: "bare", Role: RoleSupport, Result: ResultWin}

	res := ComputeScore(player(1, m), RoleSupport, AllFilter())

	require.True(t, res.Score.Present)
	// wr 100% -> 10, everything else 0
	assert.Equal(t, 25, res.Score.Value)
}

func TestComputeScore_FilterSelection(t *testing.T) {
	p := player(1,
		rec(RoleMid, ResultWin, 10, 1, 5, 300, 20, onSide(SideBlue), inLane(LaneStrongSide), withStyle(StyleEngage)),
		rec(RoleMid, ResultLoss, 1, 8, 2, 150, 5, onSide(SideRed), inLane(LaneWeakSide), withStyle(StyleSiege)),
		rec(RoleMid, ResultLoss, 1, 8, 2, 150, 5),
	)

	tests := []struct {
		name   string
		filter FilterCombination
		count  int
	}{
		{"zero value is wildcard", FilterCombination{}, 3},
		{"all", AllFilter(), 3},
		{"blue", FilterCombination{Side: SideBlue}, 1},
		{"red weak side", FilterCombination{Side: SideRed, LaneAllocation: LaneWeakSide}, 1},
		{"red strong side", FilterCombination{Side: SideRed, LaneAllocation: LaneStrongSide}, 0},
		{"siege", FilterCombination{CompositionStyle: StyleSiege}, 1},
		{"protect", FilterCombination{CompositionStyle: StyleProtect}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ComputeScore(p, RoleMid, tt.filter)
			assert.Equal(t, tt.count, res.MatchCount)
			assert.Equal(t, tt.count > 0, res.Score.Present)
		})
	}
}

func TestComputeScore_Bounds(t *testing.T) {
	var matches []MatchParticipation
	for i := 0; i < 40; i++ {
		result := ResultLoss
		if i%3 == 0 {
			result = ResultWin
		}
		matches = append(matches, rec(Role(canonicalRoles[i%RoleCount]), result,
			i*3%25, i%7, i*5%31, i*37%900, i*11%90, lasting(600+i*97)))
	}
	p := player(1, matches...)

	for _, role := range canonicalRoles {
		for _, f := range DefaultFilterSpace().Combinations() {
			res := ComputeScore(p, role, f)
			if !res.HasData() {
				continue
			}
			assert.GreaterOrEqual(t, res.Score.Value, 0)
			assert.LessOrEqual(t, res.Score.Value, 100)
		}
	}
}

func TestComputeScore_Reliability(t *testing.T) {
	var matches []MatchParticipation
	for n := 0; n <= 5; n++ {
		res := ComputeScore(player(1, matches...), RoleTop, AllFilter())
		assert.Equal(t, n >= ReliableMatchCount, res.IsReliable, "n=%d", n)
		matches = append(matches, rec(RoleTop, ResultWin, 1, 1, 1, 100, 5))
	}
}

func TestScoreValue_JSON(t *testing.T) {
	data, err := json.Marshal([]ScoreValue{Score(0), NoScore, Score(87)})
	require.NoError(t, err)
	assert.Equal(t, `[0,"-",87]`, string(data))

	var back []ScoreValue
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []ScoreValue{Score(0), NoScore, Score(87)}, back)
}
