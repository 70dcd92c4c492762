package lineup

import (
	"encoding/json"
	"math"
	"strconv"
)

// Scoring normalization constants. A sub-score reaches its cap of 10 at these values.
const (
	winRateCap         = 70.0
	kdaCap             = 5.0
	visionPerMinuteCap = 0.60
	subScoreCap        = 10.0
	subScoreWeight     = 2.5

	// ReliableMatchCount is the sample size from which a score is considered reliable.
	ReliableMatchCount = 3
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORE VALUE
// ══════════════════════════════════════════════════════════════════════════════

// ScoreValue is a 0-100 score or the "no data" state. Zero is a valid score,
// so absence is carried by Present rather than by a magic number.
type ScoreValue struct {
	Present bool
	Value   int
}

// NoScore is the "no data" state.
var NoScore = ScoreValue{}

// Score wraps a present score.
func Score(v int) ScoreValue {
	return ScoreValue{Present: true, Value: v}
}

// String renders the score, or "-" when absent.
func (s ScoreValue) String() string {
	if !s.Present {
		return "-"
	}
	return strconv.Itoa(s.Value)
}

// MarshalJSON encodes a present score as a number and an absent one as "-".
func (s ScoreValue) MarshalJSON() ([]byte, error) {
	if !s.Present {
		return []byte(`"-"`), nil
	}
	return []byte(strconv.Itoa(s.Value)), nil
}

// UnmarshalJSON accepts a number, "-" or null.
func (s *ScoreValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" || string(data) == `"-"` {
		*s = NoScore
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Score(v)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCORE RESULT
// ══════════════════════════════════════════════════════════════════════════════

// ScoreResult is the derived value of a (player, role, filter) query. It is
// recomputed on every call and never stored.
type ScoreResult struct {
	Score           ScoreValue `json:"score"`
	MatchCount      int        `json:"match_count"`
	WinRatePercent  int        `json:"win_rate_percent"`
	IsReliable      bool       `json:"is_reliable"`
	KDA             float64    `json:"kda"`
	CSPerMinute     float64    `json:"cs_per_minute"`
	VisionPerMinute float64    `json:"vision_per_minute"`
}

// HasData reports whether any record matched.
func (r ScoreResult) HasData() bool {
	return r.MatchCount > 0
}

type scoreTotals struct {
	matches  int
	wins     int
	kills    int
	deaths   int
	assists  int
	cs       int
	vision   int
	minutes  float64
	targetCS float64
}

func (t *scoreTotals) add(m MatchParticipation) {
	minutes := m.EffectiveMinutes()
	t.matches++
	if m.IsWin() {
		t.wins++
	}
	t.kills += valueOrZero(m.Kills)
	t.deaths += valueOrZero(m.Deaths)
	t.assists += valueOrZero(m.Assists)
	t.cs += valueOrZero(m.CreepScore)
	t.vision += valueOrZero(m.VisionScore)
	t.minutes += minutes
	t.targetCS += minutes * m.Role.TargetCSPerMinute()
}

// ComputeScore aggregates the player's records for role that satisfy filter
// into a 0-100 value score from four equally weighted sub-scores: win rate,
// KDA, creep score against the role baseline, and vision per minute.
func ComputeScore(player Player, role Role, filter FilterCombination) ScoreResult {
	filter = filter.Normalize()

	var t scoreTotals
	for _, m := range player.Matches {
		if m.Role == role && filter.Matches(m) {
			t.add(m)
		}
	}
	if t.matches == 0 {
		return ScoreResult{Score: NoScore}
	}

	winRate := 100 * float64(t.wins) / float64(t.matches)

	kda := float64(t.kills + t.assists)
	if t.deaths > 0 {
		kda /= float64(t.deaths)
	}

	var visionPerMinute, csPerMinute float64
	if t.minutes > 0 {
		visionPerMinute = float64(t.vision) / t.minutes
		csPerMinute = float64(t.cs) / t.minutes
	}

	wrScore := capped(winRate / winRateCap * subScoreCap)
	kdaScore := capped(kda / kdaCap * subScoreCap)
	var csScore float64
	if t.cs > 0 && t.targetCS > 0 {
		csScore = capped(float64(t.cs) / t.targetCS * subScoreCap)
	}
	visScore := capped(visionPerMinute / visionPerMinuteCap * subScoreCap)

	return ScoreResult{
		Score:           Score(int(math.Round((wrScore + kdaScore + csScore + visScore) * subScoreWeight))),
		MatchCount:      t.matches,
		WinRatePercent:  int(math.Round(winRate)),
		IsReliable:      t.matches >= ReliableMatchCount,
		KDA:             round2(kda),
		CSPerMinute:     round2(csPerMinute),
		VisionPerMinute: round2(visionPerMinute),
	}
}

func capped(v float64) float64 {
	return math.Min(subScoreCap, v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
