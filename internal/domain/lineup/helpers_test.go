package lineup

import (
	"fmt"

	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
)

func pid(n int) shared.PlayerID {
	return shared.PlayerID(fmt.Sprintf("00000000-0000-4000-8000-%012d", n))
}

type recOpt func(*MatchParticipation)

func onSide(s Side) recOpt { return func(m *MatchParticipation) { m.Side = s } }

func inLane(l LaneAllocation) recOpt { return func(m *MatchParticipation) { m.LaneAllocation = l } }

func withStyle(s CompositionStyle) recOpt {
	return func(m *MatchParticipation) { m.CompositionStyle = s }
}

func lasting(seconds int) recOpt {
	return func(m *MatchParticipation) { m.DurationSeconds = IntPtr(seconds) }
}

var recSeq int

// rec builds a 30 minute record unless lasting is given.
func rec(role Role, result MatchResult, k, d, a, cs, vis int, opts ...recOpt) MatchParticipation {
	recSeq++
	m := MatchParticipation{
		MatchID:     fmt.Sprintf("m-%d", recSeq),
		Role:        role,
		Kills:       IntPtr(k),
		Deaths:      IntPtr(d),
		Assists:     IntPtr(a),
		CreepScore:  IntPtr(cs),
		VisionScore: IntPtr(vis),
		Result:      result,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func player(n int, matches ...MatchParticipation) Player {
	id := pid(n)
	for i := range matches {
		matches[i].PlayerID = id
	}
	return Player{ID: id, DisplayName: fmt.Sprintf("player-%d", n), Matches: matches}
}

// specialist has two solid records in role, one ENGAGE and one PICKUP.
func specialist(n int, role Role) Player {
	return player(n,
		rec(role, ResultWin, 5, 2, 5, 250, 15, withStyle(StyleEngage)),
		rec(role, ResultLoss, 2, 3, 4, 200, 12, withStyle(StylePickup)),
	)
}
