package lineup

import "sort"

type candidate struct {
	role   Role
	player int
	score  int
	filter FilterCombination
}

// Recommend scores every (player, role) pair with the role's current filter
// (ALL/ALL/ALL when none is given) and assigns greedily from the highest
// score down. Pairs without data never enter the list, so roles may stay empty.
// Players with an empty ID are ignored.
func Recommend(players []Player, currentFilters map[Role]FilterCombination) LineupAssignment {
	players = uniquePlayers(players)

	var candidates []candidate
	for _, role := range canonicalRoles {
		filter := AllFilter()
		if f, ok := currentFilters[role]; ok {
			filter = f.Normalize()
		}
		for i, p := range players {
			res := ComputeScore(p, role, filter)
			if !res.Score.Present {
				continue
			}
			candidates = append(candidates, candidate{role: role, player: i, score: res.Score.Value, filter: filter})
		}
	}

	return assignGreedy(StrategyQuick, players, candidates)
}

// RecommendPeak runs the same greedy assignment on each pair's peak score,
// recording the peak filter on the slot.
func RecommendPeak(players []Player) LineupAssignment {
	players = uniquePlayers(players)

	var candidates []candidate
	for _, role := range canonicalRoles {
		for i, p := range players {
			peak := FindPeak(p, role)
			if !peak.Found {
				continue
			}
			candidates = append(candidates, candidate{role: role, player: i, score: peak.Score.Value, filter: peak.Filter})
		}
	}

	return assignGreedy(StrategyPeak, players, candidates)
}

// assignGreedy walks candidates by descending score. Ties keep generation
// order (roles outer, players inner).
func assignGreedy(strategy Strategy, players []Player, candidates []candidate) LineupAssignment {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	slots := emptySlots()
	usedPlayer := make([]bool, len(players))
	for _, c := range candidates {
		idx := c.role.Index()
		if usedPlayer[c.player] || slots[idx].IsFilled() {
			continue
		}
		usedPlayer[c.player] = true
		slots[idx].PlayerID = players[c.player].ID
		slots[idx].Filter = filterPtr(c.filter)
		slots[idx].Score = Score(c.score)
	}

	return newAssignment(strategy, slots)
}
