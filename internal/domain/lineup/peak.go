package lineup

// Peak is the best score a (player, role) reaches over a filter space.
type Peak struct {
	Found  bool              `json:"found"`
	Score  ScoreValue        `json:"score"`
	Filter FilterCombination `json:"filter"`
	Result ScoreResult       `json:"result"`
}

// FindPeak searches the default filter space.
func FindPeak(player Player, role Role) Peak {
	return FindPeakIn(DefaultFilterSpace(), player, role)
}

// FindPeakIn returns the combination of space with the highest score among
// those with at least one matching record. Ties keep the first combination
// in enumeration order. Found is false when nothing matches.
func FindPeakIn(space FilterSpace, player Player, role Role) Peak {
	var best Peak
	for _, filter := range space.Combinations() {
		res := ComputeScore(player, role, filter)
		if !res.HasData() {
			continue
		}
		if !best.Found || res.Score.Value > best.Score.Value {
			best = Peak{Found: true, Score: res.Score, Filter: filter, Result: res}
		}
	}
	return best
}
