package lineup

// DistinctPermutations returns every distinct ordering of items exactly once.
// Items are ranked by first appearance and the result is in lexicographic
// order of those ranks, so [A A B] yields AAB, ABA, BAA. The count is
// n! divided by the factorial of each multiplicity.
func DistinctPermutations[T comparable](items []T) [][]T {
	var (
		values []T
		counts []int
	)
	rank := make(map[T]int, len(items))
	for _, it := range items {
		r, ok := rank[it]
		if !ok {
			r = len(values)
			rank[it] = r
			values = append(values, it)
			counts = append(counts, 0)
		}
		counts[r]++
	}

	var out [][]T
	current := make([]T, 0, len(items))

	var walk func()
	walk = func() {
		if len(current) == len(items) {
			out = append(out, append([]T(nil), current...))
			return
		}
		for r := range values {
			if counts[r] == 0 {
				continue
			}
			counts[r]--
			current = append(current, values[r])
			walk()
			current = current[:len(current)-1]
			counts[r]++
		}
	}
	walk()

	return out
}

// labelPermutations aligns each distinct permutation of t's labels with the canonical roles.
func labelPermutations(t RoleArchetypeTemplate) [][RoleCount]ArchetypeLabel {
	perms := DistinctPermutations(t.Labels[:])
	out := make([][RoleCount]ArchetypeLabel, len(perms))
	for i, p := range perms {
		copy(out[i][:], p)
	}
	return out
}
