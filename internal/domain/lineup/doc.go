// Package lineup is the player-to-role scoring and lineup assignment engine.
//
// Match records are aggregated into a 0-100 value score per (player, role,
// filter) by ComputeScore. FindPeak searches the filter space for the best
// combination. Three operations turn a roster into a LineupAssignment:
//
//   - Recommend: greedy assignment on scores under the current per-role filters.
//   - RecommendPeak: the same greedy assignment on peak scores.
//   - BuildComposition: permutation search over archetype templates with a
//     greedy fill per permutation.
//
// Every operation is a pure, synchronous function of its inputs. The package
// performs no I/O; storage contracts live in repository.go and are
// implemented under internal/infrastructure.
package lineup
