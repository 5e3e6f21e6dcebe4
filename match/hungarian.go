package match

import (
	"gonum.org/v1/gonum/mat"

	"github.com/nanoscitrack/scitrack/internal/scipy"
	"github.com/nanoscitrack/scitrack/track"
)

// HungarianAssign is an explicit, opt-in alternative to Match's greedy
// strategy: it finds the globally optimal (maximum total score) pairing of
// newTracks against pool using the Hungarian algorithm, rejecting pairs
// below Threshold. World never calls this by default; the default linking
// path stays greedy, one new candidate at a time. HungarianAssign exists
// for callers that have decided the greedy default isn't suitable for
// their data and want to opt into optimal assignment explicitly. It is
// built directly on the scipy.linear_sum_assignment port
// (internal/scipy/optimize.go) rather than re-deriving a second Hungarian
// wrapper.
func (m *Matcher) HungarianAssign(newTracks, pool []*track.Track) (matched map[*track.Track]*track.Track, unmatchedNew, unmatchedPool []*track.Track) {
	matched = make(map[*track.Track]*track.Track)
	if len(newTracks) == 0 || len(pool) == 0 {
		return matched, newTracks, pool
	}

	// Built as a *mat.Dense first, carrying the score/distance matrix as a
	// gonum matrix rather than raw [][]float64. scipy.LinearSumAssignment
	// works in cost space (lower is better, capped at maxCost), so every
	// entry is negated before the call and the threshold becomes its own
	// negation.
	costMat := mat.NewDense(len(newTracks), len(pool), nil)
	for i := range newTracks {
		for j := range pool {
			costMat.Set(i, j, -m.Score(newTracks[i], pool[j]))
		}
	}

	cost := make([][]float64, len(newTracks))
	for i := range cost {
		cost[i] = append([]float64(nil), costMat.RawRowView(i)...)
	}

	assignments, unmatchedRows, unmatchedCols := scipy.LinearSumAssignment(cost, -m.Threshold)

	for _, a := range assignments {
		matched[newTracks[a.RowIdx]] = pool[a.ColIdx]
	}
	for _, i := range unmatchedRows {
		unmatchedNew = append(unmatchedNew, newTracks[i])
	}
	for _, j := range unmatchedCols {
		unmatchedPool = append(unmatchedPool, pool[j])
	}
	return matched, unmatchedNew, unmatchedPool
}
