// Package match implements the global matcher that links new detections
// to out-of-scene or dead trackers across the whole world, plus a greedy
// argmax assignment loop. It intentionally does not perform an optimal
// (Hungarian) assignment by default: matching is greedy, one new candidate
// at a time, against whatever remains of the pool it is given (out-of-scene
// or dead). See
// HungarianAssign for an explicit opt-in alternative.
package match

import (
	"math"
	"sort"

	scitrack "github.com/nanoscitrack/scitrack"
	"github.com/nanoscitrack/scitrack/track"
)

func hypot(x, y float64) float64 { return math.Hypot(x, y) }

func newLabel(id, spawnTime uint64) *scitrack.Label {
	return &scitrack.Label{ID: id, SpawnTime: spawnTime}
}

// Weights holds one weighted-sum term per comparable feature. It is a
// plain struct rather than a string-keyed registry: the feature set is
// fixed and known at compile time, so a typed struct catches a misspelled
// field at build time instead of silently contributing zero.
type Weights struct {
	Position  float64
	Velocity  float64
	Angle     float64
	HOG       float64
	Histogram float64
	MOSSE     float64
}

// DefaultGlobalWeights are the out-of-scene linking defaults from
// Matcher/matcher.py's constructor.
func DefaultGlobalWeights() Weights {
	return Weights{Position: -0.3, Velocity: -0.2, Angle: 0.2, Histogram: 0.4}
}

// DefaultDeadWeights are the dead-tracker linking defaults; they weight
// the position and velocity penalties more heavily than the out-of-scene
// defaults. The dead matcher (NewDeadMatcher) pairs them with a lower
// threshold (0.35 vs 0.45) and a longer MaxDeathTime (120 vs 100).
func DefaultDeadWeights() Weights {
	return Weights{Position: -0.4, Velocity: -0.3, Angle: 0.2, Histogram: 0.4}
}

// Matcher scores a candidate new track against a pool of retired
// (out-of-scene or dead) tracks and greedily links each candidate to its
// best-scoring remaining pooled track.
type Matcher struct {
	Weights      Weights
	Threshold    float64
	MaxDeathTime int

	// WorldDiagonal normalises the position term; configuration-driven
	// rather than a hardcoded literal. It defaults to the reference
	// 1200x1400 diagonal used throughout Matcher/matcher.py.
	WorldDiagonal float64
}

// NewGlobalMatcher returns the out-of-scene matcher with spec defaults:
// threshold 0.45, max_death_time 100.
func NewGlobalMatcher() *Matcher {
	return &Matcher{Weights: DefaultGlobalWeights(), Threshold: 0.45, MaxDeathTime: 100, WorldDiagonal: diag(1200, 1400)}
}

// NewDeadMatcher returns the dead-tracker matcher with spec defaults:
// threshold 0.35, max_death_time 120.
func NewDeadMatcher() *Matcher {
	return &Matcher{Weights: DefaultDeadWeights(), Threshold: 0.35, MaxDeathTime: 120, WorldDiagonal: diag(1200, 1400)}
}

func diag(w, h float64) float64 {
	return hypot(w, h)
}

// Score computes the weighted-sum similarity of candidate against pooled,
// following Matcher/matcher.py's match loop term by term. Each comparable
// that is disabled (zero weight) contributes zero, matching the Python
// original's ce_* gating.
func (m *Matcher) Score(candidate, pooled *track.Track) float64 {
	var score float64

	if m.Weights.Position != 0 {
		score += m.Weights.Position * comparePosition(candidate, pooled, m.WorldDiagonal)
	}
	if m.Weights.Velocity != 0 || m.Weights.Angle != 0 {
		speed, direction := compareVelocity(candidate, pooled, m.Weights.Velocity != 0, m.Weights.Angle != 0)
		score += m.Weights.Velocity * speed
		score += m.Weights.Angle * direction
	}
	if m.Weights.HOG != 0 {
		score += m.Weights.HOG * pooled.HOG.Compare(candidate.HOG)
	}
	if m.Weights.Histogram != 0 {
		score += m.Weights.Histogram * pooled.Histogram.Compare(candidate.Histogram)
	}
	if m.Weights.MOSSE != 0 {
		score += m.Weights.MOSSE * pooled.MOSSE.Compare(candidate.MOSSE, pooled.LastFrame, candidate.LastFrame)
	}
	return score
}

func comparePosition(a, b *track.Track, worldDiagonal float64) float64 {
	ax, ay := a.GlobalPosition()
	bx, by := b.GlobalPosition()
	if worldDiagonal == 0 {
		worldDiagonal = 1
	}
	dx := ax/worldDiagonal - bx/worldDiagonal
	dy := ay/worldDiagonal - by/worldDiagonal
	return hypot(dx, dy)
}

func compareVelocity(a, b *track.Track, enableSpeed, enableDirection bool) (speed, direction float64) {
	if a.Velocity == nil || b.Velocity == nil {
		return 0, 0
	}
	comp := b.Velocity.Compare(a.Velocity, false, enableSpeed, enableDirection)
	return comp[1], comp[2]
}

// Match greedily links each new candidate against the retired pool: for
// every candidate (in order), it scores against every remaining pooled
// track, accepts the best-scoring pooled track if its score clears
// Threshold, relabels the candidate with the pooled track's Label, and
// removes both from further consideration this call. This is deliberately
// not a global optimal assignment: a candidate earlier in new never
// yields its best match back to a candidate later in new, even if the
// later one would have scored higher.
func (m *Matcher) Match(current, newTracks, pool []*track.Track) (curOut, newOut, poolOut []*track.Track) {
	curOut = append([]*track.Track(nil), current...)
	remainingNew := append([]*track.Track(nil), newTracks...)
	remainingPool := dedupTracks(pool)

	for _, cand := range newTracks {
		if len(remainingPool) == 0 {
			break
		}
		if cand.Samples < cand.SampleGate {
			continue
		}

		bestIdx := -1
		bestScore := 0.0
		for i, p := range remainingPool {
			s := m.Score(cand, p)
			if bestIdx == -1 || s > bestScore {
				bestIdx, bestScore = i, s
			}
		}
		if bestIdx == -1 || bestScore < m.Threshold {
			continue
		}

		matched := remainingPool[bestIdx]
		if matched.Label != nil {
			cand.Label = matched.Label
			curOut = append(curOut, cand)
			remainingNew = removeTrack(remainingNew, cand)
		}
		remainingPool = append(remainingPool[:bestIdx], remainingPool[bestIdx+1:]...)
	}

	return curOut, remainingNew, remainingPool
}

// dedupTracks returns list with repeated pointers removed, preserving the
// first occurrence's order — a track re-appended to the accumulating pool
// across frames must not be matchable twice in the same call.
func dedupTracks(list []*track.Track) []*track.Track {
	seen := make(map[*track.Track]bool, len(list))
	out := make([]*track.Track, 0, len(list))
	for _, t := range list {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func removeTrack(list []*track.Track, t *track.Track) []*track.Track {
	out := list[:0]
	for _, x := range list {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}

// PreClean removes any track present in both the current and out-of-scene
// (or dead) lists from current — a scene reports a just-departed track as
// out-of-scene before World has had a chance to drop it from current,
// matching clean()'s leading `cur_v.remove(tracker)` loop over out_v.
func (m *Matcher) PreClean(current, newTracks, outOfScene, dead []*track.Track) (curOut, newOut, outOut, deadOut []*track.Track) {
	curOut = removeAll(current, outOfScene)
	curOut = removeAll(curOut, dead)
	return curOut, newTracks, outOfScene, dead
}

func removeAll(from, remove []*track.Track) []*track.Track {
	if len(remove) == 0 {
		return from
	}
	set := make(map[*track.Track]bool, len(remove))
	for _, t := range remove {
		set[t] = true
	}
	out := make([]*track.Track, 0, len(from))
	for _, t := range from {
		if !set[t] {
			out = append(out, t)
		}
	}
	return out
}

// PostClean advances death-time bookkeeping for every still-unmatched
// retired track (dropping any that reach MaxDeathTime), drops any still-new
// track whose short-term tracker already timed out, promotes every
// remaining new track that has accumulated enough samples (labeling it for
// the first time if needed) into current, and returns the next LastID.
func (m *Matcher) PostClean(current, newTracks, pool []*track.Track, lastID uint64, frameCount uint64) (nextID uint64, curOut, newOut, poolOut []*track.Track) {
	poolOut = poolOut[:0]
	for _, p := range pool {
		p.DeathTime++
		if p.DeathTime < m.MaxDeathTime {
			poolOut = append(poolOut, p)
		}
	}

	curOut = append([]*track.Track(nil), current...)
	for i := len(curOut) - 1; i >= 0; i-- {
		if curOut[i].TimedOut() {
			curOut = append(curOut[:i], curOut[i+1:]...)
		}
	}

	var deferred []*track.Track
	for _, n := range newTracks {
		if n.TimedOut() {
			continue
		}
		if n.Samples < n.SampleGate {
			deferred = append(deferred, n)
			continue
		}
		if n.Label == nil {
			lastID++
			n.Label = newLabel(lastID, frameCount)
		}
		if !containsTrack(curOut, n) {
			curOut = append(curOut, n)
		}
	}

	sort.SliceStable(poolOut, func(i, j int) bool { return poolOut[i].DeathTime < poolOut[j].DeathTime })
	return lastID, curOut, deferred, poolOut
}

func containsTrack(list []*track.Track, t *track.Track) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}
