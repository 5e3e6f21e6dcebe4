// Package world fuses the per-scene tracking results into one global set
// of identities: it advances every scene, links newly-seen tracks against
// the dead and out-of-scene pools via the global matcher, and reports the
// resulting current/new/out-of-scene/dead lists each frame. Grounded on
// GlobalTracker/world.py's World.update_trackers.
package world

import (
	"gocv.io/x/gocv"

	"github.com/nanoscitrack/scitrack/match"
	"github.com/nanoscitrack/scitrack/scene"
	"github.com/nanoscitrack/scitrack/track"
	"github.com/nanoscitrack/scitrack/trace"
)

// World owns every scene plus the four lifecycle lists shared across them.
type World struct {
	Scenes []*scene.Scene

	Current    []*track.Track
	New        []*track.Track
	OutOfScene []*track.Track
	Dead       []*track.Track

	LastID     uint64
	FrameCount uint64

	DeadMatcher *match.Matcher
	OutMatcher  *match.Matcher

	Tracer *trace.Tracer
}

// New constructs a World with the global and dead matchers defaulted per
// spec (override DeadMatcher/OutMatcher afterwards to apply config
// weights/thresholds).
func New() *World {
	return &World{
		DeadMatcher: match.NewDeadMatcher(),
		OutMatcher:  match.NewGlobalMatcher(),
	}
}

// SpawnScenes appends the given scenes to the world.
func (w *World) SpawnScenes(scenes ...*scene.Scene) {
	w.Scenes = append(w.Scenes, scenes...)
}

// Update advances every scene with its corresponding frame, then fuses the
// per-scene results: dead trackers are accumulated fresh each call (reset
// at entry, matching update_trackers's `self._dead_trackers = list([])`
// before the scene loop), then current/new/out/dead are run through
// pre-clean, dead-linking, out-of-scene-linking, and post-clean in that
// order.
func (w *World) Update(frames []gocv.Mat, grayFrames []gocv.Mat) {
	w.Dead = nil

	for i, s := range w.Scenes {
		if i >= len(frames) || i >= len(grayFrames) {
			break
		}
		cur, out, nw, dead := s.Update(frames[i], grayFrames[i])
		w.New = append(w.New, nw...)
		w.OutOfScene = append(w.OutOfScene, out...)
		w.Dead = append(w.Dead, dead...)
		_ = cur // a scene's "current" membership is re-derived below by the matchers
	}

	w.FrameCount++

	w.Current, w.New, w.OutOfScene, w.Dead = w.DeadMatcher.PreClean(w.Current, w.New, w.OutOfScene, w.Dead)

	w.Current, w.New, w.Dead = w.DeadMatcher.Match(w.Current, w.New, w.Dead)

	w.Current, w.New, w.OutOfScene = w.OutMatcher.Match(w.Current, w.New, w.OutOfScene)

	w.LastID, w.Current, w.New, w.OutOfScene = w.OutMatcher.PostClean(w.Current, w.New, w.OutOfScene, w.LastID, w.FrameCount)

	if w.Tracer != nil {
		w.Tracer.Push(w.FrameCount, w.Current, w.New, w.OutOfScene, w.Dead)
	}
}

// Close releases every track and scene-owned resource.
func (w *World) Close() {
	for _, s := range w.Scenes {
		for _, t := range s.Trackers() {
			t.Close()
		}
	}
}
