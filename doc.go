/*
Package scitrack provides multi-object tracking for microscopy-style video,
where many small, visually similar particles move across a field of view
too large to process as a single frame.

The field is decomposed into overlapping scenes (package scene), each
tracked independently by a local detector+tracker loop (package track). A
world-level coordinator (package world) fuses the scenes' per-frame outputs
into a single, identity-stable population of tracks by running a weighted
multi-feature matcher (package match) against trackers that recently went
out of scene or died.

# Basic usage

	w := world.New()
	w.SpawnScenes(scenes...) // one *scene.Scene per region

	for {
		frames, grayFrames, ok := nextFrames() // one colour and one gray frame per scene
		if !ok {
			break
		}
		w.Update(frames, grayFrames)
	}
	if w.Tracer != nil {
		w.Tracer.Dump()
	}

See cmd/scitrack for a complete program that builds the scenes and
matchers from a config.Load'ed settings file.

# Identity lifecycle

Every track passes through four world-level lists: new, current,
out-of-scene, and dead. A track earns a label only once it has accumulated
enough samples; matching against the dead and out-of-scene reservoirs lets
a reappearing object inherit its old label rather than starting over. See
package match for the scoring and package world for the per-frame fusion
order.

# Appearance model

Four independent features contribute to the match score: a color/gray
Histogram, a HOG descriptor, a MOSSE correlation filter, and a moving
average Velocity. See package feature.
*/
package scitrack
