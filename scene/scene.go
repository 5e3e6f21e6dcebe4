// Package scene implements one overlapping sub-region of the world: it
// runs the blob detector on a sampled cadence, filters new detections
// against existing trackers, advances every short-term tracker one frame,
// and classifies the result into current/out-of-scene/new/dead lists for
// World to fuse. Grounded on GlobalTracker/scene.py's Scene.update.
package scene

import (
	"image"
	"log"

	"gocv.io/x/gocv"

	scitrack "github.com/nanoscitrack/scitrack"
	"github.com/nanoscitrack/scitrack/adapter"
	"github.com/nanoscitrack/scitrack/track"
)

// Config carries a scene's static geometry and detection cadence.
type Config struct {
	ROI               image.Rectangle // this scene's region, world coordinates
	Overlap           int             // pixels of margin subtracted from ROI for the active region used for out-of-scene classification
	DetectionSampling int             // detector runs every Nth frame, default 3
	OverlapMatch      OverlapConfig
	Track             track.Config
}

// Scene owns the trackers active within one region of the world frame.
type Scene struct {
	cfg      Config
	detector adapter.BlobDetector
	newTracker func() adapter.ShortTermTracker

	detectionROI image.Rectangle // ROI shrunk by Overlap on every side, in scene-local coordinates
	counter      uint64

	trackers []*track.Track

	lastDetections []image.Rectangle
}

// New constructs a Scene. newTracker is called once per spawned track to
// produce a fresh ShortTermTracker instance, a factory pattern that keeps
// each track's adapter independent rather than sharing one mutable
// instance across tracks.
func New(cfg Config, detector adapter.BlobDetector, newTracker func() adapter.ShortTermTracker) *Scene {
	if cfg.DetectionSampling == 0 {
		cfg.DetectionSampling = 3
	}
	s := &Scene{cfg: cfg, detector: detector, newTracker: newTracker}
	s.detectionROI = image.Rect(
		cfg.Overlap, cfg.Overlap,
		cfg.ROI.Dx()-cfg.Overlap, cfg.ROI.Dy()-cfg.Overlap,
	)
	return s
}

// Update advances the scene one frame: detect (on cadence), filter
// overlapping detections, spawn new trackers, advance every tracker, and
// split the result into current/out/new/dead. colourFrame is the scene's
// own cropped region of the world frame, gray its precomputed grayscale
// counterpart.
func (s *Scene) Update(colourFrame, grayFrame gocv.Mat) (current, outOfScene, newTracks, dead []*track.Track) {
	localROI := image.Rect(0, 0, colourFrame.Cols(), colourFrame.Rows())
	offset := scitrack.Point{X: s.cfg.ROI.Min.X, Y: s.cfg.ROI.Min.Y}

	if s.counter%uint64(s.cfg.DetectionSampling) == 0 {
		detections := s.detector.Detect(grayFrame)
		s.lastDetections = detections

		existing := make([]image.Rectangle, 0, len(s.trackers))
		for _, t := range s.trackers {
			existing = append(existing, t.ROI)
		}
		fresh := filterOverlapping(detections, existing, s.cfg.OverlapMatch)

		for _, roi := range fresh {
			clamped := roi.Intersect(localROI)
			if clamped.Empty() {
				continue
			}
			nt, err := track.NewTrack(s.cfg.Track, s.newTracker(), colourFrame, grayFrame, clamped, localROI, offset)
			if err != nil {
				log.Printf("scene: rejected new detection at %v: %v", clamped, err)
				continue
			}
			s.trackers = append(s.trackers, nt)
			newTracks = append(newTracks, nt)
		}
	}

	alive := s.trackers[:0]
	for _, t := range s.trackers {
		if !t.Update(colourFrame, grayFrame) {
			dead = append(dead, t)
			continue
		}
		alive = append(alive, t)

		wasOut := t.OutROI
		t.OutROI = !t.ROI.In(s.detectionROI)
		if t.OutROI {
			if !wasOut {
				outOfScene = append(outOfScene, t) // just left the active region
			}
		} else if wasOut {
			current = append(current, t) // just re-entered the active region
		}
	}
	s.trackers = alive
	s.counter++

	return current, outOfScene, newTracks, dead
}

// LastDetections returns the most recent frame's raw detector output
// (before overlap filtering), for diagnostics and tests.
func (s *Scene) LastDetections() []image.Rectangle { return s.lastDetections }

// Trackers returns every tracker currently owned by the scene, regardless
// of current/out-of-scene classification.
func (s *Scene) Trackers() []*track.Track { return s.trackers }
