// Package track implements the per-object entity a Scene owns: one
// short-term tracker adapter plus the four appearance/motion features,
// together with the identity-lifecycle bookkeeping (timeout countdown,
// sample gate, label) that the global matcher and World consume.
package track

import (
	"image"

	"gocv.io/x/gocv"

	scitrack "github.com/nanoscitrack/scitrack"
	"github.com/nanoscitrack/scitrack/adapter"
	"github.com/nanoscitrack/scitrack/feature"
)

// Config carries the per-track hyperparameters; the zero value is replaced
// field-by-field with DefaultConfig's values, matching the feature
// packages' own NewX(cfg) convention.
type Config struct {
	Timeout          int // short-term tracker update failures tolerated before giving up, default 5
	SampleGate       int // samples required before a NEW track may be promoted/matched, default 3
	Histogram        feature.HistogramConfig
	HOG              feature.HOGConfig
	MOSSE            feature.MOSSEConfig
	Velocity         feature.VelocityConfig
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:    5,
		SampleGate: 3,
		Histogram:  feature.DefaultHistogramConfig(),
		HOG:        feature.DefaultHOGConfig(),
		MOSSE:      feature.DefaultMOSSEConfig(),
		Velocity:   feature.DefaultVelocityConfig(),
	}
}

// Track is one tracked object within a single scene. It owns exactly one
// ShortTermTracker adapter for its whole life: the adapter is never
// swapped, only its timeout budget decays.
type Track struct {
	cfg     Config
	adapter adapter.ShortTermTracker

	ROI       image.Rectangle // current box, scene-local coordinates
	RoiOffset scitrack.Point  // scene's offset into the world frame
	OutROI    bool            // true once ROI has left its scene's active region

	Samples    int // 1 at spawn, plus one per Update call (successful or not)
	SampleGate int // copy of cfg.SampleGate, exposed for the matcher
	timeoutCtr int // remaining update failures tolerated

	DeathTime int // frames spent unmatched in a retired pool (out-of-scene or dead)
	Label     *scitrack.Label

	LastFrame gocv.Mat // most recent grayscale patch frame, for MOSSE.Compare

	Histogram *feature.Histogram
	HOG       *feature.HOG
	MOSSE     *feature.MOSSE
	Velocity  *feature.Velocity
}

// NewTrack initialises a track from an initial detection box within frame.
// It rejects (returns scitrack.ErrTrackerInitRejected) when roi is not
// fully contained in sceneROI (an empty sceneROI skips this check) — the
// caller should log and drop the
// detection rather than surface the error further: reject and continue,
// not abort the whole scene.
func NewTrack(cfg Config, st adapter.ShortTermTracker, colourFrame, grayFrame gocv.Mat, roi image.Rectangle, sceneROI image.Rectangle, offset scitrack.Point) (*Track, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5
	}
	if cfg.SampleGate == 0 {
		cfg.SampleGate = 3
	}
	if !sceneROI.Empty() && !roi.In(sceneROI) {
		return nil, scitrack.ErrTrackerInitRejected
	}

	if err := st.Init(colourFrame, roi); err != nil {
		return nil, err
	}

	t := &Track{
		cfg:        cfg,
		adapter:    st,
		ROI:        roi,
		RoiOffset:  offset,
		Samples:    1,
		SampleGate: cfg.SampleGate,
		timeoutCtr: cfg.Timeout,
	}

	patch := grayFrame.Region(roi)
	defer patch.Close()

	t.Histogram = feature.NewHistogram(cfg.Histogram)
	_ = t.Histogram.Initialise(patch)

	t.HOG = feature.NewHOG(cfg.HOG)
	_ = t.HOG.Initialise(grayFrame, roi)

	t.MOSSE = feature.NewMOSSE(cfg.MOSSE)
	_ = t.MOSSE.Initialise(grayFrame, roi)

	cx, cy := roi.Min.X+roi.Dx()/2, roi.Min.Y+roi.Dy()/2
	t.Velocity = feature.NewVelocity(cfg.Velocity, float64(cx), float64(cy))

	t.LastFrame = gocv.NewMat()
	grayFrame.CopyTo(&t.LastFrame)

	return t, nil
}

// Update advances the short-term tracker one frame. Samples and Velocity
// are updated unconditionally, whether or not the short-term tracker found
// its target this frame; the appearance features (Histogram/HOG/MOSSE) and
// ROI only update on success, since there is no new patch to fold in
// otherwise. timeoutCtr decrements cumulatively on tracker failure or while
// OutROI, and is never reset on success — it only ever counts down,
// matching the cumulative failure budget of the short-term tracker it
// wraps.
func (t *Track) Update(colourFrame, grayFrame gocv.Mat) bool {
	roi, ok := t.adapter.Update(colourFrame)
	if ok {
		t.ROI = roi
		if roi.Dx() > 0 && roi.Dy() > 0 {
			patch := grayFrame.Region(roi)
			_ = t.Histogram.Update(patch)
			patch.Close()
			_ = t.HOG.Update(grayFrame, roi)
			t.MOSSE.Update(grayFrame, roi)
		}
	}

	t.Samples++
	cx, cy := t.ROI.Min.X+t.ROI.Dx()/2, t.ROI.Min.Y+t.ROI.Dy()/2
	t.Velocity.Update(float64(cx), float64(cy))

	if !ok || t.OutROI {
		t.timeoutCtr--
	}

	t.LastFrame.Close()
	t.LastFrame = gocv.NewMat()
	grayFrame.CopyTo(&t.LastFrame)

	return t.timeoutCtr > 0
}

// TimedOut reports whether the short-term tracker has exhausted its
// failure budget.
func (t *Track) TimedOut() bool { return t.timeoutCtr <= 0 }

// GlobalPosition returns the track's center in world coordinates (scene
// ROI offset applied), matching _compare_position's lhs.position +
// lhs.roi_offset composition.
func (t *Track) GlobalPosition() (x, y float64) {
	cx, cy := t.Velocity.Position()
	return cx + float64(t.RoiOffset.X), cy + float64(t.RoiOffset.Y)
}

// Close releases the OpenCV resources owned by the track.
func (t *Track) Close() {
	if t.adapter != nil {
		_ = t.adapter.Close()
	}
	if t.MOSSE != nil {
		t.MOSSE.Close()
	}
	if t.LastFrame.Ptr() != nil {
		t.LastFrame.Close()
	}
}
