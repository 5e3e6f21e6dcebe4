package adapter

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ShortTermTracker follows a single bounding box across consecutive frames
// until it reports lost. A Track owns exactly one of these for its whole
// lifetime.
type ShortTermTracker interface {
	Init(frame gocv.Mat, roi image.Rectangle) error
	Update(frame gocv.Mat) (image.Rectangle, bool)
	Close() error
}

// KCFTracker adapts gocv's Kernelized Correlation Filter tracker to the
// ShortTermTracker interface.
type KCFTracker struct {
	t       gocv.Tracker
	started bool
}

// NewKCFTracker constructs an un-started KCF tracker.
func NewKCFTracker() *KCFTracker {
	return &KCFTracker{t: gocv.NewTrackerKCF()}
}

// Init seeds the tracker at roi in frame.
func (k *KCFTracker) Init(frame gocv.Mat, roi image.Rectangle) error {
	if roi.Dx() <= 0 || roi.Dy() <= 0 {
		return fmt.Errorf("adapter: degenerate KCF init roi %v", roi)
	}
	ok := k.t.Init(frame, roi)
	if !ok {
		return fmt.Errorf("adapter: KCF failed to initialise at %v", roi)
	}
	k.started = true
	return nil
}

// Update advances the tracker one frame, reporting the new box and whether
// the target is still considered found.
func (k *KCFTracker) Update(frame gocv.Mat) (image.Rectangle, bool) {
	if !k.started {
		return image.Rectangle{}, false
	}
	rect, ok := k.t.Update(frame)
	return rect, ok
}

// Close releases the underlying OpenCV tracker.
func (k *KCFTracker) Close() error {
	return k.t.Close()
}
