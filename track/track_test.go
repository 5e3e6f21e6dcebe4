package track_test

import (
	"errors"
	"image"
	"testing"

	"gocv.io/x/gocv"

	scitrack "github.com/nanoscitrack/scitrack"
	"github.com/nanoscitrack/scitrack/track"
)

type scriptedAdapter struct {
	results []bool // Update() outcomes, one per call; last entry repeats
	roi     image.Rectangle
	i       int
}

func (a *scriptedAdapter) Init(frame gocv.Mat, roi image.Rectangle) error {
	a.roi = roi
	return nil
}

func (a *scriptedAdapter) Update(frame gocv.Mat) (image.Rectangle, bool) {
	ok := a.results[a.i]
	if a.i < len(a.results)-1 {
		a.i++
	}
	return a.roi, ok
}

func (a *scriptedAdapter) Close() error { return nil }

func frames(t *testing.T, size int, value uint8) (colour, gray gocv.Mat) {
	t.Helper()
	colour = gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC3)
	gray = gocv.NewMatWithSize(size, size, gocv.MatTypeCV8UC1)
	t.Cleanup(func() { colour.Close(); gray.Close() })
	colour.SetTo(gocv.NewScalar(float64(value), float64(value), float64(value), 0))
	gray.SetTo(gocv.NewScalar(float64(value), 0, 0, 0))
	return colour, gray
}

func TestNewTrackRejectsROIOutsideScene(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)
	sceneROI := image.Rect(0, 0, 20, 20) // too small to contain roi

	_, err := track.NewTrack(track.DefaultConfig(), &scriptedAdapter{results: []bool{true}}, colour, gray, roi, sceneROI, scitrack.Point{})
	if !errors.Is(err, scitrack.ErrTrackerInitRejected) {
		t.Fatalf("NewTrack error = %v, want ErrTrackerInitRejected", err)
	}
}

func TestNewTrackAcceptsROIWithinScene(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)
	sceneROI := image.Rect(0, 0, 64, 64)

	tr, err := track.NewTrack(track.DefaultConfig(), &scriptedAdapter{results: []bool{true}}, colour, gray, roi, sceneROI, scitrack.Point{})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	if tr.Samples != 1 {
		t.Fatalf("Samples = %d, want 1 immediately after spawn", tr.Samples)
	}
	defer tr.Close()
}

func TestTrackUpdateIncrementsSamplesOnSuccess(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)

	tr, err := track.NewTrack(track.DefaultConfig(), &scriptedAdapter{results: []bool{true, true, true}}, colour, gray, roi, image.Rectangle{}, scitrack.Point{})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	defer tr.Close()

	if !tr.Update(colour, gray) {
		t.Fatalf("Update should succeed while the adapter reports found")
	}
	if tr.Samples != 2 {
		t.Fatalf("Samples = %d, want 2 after one successful Update", tr.Samples)
	}
}

func TestTrackTimesOutAfterConsecutiveFailures(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)
	cfg := track.DefaultConfig()
	cfg.Timeout = 2

	tr, err := track.NewTrack(cfg, &scriptedAdapter{results: []bool{false}}, colour, gray, roi, image.Rectangle{}, scitrack.Point{})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	defer tr.Close()

	if tr.TimedOut() {
		t.Fatalf("a freshly spawned track must not already be timed out")
	}
	if !tr.Update(colour, gray) {
		t.Fatalf("first failed Update should still be tolerated (timeout budget 2)")
	}
	if tr.TimedOut() {
		t.Fatalf("track should not be timed out after only one failure of budget 2")
	}
	if tr.Update(colour, gray) {
		t.Fatalf("second consecutive failed Update should exhaust the timeout budget")
	}
	if !tr.TimedOut() {
		t.Fatalf("track should be timed out after exhausting its failure budget")
	}
}

func TestTrackTimeoutNeverResetsOnSuccess(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)
	cfg := track.DefaultConfig()
	cfg.Timeout = 3

	// fail, succeed, fail, fail: if success reset the budget to 3, the last
	// two failures alone would leave 1 left over (tolerated). Since the
	// budget only ever counts down, it reaches 0 on the fourth call.
	tr, err := track.NewTrack(cfg, &scriptedAdapter{results: []bool{false, true, false, false}}, colour, gray, roi, image.Rectangle{}, scitrack.Point{})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	defer tr.Close()

	if !tr.Update(colour, gray) {
		t.Fatalf("first failure should still be tolerated under budget 3")
	}
	if !tr.Update(colour, gray) {
		t.Fatalf("successful Update should never itself report timed out")
	}
	if tr.TimedOut() {
		t.Fatalf("track should not be timed out after a single failure, regardless of the intervening success")
	}
	if !tr.Update(colour, gray) {
		t.Fatalf("second failure should still be tolerated if the budget truly never reset")
	}
	if tr.Update(colour, gray) {
		t.Fatalf("third failure should exhaust the budget, proving the earlier success did not reset it")
	}
	if !tr.TimedOut() {
		t.Fatalf("track should be timed out after exhausting its cumulative failure budget")
	}
}

func TestTrackTimeoutDecrementsWhileOutOfScene(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)
	cfg := track.DefaultConfig()
	cfg.Timeout = 2

	tr, err := track.NewTrack(cfg, &scriptedAdapter{results: []bool{true}}, colour, gray, roi, image.Rectangle{}, scitrack.Point{})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	defer tr.Close()
	tr.OutROI = true

	if !tr.Update(colour, gray) {
		t.Fatalf("first out-of-scene update should still be tolerated under budget 2")
	}
	if tr.TimedOut() {
		t.Fatalf("track should not be timed out after only one out-of-scene frame")
	}
	if tr.Update(colour, gray) {
		t.Fatalf("second out-of-scene update, despite the adapter succeeding, should exhaust the budget")
	}
	if !tr.TimedOut() {
		t.Fatalf("track should be timed out once it has spent its whole budget out of scene")
	}
}

func TestTrackUpdateIncrementsSamplesEvenOnFailure(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30)
	cfg := track.DefaultConfig()
	cfg.Timeout = 5

	tr, err := track.NewTrack(cfg, &scriptedAdapter{results: []bool{false}}, colour, gray, roi, image.Rectangle{}, scitrack.Point{})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	defer tr.Close()

	tr.Update(colour, gray)
	if tr.Samples != 2 {
		t.Fatalf("Samples = %d, want 2 — samples must increment even when the short-term tracker reports lost", tr.Samples)
	}
}

func TestGlobalPositionAppliesSceneOffset(t *testing.T) {
	colour, gray := frames(t, 64, 120)
	roi := image.Rect(10, 10, 30, 30) // center (20,20)
	offset := scitrack.Point{X: 100, Y: 200}

	tr, err := track.NewTrack(track.DefaultConfig(), &scriptedAdapter{results: []bool{true}}, colour, gray, roi, image.Rectangle{}, offset)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	defer tr.Close()

	x, y := tr.GlobalPosition()
	if x != 120 || y != 220 {
		t.Fatalf("GlobalPosition = (%v,%v), want (120,220)", x, y)
	}
}
