package adapter

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestKCFTrackerInitRejectsDegenerateROI(t *testing.T) {
	frame := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	k := NewKCFTracker()
	defer k.Close()

	if err := k.Init(frame, image.Rectangle{}); err == nil {
		t.Fatalf("expected an error initialising KCF on a degenerate roi")
	}
}

func TestKCFTrackerUpdateBeforeInitReportsNotFound(t *testing.T) {
	frame := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	k := NewKCFTracker()
	defer k.Close()

	if _, ok := k.Update(frame); ok {
		t.Fatalf("Update before Init should report not found")
	}
}
