package feature_test

import (
	"image"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"github.com/nanoscitrack/scitrack/feature"
)

func TestHOGCompareSelfIsHigh(t *testing.T) {
	patch := solidPatch(t, 128)
	roi := image.Rect(0, 0, patch.Cols(), patch.Rows())

	h := feature.NewHOG(feature.HOGConfig{})
	if err := h.Initialise(patch, roi); err != nil {
		t.Skipf("HOG descriptor unavailable for this patch size: %v", err)
	}
	if got := h.Compare(h); math.Abs(got-1) > 1e-6 {
		t.Fatalf("Compare(self) = %v, want ~1", got)
	}
}

func TestHOGUpdateSkipsOnDegenerateROI(t *testing.T) {
	patch := solidPatch(t, 128)
	roi := image.Rect(0, 0, patch.Cols(), patch.Rows())

	h := feature.NewHOG(feature.HOGConfig{})
	if err := h.Initialise(patch, roi); err != nil {
		t.Skipf("HOG descriptor unavailable: %v", err)
	}
	before := append([]float64(nil), h.Vector()...)

	if err := h.Update(patch, image.Rectangle{}); err != nil {
		t.Fatalf("Update with degenerate roi returned an error, want silent skip: %v", err)
	}
	after := h.Vector()
	if len(before) != len(after) {
		t.Fatalf("Update on degenerate roi mutated the stored vector")
	}
}

func TestHOGCompareUnreadyIsZero(t *testing.T) {
	var a, b feature.HOG
	if got := a.Compare(&b); got != 0 {
		t.Fatalf("Compare on uninitialised HOG = %v, want 0", got)
	}
}
