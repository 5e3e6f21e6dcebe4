package adapter

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func TestComputeKClampsToMinimumOnSmallFrames(t *testing.T) {
	if got := computeK(100, 150); got != 3 {
		t.Fatalf("computeK(small frame) = %d, want 3", got)
	}
}

func TestComputeKScalesFromReferenceAndIsOdd(t *testing.T) {
	got := computeK(960, 1280)
	if got%2 == 0 {
		t.Fatalf("computeK must always return an odd kernel size, got %d", got)
	}
	if got < 15 || got > 19 {
		t.Fatalf("computeK(reference size) = %d, want close to the reference k0=17", got)
	}
}

func TestComputePaddingScalesFromReference(t *testing.T) {
	got := computePadding(960, 1280)
	if got < 40 || got > 56 {
		t.Fatalf("computePadding(reference size) = %d, want close to the reference p0=48", got)
	}
}

func TestDetectOnBlankFrameFindsNothing(t *testing.T) {
	gray := gocv.NewMatWithSize(128, 128, gocv.MatTypeCV8UC1)
	defer gray.Close()
	gray.SetTo(gocv.NewScalar(0, 0, 0, 0))

	d := NewOtsuBlobDetector(DefaultOtsuConfig())
	boxes := d.Detect(gray)
	if len(boxes) != 0 {
		t.Fatalf("Detect on a uniformly blank frame found %d boxes, want 0", len(boxes))
	}
}

func TestConnectedComponentBoxesFiltersByExtentAndPads(t *testing.T) {
	binary := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
	defer binary.Close()
	binary.SetTo(gocv.NewScalar(0, 0, 0, 0))
	// A 20x20 bright square, well within [16,64).
	square := binary.Region(image.Rect(20, 20, 40, 40))
	square.SetTo(gocv.NewScalar(255, 0, 0, 0))
	square.Close()

	boxes := connectedComponentBoxes(binary, 16, 64, 4, 64, 64)
	if len(boxes) != 1 {
		t.Fatalf("expected exactly one box, got %d: %v", len(boxes), boxes)
	}
	b := boxes[0]
	if b.Min.X > 16 || b.Min.Y > 16 || b.Max.X < 44 || b.Max.Y < 44 {
		t.Fatalf("expected the padded box to extend past the raw square, got %v", b)
	}
}
