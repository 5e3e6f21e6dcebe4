// Package adapter wraps the external collaborators a scene's tracking loop
// depends on: a blob detector that proposes new bounding boxes from a
// grayscale frame, and a short-term single-object tracker that follows one
// box across frames. Both are interfaces so a scene can be driven by fakes
// in tests.
package adapter

import (
	"image"

	"gocv.io/x/gocv"
)

// BlobDetector proposes candidate object bounding boxes from a single
// grayscale frame.
type BlobDetector interface {
	Detect(gray gocv.Mat) []image.Rectangle
}

// OtsuConfig carries compute_k/compute_padding's reference geometry
// (NanoSciTracker's detector.py): at the standard 1280x960 playground this
// works out to a ~17px morphology kernel and ~48px padding; other frame
// sizes are scaled proportionally.
type OtsuConfig struct {
	Batches int // Otsu tiling factor (batches x batches windows), default 2
	MinSize int // minimum accepted blob extent in pixels, default 16
	MaxSize int // maximum accepted blob extent in pixels, default 64

	// DetectWithinROI additionally re-runs detection inside each
	// top-level blob's own bounding box, offsetting the results back into
	// frame coordinates. Off by default; helps dense scenes where a single
	// Otsu pass under-segments touching objects.
	DetectWithinROI bool
}

// DefaultOtsuConfig returns the documented defaults.
func DefaultOtsuConfig() OtsuConfig {
	return OtsuConfig{Batches: 2, MinSize: 16, MaxSize: 64}
}

// OtsuBlobDetector detects bright blobs against a dark background by tiled
// Otsu thresholding followed by a dilate+open pass and connected-component
// extraction, grounded on detector.py's detect/binarise_otsu/locate_maxima.
type OtsuBlobDetector struct {
	cfg OtsuConfig
}

// NewOtsuBlobDetector constructs a detector with cfg defaults filled in.
func NewOtsuBlobDetector(cfg OtsuConfig) *OtsuBlobDetector {
	if cfg.Batches == 0 {
		cfg.Batches = 2
	}
	if cfg.MinSize == 0 {
		cfg.MinSize = 16
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 64
	}
	return &OtsuBlobDetector{cfg: cfg}
}

// Detect runs the full tiled-Otsu + morphology + connected-components
// pipeline over gray and returns padded bounding boxes in gray's own
// coordinate frame.
func (d *OtsuBlobDetector) Detect(gray gocv.Mat) []image.Rectangle {
	boxes := d.detect(gray, d.cfg.Batches)
	if !d.cfg.DetectWithinROI {
		return boxes
	}

	var sub []image.Rectangle
	for _, b := range boxes {
		if b.Dx() <= 0 || b.Dy() <= 0 {
			continue
		}
		roi := gray.Region(b)
		inner := d.detect(roi, 1)
		roi.Close()
		for _, ib := range inner {
			sub = append(sub, ib.Add(b.Min))
		}
	}
	return append(boxes, sub...)
}

func (d *OtsuBlobDetector) detect(gray gocv.Mat, batches int) []image.Rectangle {
	otsu := binariseOtsuTiled(gray, batches)
	defer otsu.Close()

	k := computeK(gray.Rows(), gray.Cols())
	maxima := locateMaxima(otsu, k)
	defer maxima.Close()

	padding := computePadding(gray.Rows(), gray.Cols())
	return connectedComponentBoxes(maxima, d.cfg.MinSize, d.cfg.MaxSize, padding, gray.Cols(), gray.Rows())
}

// binariseOtsuTiled thresholds gray in a batches x batches grid of tiles,
// each with its own Otsu threshold, matching binarise_otsu's per-tile loop.
func binariseOtsuTiled(gray gocv.Mat, batches int) gocv.Mat {
	out := gocv.NewMat()
	gray.CopyTo(&out)
	if batches <= 1 {
		gocv.Threshold(out, &out, 0, 255, gocv.ThresholdOtsu+gocv.ThresholdBinary)
		return out
	}

	rows, cols := gray.Rows(), gray.Cols()
	th, tw := rows/batches, cols/batches
	for i := 0; i < batches; i++ {
		for j := 0; j < batches; j++ {
			rect := image.Rect(i*tw, j*th, (i+1)*tw, (j+1)*th)
			tile := out.Region(rect)
			gocv.Threshold(tile, &tile, 0, 255, gocv.ThresholdOtsu+gocv.ThresholdBinary)
			tile.Close()
		}
	}
	return out
}

// computeK mirrors compute_k: a morphology kernel size scaled from the
// 1280x960 reference k0=17, clamped to a minimum of 3.
func computeK(h, w int) int {
	if h <= 170 && w <= 230 {
		return 3
	}
	k1 := int((float64(h)*17/960 + float64(w)*17/1280) / 2)
	if k1%2 == 0 {
		k1++
	}
	if k1 < 3 {
		k1 = 3
	}
	return k1
}

// computePadding mirrors compute_padding: box padding scaled from the
// 1280x960 reference p0=48.
func computePadding(h, w int) int {
	return int((float64(h)*48/960 + float64(w)*48/1280) / 2)
}

// locateMaxima dilates then opens the binary image with a k x k kernel,
// then re-thresholds with Otsu, matching locate_maxima.
func locateMaxima(binary gocv.Mat, k int) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(k, k))
	defer kernel.Close()

	dilated := gocv.NewMat()
	gocv.DilateWithParams(binary, &dilated, kernel, image.Pt(-1, -1), 1, gocv.BorderConstant)

	opened := gocv.NewMat()
	gocv.MorphologyExWithParams(dilated, &opened, gocv.MorphOpen, kernel, 2, gocv.BorderConstant)
	dilated.Close()

	gocv.Threshold(opened, &opened, 0, 255, gocv.ThresholdOtsu+gocv.ThresholdBinary)
	return opened
}

// connectedComponentBoxes extracts the bounding box of each connected
// component, discards ones outside [minSize,maxSize) in either axis
// (matching get_bbs's extent filter), pads the rest by padding pixels, and
// clamps to [0,width)x[0,height).
func connectedComponentBoxes(binary gocv.Mat, minSize, maxSize, padding, width, height int) []image.Rectangle {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	var boxes []image.Rectangle
	for i := 1; i < n; i++ { // label 0 is background
		x := int(stats.GetIntAt(i, 0))
		y := int(stats.GetIntAt(i, 1))
		w := int(stats.GetIntAt(i, 2))
		h := int(stats.GetIntAt(i, 3))

		if w < minSize || w >= maxSize || h < minSize || h >= maxSize {
			continue
		}

		x0 := x - padding
		y0 := y - padding
		x1 := x + w + padding
		y1 := y + h + padding
		if x0 < 0 {
			x0 = 0
		}
		if y0 < 0 {
			y0 = 0
		}
		if x1 > width {
			x1 = width
		}
		if y1 > height {
			y1 = height
		}
		if x0 >= x1 || y0 >= y1 {
			continue
		}
		boxes = append(boxes, image.Rect(x0, y0, x1, y1))
	}
	return boxes
}
