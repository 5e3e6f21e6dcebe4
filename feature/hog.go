package feature

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// HOGConfig mirrors NanoSciTracker's features/hog.py defaults: 17
// orientation bins, one cell spanning the whole detection box
// (pixels_per_cell = box height/width), a single block. Orientations and
// CellsPerBlock are stored but not applied: compute uses gocv's default
// HOGDescriptor (see compute).
type HOGConfig struct {
	Orientations  int
	CellsPerBlock image.Point
	LR            float64 // EMA rate, default 0.2
}

// DefaultHOGConfig returns the documented defaults.
func DefaultHOGConfig() HOGConfig {
	return HOGConfig{Orientations: 17, CellsPerBlock: image.Pt(1, 1), LR: 0.2}
}

// HOG stores the descriptor vector for one track's appearance, blended by
// exponential moving average across frames.
type HOG struct {
	cfg   HOGConfig
	vec   []float32
	ready bool
}

// NewHOG constructs an uninitialised HOG with cfg defaults filled in.
func NewHOG(cfg HOGConfig) *HOG {
	if cfg.Orientations == 0 {
		cfg.Orientations = 17
	}
	if cfg.CellsPerBlock == (image.Point{}) {
		cfg.CellsPerBlock = image.Pt(1, 1)
	}
	if cfg.LR == 0 {
		cfg.LR = 0.2
	}
	return &HOG{cfg: cfg}
}

// compute runs gocv's default HOGDescriptor (OpenCV's default window,
// block, cell and bin parameters) over the gray patch at roi. The cell
// size is not set from roi's height/width, and cfg.Orientations and
// cfg.CellsPerBlock are not applied. An empty or degenerate roi yields a
// nil vector; the caller must skip the update.
func (h *HOG) compute(gray gocv.Mat, roi image.Rectangle) []float32 {
	w, hgt := roi.Dx(), roi.Dy()
	if w <= 0 || hgt <= 0 {
		return nil
	}
	patch := gray.Region(roi)
	defer patch.Close()

	hogDesc := gocv.NewHOGDescriptor()
	defer hogDesc.Close()

	descriptors := hogDesc.Compute(patch)
	defer descriptors.Close()

	rows, cols := descriptors.Rows(), descriptors.Cols()
	if rows*cols == 0 {
		return nil
	}
	out := make([]float32, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, descriptors.GetFloatAt(r, c))
		}
	}
	return out
}

// Initialise computes the initial descriptor. If the computation is
// empty, the feature is left unready and the track proceeds with HOG
// disabled rather than failing outright.
func (h *HOG) Initialise(gray gocv.Mat, roi image.Rectangle) error {
	v := h.compute(gray, roi)
	if v == nil {
		return errHOGEmpty
	}
	h.vec = v
	h.ready = true
	return nil
}

// Update blends in the new descriptor; an empty result is silently
// skipped rather than clobbering the stored vector.
func (h *HOG) Update(gray gocv.Mat, roi image.Rectangle) error {
	v := h.compute(gray, roi)
	if v == nil {
		return nil
	}
	if !h.ready {
		h.vec = v
		h.ready = true
		return nil
	}
	if len(v) != len(h.vec) {
		// Cell geometry changed (track box resized); re-seed rather than
		// blend mismatched-length vectors.
		h.vec = v
		return nil
	}
	for i := range h.vec {
		h.vec[i] = float32((1-h.cfg.LR)*float64(h.vec[i]) + h.cfg.LR*float64(v[i]))
	}
	return nil
}

// Compare L1-normalises both descriptors and returns the Bhattacharyya
// coefficient Σ√(xᵢyᵢ) ∈ [0,1]. Compare(x,x) = 1.
func (h *HOG) Compare(other *HOG) float64 {
	if h == nil || other == nil || !h.ready || !other.ready {
		return 0
	}
	n := len(h.vec)
	if len(other.vec) != n || n == 0 {
		return 0
	}
	x := normalizeL1(h.vec)
	y := normalizeL1(other.vec)
	var bc float64
	for i := range x {
		bc += math.Sqrt(x[i] * y[i])
	}
	return bc
}

func normalizeL1(v []float32) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = math.Abs(float64(x))
		sum += out[i]
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Ready reports whether the descriptor has been computed at least once.
func (h *HOG) Ready() bool { return h != nil && h.ready }

// Vector returns the stored descriptor as float64, for tracing/diagnostics.
func (h *HOG) Vector() []float64 {
	if h == nil {
		return nil
	}
	out := make([]float64, len(h.vec))
	for i, v := range h.vec {
		out[i] = float64(v)
	}
	return out
}

var errHOGEmpty = hogEmptyError{}

type hogEmptyError struct{}

func (hogEmptyError) Error() string { return "feature: HOG descriptor empty" }
