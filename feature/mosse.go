package feature

import (
	"image"
	"math"
	"math/rand"

	"gocv.io/x/gocv"

	scitrack "github.com/nanoscitrack/scitrack"
)

// MOSSEConfig mirrors NanoSciTracker's features/mosse.py defaults.
type MOSSEConfig struct {
	LR        float64 // filter learning rate, default 0.2
	PSRThresh float64 // minimum PSR to accept a match, default 5.7
	WarpCount int     // random warps used to seed A/B, default 8
	WarpC     float64 // rotation/perturbation magnitude, default 0.1
}

// DefaultMOSSEConfig returns the documented defaults.
func DefaultMOSSEConfig() MOSSEConfig {
	return MOSSEConfig{LR: 0.2, PSRThresh: 5.7, WarpCount: 8, WarpC: 0.1}
}

// MOSSE is a Minimum-Output-Sum-of-Squared-Error correlation filter used
// as one of the four appearance features. H = A/B is the learned filter;
// A and B are 2-channel (real,imag) float32 Mats, accumulated by EMA.
//
// Compare takes both sides' source frames as explicit parameters instead
// of mutating a shared last_frame field, unlike the Python original which
// temporarily swaps last_frame between the two operands; its only side
// effect is recording each filter's latest PSR.
type MOSSE struct {
	cfg MOSSEConfig

	size   image_point
	center image_pointF
	hanWin gocv.Mat
	g      gocv.Mat // goal response, spatial domain (unused after init)
	gHat   gocv.Mat // FFT(g)
	a, b   gocv.Mat // accumulators
	h      gocv.Mat // learned filter H = A/B
	ready  bool

	lastPSR float64
}

type image_point struct{ W, H int }
type image_pointF struct{ X, Y float64 }

// NewMOSSE constructs an uninitialised filter with cfg defaults filled in.
func NewMOSSE(cfg MOSSEConfig) *MOSSE {
	if cfg.LR == 0 {
		cfg.LR = 0.2
	}
	if cfg.PSRThresh == 0 {
		cfg.PSRThresh = 5.7
	}
	if cfg.WarpCount == 0 {
		cfg.WarpCount = 8
	}
	if cfg.WarpC == 0 {
		cfg.WarpC = 0.1
	}
	return &MOSSE{cfg: cfg}
}

// Initialise snaps the bbox to an FFT-friendly size, builds the Hanning
// window and Gaussian goal response, then trains A/B over cfg.WarpCount
// random affine warps of the patch sampled from gray at bbox's center.
// Returns ErrFeatureInitFailed if any entry of B is exactly zero (the
// filter H=A/B would be undefined there).
func (m *MOSSE) Initialise(gray gocv.Mat, bbox image.Rectangle) error {
	w := gocv.GetOptimalDFTSize(bbox.Dx())
	h := gocv.GetOptimalDFTSize(bbox.Dy())
	if w <= 0 || h <= 0 {
		return errMOSSEInvalidBBox
	}
	m.size = image_point{w, h}
	cx := float64(bbox.Min.X+bbox.Max.X) / 2
	cy := float64(bbox.Min.Y+bbox.Max.Y) / 2
	m.center = image_pointF{cx, cy}

	m.hanWin = gocv.NewMat()
	gocv.CreateHanningWindow(&m.hanWin, image.Pt(w, h), gocv.MatTypeCV32F)

	g := gocv.NewMatWithSize(h, w, gocv.MatTypeCV32F)
	defer g.Close()
	g.SetFloatAt(h/2, w/2, 1.0)
	gocv.GaussianBlur(g, &g, image.Pt(0, 0), 2.0, 2.0, gocv.BorderDefault)
	_, maxVal, _, _ := gocv.MinMaxLoc(g)
	if maxVal != 0 {
		g.MultiplyFloat(float32(1.0 / maxVal))
	}
	m.gHat = fft2(g)

	m.a = gocv.NewMatWithSize(h, w, gocv.MatTypeCV32FC2)
	m.b = gocv.NewMatWithSize(h, w, gocv.MatTypeCV32FC2)

	window := gocv.NewMat()
	defer window.Close()
	gocv.GetRectSubPix(gray, image.Pt(w, h), gocv.NewPoint2f(float32(cx), float32(cy)), &window)

	for i := 0; i < m.cfg.WarpCount; i++ {
		warped := randWarp(window, m.cfg.WarpC)
		f := preprocess(warped, m.hanWin)
		warped.Close()
		fHat := fft2(f)
		f.Close()

		aI := complexMulConj(m.gHat, fHat)
		bI := complexMulConj(fHat, fHat)
		fHat.Close()

		addInto(&m.a, aI)
		addInto(&m.b, bI)
		aI.Close()
		bI.Close()
	}

	if hasZeroComplex(m.b) {
		return errMOSSEZeroDivisor
	}
	m.h = complexDiv(m.a, m.b)
	m.ready = true
	return nil
}

// Predict samples the patch at the stored center/size from frame (when
// bbox is non-nil the center is first moved to bbox.Min plus half the
// FFT-snapped bbox size), computes the correlation response, records its
// PSR, and reports the new bbox if the PSR clears cfg.PSRThresh. No window
// is kept between calls: frame is always sampled.
func (m *MOSSE) Predict(frame gocv.Mat, bbox *image.Rectangle) (image.Rectangle, bool) {
	if !m.ready {
		if bbox != nil {
			return *bbox, false
		}
		return image.Rectangle{}, false
	}

	p := image.Point{}
	if bbox != nil {
		w := gocv.GetOptimalDFTSize(bbox.Dx())
		h := gocv.GetOptimalDFTSize(bbox.Dy())
		p = bbox.Min
		cx := float64(bbox.Min.X) + float64(w)/2
		cy := float64(bbox.Min.Y) + float64(h)/2
		m.center = image_pointF{cx, cy}
	}

	window := gocv.NewMat()
	defer window.Close()
	gocv.GetRectSubPix(frame, image.Pt(m.size.W, m.size.H), gocv.NewPoint2f(float32(m.center.X), float32(m.center.Y)), &window)

	f := preprocess(window, m.hanWin)
	defer f.Close()
	fHat := fft2(f)
	defer fHat.Close()

	responseHat := complexMul(fHat, m.h)
	defer responseHat.Close()
	response := ifft2Real(responseHat)
	defer response.Close()

	minVal, maxVal, _, maxLoc := gocv.MinMaxLoc(response)
	mean := matMeanF(response)
	std := matStdDevF(response, mean)
	_ = minVal
	psr := (maxVal - mean) / (std + 1e-5)
	m.lastPSR = float64(psr)

	if float64(psr) < m.cfg.PSRThresh {
		if bbox != nil {
			return *bbox, false
		}
		return image.Rectangle{}, false
	}

	dx := maxLoc.X - m.size.W/2
	dy := maxLoc.Y - m.size.H/2
	x0 := p.X + dx
	y0 := p.Y + dy
	return image.Rect(x0, y0, x0+m.size.W, y0+m.size.H), true
}

// Update predicts at the new bbox and, if matched, folds the refreshed
// window into A/B by EMA.
func (m *MOSSE) Update(gray gocv.Mat, bbox image.Rectangle) bool {
	if !m.ready {
		return false
	}
	newBBox, ok := m.Predict(gray, &bbox)
	if !ok {
		return false
	}
	cx := float64(newBBox.Min.X+newBBox.Max.X) / 2
	cy := float64(newBBox.Min.Y+newBBox.Max.Y) / 2
	m.center = image_pointF{cx, cy}

	window := gocv.NewMat()
	gocv.GetRectSubPix(gray, image.Pt(m.size.W, m.size.H), gocv.NewPoint2f(float32(cx), float32(cy)), &window)
	f := preprocess(window, m.hanWin)
	window.Close()
	fHat := fft2(f)
	f.Close()

	aNew := complexMulConj(m.gHat, fHat)
	bNew := complexMulConj(fHat, fHat)
	fHat.Close()

	emaInto(&m.a, aNew, m.cfg.LR)
	emaInto(&m.b, bNew, m.cfg.LR)
	aNew.Close()
	bNew.Close()

	if m.h.Ptr() != nil {
		m.h.Close()
	}
	m.h = complexDiv(m.a, m.b)
	return true
}

// Compare predicts both filters against the other's frame and folds each
// side's PSR through the matching predicate (default min(1,
// max(PSR_a,PSR_b)/11.4)). selfFrame/otherFrame are the two tracks' most
// recent grayscale frames.
func (m *MOSSE) Compare(other *MOSSE, selfFrame, otherFrame gocv.Mat) float64 {
	if m == nil || other == nil || !m.ready || !other.ready {
		return 0
	}
	_, _ = m.Predict(otherFrame, nil)
	_, _ = other.Predict(selfFrame, nil)
	return psrMaxPredicate(m.lastPSR, other.lastPSR, 11.4)
}

func psrMaxPredicate(a, b, threshold float64) float64 {
	v := math.Max(a, b) / threshold
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// Ready reports whether the filter has been successfully initialised.
func (m *MOSSE) Ready() bool { return m != nil && m.ready }

// LastPSR returns the most recent Predict/Compare's peak-to-sidelobe ratio.
func (m *MOSSE) LastPSR() float64 { return m.lastPSR }

// Close releases the OpenCV Mats backing the filter.
func (m *MOSSE) Close() {
	if m == nil {
		return
	}
	for _, mat := range []gocv.Mat{m.hanWin, m.gHat, m.a, m.b, m.h} {
		if mat.Ptr() != nil {
			mat.Close()
		}
	}
}

func randWarp(win gocv.Mat, c float64) gocv.Mat {
	ang := (rand.Float64()*2 - 1) * c
	s, co := math.Sin(ang), math.Cos(ang)

	warp := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	jitter := func() float64 { return (rand.Float64()*2 - 1) * c }
	warp.SetDoubleAt(0, 0, co+jitter())
	warp.SetDoubleAt(0, 1, -s+jitter())
	warp.SetDoubleAt(1, 0, s+jitter())
	warp.SetDoubleAt(1, 1, co+jitter())

	w, h := win.Cols(), win.Rows()
	cwx, cwy := float64(w)/2, float64(h)/2
	a00, a01 := warp.GetDoubleAt(0, 0), warp.GetDoubleAt(0, 1)
	a10, a11 := warp.GetDoubleAt(1, 0), warp.GetDoubleAt(1, 1)
	warp.SetDoubleAt(0, 2, cwx-(a00*cwx+a01*cwy))
	warp.SetDoubleAt(1, 2, cwy-(a10*cwx+a11*cwy))

	dst := gocv.NewMat()
	gocv.WarpAffineWithParams(win, &dst, warp, image.Pt(w, h), gocv.InterpolationLinear, gocv.BorderReflect, gocv.NewScalar(0, 0, 0, 0))
	warp.Close()
	return dst
}

// preprocess applies log scaling, mean/std normalisation, then the
// Hanning window, matching the Python `preprocess` helper exactly.
func preprocess(win gocv.Mat, hanWin gocv.Mat) gocv.Mat {
	f := gocv.NewMat()
	win.ConvertTo(&f, gocv.MatTypeCV32F)
	f.AddFloat(1.0)
	gocv.Log(f, &f)

	mean, std := meanStdDev(f)
	f.SubtractFloat(float32(mean))
	f.DivideFloat(float32(std + 1e-5))

	out := gocv.NewMat()
	gocv.Multiply(f, hanWin, &out)
	f.Close()
	return out
}

var errMOSSEInvalidBBox = mosseError("invalid bbox for MOSSE initialisation")
var errMOSSEZeroDivisor = mosseError("MOSSE training produced a zero entry in B")

type mosseError string

func (e mosseError) Error() string { return "feature: " + string(e) }

// Unwrap lets errors.Is(err, scitrack.ErrFeatureInitFailed) match every
// MOSSE initialisation failure.
func (e mosseError) Unwrap() error { return scitrack.ErrFeatureInitFailed }
