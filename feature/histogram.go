// Package feature implements the four per-object appearance/motion
// descriptors the matcher scores against each other: Histogram, HOG,
// MOSSE, and Velocity. Each exposes its own Update/Compare methods (and,
// except Velocity, Initialise) with feature-specific signatures; the
// matcher calls each feature through its concrete type.
package feature

import (
	"log"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// HistogramConfig carries the hyper-parameters for Histogram, matching
// NanoSciTracker's features/histogram.py defaults.
type HistogramConfig struct {
	Bins    int       // default 96
	Range   [2]float64 // default [64,256]
	LR      float64    // exponential moving average rate, default 0.1
	Channels int        // 1 (gray) or 3 (color)
}

// DefaultHistogramConfig returns the documented defaults.
func DefaultHistogramConfig() HistogramConfig {
	return HistogramConfig{Bins: 96, Range: [2]float64{64, 256}, LR: 0.1, Channels: 1}
}

// Histogram is a per-channel bin vector updated by exponential moving
// average. A zero Histogram (no Initialise call) compares as the minimum
// similarity 0: it fails closed rather than panicking when either side
// has no stored histogram.
type Histogram struct {
	cfg   HistogramConfig
	bins  [][]float64 // one []float64 per channel
	ready bool
}

// NewHistogram constructs an uninitialised Histogram with cfg (zero-value
// fields replaced by DefaultHistogramConfig's).
func NewHistogram(cfg HistogramConfig) *Histogram {
	if cfg.Bins == 0 {
		cfg.Bins = 96
	}
	if cfg.Range == ([2]float64{}) {
		cfg.Range = [2]float64{64, 256}
	}
	if cfg.LR == 0 {
		cfg.LR = 0.1
	}
	if cfg.Channels == 0 {
		cfg.Channels = 1
	}
	return &Histogram{cfg: cfg}
}

// Initialise computes the histogram of patch (gray or BGR, matching
// cfg.Channels) and stores it verbatim.
func (h *Histogram) Initialise(patch gocv.Mat) error {
	h.bins = h.computeHist(patch)
	h.ready = true
	return nil
}

// Update blends the patch's histogram into the stored one:
// H <- (1-lr)*H + lr*hist(patch).
func (h *Histogram) Update(patch gocv.Mat) error {
	if !h.ready {
		return h.Initialise(patch)
	}
	next := h.computeHist(patch)
	for c := range h.bins {
		for i := range h.bins[c] {
			h.bins[c][i] = (1-h.cfg.LR)*h.bins[c][i] + h.cfg.LR*next[c][i]
		}
	}
	return nil
}

func (h *Histogram) computeHist(patch gocv.Mat) [][]float64 {
	channels := h.cfg.Channels
	out := make([][]float64, channels)
	mv := gocv.Split(patch)
	defer func() {
		for _, m := range mv {
			m.Close()
		}
	}()
	for c := 0; c < channels && c < len(mv); c++ {
		hist := gocv.NewMat()
		mask := gocv.NewMat()
		gocv.CalcHist([]gocv.Mat{mv[c]}, []int{0}, mask, &hist, []int{h.cfg.Bins}, []float64{h.cfg.Range[0], h.cfg.Range[1]}, false)
		vals := make([]float64, h.cfg.Bins)
		for i := 0; i < h.cfg.Bins; i++ {
			vals[i] = float64(hist.GetFloatAt(i, 0))
		}
		hist.Close()
		mask.Close()
		out[c] = vals
	}
	return out
}

// Compare returns the mean, over channels, of the absolute Pearson
// correlation between the two stored histogram vectors. Either side
// missing a histogram reports 0.
func (h *Histogram) Compare(other *Histogram) float64 {
	if h == nil || other == nil || !h.ready || !other.ready {
		return 0
	}
	n := len(h.bins)
	if len(other.bins) < n {
		n = len(other.bins)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for c := 0; c < n; c++ {
		x := h.bins[c]
		y := other.bins[c]
		if len(x) != len(y) || len(x) < 2 {
			continue
		}
		r := stat.Correlation(x, y, nil)
		if math.IsNaN(r) {
			log.Printf("feature: histogram correlation is NaN (constant channel), treating as 0")
			r = 0
		}
		sum += math.Abs(r)
	}
	return sum / float64(n)
}

// Ready reports whether the histogram has been initialised at least once.
func (h *Histogram) Ready() bool { return h != nil && h.ready }

// Bins returns channel 0's bin vector, for tracing/diagnostics.
func (h *Histogram) Bins() []float64 {
	if h == nil || len(h.bins) == 0 {
		return nil
	}
	return h.bins[0]
}
