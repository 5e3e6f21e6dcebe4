package scene

import (
	"image"
	"math"
)

// OverlapConfig carries inter_match's rejection thresholds from
// LocalTracker/matcher.py.
type OverlapConfig struct {
	IoM             float64 // reject a candidate whose IoM with a tracker exceeds this, default 0.25
	CenterDistance  float64 // reject a candidate whose center is closer than this to a tracker, default 64
}

// DefaultOverlapConfig returns the documented defaults.
func DefaultOverlapConfig() OverlapConfig {
	return OverlapConfig{IoM: 0.25, CenterDistance: 64}
}

// filterOverlapping keeps only the detections that do not overlap any
// existing tracker box, by IoM (intersection-over-minimum-area, not IoU)
// or by center proximity. Grounded on inter_match: the original's
// shapely.Polygon intersection is simplified here to direct axis-aligned
// rectangle math, since every box in this domain is axis-aligned.
func filterOverlapping(detections []image.Rectangle, trackers []image.Rectangle, cfg OverlapConfig) []image.Rectangle {
	if cfg.IoM == 0 {
		cfg.IoM = 0.25
	}
	if cfg.CenterDistance == 0 {
		cfg.CenterDistance = 64
	}

	var out []image.Rectangle
	for _, d := range detections {
		overlap := false
		for _, tr := range trackers {
			if iom(d, tr) > cfg.IoM {
				overlap = true
				break
			}
			if centerDistance(d, tr) < cfg.CenterDistance {
				overlap = true
				break
			}
		}
		if !overlap {
			out = append(out, d)
		}
	}
	return out
}

func iom(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	areaA := float64(a.Dx() * a.Dy())
	areaB := float64(b.Dx() * b.Dy())
	minArea := math.Min(areaA, areaB)
	if minArea == 0 {
		return 0
	}
	interArea := float64(inter.Dx() * inter.Dy())
	return interArea / minArea
}

func centerDistance(a, b image.Rectangle) float64 {
	ax := float64(a.Min.X+a.Max.X) / 2
	ay := float64(a.Min.Y+a.Max.Y) / 2
	bx := float64(b.Min.X+b.Max.X) / 2
	by := float64(b.Min.Y+b.Max.Y) / 2
	return math.Hypot(ax-bx, ay-by)
}
