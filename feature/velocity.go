package feature

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// VelocityConfig mirrors NanoSciTracker's features/velocity.py defaults.
type VelocityConfig struct {
	MovingMeanPeriod int // ring buffer length, default 30
}

// DefaultVelocityConfig returns the documented defaults.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{MovingMeanPeriod: 30}
}

// speedUnset is the sentinel speed value reported before at least two
// position samples have been recorded.
const speedUnset = -1.0

// Velocity tracks a track's recent center positions in two ring buffers (x
// and y) and derives a moving-average speed and heading from them. Unlike
// Histogram/HOG/MOSSE, Velocity never fails to initialise: it always has
// at least the single starting position.
type Velocity struct {
	cfg VelocityConfig

	xs, ys []float64 // ring buffers (circular storage; samples() returns them oldest-first)
	pos    int        // next write index
	filled bool

	lastX, lastY float64
	direction    float64 // atan2(dy,dx) of the most recent nonzero displacement
	haveDir      bool
}

// NewVelocity constructs a Velocity seeded at (x0,y0).
func NewVelocity(cfg VelocityConfig, x0, y0 float64) *Velocity {
	if cfg.MovingMeanPeriod == 0 {
		cfg.MovingMeanPeriod = 30
	}
	v := &Velocity{
		cfg: cfg,
		xs:  make([]float64, cfg.MovingMeanPeriod),
		ys:  make([]float64, cfg.MovingMeanPeriod),
	}
	v.xs[0] = x0
	v.ys[0] = y0
	v.pos = 1
	v.lastX, v.lastY = x0, y0
	return v
}

// Update records a new center position, appending to both ring buffers and
// refreshing direction only when the displacement is nonzero in x (matching
// the Python original's `if dx != 0: direction = atan2(dy, dx)` guard).
func (v *Velocity) Update(x, y float64) {
	dx := x - v.lastX
	dy := y - v.lastY
	if dx != 0 {
		v.direction = math.Atan2(dy, dx)
		v.haveDir = true
	}
	v.lastX, v.lastY = x, y

	v.xs[v.pos] = x
	v.ys[v.pos] = y
	v.pos++
	if v.pos >= len(v.xs) {
		v.pos = 0
		v.filled = true
	}
}

func (v *Velocity) samples() ([]float64, []float64) {
	if v.filled {
		xs := append(append([]float64(nil), v.xs[v.pos:]...), v.xs[:v.pos]...)
		ys := append(append([]float64(nil), v.ys[v.pos:]...), v.ys[:v.pos]...)
		return xs, ys
	}
	return v.xs[:v.pos], v.ys[:v.pos]
}

// velocityVector returns the mean per-axis displacement (vx, vy) over the
// ring buffer — the telescoping sum of per-step displacements collapses to
// (last-first)/steps, so this is exactly the average of the per-step
// vectors without building them. ok is false with fewer than two samples.
func (v *Velocity) velocityVector() (vx, vy float64, ok bool) {
	xs, ys := v.samples()
	if len(xs) < 2 {
		return 0, 0, false
	}
	n := float64(len(xs) - 1)
	return (xs[len(xs)-1] - xs[0]) / n, (ys[len(ys)-1] - ys[0]) / n, true
}

// speedNormDiagonal normalises the speed-vector distance, matching the
// reference [960,1280] diagonal used for the same purpose in velocity.py.
var speedNormDiagonal = math.Hypot(960, 1280)

// Speed returns the moving-average step distance over the ring buffer, or
// speedUnset (-1) if fewer than two samples have been recorded.
func (v *Velocity) Speed() float64 {
	xs, ys := v.samples()
	if len(xs) < 2 {
		return speedUnset
	}
	dxs := make([]float64, len(xs)-1)
	dys := make([]float64, len(ys)-1)
	for i := 1; i < len(xs); i++ {
		dxs[i-1] = xs[i] - xs[i-1]
		dys[i-1] = ys[i] - ys[i-1]
	}
	steps := make([]float64, len(dxs))
	for i := range dxs {
		steps[i] = math.Hypot(dxs[i], dys[i])
	}
	return floats.Sum(steps) / float64(len(steps))
}

// Position returns the current (most recent) center.
func (v *Velocity) Position() (x, y float64) { return v.lastX, v.lastY }

// Direction returns the most recently computed heading in radians, and
// whether one has ever been computed (it requires at least one nonzero
// x-displacement).
func (v *Velocity) Direction() (float64, bool) { return v.direction, v.haveDir }

// Compare scores three independent components against other, each enabled
// by its own flag — call parameters, not mutated fields, so the same
// Velocity can be compared under different enable combinations without
// side effects. The returned array holds [positionScore, speedDistance,
// directionScore]; a disabled or inapplicable component is reported as 0.
// positionScore and directionScore are similarities (higher means closer);
// speedDistance is a raw, normalized distance — callers weight it
// negatively, same as the position term in comparePosition.
func (v *Velocity) Compare(other *Velocity, enablePosition, enableSpeed, enableDirection bool) [3]float64 {
	var out [3]float64
	if v == nil || other == nil {
		return out
	}

	if enablePosition {
		d := math.Hypot(v.lastX-other.lastX, v.lastY-other.lastY)
		out[0] = 1.0 / (1.0 + d)
	}

	if enableSpeed {
		vxa, vya, okA := v.velocityVector()
		vxb, vyb, okB := other.velocityVector()
		if okA && okB {
			out[1] = math.Hypot(vxa-vxb, vya-vyb) / speedNormDiagonal
		}
	}

	if enableDirection {
		da, haveA := v.Direction()
		db, haveB := other.Direction()
		if haveA && haveB {
			delta := math.Abs(angleDiff(da, db))
			out[2] = 1.0 - delta/math.Pi
		}
	}

	return out
}

// angleDiff returns the signed difference a-b wrapped into (-pi, pi].
func angleDiff(a, b float64) float64 {
	d := a - b
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
