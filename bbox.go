package scitrack

import (
	"fmt"
	"math"
)

// Point is an integer pixel coordinate in a scene-local or world-absolute frame.
type Point struct {
	X, Y int
}

// BBox is an axis-aligned bounding box in integer pixel units, P0 the
// top-left corner and P1 the bottom-right corner, with P0.X<=P1.X and
// P0.Y<=P1.Y.
type BBox struct {
	P0, P1 Point
}

// NewBBox builds a BBox from two corners, returning an error if the box is
// degenerate (x0>x1 or y0>y1).
func NewBBox(x0, y0, x1, y1 int) (BBox, error) {
	if x0 > x1 || y0 > y1 {
		return BBox{}, fmt.Errorf("scitrack: invalid bbox (%d,%d)-(%d,%d)", x0, y0, x1, y1)
	}
	return BBox{Point{x0, y0}, Point{x1, y1}}, nil
}

// Width returns the box width in pixels.
func (b BBox) Width() int { return b.P1.X - b.P0.X }

// Height returns the box height in pixels.
func (b BBox) Height() int { return b.P1.Y - b.P0.Y }

// Area returns the box area in square pixels.
func (b BBox) Area() int { return b.Width() * b.Height() }

// Center returns the box's integer center.
func (b BBox) Center() Point {
	return Point{(b.P0.X + b.P1.X) / 2, (b.P0.Y + b.P1.Y) / 2}
}

// CenterF returns the box's center as floats, for feature math.
func (b BBox) CenterF() (x, y float64) {
	return float64(b.P0.X+b.P1.X) / 2, float64(b.P0.Y+b.P1.Y) / 2
}

// Contains reports whether other is fully contained within b.
func (b BBox) Contains(other BBox) bool {
	return other.P0.X >= b.P0.X && other.P0.Y >= b.P0.Y &&
		other.P1.X <= b.P1.X && other.P1.Y <= b.P1.Y
}

// Offset translates the box by (dx,dy).
func (b BBox) Offset(dx, dy int) BBox {
	return BBox{
		Point{b.P0.X + dx, b.P0.Y + dy},
		Point{b.P1.X + dx, b.P1.Y + dy},
	}
}

// Intersection returns the overlapping rectangle of a and b, and whether
// they overlap at all.
func Intersection(a, b BBox) (BBox, bool) {
	x0 := max(a.P0.X, b.P0.X)
	y0 := max(a.P0.Y, b.P0.Y)
	x1 := min(a.P1.X, b.P1.X)
	y1 := min(a.P1.Y, b.P1.Y)
	if x0 >= x1 || y0 >= y1 {
		return BBox{}, false
	}
	return BBox{Point{x0, y0}, Point{x1, y1}}, true
}

// IoM returns the intersection-over-minimum-area of a and b: the
// intersection area divided by the smaller of the two box areas. Unlike
// IoU, this is robust to one box being padded or scaled relative to the
// other, which is why the overlap filter (scene's filterOverlapping, via
// its own iom helper computing the same measure) uses it instead of IoU.
func IoM(a, b BBox) float64 {
	minArea := min(a.Area(), b.Area())
	if minArea == 0 {
		return 0
	}
	inter, ok := Intersection(a, b)
	if !ok {
		return 0
	}
	return float64(inter.Area()) / float64(minArea)
}

// CenterDistance returns the Euclidean distance between the centers of a
// and b.
func CenterDistance(a, b BBox) float64 {
	ax, ay := a.CenterF()
	bx, by := b.CenterF()
	dx := ax - bx
	dy := ay - by
	return math.Hypot(dx, dy)
}
