package engine

import (
	"math"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

// Rect represents an axis-aligned bounding box in world space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect, edges inclusive.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the center point of the rect.
func (r Rect) Center() board.Point {
	return board.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Corner returns the rect corner addressed by a handle (tl, tr, bl, br).
func (r Rect) Corner(h Handle) board.Point {
	switch h {
	case HandleTopLeft:
		return board.Point{X: r.X, Y: r.Y}
	case HandleTopRight:
		return board.Point{X: r.X + r.Width, Y: r.Y}
	case HandleBottomLeft:
		return board.Point{X: r.X, Y: r.Y + r.Height}
	default:
		return board.Point{X: r.X + r.Width, Y: r.Y + r.Height}
	}
}

// RectsIntersect reports AABB overlap. Touching edges count as overlapping.
func RectsIntersect(a, b Rect) bool {
	return a.X <= b.X+b.Width && a.X+a.Width >= b.X &&
		a.Y <= b.Y+b.Height && a.Y+a.Height >= b.Y
}

// Segment is one straight edge of a stroke's decomposed geometry.
type Segment struct {
	A board.Point
	B board.Point
}

// BoundsOf returns the axis-aligned bounding box of a stroke under its
// per-tool interpretation. ok is false when the stroke has too few points
// to describe a shape for its tool.
func BoundsOf(s board.Stroke) (Rect, bool) {
	if len(s.Points) == 0 || len(s.Points) < s.Tool.ShapePointCount() {
		return Rect{}, false
	}

	if s.Tool == board.ToolCircle {
		c := s.Points[0]
		r := distance(c, s.Points[1])
		return Rect{X: c.X - r, Y: c.Y - r, Width: 2 * r, Height: 2 * r}, true
	}

	minX, minY := s.Points[0].X, s.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range s.Points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// UnionBounds returns the combined bounding box of all strokes that have one.
// ok is false when no stroke contributes a box.
func UnionBounds(strokes []board.Stroke) (Rect, bool) {
	var out Rect
	found := false
	for _, s := range strokes {
		b, ok := BoundsOf(s)
		if !ok {
			continue
		}
		if !found {
			out = b
			found = true
			continue
		}
		minX := math.Min(out.X, b.X)
		minY := math.Min(out.Y, b.Y)
		maxX := math.Max(out.X+out.Width, b.X+b.Width)
		maxY := math.Max(out.Y+out.Height, b.Y+b.Height)
		out = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	return out, found
}

// PointToSegmentDistanceSquared returns the squared distance from p to the
// closest point on segment [a, b]. The projection parameter is clamped to
// [0, 1]; a degenerate segment reduces to point distance.
func PointToSegmentDistanceSquared(p, a, b board.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		ex := p.X - a.X
		ey := p.Y - a.Y
		return ex*ex + ey*ey
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	cx := a.X + t*dx - p.X
	cy := a.Y + t*dy - p.Y
	return cx*cx + cy*cy
}

// PointInRotatedRect tests whether a point lies inside an image's rotated
// rectangle, edges inclusive. The point is inverse-rotated into the
// rectangle's local frame about its center.
func PointInRotatedRect(p board.Point, t board.ImageTransform) bool {
	local := RotateAround(-t.Rotation, board.Point{X: t.X, Y: t.Y}).Apply(p)
	return math.Abs(local.X-t.X) <= t.Width/2 && math.Abs(local.Y-t.Y) <= t.Height/2
}

// PointOnStroke tests whether a point lies on the visible ink of a stroke.
// The stroke is decomposed into line segments per its tool; the hit radius
// is tolerance plus half the line width. Circles use an annulus test rather
// than interior fill.
func PointOnStroke(p board.Point, s board.Stroke, tolerance float64) bool {
	if len(s.Points) == 0 || len(s.Points) < s.Tool.ShapePointCount() {
		return false
	}

	radius := tolerance + s.LineWidth/2

	if s.Tool == board.ToolCircle {
		r := distance(s.Points[0], s.Points[1])
		return math.Abs(distance(p, s.Points[0])-r) < radius
	}

	radiusSq := radius * radius
	for _, seg := range StrokeSegments(s) {
		if PointToSegmentDistanceSquared(p, seg.A, seg.B) < radiusSq {
			return true
		}
	}

	// A single-point pen stroke has no segments but still occupies a dot.
	if len(s.Points) == 1 {
		return distanceSquared(p, s.Points[0]) < radiusSq
	}
	return false
}

// PointErased tests whether a point falls inside an eraser stroke's swept
// area. A single-point eraser is a static circle of radius
// lineWidth/2 + pointRadius; a multi-point eraser is a capsule path with the
// same combined radius around every segment.
func PointErased(p board.Point, eraser board.Stroke, pointRadius float64) bool {
	if len(eraser.Points) == 0 {
		return false
	}

	radius := eraser.LineWidth/2 + pointRadius
	radiusSq := radius * radius

	if len(eraser.Points) == 1 {
		return distanceSquared(p, eraser.Points[0]) <= radiusSq
	}

	for i := 0; i+1 < len(eraser.Points); i++ {
		if PointToSegmentDistanceSquared(p, eraser.Points[i], eraser.Points[i+1]) <= radiusSq {
			return true
		}
	}
	return false
}

// RotatePoint rotates a point about a center by an angle in radians.
func RotatePoint(p, center board.Point, angle float64) board.Point {
	return RotateAround(angle, center).Apply(p)
}

// ScalePoint scales a point about an origin by a uniform factor.
func ScalePoint(p, origin board.Point, scale float64) board.Point {
	return board.Point{
		X: origin.X + (p.X-origin.X)*scale,
		Y: origin.Y + (p.Y-origin.Y)*scale,
	}
}

// TransformedImageBounds returns the axis-aligned bounds of the four rotated
// corners of an image transform's rectangle.
func TransformedImageBounds(t board.ImageTransform) Rect {
	rot := RotateAround(t.Rotation, board.Point{X: t.X, Y: t.Y})

	first := true
	var minX, minY, maxX, maxY float64
	for _, sign := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		corner := rot.Apply(board.Point{
			X: t.X + sign[0]*t.Width/2,
			Y: t.Y + sign[1]*t.Height/2,
		})
		if first {
			minX, maxX = corner.X, corner.X
			minY, maxY = corner.Y, corner.Y
			first = false
			continue
		}
		minX = math.Min(minX, corner.X)
		maxX = math.Max(maxX, corner.X)
		minY = math.Min(minY, corner.Y)
		maxY = math.Max(maxY, corner.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// StrokeSegments decomposes a stroke into its constituent line segments under
// the per-tool interpretation. Circles are tessellated into
// max(30, ceil(radius/3)) equal angular chords so larger circles keep their
// chord error bounded. Strokes with too few points yield nil.
func StrokeSegments(s board.Stroke) []Segment {
	if len(s.Points) < 2 || len(s.Points) < s.Tool.ShapePointCount() {
		return nil
	}

	switch s.Tool {
	case board.ToolPen, board.ToolEraser:
		segs := make([]Segment, 0, len(s.Points)-1)
		for i := 0; i+1 < len(s.Points); i++ {
			segs = append(segs, Segment{A: s.Points[i], B: s.Points[i+1]})
		}
		return segs

	case board.ToolLine, board.ToolDashedLine:
		return []Segment{{A: s.Points[0], B: s.Points[1]}}

	case board.ToolRectangle:
		c := RectangleCorners(s.Points[0], s.Points[1])
		return closedEdges(c[:])

	case board.ToolTriangle:
		c := TriangleCorners(s.Points[0], s.Points[1])
		return closedEdges(c[:])

	case board.ToolCircle:
		center := s.Points[0]
		radius := distance(center, s.Points[1])
		n := int(math.Max(30, math.Ceil(radius/3)))
		segs := make([]Segment, 0, n)
		prev := circlePoint(center, radius, 0)
		for i := 1; i <= n; i++ {
			next := circlePoint(center, radius, 2*math.Pi*float64(i)/float64(n))
			segs = append(segs, Segment{A: prev, B: next})
			prev = next
		}
		return segs

	default:
		return nil
	}
}

// RectangleCorners returns the four corners of the axis-aligned rectangle
// spanned by two points, in tl, tr, br, bl order.
func RectangleCorners(start, end board.Point) [4]board.Point {
	minX := math.Min(start.X, end.X)
	maxX := math.Max(start.X, end.X)
	minY := math.Min(start.Y, end.Y)
	maxY := math.Max(start.Y, end.Y)
	return [4]board.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

// TriangleCorners returns the corners of the isoceles triangle inscribed in
// the box spanned by two points: apex at top-mid, base at the bottom corners.
// Top means minimum Y in the y-down screen frame.
func TriangleCorners(start, end board.Point) [3]board.Point {
	minX := math.Min(start.X, end.X)
	maxX := math.Max(start.X, end.X)
	minY := math.Min(start.Y, end.Y)
	maxY := math.Max(start.Y, end.Y)
	return [3]board.Point{
		{X: (minX + maxX) / 2, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

func closedEdges(corners []board.Point) []Segment {
	segs := make([]Segment, 0, len(corners))
	for i := range corners {
		segs = append(segs, Segment{A: corners[i], B: corners[(i+1)%len(corners)]})
	}
	return segs
}

func circlePoint(center board.Point, radius, angle float64) board.Point {
	return board.Point{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y + radius*math.Sin(angle),
	}
}

func distance(a, b board.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func distanceSquared(a, b board.Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
