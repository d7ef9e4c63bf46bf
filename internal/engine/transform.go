package engine

import (
	"math"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

// GestureKind names an in-progress manipulation.
type GestureKind string

const (
	GestureDrag   GestureKind = "drag"
	GestureRotate GestureKind = "rotate"
	GestureResize GestureKind = "resize"
)

// Handle names a selection handle on an image or selection box.
type Handle string

const (
	HandleNone        Handle = ""
	HandleTopLeft     Handle = "tl"
	HandleTopRight    Handle = "tr"
	HandleBottomLeft  Handle = "bl"
	HandleBottomRight Handle = "br"
	HandleRotate      Handle = "rot"
)

const (
	// HandleSize is the world-space edge length of a square handle's hit area.
	HandleSize = 12.0

	// RotateHandleOffset is how far the rotate handle sits above an image's
	// top edge along its local up axis.
	RotateHandleOffset = 30.0

	// MinImageDimension clamps image resize so no dimension collapses.
	MinImageDimension = 20.0

	// minScale floors group resize so a selection can never invert or
	// degenerate to zero size.
	minScale = 0.01
)

// Opposite returns the diagonally opposite corner handle.
func (h Handle) Opposite() Handle {
	switch h {
	case HandleTopLeft:
		return HandleBottomRight
	case HandleTopRight:
		return HandleBottomLeft
	case HandleBottomLeft:
		return HandleTopRight
	case HandleBottomRight:
		return HandleTopLeft
	default:
		return HandleNone
	}
}

// StrokeGesture is the frozen context of a drag/rotate/resize applied to a
// set of strokes as a rigid group. It is captured once at gesture start;
// every preview frame recomputes from the same baseline plus the current
// pointer position, so repeated small deltas never accumulate drift.
type StrokeGesture struct {
	Kind  GestureKind
	Start board.Point

	base      []board.Stroke
	pivot     board.Point // rotate: centroid of the combined bounds at start
	anchor    board.Point // resize: corner opposite the grabbed handle
	startDist float64     // resize: pointer distance from anchor at start
}

// NewStrokeGesture captures a gesture baseline over deep copies of the
// target strokes. ok is false when the targets have no combined bounds.
func NewStrokeGesture(kind GestureKind, handle Handle, start board.Point, targets []board.Stroke) (*StrokeGesture, bool) {
	bounds, ok := UnionBounds(targets)
	if !ok {
		return nil, false
	}

	g := &StrokeGesture{
		Kind:  kind,
		Start: start,
		base:  board.CloneStrokes(targets),
		pivot: bounds.Center(),
	}
	if kind == GestureResize {
		g.anchor = bounds.Corner(handle.Opposite())
		g.startDist = distance(start, g.anchor)
	}
	return g, true
}

// Transform computes the preview geometry for the current pointer position.
// The result is always freshly derived from the baseline; committed state is
// never touched.
func (g *StrokeGesture) Transform(current board.Point) []board.Stroke {
	switch g.Kind {
	case GestureDrag:
		return g.drag(current)
	case GestureRotate:
		return g.rotate(current)
	case GestureResize:
		return g.resize(current)
	default:
		return board.CloneStrokes(g.base)
	}
}

func (g *StrokeGesture) drag(current board.Point) []board.Stroke {
	dx := current.X - g.Start.X
	dy := current.Y - g.Start.Y

	out := board.CloneStrokes(g.base)
	for i := range out {
		for j := range out[i].Points {
			out[i].Points[j].X += dx
			out[i].Points[j].Y += dy
		}
	}
	return out
}

func (g *StrokeGesture) rotate(current board.Point) []board.Stroke {
	angle := sweptAngle(g.pivot, g.Start, current)

	out := make([]board.Stroke, len(g.base))
	for i, s := range g.base {
		// A rotated rectangle is no longer representable as an axis-aligned
		// two-point rectangle, so its corners rotate individually and it
		// becomes a closed pen quad.
		if s.Tool == board.ToolRectangle && len(s.Points) >= 2 {
			corners := RectangleCorners(s.Points[0], s.Points[1])
			pts := make([]board.Point, 0, 5)
			for _, c := range corners {
				pts = append(pts, RotatePoint(c, g.pivot, angle))
			}
			pts = append(pts, pts[0])

			rot := s.Clone()
			rot.Tool = board.ToolPen
			rot.Points = pts
			out[i] = rot
			continue
		}

		rot := s.Clone()
		for j, p := range rot.Points {
			rot.Points[j] = RotatePoint(p, g.pivot, angle)
		}
		out[i] = rot
	}
	return out
}

func (g *StrokeGesture) resize(current board.Point) []board.Stroke {
	scale := 1.0
	if g.startDist > 0 {
		scale = distance(current, g.anchor) / g.startDist
	}
	if scale < minScale {
		scale = minScale
	}

	out := board.CloneStrokes(g.base)
	for i := range out {
		for j, p := range out[i].Points {
			out[i].Points[j] = ScalePoint(p, g.anchor, scale)
		}
		out[i].LineWidth *= scale
	}
	return out
}

// ImageGesture is the frozen context of a rotate/resize applied to exactly
// one image, or a drag applied to one or more images.
type ImageGesture struct {
	Kind   GestureKind
	Handle Handle
	Start  board.Point

	base board.CanvasImage
}

// NewImageGesture captures a single-image gesture baseline.
func NewImageGesture(kind GestureKind, handle Handle, start board.Point, target board.CanvasImage) *ImageGesture {
	return &ImageGesture{
		Kind:   kind,
		Handle: handle,
		Start:  start,
		base:   target,
	}
}

// Transform computes the image's preview transform for the current pointer
// position, derived from the frozen baseline.
func (g *ImageGesture) Transform(current board.Point) board.CanvasImage {
	out := g.base
	switch g.Kind {
	case GestureDrag:
		out.Transform.X += current.X - g.Start.X
		out.Transform.Y += current.Y - g.Start.Y
	case GestureRotate:
		center := board.Point{X: g.base.Transform.X, Y: g.base.Transform.Y}
		out.Transform.Rotation += sweptAngle(center, g.Start, current)
	case GestureResize:
		out.Transform = resizeImageTransform(g.base.Transform, g.Handle, g.Start, current)
	}
	return out
}

// resizeImageTransform resizes an image from a corner handle. The pointer
// delta is expressed in the image's local (unrotated) frame; aspect ratio is
// preserved by keeping whichever dimension changed more; the corner opposite
// the dragged handle stays visually fixed.
func resizeImageTransform(t board.ImageTransform, handle Handle, start, current board.Point) board.ImageTransform {
	hx, hy := handleSigns(handle)
	if hx == 0 && hy == 0 {
		return t
	}

	local := Rotate(-t.Rotation).Apply(board.Point{
		X: current.X - start.X,
		Y: current.Y - start.Y,
	})

	newW := t.Width + hx*local.X
	newH := t.Height + hy*local.Y

	// Keep the dominant axis, derive the other from the original aspect.
	if t.Width > 0 && t.Height > 0 {
		if math.Abs(newW-t.Width) >= math.Abs(newH-t.Height) {
			newH = newW * t.Height / t.Width
		} else {
			newW = newH * t.Width / t.Height
		}
	}

	if newW < MinImageDimension {
		newW = MinImageDimension
	}
	if newH < MinImageDimension {
		newH = MinImageDimension
	}

	// Shift the center so the opposite corner holds still: half the size
	// delta in local space, rotated back to world.
	shift := Rotate(t.Rotation).Apply(board.Point{
		X: hx * (newW - t.Width) / 2,
		Y: hy * (newH - t.Height) / 2,
	})

	t.X += shift.X
	t.Y += shift.Y
	t.Width = newW
	t.Height = newH
	return t
}

// ImageHandleAt hit-tests the five handles of an image: four corners plus
// the rotate handle above the top edge. The pointer is inverse-transformed
// into the image's local frame and tested against each handle's square area.
func ImageHandleAt(p board.Point, t board.ImageTransform) Handle {
	center := board.Point{X: t.X, Y: t.Y}
	local := RotateAround(-t.Rotation, center).Apply(p)

	half := HandleSize / 2
	corners := []struct {
		handle Handle
		pos    board.Point
	}{
		{HandleTopLeft, board.Point{X: t.X - t.Width/2, Y: t.Y - t.Height/2}},
		{HandleTopRight, board.Point{X: t.X + t.Width/2, Y: t.Y - t.Height/2}},
		{HandleBottomLeft, board.Point{X: t.X - t.Width/2, Y: t.Y + t.Height/2}},
		{HandleBottomRight, board.Point{X: t.X + t.Width/2, Y: t.Y + t.Height/2}},
		{HandleRotate, board.Point{X: t.X, Y: t.Y - t.Height/2 - RotateHandleOffset}},
	}

	for _, c := range corners {
		if math.Abs(local.X-c.pos.X) <= half && math.Abs(local.Y-c.pos.Y) <= half {
			return c.handle
		}
	}
	return HandleNone
}

// handleSigns maps a corner handle to its local-axis direction from the
// image center: tl = (-1,-1), br = (+1,+1).
func handleSigns(h Handle) (float64, float64) {
	switch h {
	case HandleTopLeft:
		return -1, -1
	case HandleTopRight:
		return 1, -1
	case HandleBottomLeft:
		return -1, 1
	case HandleBottomRight:
		return 1, 1
	default:
		return 0, 0
	}
}

// sweptAngle is the angle swept by the pointer around a pivot, from the
// gesture start position to the current one.
func sweptAngle(pivot, start, current board.Point) float64 {
	return math.Atan2(current.Y-pivot.Y, current.X-pivot.X) -
		math.Atan2(start.Y-pivot.Y, start.X-pivot.X)
}
