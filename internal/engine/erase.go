package engine

import (
	"math"

	"github.com/inkboard/inkboard/backend-go/internal/board"
	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

// EraseOptions tunes the erasure sampler. Zero values select the defaults.
type EraseOptions struct {
	// SampleStep is the arc-length resolution, in world units, at which
	// stroke geometry is classified against the eraser path.
	SampleStep float64

	// CutTolerance is the minimum perimeter loss, in world units, for a
	// shape stroke to count as cut. It absorbs floating-point sampling
	// noise at exact tangencies.
	CutTolerance float64
}

const (
	defaultSampleStep   = 1.0
	defaultCutTolerance = 1.0
)

func (o EraseOptions) withDefaults() EraseOptions {
	if o.SampleStep <= 0 {
		o.SampleStep = defaultSampleStep
	}
	if o.CutTolerance <= 0 {
		o.CutTolerance = defaultCutTolerance
	}
	return o
}

// EraseResult lists the stroke ids removed by an eraser pass and the
// replacement fragments that preserve the surviving ink.
type EraseResult struct {
	DeletedIDs []string       `json:"deletedIds"`
	Fragments  []board.Stroke `json:"fragments"`
}

// Empty reports whether the eraser pass changed nothing.
func (r EraseResult) Empty() bool {
	return len(r.DeletedIDs) == 0 && len(r.Fragments) == 0
}

// ApplyEraser walks every stroke against an eraser stroke's swept capsule
// path and produces the ids to delete plus zero or more replacement
// fragments. Strokes whose bounds miss the eraser's bounds are skipped
// untouched; eraser strokes are never targets themselves.
//
// Pen strokes are treated as one continuous path, so erasing the middle of a
// long stroke yields two independent fragments. Shape strokes are fragmented
// per edge and, once cut, are downgraded to freehand pen fragments, since a
// partially erased rectangle or circle is no longer representable by its
// parametric tool.
func ApplyEraser(eraser board.Stroke, strokes []board.Stroke, opts EraseOptions) EraseResult {
	var result EraseResult

	eraserBounds, ok := BoundsOf(eraser)
	if !ok {
		return result
	}
	opts = opts.withDefaults()

	for _, s := range strokes {
		if s.Tool == board.ToolEraser {
			continue
		}
		bounds, ok := BoundsOf(s)
		if !ok || !RectsIntersect(eraserBounds, bounds) {
			continue
		}

		erased := func(p board.Point) bool {
			return PointErased(p, eraser, s.LineWidth/2)
		}

		var deleted bool
		var fragments []board.Stroke
		if s.Tool == board.ToolPen {
			deleted, fragments = erasePen(s, erased, opts)
		} else {
			deleted, fragments = eraseShape(s, erased, opts)
		}

		if deleted {
			result.DeletedIDs = append(result.DeletedIDs, s.ID)
			result.Fragments = append(result.Fragments, fragments...)
		}
	}

	return result
}

// erasePen fragments a freehand stroke as one continuous path.
func erasePen(s board.Stroke, erased func(board.Point) bool, opts EraseOptions) (bool, []board.Stroke) {
	if len(s.Points) == 1 {
		if erased(s.Points[0]) {
			return true, nil
		}
		return false, nil
	}

	samples := resamplePath(s.Points, opts.SampleStep)
	runs, anyErased := survivingRuns(samples, erased)
	if !anyErased {
		return false, nil
	}

	var fragments []board.Stroke
	for _, run := range runs {
		if len(run) > 1 {
			fragments = append(fragments, newFragment(s, run))
		}
	}
	return true, fragments
}

// eraseShape fragments a parametric shape edge by edge. A cut only counts
// when the sampled surviving perimeter falls short of the original by more
// than the cut tolerance.
func eraseShape(s board.Stroke, erased func(board.Point) bool, opts EraseOptions) (bool, []board.Stroke) {
	segs := StrokeSegments(s)
	if len(segs) == 0 {
		return false, nil
	}

	total := 0.0
	survived := 0.0
	var allRuns [][]board.Point

	for _, seg := range segs {
		total += distance(seg.A, seg.B)

		samples := resamplePath([]board.Point{seg.A, seg.B}, opts.SampleStep)
		runs, _ := survivingRuns(samples, erased)
		for _, run := range runs {
			for i := 0; i+1 < len(run); i++ {
				survived += distance(run[i], run[i+1])
			}
			allRuns = append(allRuns, run)
		}
	}

	if math.Abs(total-survived) <= opts.CutTolerance {
		return false, nil
	}

	var fragments []board.Stroke
	for _, run := range allRuns {
		if len(run) > 1 {
			fragments = append(fragments, newFragment(s, run))
		}
	}
	return true, fragments
}

// newFragment builds a replacement pen stroke inheriting the source stroke's
// paint properties.
func newFragment(src board.Stroke, points []board.Point) board.Stroke {
	pts := make([]board.Point, len(points))
	copy(pts, points)
	return board.Stroke{
		ID:        typeid.NewStrokeID(),
		Tool:      board.ToolPen,
		Color:     src.Color,
		LineWidth: src.LineWidth,
		Points:    pts,
	}
}

// resamplePath re-walks a polyline at a fixed arc-length step. The first and
// last vertices are always included.
func resamplePath(points []board.Point, step float64) []board.Point {
	if len(points) == 0 {
		return nil
	}

	out := []board.Point{points[0]}
	need := step
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		segLen := distance(a, b)
		if segLen == 0 {
			continue
		}

		pos := 0.0
		for segLen-pos >= need {
			pos += need
			t := pos / segLen
			out = append(out, board.Point{
				X: a.X + (b.X-a.X)*t,
				Y: a.Y + (b.Y-a.Y)*t,
			})
			need = step
		}
		need -= segLen - pos
	}

	last := points[len(points)-1]
	if tail := out[len(out)-1]; tail != last {
		out = append(out, last)
	}
	return out
}

// survivingRuns splits sampled points into maximal contiguous runs of
// non-erased samples. anyErased reports whether at least one sample fell
// inside the eraser.
func survivingRuns(samples []board.Point, erased func(board.Point) bool) ([][]board.Point, bool) {
	var runs [][]board.Point
	var current []board.Point
	anyErased := false

	for _, p := range samples {
		if erased(p) {
			anyErased = true
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs, anyErased
}
