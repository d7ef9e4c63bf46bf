package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

func TestApplyEraserSkipsNonIntersecting(t *testing.T) {
	target := board.Stroke{
		ID:        "s1",
		Tool:      board.ToolPen,
		Color:     "#000",
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(10, 0)},
	}
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 4,
		Points:    []board.Point{pt(100, 100), pt(110, 100)},
	}

	strokes := []board.Stroke{target}
	result := ApplyEraser(eraser, strokes, EraseOptions{})

	assert.True(t, result.Empty())
	assert.Equal(t, target, strokes[0], "untouched stroke stays identical")
}

func TestApplyEraserSplitsPenStroke(t *testing.T) {
	target := board.Stroke{
		ID:        "s1",
		Tool:      board.ToolPen,
		Color:     "#ff0000",
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(10, 0), pt(20, 0), pt(30, 0)},
	}
	// Single-point eraser: static circle, radius 4/2 + 2/2 = 3 around (15, 0).
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 4,
		Points:    []board.Point{pt(15, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{target}, EraseOptions{})

	require.Equal(t, []string{"s1"}, result.DeletedIDs)
	require.Len(t, result.Fragments, 2)

	for _, frag := range result.Fragments {
		assert.Equal(t, board.ToolPen, frag.Tool)
		assert.Equal(t, "#ff0000", frag.Color)
		assert.Equal(t, 2.0, frag.LineWidth)
		assert.NotEmpty(t, frag.ID)
		assert.NotEqual(t, "s1", frag.ID)
		assert.Greater(t, len(frag.Points), 1, "single-point fragments are discarded")
	}

	left, right := result.Fragments[0], result.Fragments[1]
	assert.InDelta(t, 0, left.Points[0].X, 1e-9)
	lastLeft := left.Points[len(left.Points)-1].X
	assert.Less(t, lastLeft, 12.5, "left fragment ends before the erased band")
	assert.Greater(t, lastLeft, 10.0)

	firstRight := right.Points[0].X
	assert.Greater(t, firstRight, 18.0, "right fragment starts after the erased band")
	assert.Less(t, firstRight, 20.0)
	assert.InDelta(t, 30, right.Points[len(right.Points)-1].X, 1e-9)
}

func TestApplyEraserRemovesFullyCoveredStroke(t *testing.T) {
	target := board.Stroke{
		ID:        "s1",
		Tool:      board.ToolPen,
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(4, 0)},
	}
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 20,
		Points:    []board.Point{pt(2, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{target}, EraseOptions{})

	assert.Equal(t, []string{"s1"}, result.DeletedIDs)
	assert.Empty(t, result.Fragments)
}

func TestApplyEraserSinglePointPen(t *testing.T) {
	dot := board.Stroke{ID: "dot", Tool: board.ToolPen, LineWidth: 2, Points: []board.Point{pt(5, 5)}}

	hit := board.Stroke{Tool: board.ToolEraser, LineWidth: 8, Points: []board.Point{pt(5, 5)}}
	result := ApplyEraser(hit, []board.Stroke{dot}, EraseOptions{})
	assert.Equal(t, []string{"dot"}, result.DeletedIDs)
	assert.Empty(t, result.Fragments)

	// A point eraser's bounding box is degenerate, so the broad-phase cull
	// skips any dot it is not exactly on.
	miss := board.Stroke{Tool: board.ToolEraser, LineWidth: 8, Points: []board.Point{pt(6, 5)}}
	result = ApplyEraser(miss, []board.Stroke{dot}, EraseOptions{})
	assert.True(t, result.Empty())
}

func TestApplyEraserIgnoresEraserStrokes(t *testing.T) {
	stale := board.Stroke{
		ID:        "old-eraser",
		Tool:      board.ToolEraser,
		LineWidth: 4,
		Points:    []board.Point{pt(0, 0), pt(10, 0)},
	}
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 20,
		Points:    []board.Point{pt(5, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{stale}, EraseOptions{})
	assert.True(t, result.Empty(), "eraser strokes are never erasure targets")
}

func TestApplyEraserCutsLineShape(t *testing.T) {
	target := board.Stroke{
		ID:        "l1",
		Tool:      board.ToolLine,
		Color:     "#00f",
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(100, 0)},
	}
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 10,
		Points:    []board.Point{pt(50, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{target}, EraseOptions{})

	require.Equal(t, []string{"l1"}, result.DeletedIDs)
	require.Len(t, result.Fragments, 2)
	for _, frag := range result.Fragments {
		assert.Equal(t, board.ToolPen, frag.Tool, "cut shapes downgrade to freehand ink")
		assert.Equal(t, "#00f", frag.Color)
	}
}

func TestApplyEraserCutsRectanglePerEdge(t *testing.T) {
	target := board.Stroke{
		ID:        "r1",
		Tool:      board.ToolRectangle,
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(40, 40)},
	}
	// Erase the middle of the top edge only.
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 8,
		Points:    []board.Point{pt(20, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{target}, EraseOptions{})

	require.Equal(t, []string{"r1"}, result.DeletedIDs)
	// Top edge splits in two; the other three edges survive whole, each as an
	// independent fragment rather than one continuous path.
	assert.Len(t, result.Fragments, 5)
}

func TestApplyEraserLeavesUncutShapeAlone(t *testing.T) {
	circle := board.Stroke{
		ID:        "c1",
		Tool:      board.ToolCircle,
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(50, 0)},
	}
	// Inside the circle's bounds but nowhere near its ring.
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 4,
		Points:    []board.Point{pt(0, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{circle}, EraseOptions{})
	assert.True(t, result.Empty(), "a cut that removes nothing observable is no cut")
}

func TestApplyEraserCutsCircleRing(t *testing.T) {
	circle := board.Stroke{
		ID:        "c1",
		Tool:      board.ToolCircle,
		Color:     "#0f0",
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(50, 0)},
	}
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 12,
		Points:    []board.Point{pt(50, 0)},
	}

	result := ApplyEraser(eraser, []board.Stroke{circle}, EraseOptions{})

	require.Equal(t, []string{"c1"}, result.DeletedIDs)
	assert.NotEmpty(t, result.Fragments)
	for _, frag := range result.Fragments {
		assert.Equal(t, board.ToolPen, frag.Tool)
	}
}

func TestApplyEraserSweptPath(t *testing.T) {
	target := board.Stroke{
		ID:        "s1",
		Tool:      board.ToolPen,
		LineWidth: 2,
		Points:    []board.Point{pt(0, 0), pt(100, 0)},
	}
	// Multi-point eraser sweeping across the middle of the stroke.
	eraser := board.Stroke{
		Tool:      board.ToolEraser,
		LineWidth: 6,
		Points:    []board.Point{pt(40, -10), pt(40, 10), pt(60, 10), pt(60, -10)},
	}

	result := ApplyEraser(eraser, []board.Stroke{target}, EraseOptions{})

	require.Equal(t, []string{"s1"}, result.DeletedIDs)
	require.Len(t, result.Fragments, 3, "two sweep crossings yield three fragments")
}

func TestResamplePath(t *testing.T) {
	samples := resamplePath([]board.Point{pt(0, 0), pt(10, 0)}, 1)
	require.Len(t, samples, 11)
	assert.Equal(t, pt(0, 0), samples[0])
	assert.Equal(t, pt(10, 0), samples[10])

	// Step carries across vertices so sampling stays uniform in arc length.
	samples = resamplePath([]board.Point{pt(0, 0), pt(0.5, 0), pt(3, 0)}, 1)
	for i := 1; i < len(samples); i++ {
		assert.InDelta(t, 1.0, samples[i].X-samples[i-1].X, 1e-9)
	}
}

func TestEraseOptionsDefaults(t *testing.T) {
	opts := EraseOptions{}.withDefaults()
	assert.Equal(t, 1.0, opts.SampleStep)
	assert.Equal(t, 1.0, opts.CutTolerance)

	custom := EraseOptions{SampleStep: 0.5, CutTolerance: 2}.withDefaults()
	assert.Equal(t, 0.5, custom.SampleStep)
	assert.Equal(t, 2.0, custom.CutTolerance)
}
