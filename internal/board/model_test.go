package board

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() *Project {
	return &Project{
		ID:   "proj_01h2xcejqtf2nbrexx3vqjhp41",
		Name: "Sketchpad",
		Strokes: []Stroke{
			{ID: "stroke_1", Tool: ToolPen, Color: "#1e1e1e", LineWidth: 2,
				Points: []Point{{0, 0}, {3, 4}, {10, 4}}},
			{ID: "stroke_2", Tool: ToolLine, Color: "#ff0000", LineWidth: 1,
				Points: []Point{{0, 0}, {50, 50}}},
			{ID: "stroke_3", Tool: ToolDashedLine, Color: "#00ff00", LineWidth: 3,
				Points: []Point{{10, 0}, {60, 0}}},
			{ID: "stroke_4", Tool: ToolRectangle, Color: "#0000ff", LineWidth: 2,
				Points: []Point{{5, 5}, {25, 15}}},
			{ID: "stroke_5", Tool: ToolTriangle, Color: "#123456", LineWidth: 2,
				Points: []Point{{0, 0}, {20, 20}}},
			{ID: "stroke_6", Tool: ToolCircle, Color: "#654321", LineWidth: 4,
				Points: []Point{{30, 30}, {40, 30}}},
		},
		Images: []CanvasImage{
			{ID: "img_1", DataURL: "data:image/png;base64,iVBORw0KGgo=",
				Transform: ImageTransform{X: 100, Y: 80, Width: 64, Height: 48, Rotation: 0.35}},
		},
	}
}

func TestProjectJSONRoundTrip(t *testing.T) {
	original := sampleProject()

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Project
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, *original, decoded)
}

func TestProjectJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(sampleProject())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	strokes, ok := doc["strokes"].([]any)
	require.True(t, ok)
	first, ok := strokes[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, first, "lineWidth")
	assert.Contains(t, first, "points")

	images, ok := doc["images"].([]any)
	require.True(t, ok)
	img, ok := images[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, img, "dataUrl")
	assert.Contains(t, img, "transform")
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleProject()
	clone := original.Clone()

	clone.Strokes[0].Points[0].X = 999
	clone.Images[0].Transform.X = 999
	clone.Name = "Renamed"

	assert.Equal(t, 0.0, original.Strokes[0].Points[0].X)
	assert.Equal(t, 100.0, original.Images[0].Transform.X)
	assert.Equal(t, "Sketchpad", original.Name)
}

func TestCloneStrokesNilInput(t *testing.T) {
	out := CloneStrokes(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFindStrokeAndImage(t *testing.T) {
	p := sampleProject()

	assert.Equal(t, 3, p.FindStroke("stroke_4"))
	assert.Equal(t, -1, p.FindStroke("stroke_999"))
	assert.Equal(t, 0, p.FindImage("img_1"))
	assert.Equal(t, -1, p.FindImage("img_2"))
}

func TestShapePointCount(t *testing.T) {
	assert.Equal(t, 0, ToolPen.ShapePointCount())
	assert.Equal(t, 0, ToolEraser.ShapePointCount())
	for _, tool := range []DrawingTool{ToolLine, ToolDashedLine, ToolRectangle, ToolCircle, ToolTriangle} {
		assert.Equal(t, 2, tool.ShapePointCount(), string(tool))
	}
}
