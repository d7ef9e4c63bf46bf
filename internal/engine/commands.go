package engine

import (
	"encoding/json"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// DrawCommand represents a single drawing operation for the frontend to
// execute on a Canvas2D context. The engine only emits data; rasterization
// is entirely the host's job.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path" or "image"
	ObjectID    string        `json:"objectId,omitempty"`    // for hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // path data for "path" ops
	Stroke      string        `json:"stroke,omitempty"`      // stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // stroke width
	LineDash    []float64     `json:"lineDash,omitempty"`    // dash pattern, if any
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Width       float64       `json:"width,omitempty"`       // image width
	Height      float64       `json:"height,omitempty"`      // image height
	DataURL     string        `json:"dataUrl,omitempty"`     // encoded bitmap for image ops
}

// CompileDrawCommands generates a draw command buffer for a snapshot in
// painter's order: images first (they sit behind ink), then strokes, each
// list back to front. Eraser strokes and shapeless strokes emit nothing.
func CompileDrawCommands(snap Snapshot) []DrawCommand {
	commands := make([]DrawCommand, 0, len(snap.Images)+len(snap.Strokes))

	for _, img := range snap.Images {
		t := img.Transform
		m := Translate(t.X, t.Y).
			Multiply(Rotate(t.Rotation)).
			Multiply(Translate(-t.Width/2, -t.Height/2))
		commands = append(commands, DrawCommand{
			Op:        "image",
			ObjectID:  img.ID,
			Transform: m.ToSlice(),
			Width:     t.Width,
			Height:    t.Height,
			DataURL:   img.DataURL,
		})
	}

	for _, s := range snap.Strokes {
		path := strokePath(s)
		if path == nil {
			continue
		}
		cmd := DrawCommand{
			Op:          "path",
			ObjectID:    s.ID,
			Path:        path,
			Stroke:      s.Color,
			StrokeWidth: s.LineWidth,
		}
		if s.Tool == board.ToolDashedLine {
			cmd.LineDash = []float64{s.LineWidth * 3, s.LineWidth * 2}
		}
		commands = append(commands, cmd)
	}

	return commands
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// strokePath generates canvas path commands for a stroke under its per-tool
// interpretation, or nil for erasers and shapeless strokes.
func strokePath(s board.Stroke) []PathCommand {
	if s.Tool == board.ToolEraser {
		return nil
	}
	if len(s.Points) == 0 || len(s.Points) < s.Tool.ShapePointCount() {
		return nil
	}

	switch s.Tool {
	case board.ToolPen:
		path := make([]PathCommand, 0, len(s.Points))
		path = append(path, PathCommand{"M", s.Points[0].X, s.Points[0].Y})
		for _, p := range s.Points[1:] {
			path = append(path, PathCommand{"L", p.X, p.Y})
		}
		return path

	case board.ToolLine, board.ToolDashedLine:
		return []PathCommand{
			{"M", s.Points[0].X, s.Points[0].Y},
			{"L", s.Points[1].X, s.Points[1].Y},
		}

	case board.ToolRectangle:
		c := RectangleCorners(s.Points[0], s.Points[1])
		return []PathCommand{
			{"M", c[0].X, c[0].Y},
			{"L", c[1].X, c[1].Y},
			{"L", c[2].X, c[2].Y},
			{"L", c[3].X, c[3].Y},
			{"Z"},
		}

	case board.ToolTriangle:
		c := TriangleCorners(s.Points[0], s.Points[1])
		return []PathCommand{
			{"M", c[0].X, c[0].Y},
			{"L", c[1].X, c[1].Y},
			{"L", c[2].X, c[2].Y},
			{"Z"},
		}

	case board.ToolCircle:
		return circlePath(s.Points[0], distance(s.Points[0], s.Points[1]))

	default:
		return nil
	}
}

// circlePath approximates a circle with four cubic bezier curves.
// k = 4 * (sqrt(2) - 1) / 3 ≈ 0.5522847498
func circlePath(c board.Point, r float64) []PathCommand {
	k := 0.5522847498 * r
	return []PathCommand{
		{"M", c.X + r, c.Y},
		{"C", c.X + r, c.Y + k, c.X + k, c.Y + r, c.X, c.Y + r},
		{"C", c.X - k, c.Y + r, c.X - r, c.Y + k, c.X - r, c.Y},
		{"C", c.X - r, c.Y - k, c.X - k, c.Y - r, c.X, c.Y - r},
		{"C", c.X + k, c.Y - r, c.X + r, c.Y - k, c.X + r, c.Y},
		{"Z"},
	}
}
