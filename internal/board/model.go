package board

// Point is a position in world space. World coordinates are unbounded;
// pan/zoom is a view transform applied by the frontend at render time.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DrawingTool string

const (
	ToolPen        DrawingTool = "pen"
	ToolEraser     DrawingTool = "eraser"
	ToolRectangle  DrawingTool = "rectangle"
	ToolCircle     DrawingTool = "circle"
	ToolLine       DrawingTool = "line"
	ToolDashedLine DrawingTool = "dashed-line"
	ToolTriangle   DrawingTool = "triangle"
)

// Stroke is one drawable ink object. The meaning of Points depends on Tool:
//
//   - pen/eraser: an ordered polyline of any length >= 1
//   - line/dashed-line/rectangle: exactly [start, end]; rectangle corners are
//     the axis-aligned box spanned by the two points
//   - circle: exactly [center, edgePoint]; radius = distance between them
//   - triangle: exactly [start, end] as a bounding box; isoceles with apex at
//     top-mid, base corners at bottom-left/bottom-right
//
// Eraser strokes are transient: they drive erasure and are never rendered or
// persisted as drawable objects.
type Stroke struct {
	ID        string      `json:"id"`
	Tool      DrawingTool `json:"tool"`
	Color     string      `json:"color"`
	LineWidth float64     `json:"lineWidth"`
	Points    []Point     `json:"points"`
}

// ShapePointCount returns how many points a tool needs before the stroke
// describes a shape, or 0 if any length >= 1 is valid.
func (t DrawingTool) ShapePointCount() int {
	switch t {
	case ToolLine, ToolDashedLine, ToolRectangle, ToolCircle, ToolTriangle:
		return 2
	default:
		return 0
	}
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	out := s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	return out
}

// ImageTransform places a rectangle centered at (X, Y) with unrotated
// half-extents (Width/2, Height/2), rotated by Rotation radians about its
// own center.
type ImageTransform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// CanvasImage is a placed background image. DataURL is an opaque encoded
// bitmap; the engine never looks inside it.
type CanvasImage struct {
	ID        string         `json:"id"`
	DataURL   string         `json:"dataUrl"`
	Transform ImageTransform `json:"transform"`
}

// Project is one drawing surface. Stroke and image IDs are unique within a
// project; slice order is paint order (later = on top) and therefore also
// hit-test priority (topmost first).
type Project struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Strokes []Stroke      `json:"strokes"`
	Images  []CanvasImage `json:"images"`
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	out := &Project{
		ID:      p.ID,
		Name:    p.Name,
		Strokes: CloneStrokes(p.Strokes),
		Images:  CloneImages(p.Images),
	}
	return out
}

// CloneStrokes deep-copies a stroke list. A nil input yields an empty,
// non-nil slice so snapshots always round-trip as JSON arrays.
func CloneStrokes(strokes []Stroke) []Stroke {
	out := make([]Stroke, len(strokes))
	for i, s := range strokes {
		out[i] = s.Clone()
	}
	return out
}

// CloneImages deep-copies an image list.
func CloneImages(images []CanvasImage) []CanvasImage {
	out := make([]CanvasImage, len(images))
	copy(out, images)
	return out
}

// FindStroke returns the index of the stroke with the given id, or -1.
func (p *Project) FindStroke(id string) int {
	for i := range p.Strokes {
		if p.Strokes[i].ID == id {
			return i
		}
	}
	return -1
}

// FindImage returns the index of the image with the given id, or -1.
func (p *Project) FindImage(id string) int {
	for i := range p.Images {
		if p.Images[i].ID == id {
			return i
		}
	}
	return -1
}

// NewEmptyProject creates a project with no content.
func NewEmptyProject(id, name string) *Project {
	return &Project{
		ID:      id,
		Name:    name,
		Strokes: []Stroke{},
		Images:  []CanvasImage{},
	}
}
