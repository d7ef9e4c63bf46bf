package engine

import (
	"encoding/json"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

// DefaultHitTolerance is the world-space slack used for stroke hit-testing
// when the caller does not supply one.
const DefaultHitTolerance = 5.0

// minShapeSpan is the smallest bounding-box span (or polyline length) at
// which a finished two-point shape is kept rather than discarded as an
// accidental click.
const minShapeSpan = 2.0

// Engine owns a project's committed drawable state, its undo history, the
// current selection, and at most one in-progress gesture. It is purely
// reactive: hosts call its methods on discrete events and it holds no timers
// of its own. There is exactly one writer (the active gesture), so no
// locking is needed.
type Engine struct {
	project *board.Project
	history *History

	selectedStrokeIDs []string
	selectedImageIDs  []string

	// Active gesture state, captured once at gesture start. The preview is
	// always a fresh value derived from this frozen baseline; it is
	// discarded on end or cancel, never merged.
	strokeGesture *StrokeGesture
	imageGestures []*ImageGesture
	preview       *Snapshot

	eraseOptions EraseOptions
}

// NewEngine creates an engine with an empty, unnamed project.
func NewEngine() *Engine {
	p := board.NewEmptyProject("", "")
	return &Engine{
		project: p,
		history: NewHistory(p.Strokes, p.Images),
	}
}

// SetEraseOptions overrides the erasure sampling constants.
func (e *Engine) SetEraseOptions(opts EraseOptions) {
	e.eraseOptions = opts
}

// LoadProject replaces the committed state from serialized project JSON and
// starts a fresh history. Loading is not an edit.
func (e *Engine) LoadProject(jsonData string) error {
	var p board.Project
	if err := json.Unmarshal([]byte(jsonData), &p); err != nil {
		return err
	}
	e.SetProject(&p)
	return nil
}

// SetProject installs a project as the committed state and resets history
// and selection.
func (e *Engine) SetProject(p *board.Project) {
	if p.Strokes == nil {
		p.Strokes = []board.Stroke{}
	}
	if p.Images == nil {
		p.Images = []board.CanvasImage{}
	}
	e.project = p
	e.history = NewHistory(p.Strokes, p.Images)
	e.clearSelection()
	e.dropGesture()
}

// Project returns the committed project. Callers must not mutate it.
func (e *Engine) Project() *board.Project {
	return e.project
}

// ProjectJSON returns the committed project serialized for persistence.
func (e *Engine) ProjectJSON() string {
	data, _ := json.Marshal(e.project)
	return string(data)
}

// --- Selection ---

// SetSelection replaces the selection, silently dropping ids that no longer
// correspond to existing objects.
func (e *Engine) SetSelection(strokeIDs, imageIDs []string) {
	e.selectedStrokeIDs = e.selectedStrokeIDs[:0]
	for _, id := range strokeIDs {
		if e.project.FindStroke(id) >= 0 {
			e.selectedStrokeIDs = append(e.selectedStrokeIDs, id)
		}
	}
	e.selectedImageIDs = e.selectedImageIDs[:0]
	for _, id := range imageIDs {
		if e.project.FindImage(id) >= 0 {
			e.selectedImageIDs = append(e.selectedImageIDs, id)
		}
	}
}

// Selection returns the selected stroke and image ids.
func (e *Engine) Selection() (strokeIDs, imageIDs []string) {
	return append([]string(nil), e.selectedStrokeIDs...),
		append([]string(nil), e.selectedImageIDs...)
}

// ClearSelection empties both selection sets.
func (e *Engine) ClearSelection() {
	e.clearSelection()
}

func (e *Engine) clearSelection() {
	e.selectedStrokeIDs = nil
	e.selectedImageIDs = nil
}

// SelectionBounds returns the combined bounding box of the selection. ok is
// false for an empty or shapeless selection.
func (e *Engine) SelectionBounds() (Rect, bool) {
	var selected []board.Stroke
	for _, id := range e.selectedStrokeIDs {
		if i := e.project.FindStroke(id); i >= 0 {
			selected = append(selected, e.project.Strokes[i])
		}
	}

	out, found := UnionBounds(selected)
	for _, id := range e.selectedImageIDs {
		i := e.project.FindImage(id)
		if i < 0 {
			continue
		}
		b := TransformedImageBounds(e.project.Images[i].Transform)
		if !found {
			out = b
			found = true
			continue
		}
		minX := min(out.X, b.X)
		minY := min(out.Y, b.Y)
		maxX := max(out.X+out.Width, b.X+b.Width)
		maxY := max(out.Y+out.Height, b.Y+b.Height)
		out = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	return out, found
}

// --- Hit testing ---

// HitResult identifies the topmost object under a point.
type HitResult struct {
	Kind string `json:"kind"` // "stroke" or "image", empty for a miss
	ID   string `json:"id"`
}

// HitTest returns the topmost object at a point. Strokes paint above images,
// and within each list later entries are on top, so strokes are tested in
// reverse order first, then images.
func (e *Engine) HitTest(p board.Point, tolerance float64) HitResult {
	for i := len(e.project.Strokes) - 1; i >= 0; i-- {
		s := e.project.Strokes[i]
		if PointOnStroke(p, s, tolerance) {
			return HitResult{Kind: "stroke", ID: s.ID}
		}
	}
	for i := len(e.project.Images) - 1; i >= 0; i-- {
		img := e.project.Images[i]
		if PointInRotatedRect(p, img.Transform) {
			return HitResult{Kind: "image", ID: img.ID}
		}
	}
	return HitResult{}
}

// HandleAt hit-tests the transform handles of the single selected image.
func (e *Engine) HandleAt(p board.Point) Handle {
	if len(e.selectedImageIDs) != 1 {
		return HandleNone
	}
	i := e.project.FindImage(e.selectedImageIDs[0])
	if i < 0 {
		return HandleNone
	}
	return ImageHandleAt(p, e.project.Images[i].Transform)
}

// --- Edits ---

// AddStroke commits a finished stroke. Eraser strokes are routed through the
// erasure engine and discarded; degenerate shapes below the minimum span are
// dropped without committing.
func (e *Engine) AddStroke(s board.Stroke) {
	if s.Tool == board.ToolEraser {
		e.Erase(s)
		return
	}
	if len(s.Points) == 0 {
		return
	}
	if s.Tool.ShapePointCount() == 2 {
		b, ok := BoundsOf(s)
		if !ok || (b.Width < minShapeSpan && b.Height < minShapeSpan) {
			return
		}
	}

	e.project.Strokes = append(board.CloneStrokes(e.project.Strokes), s.Clone())
	e.commit()
}

// UpdateObjects replaces existing strokes and images by id with the supplied
// versions, preserving stacking order, and commits once. Used to apply
// finished transform geometry computed elsewhere. Unknown ids are ignored;
// a call that matches nothing does not commit.
func (e *Engine) UpdateObjects(strokes []board.Stroke, images []board.CanvasImage) {
	matched := false

	newStrokes := board.CloneStrokes(e.project.Strokes)
	for _, repl := range strokes {
		if i := e.project.FindStroke(repl.ID); i >= 0 {
			newStrokes[i] = repl.Clone()
			matched = true
		}
	}
	newImages := board.CloneImages(e.project.Images)
	for _, repl := range images {
		if i := e.project.FindImage(repl.ID); i >= 0 {
			newImages[i] = repl
			matched = true
		}
	}
	if !matched {
		return
	}

	e.project.Strokes = newStrokes
	e.project.Images = newImages
	e.commit()
}

// AddImage commits a placed image.
func (e *Engine) AddImage(img board.CanvasImage) {
	e.project.Images = append(board.CloneImages(e.project.Images), img)
	e.commit()
}

// DeleteSelection removes every selected object and clears the selection.
func (e *Engine) DeleteSelection() {
	if len(e.selectedStrokeIDs) == 0 && len(e.selectedImageIDs) == 0 {
		return
	}

	selStrokes := make(map[string]bool, len(e.selectedStrokeIDs))
	for _, id := range e.selectedStrokeIDs {
		selStrokes[id] = true
	}
	selImages := make(map[string]bool, len(e.selectedImageIDs))
	for _, id := range e.selectedImageIDs {
		selImages[id] = true
	}

	strokes := make([]board.Stroke, 0, len(e.project.Strokes))
	for _, s := range e.project.Strokes {
		if !selStrokes[s.ID] {
			strokes = append(strokes, s)
		}
	}
	images := make([]board.CanvasImage, 0, len(e.project.Images))
	for _, img := range e.project.Images {
		if !selImages[img.ID] {
			images = append(images, img)
		}
	}

	e.project.Strokes = strokes
	e.project.Images = images
	e.clearSelection()
	e.commit()
}

// Clear removes all strokes and images.
func (e *Engine) Clear() {
	e.project.Strokes = []board.Stroke{}
	e.project.Images = []board.CanvasImage{}
	e.clearSelection()
	e.commit()
}

// Erase applies an eraser stroke to the committed state. Untouched strokes
// are preserved identically; a no-op erasure does not commit.
func (e *Engine) Erase(eraser board.Stroke) EraseResult {
	result := ApplyEraser(eraser, e.project.Strokes, e.eraseOptions)
	if result.Empty() {
		return result
	}

	deleted := make(map[string]bool, len(result.DeletedIDs))
	for _, id := range result.DeletedIDs {
		deleted[id] = true
	}

	strokes := make([]board.Stroke, 0, len(e.project.Strokes)+len(result.Fragments))
	for _, s := range e.project.Strokes {
		if !deleted[s.ID] {
			strokes = append(strokes, s)
		}
	}
	strokes = append(strokes, result.Fragments...)

	e.project.Strokes = strokes
	e.commit()
	return result
}

// --- Gestures ---

// StartGesture freezes a gesture baseline over the current selection.
// Selected strokes transform as a rigid group; otherwise a single selected
// image supports all gesture kinds and multi-image selections support drag
// only. ok is false when nothing applicable is selected.
func (e *Engine) StartGesture(kind GestureKind, handle Handle, start board.Point) bool {
	e.dropGesture()

	if len(e.selectedStrokeIDs) > 0 {
		var targets []board.Stroke
		for _, id := range e.selectedStrokeIDs {
			if i := e.project.FindStroke(id); i >= 0 {
				targets = append(targets, e.project.Strokes[i])
			}
		}
		g, ok := NewStrokeGesture(kind, handle, start, targets)
		if !ok {
			return false
		}
		e.strokeGesture = g
		return true
	}

	if len(e.selectedImageIDs) == 0 {
		return false
	}
	if len(e.selectedImageIDs) > 1 && kind != GestureDrag {
		return false
	}

	for _, id := range e.selectedImageIDs {
		i := e.project.FindImage(id)
		if i < 0 {
			continue
		}
		e.imageGestures = append(e.imageGestures, NewImageGesture(kind, handle, start, e.project.Images[i]))
	}
	return len(e.imageGestures) > 0
}

// GestureActive reports whether a gesture is in progress.
func (e *Engine) GestureActive() bool {
	return e.strokeGesture != nil || len(e.imageGestures) > 0
}

// UpdateGesture recomputes the preview for the current pointer position.
// The preview is derived from the frozen baseline; committed state is never
// mutated, so updates can be dropped or recomputed freely.
func (e *Engine) UpdateGesture(current board.Point) {
	if !e.GestureActive() {
		return
	}
	snap := e.derivePreview(current)
	e.preview = &snap
}

// Preview returns the state to render: the in-progress preview if a gesture
// is active, otherwise the committed snapshot.
func (e *Engine) Preview() Snapshot {
	if e.preview != nil {
		return e.preview.Clone()
	}
	return NewSnapshot(e.project.Strokes, e.project.Images)
}

// EndGesture computes the final geometry from the same baseline as the
// preview and commits it. The transient preview is discarded, replaced by
// the freshly committed result.
func (e *Engine) EndGesture(current board.Point) {
	if !e.GestureActive() {
		return
	}
	snap := e.derivePreview(current)
	e.dropGesture()

	e.project.Strokes = snap.Strokes
	e.project.Images = snap.Images
	e.commit()
}

// CancelGesture reverts to the pre-gesture committed snapshot, discarding
// the preview. Used when pointer tracking is lost mid-gesture.
func (e *Engine) CancelGesture() {
	e.dropGesture()
}

func (e *Engine) dropGesture() {
	e.strokeGesture = nil
	e.imageGestures = nil
	e.preview = nil
}

// derivePreview builds a fresh full snapshot with the gesture's targets
// replaced by their transformed versions, preserving stacking order.
func (e *Engine) derivePreview(current board.Point) Snapshot {
	snap := NewSnapshot(e.project.Strokes, e.project.Images)

	if e.strokeGesture != nil {
		transformed := e.strokeGesture.Transform(current)
		byID := make(map[string]board.Stroke, len(transformed))
		for _, s := range transformed {
			byID[s.ID] = s
		}
		for i, s := range snap.Strokes {
			if repl, ok := byID[s.ID]; ok {
				snap.Strokes[i] = repl
			}
		}
	}

	for _, g := range e.imageGestures {
		transformed := g.Transform(current)
		for i, img := range snap.Images {
			if img.ID == transformed.ID {
				snap.Images[i] = transformed
			}
		}
	}
	return snap
}

// --- History ---

// Undo steps the committed state back one snapshot. Selection is cleared
// because its ids may no longer exist after the structural change.
func (e *Engine) Undo() bool {
	snap, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.installSnapshot(snap)
	return true
}

// Redo steps the committed state forward one snapshot.
func (e *Engine) Redo() bool {
	snap, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.installSnapshot(snap)
	return true
}

// CanUndo reports whether an undo step is available.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether a redo step is available.
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

func (e *Engine) installSnapshot(snap Snapshot) {
	e.dropGesture()
	e.project.Strokes = snap.Strokes
	e.project.Images = snap.Images
	e.clearSelection()
}

func (e *Engine) commit() {
	e.history.Commit(e.project.Strokes, e.project.Images)
}
