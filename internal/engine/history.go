package engine

import "github.com/inkboard/inkboard/backend-go/internal/board"

// Snapshot is a full immutable copy of a project's drawable state at one
// committed point in time.
type Snapshot struct {
	Strokes []board.Stroke      `json:"strokes"`
	Images  []board.CanvasImage `json:"images"`
}

// NewSnapshot deep-copies the given state into a snapshot.
func NewSnapshot(strokes []board.Stroke, images []board.CanvasImage) Snapshot {
	return Snapshot{
		Strokes: board.CloneStrokes(strokes),
		Images:  board.CloneImages(images),
	}
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return NewSnapshot(s.Strokes, s.Images)
}

// History is a linear undo/redo store: an append-only sequence of snapshots
// with a current index. Committing after an undo truncates the abandoned
// branch, so redo history is lost on a new edit.
type History struct {
	snapshots []Snapshot
	index     int
}

// NewHistory starts a history whose single snapshot is the given state.
func NewHistory(strokes []board.Stroke, images []board.CanvasImage) *History {
	return &History{
		snapshots: []Snapshot{NewSnapshot(strokes, images)},
		index:     0,
	}
}

// Commit truncates any snapshots after the current index, appends the new
// state, and advances to it.
func (h *History) Commit(strokes []board.Stroke, images []board.CanvasImage) {
	h.snapshots = append(h.snapshots[:h.index+1], NewSnapshot(strokes, images))
	h.index = len(h.snapshots) - 1
}

// Undo steps back one snapshot. ok is false at the start of history.
func (h *History) Undo() (Snapshot, bool) {
	if h.index == 0 {
		return Snapshot{}, false
	}
	h.index--
	return h.snapshots[h.index].Clone(), true
}

// Redo steps forward one snapshot. ok is false at the end of history.
func (h *History) Redo() (Snapshot, bool) {
	if h.index >= len(h.snapshots)-1 {
		return Snapshot{}, false
	}
	h.index++
	return h.snapshots[h.index].Clone(), true
}

// CanUndo reports whether Undo would step.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether Redo would step.
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// Current returns a copy of the snapshot at the current index.
func (h *History) Current() Snapshot {
	return h.snapshots[h.index].Clone()
}

// Reset discards all history and starts fresh from the given state. Used
// when switching projects; unlike Commit it is not an edit.
func (h *History) Reset(strokes []board.Stroke, images []board.CanvasImage) {
	h.snapshots = []Snapshot{NewSnapshot(strokes, images)}
	h.index = 0
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.snapshots) }
