package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/board"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

var errNothingToApply = errors.New("nothing to apply")

// BoardState holds the authoritative board for a room. All mutations go
// through the drawing engine so server state, the editor's local state, and
// every viewer agree on erasure splits and gesture results.
type BoardState struct {
	mu        sync.RWMutex
	eng       *engine.Engine
	serverSeq int64
	dirty     bool
}

// NewBoardState wraps a loaded board document.
func NewBoardState(p *board.Project) *BoardState {
	eng := engine.NewEngine()
	eng.SetProject(p)
	return &BoardState{eng: eng}
}

// Document returns the current board serialized for sync or persistence.
func (bs *BoardState) Document() json.RawMessage {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return json.RawMessage(bs.eng.ProjectJSON())
}

// ServerSeq returns the sequence number of the last applied operation.
func (bs *BoardState) ServerSeq() int64 {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.serverSeq
}

// Dirty reports whether the board changed since the last MarkSaved.
func (bs *BoardState) Dirty() bool {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.dirty
}

// MarkSaved clears the dirty flag after a successful persist.
func (bs *BoardState) MarkSaved() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.dirty = false
}

// Apply runs one operation against the board and returns the new server
// sequence. Rejected operations leave the board untouched.
func (bs *BoardState) Apply(op Operation) (int64, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if err := bs.applyLocked(op); err != nil {
		return 0, err
	}

	bs.serverSeq++
	bs.dirty = true
	return bs.serverSeq, nil
}

func (bs *BoardState) applyLocked(op Operation) error {
	switch op.Type {
	case OpStrokeAdd:
		if op.Stroke == nil {
			return errors.New("stroke.add: missing stroke")
		}
		if op.Stroke.Tool == board.ToolEraser {
			return errors.New("stroke.add: eraser strokes must use stroke.erase")
		}
		if op.Stroke.ID == "" {
			op.Stroke.ID = typeid.NewStrokeID()
		}
		bs.eng.AddStroke(*op.Stroke)

	case OpStrokeErase:
		if op.Stroke == nil || op.Stroke.Tool != board.ToolEraser {
			return errors.New("stroke.erase: missing eraser stroke")
		}
		bs.eng.Erase(*op.Stroke)

	case OpImageAdd:
		if op.Image == nil {
			return errors.New("image.add: missing image")
		}
		if op.Image.ID == "" {
			op.Image.ID = typeid.NewImageID()
		}
		bs.eng.AddImage(*op.Image)

	case OpObjectsUpdate:
		if len(op.Strokes) == 0 && len(op.Images) == 0 {
			return errors.New("objects.update: empty")
		}
		bs.eng.UpdateObjects(op.Strokes, op.Images)

	case OpObjectsDelete:
		bs.eng.SetSelection(op.StrokeIDs, op.ImageIDs)
		if s, i := bs.eng.Selection(); len(s) == 0 && len(i) == 0 {
			return errNothingToApply
		}
		bs.eng.DeleteSelection()

	case OpBoardClear:
		bs.eng.Clear()

	case OpBoardUndo:
		if !bs.eng.Undo() {
			return errNothingToApply
		}

	case OpBoardRedo:
		if !bs.eng.Redo() {
			return errNothingToApply
		}

	case OpProjectRename:
		if op.Name == "" {
			return errors.New("project.rename: missing name")
		}
		bs.eng.Project().Name = op.Name

	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
	return nil
}

// GetServerTimestamp returns the current server timestamp in milliseconds.
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
