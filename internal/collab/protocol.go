package collab

import (
	"encoding/json"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Role controls what a connected client may do. A room has at most one
// editor; everyone else watches.
type Role string

const (
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

const (
	TypeWelcome   = "welcome"
	TypeBoardSync = "board.sync"
	TypeError     = "error"

	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

// WelcomePayload is the first message a client receives.
type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	Role      Role   `json:"role"`
	ServerSeq int64  `json:"serverSeq"`
}

// BoardSyncPayload carries the full serialized board document.
type BoardSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// Operation mutation types.
const (
	OpStrokeAdd     = "stroke.add"
	OpStrokeErase   = "stroke.erase"
	OpImageAdd      = "image.add"
	OpObjectsUpdate = "objects.update"
	OpObjectsDelete = "objects.delete"
	OpBoardClear    = "board.clear"
	OpBoardUndo     = "board.undo"
	OpBoardRedo     = "board.redo"
	OpProjectRename = "project.rename"
)

// Operation is one board mutation submitted by the editor. Only the fields
// relevant to Type are populated.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// stroke.add / stroke.erase
	Stroke *board.Stroke `json:"stroke,omitempty"`

	// image.add
	Image *board.CanvasImage `json:"image,omitempty"`

	// objects.update, the committed result of a finished gesture
	Strokes []board.Stroke      `json:"strokes,omitempty"`
	Images  []board.CanvasImage `json:"images,omitempty"`

	// objects.delete
	StrokeIDs []string `json:"strokeIds,omitempty"`
	ImageIDs  []string `json:"imageIds,omitempty"`

	// project.rename
	Name string `json:"name,omitempty"`
}

type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}
