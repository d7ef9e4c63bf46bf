package collab

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

type savedDoc struct {
	projectID string
	doc       json.RawMessage
}

type recordingSaver struct {
	mu    sync.Mutex
	saves []savedDoc
}

func (rs *recordingSaver) save(projectID string, doc json.RawMessage) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.saves = append(rs.saves, savedDoc{projectID: projectID, doc: doc})
	return nil
}

func (rs *recordingSaver) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.saves)
}

func (rs *recordingSaver) last(t *testing.T) savedDoc {
	t.Helper()
	rs.mu.Lock()
	defer rs.mu.Unlock()
	require.NotEmpty(t, rs.saves)
	return rs.saves[len(rs.saves)-1]
}

func newTestHub(t *testing.T) (*Hub, *recordingSaver) {
	t.Helper()
	saver := &recordingSaver{}
	loader := func(projectID string) (*board.Project, error) {
		return board.NewEmptyProject(projectID, "Test Board"), nil
	}
	hub := NewHub(loader, saver.save)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub, saver
}

// recv pops the next queued message for a client, failing after a timeout.
func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.outbox:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func join(t *testing.T, hub *Hub, clientID string, role Role) *Client {
	t.Helper()
	c := NewClient(hub, nil, "user_"+clientID, "User "+clientID, "proj_1", clientID, role)
	hub.Register(c)
	return c
}

func TestHubWelcomeAndSync(t *testing.T) {
	hub, _ := newTestHub(t)
	editor := join(t, hub, "c1", RoleEditor)

	welcome := recv(t, editor)
	require.Equal(t, TypeWelcome, welcome.Type)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, RoleEditor, wp.Role)
	assert.Equal(t, "c1", wp.ClientID)

	boardSync := recv(t, editor)
	require.Equal(t, TypeBoardSync, boardSync.Type)
	var sp BoardSyncPayload
	require.NoError(t, json.Unmarshal(boardSync.Payload, &sp))
	var p board.Project
	require.NoError(t, json.Unmarshal(sp.Document, &p))
	assert.Equal(t, "proj_1", p.ID)
}

func TestHubSecondEditorDemoted(t *testing.T) {
	hub, _ := newTestHub(t)

	editor := join(t, hub, "c1", RoleEditor)
	recv(t, editor) // welcome

	second := join(t, hub, "c2", RoleEditor)
	welcome := recv(t, second)
	var wp WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, RoleViewer, wp.Role)
}

func TestHubOperationFlow(t *testing.T) {
	hub, _ := newTestHub(t)

	editor := join(t, hub, "c1", RoleEditor)
	recv(t, editor) // welcome
	recv(t, editor) // board.sync
	recv(t, editor) // presence.state

	viewer := join(t, hub, "c2", RoleViewer)
	recv(t, viewer) // welcome
	recv(t, viewer) // board.sync
	recv(t, viewer) // presence.state
	recv(t, editor) // c2 presence.join

	payload, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{
		ID:   "op_1",
		Type: OpStrokeAdd,
		Stroke: &board.Stroke{
			ID: "s1", Tool: board.ToolPen, LineWidth: 2,
			Points: []board.Point{{X: 0, Y: 0}, {X: 10, Y: 0}},
		},
	}})
	hub.handleMessage(editor, &Message{
		Type: TypeOpSubmit, ProjectID: "proj_1", ClientID: "c1", UserID: "user_c1", Payload: payload,
	})

	ack := recv(t, editor)
	require.Equal(t, TypeOpAck, ack.Type)
	var ap OperationAckPayload
	require.NoError(t, json.Unmarshal(ack.Payload, &ap))
	assert.Equal(t, "op_1", ap.OperationID)
	assert.Equal(t, int64(1), ap.ServerSeq)

	broadcast := recv(t, viewer)
	require.Equal(t, TypeOpBroadcast, broadcast.Type)
	var bp OperationBroadcastPayload
	require.NoError(t, json.Unmarshal(broadcast.Payload, &bp))
	assert.Equal(t, "s1", bp.Operation.Stroke.ID)
}

func TestHubViewerCannotEdit(t *testing.T) {
	hub, _ := newTestHub(t)

	editor := join(t, hub, "c1", RoleEditor)
	recv(t, editor) // welcome
	recv(t, editor) // board.sync
	recv(t, editor) // presence.state

	viewer := join(t, hub, "c2", RoleViewer)
	recv(t, viewer) // welcome
	recv(t, viewer) // board.sync
	recv(t, viewer) // presence.state
	recv(t, editor) // c2 presence.join

	payload, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{
		ID: "op_1", Type: OpBoardClear,
	}})
	hub.handleMessage(viewer, &Message{
		Type: TypeOpSubmit, ProjectID: "proj_1", ClientID: "c2", UserID: "user_c2", Payload: payload,
	})

	nackMsg := recv(t, viewer)
	require.Equal(t, TypeOpNack, nackMsg.Type)
	var np OperationNackPayload
	require.NoError(t, json.Unmarshal(nackMsg.Payload, &np))
	assert.Equal(t, "op_1", np.OperationID)
	assert.Contains(t, np.Reason, "read-only")
}

func TestHubSavesOnLastLeave(t *testing.T) {
	hub, saver := newTestHub(t)

	editor := join(t, hub, "c1", RoleEditor)
	recv(t, editor) // welcome
	recv(t, editor) // board.sync
	recv(t, editor) // presence.state

	payload, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{
		ID:   "op_1",
		Type: OpStrokeAdd,
		Stroke: &board.Stroke{
			ID: "s1", Tool: board.ToolPen, LineWidth: 2,
			Points: []board.Point{{X: 0, Y: 0}, {X: 10, Y: 0}},
		},
	}})
	hub.handleMessage(editor, &Message{
		Type: TypeOpSubmit, ProjectID: "proj_1", ClientID: "c1", UserID: "user_c1", Payload: payload,
	})
	recv(t, editor) // ack

	hub.unregister <- editor

	require.Eventually(t, func() bool { return saver.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	last := saver.last(t)
	assert.Equal(t, "proj_1", last.projectID)
	var p board.Project
	require.NoError(t, json.Unmarshal(last.doc, &p))
	assert.Len(t, p.Strokes, 1)
}
