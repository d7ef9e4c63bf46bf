package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/board"
)

// saveInterval is how often dirty boards are flushed to storage while a room
// stays open.
const saveInterval = 30 * time.Second

// BoardLoader fetches the latest persisted board for a project.
type BoardLoader func(projectID string) (*board.Project, error)

// BoardSaver persists the board document for a project.
type BoardSaver func(projectID string, doc json.RawMessage) error

type Room struct {
	projectID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	state     *BoardState
	editorID  string // clientID of the active editor, empty if none
}

func NewRoom(projectID string, state *BoardState) *Room {
	return &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		state:     state,
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	loader     BoardLoader
	saver      BoardSaver
}

func NewHub(loader BoardLoader, saver BoardSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		loader:     loader,
		saver:      saver,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ticker.C:
			h.saveDirtyRooms()
		case <-h.stop:
			h.saveDirtyRooms()
			close(h.done)
			return
		}
	}
}

// Stop flushes every dirty board and shuts the hub down. Blocks until the
// final save completes.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		p, err := h.loader(client.ProjectID)
		if err != nil {
			slog.Error("load board", "error", err, "project", client.ProjectID)
			p = board.NewEmptyProject(client.ProjectID, "")
		}
		room = NewRoom(client.ProjectID, NewBoardState(p))
		h.rooms[client.ProjectID] = room
	}

	// A room has at most one editor. A second connection claiming the role
	// (another tab, a reconnect race) is demoted to viewer.
	if client.Role == RoleEditor {
		if room.editorID != "" {
			client.Role = RoleViewer
		} else {
			room.editorID = client.ClientID
		}
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	welcomePayload, _ := json.Marshal(WelcomePayload{
		ClientID:  client.ClientID,
		Role:      client.Role,
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{Type: TypeWelcome, Payload: welcomePayload})

	syncPayload, _ := json.Marshal(BoardSyncPayload{
		Document:  room.state.Document(),
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{Type: TypeBoardSync, Payload: syncPayload})

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.ProjectID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID, "role", client.Role)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.outbox)
	room.presence.Remove(client.ClientID)
	if room.editorID == client.ClientID {
		room.editorID = ""
	}

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(room)
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.ProjectID, &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}, "")

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOperation(sender, msg)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handleOperation(sender *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid operation payload", "error", err, "user", sender.UserID)
		return
	}
	op := payload.Operation

	if sender.Role != RoleEditor {
		h.nack(sender, op.ID, "read-only: viewers cannot edit")
		return
	}

	h.mu.RLock()
	room, ok := h.rooms[sender.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	serverSeq, err := room.state.Apply(op)
	if err != nil {
		h.nack(sender, op.ID, err.Error())
		return
	}

	ackPayload, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Payload: ackPayload})

	broadcastPayload, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: serverSeq,
	})
	h.broadcastToRoom(sender.ProjectID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Payload: broadcastPayload,
	}, sender.ClientID)
}

func (h *Hub) nack(client *Client, opID, reason string) {
	payload, _ := json.Marshal(OperationNackPayload{OperationID: opID, Reason: reason})
	client.Send(&Message{Type: TypeOpNack, Payload: payload})
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	room, ok := h.rooms[sender.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.ProjectID, &Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		UserID:   sender.UserID,
		Payload:  outPayload,
	}, sender.ClientID)
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) saveDirtyRooms() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		h.saveRoom(room)
	}
}

func (h *Hub) saveRoom(room *Room) {
	if !room.state.Dirty() {
		return
	}
	if err := h.saver(room.projectID, room.state.Document()); err != nil {
		slog.Error("save board", "error", err, "project", room.projectID)
		return
	}
	room.state.MarkSaved()
	slog.Info("board saved", "project", room.projectID)
}
