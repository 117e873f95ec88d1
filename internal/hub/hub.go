package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"codelink/hub/internal/action"
	"codelink/hub/internal/protocol"
	"codelink/hub/internal/registry"
	"codelink/hub/internal/taskqueue"
)

const wsReadLimitBytes int64 = 8 << 20 // generous: project trees ride this channel

type peerConn struct {
	id      string
	role    string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Hub accepts client connections, tags each by role and routes the closed
// set of sync events between the editor agent and mobile observers. It never
// executes an action itself.
type Hub struct {
	logger   *slog.Logger
	registry *registry.Registry
	queue    *taskqueue.Queue

	mu    sync.Mutex
	peers map[string]*peerConn
}

func New(logger *slog.Logger, reg *registry.Registry, queue *taskqueue.Queue) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:   logger,
		registry: reg,
		queue:    queue,
		peers:    map[string]*peerConn{},
	}
}

// HandleWS upgrades the connection, registers the client and runs its read
// loop. Each inbound event is one short unit of work; a handler never blocks
// on another client's connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role != registry.RoleEditor && role != registry.RoleMobile {
		http.Error(w, "role must be editor or mobile", http.StatusBadRequest)
		return
	}
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		clientID = uuid.NewString()
	}
	projectPath := strings.TrimSpace(r.URL.Query().Get("project"))

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(wsReadLimitBytes)

	if err := h.registry.RegisterClient(clientID, role, projectPath); err != nil {
		_ = conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	peer := &peerConn{id: clientID, role: role, conn: conn}
	h.attach(peer)
	h.logger.Info("client connected", "client", clientID, "role", role)

	defer func() {
		h.detach(peer)
		h.registry.UnregisterClient(clientID)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		// Disconnect never cancels in-flight tasks; results may still arrive
		// after a reconnect.
		h.logger.Info("client disconnected", "client", clientID)
	}()

	// Every client gets the project list without asking for it.
	h.writePeer(peer, h.projectListEvent())

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		h.dispatch(peer, data)
	}
}

func (h *Hub) dispatch(from *peerConn, data []byte) {
	var evt protocol.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		h.logger.Warn("dropping undecodable event", "client", from.id, "error", err)
		return
	}
	if !protocol.KnownEventType(evt.Type) {
		// Forward compatibility over strictness.
		h.logger.Warn("dropping unknown event type", "client", from.id, "type", evt.Type)
		return
	}

	switch evt.Type {
	case protocol.EventProjectChanged:
		h.handleProjectChanged(from, evt)
	case protocol.EventActionResult:
		h.handleActionResult(from, evt)
	default:
		h.broadcastExcept(from.id, evt)
	}
}

type projectChangedPayload struct {
	Path  string              `json:"path"`
	Name  string              `json:"name"`
	Files []registry.FileNode `json:"files"`
}

func (h *Hub) handleProjectChanged(from *peerConn, evt protocol.Event) {
	var payload projectChangedPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		h.logger.Warn("bad project:changed payload", "client", from.id, "error", err)
		return
	}
	if _, err := h.registry.UpsertProject(payload.Path, payload.Name, payload.Files); err != nil {
		h.logger.Error("project upsert failed", "path", payload.Path, "error", err)
		return
	}
	h.broadcastExcept(from.id, evt)
	h.Broadcast(h.projectListEvent())
}

type actionResultPayload struct {
	TaskID string        `json:"taskId"`
	Result action.Result `json:"result"`
}

func (h *Hub) handleActionResult(from *peerConn, evt protocol.Event) {
	var payload actionResultPayload
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		h.logger.Warn("bad action:result payload", "client", from.id, "error", err)
		return
	}
	task, err := h.queue.RecordActionResult(payload.TaskID, payload.Result)
	if err != nil {
		h.logger.Warn("action result rejected", "task", payload.TaskID, "error", err)
		return
	}
	h.broadcastExcept(from.id, evt)
	if task.Status.Terminal() {
		h.Broadcast(protocol.Event{
			Type: protocol.EventTaskUpdated,
			Data: protocol.MustRaw(map[string]any{"taskId": task.ID, "status": task.Status}),
		})
	}
}

func (h *Hub) projectListEvent() protocol.Event {
	return protocol.Event{
		Type: protocol.EventProjectList,
		Data: protocol.MustRaw(h.registry.ListProjects()),
	}
}

// Broadcast delivers an event to every connected client.
func (h *Hub) Broadcast(evt protocol.Event) {
	h.broadcastExcept("", evt)
}

func (h *Hub) broadcastExcept(exceptID string, evt protocol.Event) {
	h.mu.Lock()
	targets := make([]*peerConn, 0, len(h.peers))
	for id, peer := range h.peers {
		if id == exceptID {
			continue
		}
		targets = append(targets, peer)
	}
	h.mu.Unlock()

	for _, peer := range targets {
		h.writePeer(peer, evt)
	}
}

func (h *Hub) writePeer(peer *peerConn, evt protocol.Event) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	peer.writeMu.Lock()
	_ = peer.conn.Write(ctx, websocket.MessageText, raw)
	peer.writeMu.Unlock()
	cancel()
}

func (h *Hub) attach(peer *peerConn) {
	h.mu.Lock()
	h.peers[peer.id] = peer
	h.mu.Unlock()
}

func (h *Hub) detach(peer *peerConn) {
	h.mu.Lock()
	if h.peers[peer.id] == peer {
		delete(h.peers, peer.id)
	}
	h.mu.Unlock()
}
