package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"codelink/hub/internal/action"
	"codelink/hub/internal/logging"
	"codelink/hub/internal/protocol"
	"codelink/hub/internal/registry"
	"codelink/hub/internal/taskqueue"
)

type hubFixture struct {
	reg   *registry.Registry
	queue *taskqueue.Queue
	hub   *Hub
	ts    *httptest.Server
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	reg := registry.New(logging.Discard(), nil)
	queue := taskqueue.New(logging.Discard(), taskqueue.Options{})
	h := New(logging.Discard(), reg, queue)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return &hubFixture{reg: reg, queue: queue, hub: h, ts: ts}
}

func (f *hubFixture) dial(t *testing.T, ctx context.Context, role, clientID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + f.ts.URL[len("http"):] + "/ws?role=" + role + "&client_id=" + clientID
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, wantType string) protocol.Event {
	t.Helper()
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read ws failed waiting for %s: %v", wantType, err)
		}
		var evt protocol.Event
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("decode ws event failed: %v", err)
		}
		if evt.Type == wantType {
			return evt
		}
	}
}

func sendEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, evt protocol.Event) {
	t.Helper()
	raw, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal event failed: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		t.Fatalf("write ws failed: %v", err)
	}
}

func TestHandleWS_SnapshotOnConnect(t *testing.T) {
	f := newHubFixture(t)
	if _, err := f.reg.UpsertProject("/p", "app", nil); err != nil {
		t.Fatalf("seed project failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := f.dial(t, ctx, registry.RoleMobile, "m1")

	evt := readEvent(t, ctx, conn, protocol.EventProjectList)
	var projects []registry.Project
	if err := json.Unmarshal(evt.Data, &projects); err != nil {
		t.Fatalf("decode snapshot failed: %v", err)
	}
	if len(projects) != 1 || projects[0].Path != "/p" {
		t.Fatalf("unexpected snapshot %+v", projects)
	}
}

func TestHandleWS_RejectsUnknownRole(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + f.ts.URL[len("http"):] + "/ws?role=watcher"
	if _, _, err := websocket.Dial(ctx, wsURL, nil); err == nil {
		t.Fatal("expected dial to fail for unknown role")
	}
}

func TestHandleWS_RelaysBetweenRoles(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	editor := f.dial(t, ctx, registry.RoleEditor, "e1")
	mobile := f.dial(t, ctx, registry.RoleMobile, "m1")
	readEvent(t, ctx, editor, protocol.EventProjectList)
	readEvent(t, ctx, mobile, protocol.EventProjectList)

	sendEvent(t, ctx, mobile, protocol.Event{
		Type: protocol.EventTerminal,
		Data: protocol.MustRaw(map[string]any{"input": "ls\n"}),
	})

	evt := readEvent(t, ctx, editor, protocol.EventTerminal)
	var data map[string]any
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		t.Fatalf("decode relayed event failed: %v", err)
	}
	if data["input"] != "ls\n" {
		t.Fatalf("payload mangled in relay: %+v", data)
	}
}

func TestHandleWS_UnknownEventTypeDropped(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	editor := f.dial(t, ctx, registry.RoleEditor, "e1")
	mobile := f.dial(t, ctx, registry.RoleMobile, "m1")
	readEvent(t, ctx, editor, protocol.EventProjectList)
	readEvent(t, ctx, mobile, protocol.EventProjectList)

	sendEvent(t, ctx, mobile, protocol.Event{Type: "settings:update"})
	sendEvent(t, ctx, mobile, protocol.Event{
		Type: protocol.EventGitStatus,
		Data: protocol.MustRaw(map[string]any{}),
	})

	// The hub processed both in order; only the known one comes through.
	evt := readEvent(t, ctx, editor, protocol.EventGitStatus)
	if evt.Type != protocol.EventGitStatus {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestHandleWS_ProjectChangedUpsertsAndFansOut(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	editor := f.dial(t, ctx, registry.RoleEditor, "e1")
	mobile := f.dial(t, ctx, registry.RoleMobile, "m1")
	readEvent(t, ctx, editor, protocol.EventProjectList)
	readEvent(t, ctx, mobile, protocol.EventProjectList)

	sendEvent(t, ctx, editor, protocol.Event{
		Type: protocol.EventProjectChanged,
		Data: protocol.MustRaw(projectChangedPayload{
			Path: "/p",
			Name: "app",
			Files: []registry.FileNode{
				{Name: "a.ts", Path: "a.ts", Type: registry.NodeFile, Content: "x"},
			},
		}),
	})

	readEvent(t, ctx, mobile, protocol.EventProjectChanged)
	evt := readEvent(t, ctx, mobile, protocol.EventProjectList)
	var projects []registry.Project
	if err := json.Unmarshal(evt.Data, &projects); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "app" {
		t.Fatalf("unexpected project list %+v", projects)
	}
	if _, ok := f.reg.GetProject("/p"); !ok {
		t.Fatal("registry not updated by project:changed")
	}
}

func TestHandleWS_ActionResultDrivesTask(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	task := f.queue.CreateTask("/p", "write it", taskqueue.AgentResponse{
		Actions: []action.Action{{ID: "action_1", Type: action.TypeWriteFile, Path: "a.ts", Content: "x"}},
	})
	if _, err := f.queue.StartTask(task.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	editor := f.dial(t, ctx, registry.RoleEditor, "e1")
	mobile := f.dial(t, ctx, registry.RoleMobile, "m1")
	readEvent(t, ctx, editor, protocol.EventProjectList)
	readEvent(t, ctx, mobile, protocol.EventProjectList)

	sendEvent(t, ctx, editor, protocol.Event{
		Type: protocol.EventActionResult,
		Data: protocol.MustRaw(actionResultPayload{
			TaskID: task.ID,
			Result: action.Result{ActionID: "action_1", Success: true, Output: "written"},
		}),
	})

	readEvent(t, ctx, mobile, protocol.EventActionResult)
	evt := readEvent(t, ctx, mobile, protocol.EventTaskUpdated)
	var update map[string]any
	if err := json.Unmarshal(evt.Data, &update); err != nil {
		t.Fatalf("decode update failed: %v", err)
	}
	if update["status"] != string(taskqueue.StatusCompleted) {
		t.Fatalf("expected completed broadcast, got %+v", update)
	}

	got, ok := f.queue.Task(task.ID)
	if !ok || got.Status != taskqueue.StatusCompleted {
		t.Fatalf("queue not advanced: %+v", got)
	}
}

func TestHandleWS_DisconnectUnregistersClient(t *testing.T) {
	f := newHubFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := f.dial(t, ctx, registry.RoleMobile, "m1")
	readEvent(t, ctx, conn, protocol.EventProjectList)
	if _, ok := f.reg.Client("m1"); !ok {
		t.Fatal("client should be registered while connected")
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := f.reg.Client("m1"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
