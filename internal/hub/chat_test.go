package hub

import (
	"context"
	"errors"
	"strings"
	"testing"

	"codelink/hub/internal/action"
	"codelink/hub/internal/logging"
	"codelink/hub/internal/provider"
	"codelink/hub/internal/registry"
	"codelink/hub/internal/store"
	"codelink/hub/internal/taskqueue"
)

type memAppender struct {
	entries []struct{ project, role, content string }
	err     error
}

func (m *memAppender) Append(projectPath, role, content string) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, struct{ project, role, content string }{projectPath, role, content})
	return nil
}

type stubGenerator struct {
	reply   string
	err     error
	lastReq provider.Request
}

func (g *stubGenerator) Generate(_ context.Context, req provider.Request) (provider.Reply, error) {
	g.lastReq = req
	if g.err != nil {
		return provider.Reply{}, g.err
	}
	return provider.Reply{Content: g.reply}, nil
}

func newChatFixture(t *testing.T, gen *stubGenerator) (*ChatService, *taskqueue.Queue, *registry.Registry, *memAppender) {
	t.Helper()
	reg := registry.New(logging.Discard(), nil)
	queue := taskqueue.New(logging.Discard(), taskqueue.Options{})
	msgs := &memAppender{}
	svc := NewChatService(logging.Discard(), reg, gen, queue, msgs, nil, ChatOptions{})
	return svc, queue, reg, msgs
}

func TestChatSend_FullFlow(t *testing.T) {
	gen := &stubGenerator{reply: "Sure.\n\n```go\n// main.go\npackage main\n```\n"}
	svc, queue, _, msgs := newChatFixture(t, gen)

	res, err := svc.Send(context.Background(), SendRequest{
		Message:     "write main",
		ProjectPath: "/p",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if res.TaskID == "" {
		t.Fatal("expected a task id")
	}
	if len(res.CodeBlocks) != 1 || res.CodeBlocks[0].Filename != "main.go" {
		t.Fatalf("unexpected code blocks %+v", res.CodeBlocks)
	}

	task, ok := queue.Task(res.TaskID)
	if !ok {
		t.Fatal("task not in queue")
	}
	if task.Status != taskqueue.StatusInProgress {
		t.Fatalf("expected task in progress, got %s", task.Status)
	}
	if len(task.Actions) != 1 || task.Actions[0].Type != action.TypeWriteFile {
		t.Fatalf("unexpected task actions %+v", task.Actions)
	}

	if len(msgs.entries) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(msgs.entries))
	}
	if msgs.entries[0].role != store.RoleUser || msgs.entries[1].role != store.RoleAssistant {
		t.Fatalf("unexpected message roles %+v", msgs.entries)
	}
}

func TestChatSend_IncludesProjectContext(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	svc, _, reg, _ := newChatFixture(t, gen)
	if _, err := reg.UpsertProject("/p", "app", []registry.FileNode{
		{Name: "a.ts", Path: "a.ts", Type: registry.NodeFile, Content: "let x = 1"},
	}); err != nil {
		t.Fatalf("seed project failed: %v", err)
	}

	if _, err := svc.Send(context.Background(), SendRequest{Message: "hi", ProjectPath: "/p"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !strings.Contains(gen.lastReq.ProjectContext, "a.ts") {
		t.Fatalf("project context missing file: %q", gen.lastReq.ProjectContext)
	}
}

func TestChatSend_UnknownProjectStillGenerates(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	svc, _, _, _ := newChatFixture(t, gen)

	res, err := svc.Send(context.Background(), SendRequest{Message: "hi", ProjectPath: "/nope"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gen.lastReq.ProjectContext != "" {
		t.Fatalf("expected empty context, got %q", gen.lastReq.ProjectContext)
	}
	if res.Content != "ok" {
		t.Fatalf("unexpected content %q", res.Content)
	}
}

func TestChatSend_ValidatesInput(t *testing.T) {
	svc, _, _, msgs := newChatFixture(t, &stubGenerator{reply: "ok"})
	if _, err := svc.Send(context.Background(), SendRequest{Message: "  ", ProjectPath: "/p"}); err == nil {
		t.Fatal("expected error for blank message")
	}
	if _, err := svc.Send(context.Background(), SendRequest{Message: "hi"}); err == nil {
		t.Fatal("expected error for missing project path")
	}
	if len(msgs.entries) != 0 {
		t.Fatalf("nothing should be persisted on invalid input, got %+v", msgs.entries)
	}
}

func TestChatSend_ProviderErrorSurfaced(t *testing.T) {
	provErr := &provider.Error{Provider: provider.IDOpenAI, Err: errors.New("boom")}
	gen := &stubGenerator{err: provErr}
	svc, queue, _, msgs := newChatFixture(t, gen)

	_, err := svc.Send(context.Background(), SendRequest{Message: "hi", ProjectPath: "/p"})
	var got *provider.Error
	if !errors.As(err, &got) {
		t.Fatalf("expected provider error, got %v", err)
	}
	// The user message is already persisted; no task exists.
	if len(msgs.entries) != 1 || msgs.entries[0].role != store.RoleUser {
		t.Fatalf("unexpected messages %+v", msgs.entries)
	}
	if tasks := queue.ProjectTasks("/p"); len(tasks) != 0 {
		t.Fatalf("no task should exist after provider failure, got %d", len(tasks))
	}
}

func TestChatSend_InvalidActionsReported(t *testing.T) {
	// A block holding only the path comment parses to a write with no
	// content, which validation rejects.
	gen := &stubGenerator{reply: "```go\n// main.go\n```\n"}
	svc, queue, _, _ := newChatFixture(t, gen)

	res, err := svc.Send(context.Background(), SendRequest{Message: "hi", ProjectPath: "/p"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(res.InvalidActions) != 1 {
		t.Fatalf("expected one invalid action, got %+v", res.InvalidActions)
	}
	task, ok := queue.Task(res.TaskID)
	if !ok {
		t.Fatal("task not in queue")
	}
	if len(task.Actions) != 0 {
		t.Fatalf("invalid actions must not reach the task: %+v", task.Actions)
	}
	// Zero valid actions means the task completes on start.
	if task.Status != taskqueue.StatusCompleted {
		t.Fatalf("expected completed, got %s", task.Status)
	}
}
