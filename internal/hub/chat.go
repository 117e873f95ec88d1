package hub

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"codelink/hub/internal/action"
	"codelink/hub/internal/protocol"
	"codelink/hub/internal/provider"
	"codelink/hub/internal/registry"
	"codelink/hub/internal/store"
	"codelink/hub/internal/taskqueue"
)

// MessageAppender is the slice of the message store the chat flow needs.
type MessageAppender interface {
	Append(projectPath, role, content string) error
}

// Generator is the provider router surface.
type Generator interface {
	Generate(ctx context.Context, req provider.Request) (provider.Reply, error)
}

type ChatOptions struct {
	// ProviderTimeout bounds each generation call; a provider that never
	// returns must not wedge the hub.
	ProviderTimeout time.Duration
	ContextMaxFiles int
}

// ChatService runs one user chat message through generation, parsing and
// task creation. Generation happens on the caller's goroutine, off the hub's
// event-dispatch path.
type ChatService struct {
	logger   *slog.Logger
	registry *registry.Registry
	router   Generator
	queue    *taskqueue.Queue
	messages MessageAppender
	hub      *Hub
	opts     ChatOptions
}

func NewChatService(
	logger *slog.Logger,
	reg *registry.Registry,
	router Generator,
	queue *taskqueue.Queue,
	messages MessageAppender,
	h *Hub,
	opts ChatOptions,
) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 2 * time.Minute
	}
	if opts.ContextMaxFiles <= 0 {
		opts.ContextMaxFiles = 20
	}
	return &ChatService{
		logger:   logger,
		registry: reg,
		router:   router,
		queue:    queue,
		messages: messages,
		hub:      h,
		opts:     opts,
	}
}

type SendRequest struct {
	Message     string `json:"message"`
	ProjectPath string `json:"projectPath"`
	ProviderID  string `json:"providerId,omitempty"`
	APIKey      string `json:"apiKey,omitempty"`
}

// InvalidAction reports an action the parser produced but validation kept
// out of the task, with its reason.
type InvalidAction struct {
	Action action.Action `json:"action"`
	Reason string        `json:"reason"`
}

type SendResult struct {
	Content        string               `json:"content"`
	CodeBlocks     []provider.CodeBlock `json:"codeBlocks,omitempty"`
	TaskID         string               `json:"taskId,omitempty"`
	InvalidActions []InvalidAction      `json:"invalidActions,omitempty"`
}

// Send runs the full chat flow: persist the user message, generate a reply
// with project context, parse and validate actions, create and start the
// task, broadcast it, persist the assistant reply.
func (s *ChatService) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return SendResult{}, errors.New("message is required")
	}
	if strings.TrimSpace(req.ProjectPath) == "" {
		return SendResult{}, errors.New("project path is required")
	}

	if err := s.messages.Append(req.ProjectPath, store.RoleUser, req.Message); err != nil {
		return SendResult{}, err
	}

	projectContext := ""
	if project, ok := s.registry.GetProject(req.ProjectPath); ok {
		projectContext = provider.BuildProjectContext(project, s.opts.ContextMaxFiles)
	}

	genCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()
	reply, err := s.router.Generate(genCtx, provider.Request{
		Message:        req.Message,
		ProjectContext: projectContext,
		ProviderID:     req.ProviderID,
		APIKey:         req.APIKey,
	})
	if err != nil {
		return SendResult{}, err
	}

	parsed := action.Parse(reply.Content)
	valid := make([]action.Action, 0, len(parsed))
	invalid := []InvalidAction{}
	for _, a := range parsed {
		if v := action.Validate(a); !v.Valid {
			invalid = append(invalid, InvalidAction{Action: a, Reason: v.Error})
			continue
		}
		valid = append(valid, a)
	}

	task := s.queue.CreateTask(req.ProjectPath, req.Message, taskqueue.AgentResponse{
		Message: reply.Content,
		Actions: valid,
	})
	started, err := s.queue.StartTask(task.ID)
	if err != nil {
		return SendResult{}, err
	}

	if s.hub != nil {
		s.hub.Broadcast(protocol.Event{
			Type: protocol.EventTaskCreated,
			Data: protocol.MustRaw(started),
		})
	}

	if err := s.messages.Append(req.ProjectPath, store.RoleAssistant, reply.Content); err != nil {
		s.logger.Warn("assistant message not persisted", "project", req.ProjectPath, "error", err)
	}

	return SendResult{
		Content:        reply.Content,
		CodeBlocks:     provider.ExtractCodeBlocks(reply.Content),
		TaskID:         started.ID,
		InvalidActions: invalid,
	}, nil
}
