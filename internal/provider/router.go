package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const systemInstruction = `You are a coding assistant working inside a user's project. ` +
	`When you change a file, reply with a fenced code block whose first line is a comment naming the file path. ` +
	`When you need a shell command run, reply with a fenced bash block.`

// Router dispatches each generation call to exactly one backend. It never
// falls back to a different provider on failure; the caller sees a typed
// error and decides.
type Router struct {
	logger    *slog.Logger
	defaultID string
	backends  map[string]Backend
}

func NewRouter(logger *slog.Logger, defaultID string) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(defaultID) == "" {
		defaultID = IDOpenAI
	}
	return &Router{
		logger:    logger,
		defaultID: defaultID,
		backends:  map[string]Backend{},
	}
}

func (r *Router) Register(id string, backend Backend) {
	r.backends[id] = backend
}

// Generate invokes the selected backend. The reply text is raw; interpreting
// actions out of it is the parser's job, not the router's.
func (r *Router) Generate(ctx context.Context, req Request) (Reply, error) {
	id := strings.TrimSpace(req.ProviderID)
	if id == "" {
		id = r.defaultID
	}
	backend, ok := r.backends[id]
	if !ok {
		return Reply{}, &Error{Provider: id, Err: fmt.Errorf("unknown provider %q", id)}
	}

	system := systemInstruction
	if strings.TrimSpace(req.ProjectContext) != "" {
		system = req.ProjectContext + "\n\n" + systemInstruction
	}

	content, err := backend.Generate(ctx, system, req.Message, req.APIKey)
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return Reply{}, err
		}
		return Reply{}, &Error{Provider: id, Err: err}
	}
	r.logger.Debug("provider reply", "provider", id, "chars", len(content))
	return Reply{Content: content}, nil
}
