package taskqueue

import (
	"time"

	"codelink/hub/internal/action"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// AgentResponse is the parsed reply to one user message: the prose plus the
// actions extracted from it.
type AgentResponse struct {
	Message string          `json:"message"`
	Actions []action.Action `json:"actions"`
}

// Task tracks one user request through to full resolution of every action
// the agent proposed. Actions are owned copies snapshotted at creation, not
// references into the agent response.
type Task struct {
	ID          string          `json:"id"`
	ProjectPath string          `json:"projectPath"`
	UserMessage string          `json:"userMessage"`
	Response    AgentResponse   `json:"response"`
	Actions     []action.Action `json:"actions"`
	Results     []action.Result `json:"results"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CompletedAt time.Time       `json:"completedAt,omitzero"`
}

// Summary is the lightweight per-task counts-by-outcome view.
type Summary struct {
	TaskID    string `json:"taskId"`
	Status    Status `json:"status"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Executing int    `json:"executing"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}
