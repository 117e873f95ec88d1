package action

import "time"

type Type string

const (
	TypeWriteFile    Type = "write_file"
	TypeDeleteFile   Type = "delete_file"
	TypeRunCommand   Type = "run_command"
	TypeReadFile     Type = "read_file"
	TypeSearchCode   Type = "search_code"
	TypeGitOperation Type = "git_operation"
	TypeExplain      Type = "explain"
	TypeAskQuestion  Type = "ask_question"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Action is one typed unit the agent proposed. It is owned by exactly one
// task; the parser assigns ids unique within a parse, the task queue owns
// them from there.
type Action struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`

	Path                 string `json:"path,omitempty"`
	Content              string `json:"content,omitempty"`
	Language             string `json:"language,omitempty"`
	Command              string `json:"command,omitempty"`
	RequiresConfirmation bool   `json:"requiresConfirmation,omitempty"`
	Query                string `json:"query,omitempty"`
	GitOp                string `json:"gitOp,omitempty"`
	GitMessage           string `json:"gitMessage,omitempty"`
}

// Result is the outcome report for one action, produced by whichever client
// executed it. At most one result is ever attached per action id.
type Result struct {
	ActionID  string    `json:"actionId"`
	Success   bool      `json:"success"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
