package protocol

import "encoding/json"

// Event is the one envelope every message between the hub and its clients
// travels in. Data is type-specific and documented on the handler that
// consumes it.
type Event struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrPayload     `json:"error,omitempty"`
}

type ErrPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	EventFileApply          = "file:apply"
	EventFileOpened         = "file:opened"
	EventFileContentRequest = "file:content-request"
	EventFileContent        = "file:content"
	EventFileDelete         = "file:delete"
	EventFolderDelete       = "folder:delete"
	EventTerminal           = "terminal"
	EventTerminalOutput     = "terminal:output"
	EventTerminalResponse   = "terminal:response"
	EventTerminalResize     = "terminal:resize"
	EventProjectChanged     = "project:changed"
	EventProjectList        = "project:list"
	EventGitStatus          = "git:status"
	EventGitStatusResult    = "git:statusResult"
	EventGitCommit          = "git:commit"
	EventGitCommitResult    = "git:commitResult"
	EventGitPush            = "git:push"
	EventGitPushResult      = "git:pushResult"
	EventTaskCreated        = "task:created"
	EventTaskUpdated        = "task:updated"
	EventActionResult       = "action:result"
)

var knownEventTypes = map[string]struct{}{
	EventFileApply:          {},
	EventFileOpened:         {},
	EventFileContentRequest: {},
	EventFileContent:        {},
	EventFileDelete:         {},
	EventFolderDelete:       {},
	EventTerminal:           {},
	EventTerminalOutput:     {},
	EventTerminalResponse:   {},
	EventTerminalResize:     {},
	EventProjectChanged:     {},
	EventProjectList:        {},
	EventGitStatus:          {},
	EventGitStatusResult:    {},
	EventGitCommit:          {},
	EventGitCommitResult:    {},
	EventGitPush:            {},
	EventGitPushResult:      {},
	EventTaskCreated:        {},
	EventTaskUpdated:        {},
	EventActionResult:       {},
}

// KnownEventType reports whether the hub routes events of this type.
// Unknown types are logged and dropped, never an error to the sender.
func KnownEventType(t string) bool {
	_, ok := knownEventTypes[t]
	return ok
}

func MustRaw(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
