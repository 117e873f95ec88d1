package registry

import "time"

const (
	RoleEditor = "editor"
	RoleMobile = "mobile"
)

const (
	NodeFile      = "file"
	NodeDirectory = "directory"
)

// FileNode is one element of a project's synced tree. The tree is a payload
// snapshot sent by the editor agent, not a live filesystem view.
type FileNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     string     `json:"type"`
	Content  string     `json:"content,omitempty"`
	Children []FileNode `json:"children,omitempty"`
}

type Project struct {
	Path      string     `json:"path"`
	Name      string     `json:"name"`
	Files     []FileNode `json:"files"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Client is one live connection. Never persisted; a reconnect re-registers
// from scratch.
type Client struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	ProjectPath string `json:"projectPath,omitempty"`
}
