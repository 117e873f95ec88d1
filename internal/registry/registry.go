package registry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"codelink/hub/internal/store"
)

// ProjectWriter is the durable half of the two-layer design. The registry's
// in-memory map is a rebuildable cache; the store stays authoritative.
type ProjectWriter interface {
	Upsert(path, name, treeJSON string) error
	List() ([]store.ProjectRecord, error)
	Clear() error
}

type Registry struct {
	logger *slog.Logger
	writer ProjectWriter

	mu       sync.Mutex
	projects map[string]Project
	clients  map[string]Client
}

func New(logger *slog.Logger, writer ProjectWriter) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		writer:   writer,
		projects: map[string]Project{},
		clients:  map[string]Client{},
	}
}

// Rebuild loads the cache from the authoritative store. Called once at
// startup; tree rows that fail to decode are skipped, not fatal.
func (r *Registry) Rebuild() error {
	if r.writer == nil {
		return nil
	}
	records, err := r.writer.List()
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		var files []FileNode
		if rec.TreeJSON != "" {
			if err := json.Unmarshal([]byte(rec.TreeJSON), &files); err != nil {
				r.logger.Warn("skipping project with undecodable tree", "path", rec.Path, "error", err)
				continue
			}
		}
		r.projects[rec.Path] = Project{
			Path:      rec.Path,
			Name:      rec.Name,
			Files:     files,
			UpdatedAt: rec.UpdatedAt,
		}
	}
	return nil
}

// UpsertProject fully replaces name and tree for the path and writes through
// to the store. The returned project is the bounded snapshot that should be
// broadcast.
func (r *Registry) UpsertProject(path, name string, files []FileNode) (Project, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return Project{}, errors.New("project path is required")
	}
	bounded, truncated := BoundTree(files)
	if truncated {
		r.logger.Warn("project tree exceeded bounds, truncated", "path", p)
	}
	project := Project{
		Path:      p,
		Name:      name,
		Files:     bounded,
		UpdatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.projects[p] = project
	r.mu.Unlock()

	if r.writer != nil {
		treeJSON, err := json.Marshal(bounded)
		if err != nil {
			return Project{}, err
		}
		if err := r.writer.Upsert(p, name, string(treeJSON)); err != nil {
			return Project{}, err
		}
	}
	return project, nil
}

func (r *Registry) GetProject(path string) (Project, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[strings.TrimSpace(path)]
	return project, ok
}

// ListProjects returns a name-sorted snapshot.
func (r *Registry) ListProjects() []Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Project, 0, len(r.projects))
	for _, project := range r.projects {
		out = append(out, project)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) ClearAll() error {
	r.mu.Lock()
	r.projects = map[string]Project{}
	r.mu.Unlock()
	if r.writer != nil {
		return r.writer.Clear()
	}
	return nil
}

func (r *Registry) RegisterClient(id, role, projectPath string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("client id is required")
	}
	if role != RoleEditor && role != RoleMobile {
		return errors.New("role must be editor or mobile")
	}
	r.mu.Lock()
	r.clients[id] = Client{ID: id, Role: role, ProjectPath: strings.TrimSpace(projectPath)}
	r.mu.Unlock()
	return nil
}

func (r *Registry) UnregisterClient(id string) {
	r.mu.Lock()
	delete(r.clients, strings.TrimSpace(id))
	r.mu.Unlock()
}

func (r *Registry) Client(id string) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[strings.TrimSpace(id)]
	return c, ok
}

func (r *Registry) ClientsByRole(role string) []Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.Role == role {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
