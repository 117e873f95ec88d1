package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"codelink/hub/internal/action"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskTerminal   = errors.New("task is in a terminal state")
	ErrActionNotFound = errors.New("action not found")
)

type Options struct {
	// Retention is how long a completed task is queryable before the sweep
	// removes it.
	Retention time.Duration
	// ProjectHistoryLimit bounds the per-project ring of recent tasks.
	ProjectHistoryLimit int
}

// Queue owns every task lifecycle. All mutation runs under one mutex; callers
// are serialized, never parallelized, so the project-keyed maps cannot lose
// updates.
type Queue struct {
	logger    *slog.Logger
	retention time.Duration
	limit     int
	nowFunc   func() time.Time

	mu        sync.Mutex
	tasks     map[string]*Task
	byProject map[string][]string
}

func New(logger *slog.Logger, opts Options) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	if opts.ProjectHistoryLimit <= 0 {
		opts.ProjectHistoryLimit = 50
	}
	return &Queue{
		logger:    logger,
		retention: opts.Retention,
		limit:     opts.ProjectHistoryLimit,
		nowFunc:   time.Now,
		tasks:     map[string]*Task{},
		byProject: map[string][]string{},
	}
}

// CreateTask snapshots the agent response into a new pending task. Every
// action copy starts pending regardless of what the response carried.
func (q *Queue) CreateTask(projectPath, userMessage string, response AgentResponse) *Task {
	now := q.nowFunc().UTC()
	task := &Task{
		ID:          uuid.NewString(),
		ProjectPath: projectPath,
		UserMessage: userMessage,
		Response:    response,
		Actions:     snapshotActions(response.Actions, now),
		Results:     []action.Result{},
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks[task.ID] = task
	ring := append(q.byProject[projectPath], task.ID)
	for len(ring) > q.limit {
		evicted := ring[0]
		ring = ring[1:]
		delete(q.tasks, evicted)
	}
	q.byProject[projectPath] = ring
	return copyTask(task)
}

func snapshotActions(src []action.Action, now time.Time) []action.Action {
	out := make([]action.Action, len(src))
	for i, a := range src {
		a.Status = action.StatusPending
		a.CreatedAt = now
		out[i] = a
	}
	return out
}

// StartTask moves a pending task to in_progress. Calling it twice, or on a
// terminal task, is an error. A task with zero actions completes the moment
// it starts: a message-only agent turn is vacuously resolved, which is
// deliberate (see DESIGN.md).
func (q *Queue) StartTask(id string) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if task.Status != StatusPending {
		return nil, fmt.Errorf("cannot start task in state %q", task.Status)
	}
	task.Status = StatusInProgress
	task.UpdatedAt = q.nowFunc().UTC()
	q.checkCompletionLocked(task)
	return copyTask(task), nil
}

// RecordActionResult attaches one result to its action and re-runs the
// completion check. A duplicate result for the same action id is a no-op, as
// is any result against a terminal task.
func (q *Queue) RecordActionResult(taskID string, result action.Result) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if task.Status.Terminal() {
		return copyTask(task), nil
	}

	idx := -1
	for i := range task.Actions {
		if task.Actions[i].ID == result.ActionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrActionNotFound
	}
	for _, existing := range task.Results {
		if existing.ActionID == result.ActionID {
			// Exactly-one-result guard.
			return copyTask(task), nil
		}
	}

	if result.Timestamp.IsZero() {
		result.Timestamp = q.nowFunc().UTC()
	}
	task.Results = append(task.Results, result)
	if result.Success {
		task.Actions[idx].Status = action.StatusCompleted
	} else {
		task.Actions[idx].Status = action.StatusFailed
	}
	task.UpdatedAt = q.nowFunc().UTC()
	q.checkCompletionLocked(task)
	return copyTask(task), nil
}

// MarkActionExecuting flags an action the agent has picked up. Only valid
// while the task is live and the action still pending.
func (q *Queue) MarkActionExecuting(taskID, actionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status.Terminal() {
		return ErrTaskTerminal
	}
	for i := range task.Actions {
		if task.Actions[i].ID == actionID {
			if task.Actions[i].Status == action.StatusPending {
				task.Actions[i].Status = action.StatusExecuting
				task.UpdatedAt = q.nowFunc().UTC()
			}
			return nil
		}
	}
	return ErrActionNotFound
}

// CancelTask moves any non-terminal task to cancelled. Actions still pending
// or executing are marked failed so no action is left with an ambiguous
// status. Side effects already dispatched to the agent are not stopped.
func (q *Queue) CancelTask(id string) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if task.Status.Terminal() {
		return nil, ErrTaskTerminal
	}
	now := q.nowFunc().UTC()
	task.Status = StatusCancelled
	for i := range task.Actions {
		switch task.Actions[i].Status {
		case action.StatusPending, action.StatusExecuting:
			task.Actions[i].Status = action.StatusFailed
		}
	}
	task.UpdatedAt = now
	task.CompletedAt = now
	return copyTask(task), nil
}

// checkCompletionLocked runs after every mutation: once every action carries
// exactly one result the task settles to completed (all successes) or failed
// (any failure).
func (q *Queue) checkCompletionLocked(task *Task) {
	if task.Status != StatusInProgress {
		return
	}
	if len(task.Results) < len(task.Actions) {
		return
	}
	allSuccess := true
	for _, r := range task.Results {
		if !r.Success {
			allSuccess = false
			break
		}
	}
	now := q.nowFunc().UTC()
	if allSuccess {
		task.Status = StatusCompleted
	} else {
		task.Status = StatusFailed
	}
	task.UpdatedAt = now
	task.CompletedAt = now
}

func (q *Queue) Task(id string) (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[id]
	if !ok {
		return nil, false
	}
	return copyTask(task), true
}

// PendingActions returns the actions of a task that have no recorded result.
func (q *Queue) PendingActions(taskID string) ([]action.Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	resulted := make(map[string]struct{}, len(task.Results))
	for _, r := range task.Results {
		resulted[r.ActionID] = struct{}{}
	}
	out := []action.Action{}
	for _, a := range task.Actions {
		if _, ok := resulted[a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (q *Queue) Summary(taskID string) (Summary, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	task, ok := q.tasks[taskID]
	if !ok {
		return Summary{}, ErrTaskNotFound
	}
	s := Summary{TaskID: task.ID, Status: task.Status, Total: len(task.Actions)}
	for _, a := range task.Actions {
		switch a.Status {
		case action.StatusPending:
			s.Pending++
		case action.StatusExecuting:
			s.Executing++
		case action.StatusCompleted:
			s.Completed++
		case action.StatusFailed:
			s.Failed++
		}
	}
	return s, nil
}

// ProjectTasks returns a project's retained tasks, most recent first.
func (q *Queue) ProjectTasks(projectPath string) []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	ring := q.byProject[projectPath]
	out := make([]*Task, 0, len(ring))
	for i := len(ring) - 1; i >= 0; i-- {
		if task, ok := q.tasks[ring[i]]; ok {
			out = append(out, copyTask(task))
		}
	}
	return out
}

// Sweep removes tasks whose completion time fell out of the retention
// window. Each task ages independently.
func (q *Queue) Sweep(now time.Time) int {
	cutoff := now.UTC().Add(-q.retention)
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := 0
	for id, task := range q.tasks {
		if !task.Status.Terminal() || task.CompletedAt.IsZero() {
			continue
		}
		if task.CompletedAt.Before(cutoff) {
			delete(q.tasks, id)
			q.byProject[task.ProjectPath] = removeID(q.byProject[task.ProjectPath], id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on the interval until ctx is done.
func (q *Queue) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := q.Sweep(now); removed > 0 {
				q.logger.Debug("swept expired tasks", "removed", removed)
			}
		}
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func copyTask(task *Task) *Task {
	cp := *task
	cp.Actions = append([]action.Action(nil), task.Actions...)
	cp.Results = append([]action.Result(nil), task.Results...)
	cp.Response.Actions = append([]action.Action(nil), task.Response.Actions...)
	return &cp
}
