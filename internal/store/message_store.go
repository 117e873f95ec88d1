package store

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	dbmodel "codelink/hub/internal/db"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type MessageRecord struct {
	ID          int64
	ProjectPath string
	Role        string
	Content     string
	CreatedAt   time.Time
}

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) (*MessageStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &MessageStore{db: db}, nil
}

// Append records one chat message. History is append-only; rows are only
// removed by Clear.
func (s *MessageStore) Append(projectPath, role, content string) error {
	if s == nil || s.db == nil {
		return errors.New("message store is not initialized")
	}
	p := strings.TrimSpace(projectPath)
	if p == "" {
		return errors.New("project path is required")
	}
	if role != RoleUser && role != RoleAssistant {
		return errors.New("role must be user or assistant")
	}
	row := dbmodel.Message{
		ProjectPath: p,
		Role:        role,
		Content:     content,
		CreatedAt:   time.Now().UTC().Unix(),
	}
	return s.db.Create(&row).Error
}

// History returns a project's messages oldest first.
func (s *MessageStore) History(projectPath string, limit int) ([]MessageRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("message store is not initialized")
	}
	if limit <= 0 {
		limit = 200
	}
	var rows []dbmodel.Message
	err := s.db.Where("project_path = ?", strings.TrimSpace(projectPath)).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]MessageRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, MessageRecord{
			ID:          row.ID,
			ProjectPath: row.ProjectPath,
			Role:        row.Role,
			Content:     row.Content,
			CreatedAt:   time.Unix(row.CreatedAt, 0).UTC(),
		})
	}
	return records, nil
}

func (s *MessageStore) Clear(projectPath string) error {
	if s == nil || s.db == nil {
		return errors.New("message store is not initialized")
	}
	return s.db.Where("project_path = ?", strings.TrimSpace(projectPath)).
		Delete(&dbmodel.Message{}).Error
}
