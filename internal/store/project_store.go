package store

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodel "codelink/hub/internal/db"
)

// ProjectRecord is the durable shape of a project. The file tree travels as
// serialized JSON; the registry owns the decoded form.
type ProjectRecord struct {
	Path      string
	Name      string
	TreeJSON  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProjectStore struct {
	db *gorm.DB
}

// NewProjectStore uses the shared hub DB. Caller must not close the db.
func NewProjectStore(db *gorm.DB) (*ProjectStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &ProjectStore{db: db}, nil
}

// Upsert fully replaces name and tree for the path. Re-registering a path
// never duplicates the row.
func (s *ProjectStore) Upsert(path, name, treeJSON string) error {
	if s == nil || s.db == nil {
		return errors.New("project store is not initialized")
	}
	p := strings.TrimSpace(path)
	if p == "" {
		return errors.New("path is required")
	}
	now := time.Now().UTC().Unix()
	row := dbmodel.Project{
		Path:      p,
		Name:      name,
		TreeJSON:  treeJSON,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       name,
			"tree_json":  treeJSON,
			"updated_at": now,
		}),
	}).Create(&row).Error
}

func (s *ProjectStore) Get(path string) (ProjectRecord, bool, error) {
	if s == nil || s.db == nil {
		return ProjectRecord{}, false, errors.New("project store is not initialized")
	}
	var row dbmodel.Project
	err := s.db.Where("path = ?", strings.TrimSpace(path)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ProjectRecord{}, false, nil
	}
	if err != nil {
		return ProjectRecord{}, false, err
	}
	return recordFromRow(row), true, nil
}

func (s *ProjectStore) List() ([]ProjectRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("project store is not initialized")
	}
	var rows []dbmodel.Project
	if err := s.db.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]ProjectRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

func (s *ProjectStore) Clear() error {
	if s == nil || s.db == nil {
		return errors.New("project store is not initialized")
	}
	return s.db.Where("1 = 1").Delete(&dbmodel.Project{}).Error
}

func recordFromRow(row dbmodel.Project) ProjectRecord {
	return ProjectRecord{
		Path:      row.Path,
		Name:      row.Name,
		TreeJSON:  row.TreeJSON,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(row.UpdatedAt, 0).UTC(),
	}
}
