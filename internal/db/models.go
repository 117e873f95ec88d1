package db

type Project struct {
	Path      string `gorm:"column:path;primaryKey"`
	Name      string `gorm:"column:name;not null;default:''"`
	TreeJSON  string `gorm:"column:tree_json;not null;default:''"`
	CreatedAt int64  `gorm:"column:created_at;not null;default:0"`
	UpdatedAt int64  `gorm:"column:updated_at;not null;default:0"`
}

func (Project) TableName() string { return "projects" }

type Message struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectPath string `gorm:"column:project_path;not null;index"`
	Role        string `gorm:"column:role;not null;default:''"`
	Content     string `gorm:"column:content;not null;default:''"`
	CreatedAt   int64  `gorm:"column:created_at;not null;default:0"`
}

func (Message) TableName() string { return "messages" }
