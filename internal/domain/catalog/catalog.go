package catalog

import "time"

type Audit struct {
	CreatedBy string    `gorm:"column:created_by;not null;default:''" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"column:updated_by;not null;default:''" json:"updated_by"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
}

type College struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Abbreviation string `gorm:"column:abbreviation;uniqueIndex;not null" json:"abbreviation"`
	Name         string `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Audit
}

func (College) TableName() string { return "college" }

type Department struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	CollegeID    uint     `gorm:"column:college_id;not null;index" json:"college_id"`
	College      *College `gorm:"foreignKey:CollegeID" json:"college,omitempty"`
	Abbreviation string   `gorm:"column:abbreviation;uniqueIndex;not null" json:"abbreviation"`
	Name         string   `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Audit
}

func (Department) TableName() string { return "department" }

type Subject struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Audit
}

func (Subject) TableName() string { return "subject" }
