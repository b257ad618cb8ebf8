package materials

import "time"

// Submission records an author's obligation to hand in a material, with an
// optional due date used by the reminder run. SubmittedAt is set once a
// document is attached to the material.
type Submission struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	MaterialID    uint       `gorm:"column:material_id;not null;index" json:"material_id"`
	DueDate       *time.Time `gorm:"column:due_date;type:date;index" json:"due_date,omitempty"`
	DateSubmitted time.Time  `gorm:"column:date_submitted;autoCreateTime" json:"date_submitted"`
	SubmittedAt   *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
}

func (s *Submission) IsOpen() bool { return s.SubmittedAt == nil }

func (Submission) TableName() string { return "submission" }
