package activity

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionRestore = "RESTORE"
	ActionIssue   = "ISSUE"
)

// ActivityLog is append-only. Old/new snapshots are stored as JSON.
type ActivityLog struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint           `gorm:"column:user_id;not null;index" json:"user_id"`
	Action      string         `gorm:"column:action;type:varchar(50);not null" json:"action"`
	Table       string         `gorm:"column:table_name;type:varchar(100);not null" json:"table_name"`
	RecordID    *uint          `gorm:"column:record_id;index" json:"record_id,omitempty"`
	OldValues   datatypes.JSON `gorm:"column:old_values" json:"old_values,omitempty"`
	NewValues   datatypes.JSON `gorm:"column:new_values" json:"new_values,omitempty"`
	Description string         `gorm:"column:description;type:varchar(500);not null" json:"description"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_log" }
