package user

import (
	"strings"
	"time"
)

const (
	RoleAdmin     = "Admin"
	RoleFaculty   = "Faculty"
	RoleUTLDO     = "UTLDO Admin"
	RoleEvaluator = "Evaluator"
	RoleTechnical = "Technical Admin"
	RolePIMEC     = "PIMEC"
)

type User struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Role       string `gorm:"column:role;type:varchar(50);not null" json:"role"`
	StaffID    string `gorm:"column:staff_id;uniqueIndex;not null" json:"staff_id"`
	FirstName  string `gorm:"column:first_name;not null" json:"first_name"`
	MiddleName string `gorm:"column:middle_name" json:"middle_name"`
	LastName   string `gorm:"column:last_name;not null" json:"last_name"`
	Rank       string `gorm:"column:rank" json:"rank"`
	Email      string `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password   string `gorm:"column:password;not null;default:''" json:"-"`

	CreatedBy string    `gorm:"column:created_by;not null;default:''" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"column:updated_by;not null;default:''" json:"updated_by"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"is_deleted"`
}

func (User) TableName() string { return "users" }

// DisplayName is "First Middle Last" with the middle name omitted when blank.
func (u *User) DisplayName() string {
	parts := []string{u.FirstName}
	if m := strings.TrimSpace(u.MiddleName); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, u.LastName)
	return strings.Join(parts, " ")
}
