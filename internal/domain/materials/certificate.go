package materials

import (
	"fmt"
	"time"
)

// Certificate is issued once per author when a material is published.
// VerificationID stays NULL until the row id exists and is then fixed to CERT-{id}.
type Certificate struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	VerificationID *string `gorm:"column:verification_id;type:varchar(50);uniqueIndex" json:"verification_id"`
	MaterialID     uint    `gorm:"column:material_id;not null;index:idx_certificate_material_user" json:"material_id"`
	UserID         uint    `gorm:"column:user_id;not null;index:idx_certificate_material_user;index" json:"user_id"`
	// Cycle is the material's published counter at issuance.
	Cycle int `gorm:"column:cycle;not null;default:0" json:"cycle"`
	// ReissueOf points at the certificate this one replaces.
	ReissueOf *uint `gorm:"column:reissue_of;index" json:"reissue_of,omitempty"`

	DocxKey    string    `gorm:"column:docx_key;type:varchar(500);not null;default:''" json:"docx_key"`
	PDFKey     *string   `gorm:"column:pdf_key;type:varchar(500)" json:"pdf_key,omitempty"`
	DateIssued time.Time `gorm:"column:date_issued;type:date;not null" json:"date_issued"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Certificate) TableName() string { return "certificate" }

func VerificationIDFor(id uint) string { return fmt.Sprintf("CERT-%d", id) }

func (c *Certificate) Code() string {
	if c.VerificationID == nil {
		return ""
	}
	return *c.VerificationID
}
