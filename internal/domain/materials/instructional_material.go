package materials

import (
	"path"
	"time"

	"github.com/yungbote/imtrack-backend/internal/lifecycle"
)

type CurriculumKind string

const (
	CurriculumUniversity CurriculumKind = "university"
	CurriculumService    CurriculumKind = "service"
)

// CurriculumRef points at exactly one curriculum row. Build it with
// UniversityCurriculum or ServiceCurriculum; the zero value is empty.
type CurriculumRef struct {
	kind CurriculumKind
	id   uint
}

func UniversityCurriculum(id uint) CurriculumRef {
	return CurriculumRef{kind: CurriculumUniversity, id: id}
}

func ServiceCurriculum(id uint) CurriculumRef {
	return CurriculumRef{kind: CurriculumService, id: id}
}

func (r CurriculumRef) Kind() CurriculumKind { return r.kind }
func (r CurriculumRef) ID() uint             { return r.id }
func (r CurriculumRef) IsZero() bool         { return r.kind == "" || r.id == 0 }

type InstructionalMaterial struct {
	ID     uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	IMType CurriculumKind `gorm:"column:im_type;type:varchar(50);not null" json:"im_type"`

	UniversityCurriculumID *uint `gorm:"column:university_curriculum_id;index" json:"university_curriculum_id,omitempty"`
	ServiceCurriculumID    *uint `gorm:"column:service_curriculum_id;index" json:"service_curriculum_id,omitempty"`
	AssignedBy             *uint `gorm:"column:assigned_by" json:"assigned_by,omitempty"`

	Status   lifecycle.Status `gorm:"column:status;type:varchar(50);not null;index" json:"status"`
	Validity string           `gorm:"column:validity;type:varchar(50);not null" json:"validity"`
	Semester string           `gorm:"column:semester;type:varchar(50)" json:"semester"`

	// Version is derived from the four counters; write it only through SetLifecycle.
	Version      string `gorm:"column:version;type:varchar(20);not null" json:"version"`
	Published    int    `gorm:"column:published;not null;default:0" json:"published"`
	UTLDOAttempt int    `gorm:"column:utldo_attempt;not null;default:0" json:"utldo_attempt"`
	PIMECAttempt int    `gorm:"column:pimec_attempt;not null;default:0" json:"pimec_attempt"`
	AIAttempt    int    `gorm:"column:ai_attempt;not null;default:0" json:"ai_attempt"`

	StorageKey   *string `gorm:"column:storage_key;type:varchar(500)" json:"storage_key,omitempty"`
	EvaluationID *uint   `gorm:"column:evaluation_id;index" json:"evaluation_id,omitempty"`
	Notes        string  `gorm:"column:notes;type:text" json:"notes"`

	CreatedBy string    `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"column:updated_by;not null" json:"updated_by"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false;index" json:"is_deleted"`
}

func (InstructionalMaterial) TableName() string { return "instructional_material" }

func (m *InstructionalMaterial) LifecycleStatus() lifecycle.Status { return m.Status }

func (m *InstructionalMaterial) LifecycleCounters() lifecycle.Counters {
	return lifecycle.Counters{
		Published:    m.Published,
		UTLDOAttempt: m.UTLDOAttempt,
		PIMECAttempt: m.PIMECAttempt,
		AIAttempt:    m.AIAttempt,
	}
}

func (m *InstructionalMaterial) SetLifecycle(status lifecycle.Status, c lifecycle.Counters, version string) {
	m.Status = status
	m.Published = c.Published
	m.UTLDOAttempt = c.UTLDOAttempt
	m.PIMECAttempt = c.PIMECAttempt
	m.AIAttempt = c.AIAttempt
	m.Version = version
}

// SetCurriculum replaces both references so exactly one is ever set.
func (m *InstructionalMaterial) SetCurriculum(ref CurriculumRef) error {
	if ref.IsZero() {
		return &lifecycle.InvariantError{Reason: "curriculum reference is empty"}
	}
	id := ref.id
	m.UniversityCurriculumID, m.ServiceCurriculumID = nil, nil
	switch ref.kind {
	case CurriculumUniversity:
		m.UniversityCurriculumID = &id
	case CurriculumService:
		m.ServiceCurriculumID = &id
	default:
		return &lifecycle.InvariantError{Reason: "unknown curriculum kind " + string(ref.kind)}
	}
	m.IMType = ref.kind
	return nil
}

// Curriculum returns the single curriculum reference, failing when the
// stored row sets both or neither.
func (m *InstructionalMaterial) Curriculum() (CurriculumRef, error) {
	uni, svc := m.UniversityCurriculumID != nil, m.ServiceCurriculumID != nil
	switch {
	case uni && svc:
		return CurriculumRef{}, &lifecycle.InvariantError{Reason: "material references both university and service curricula"}
	case uni:
		return UniversityCurriculum(*m.UniversityCurriculumID), nil
	case svc:
		return ServiceCurriculum(*m.ServiceCurriculumID), nil
	default:
		return CurriculumRef{}, &lifecycle.InvariantError{Reason: "material has no curriculum reference"}
	}
}

// FileName is the base name of the current primary document.
func (m *InstructionalMaterial) FileName() string {
	if m.StorageKey == nil || *m.StorageKey == "" {
		return ""
	}
	return path.Base(*m.StorageKey)
}
