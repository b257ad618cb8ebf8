package domain

import (
	"github.com/yungbote/imtrack-backend/internal/domain/activity"
	"github.com/yungbote/imtrack-backend/internal/domain/catalog"
	"github.com/yungbote/imtrack-backend/internal/domain/materials"
	"github.com/yungbote/imtrack-backend/internal/domain/user"
)

type User = user.User

type College = catalog.College
type Department = catalog.Department
type Subject = catalog.Subject
type UniversityCurriculum = catalog.UniversityCurriculum
type ServiceCurriculum = catalog.ServiceCurriculum

type InstructionalMaterial = materials.InstructionalMaterial
type CurriculumRef = materials.CurriculumRef
type CurriculumKind = materials.CurriculumKind
type AuthorLink = materials.AuthorLink
type Certificate = materials.Certificate
type Submission = materials.Submission
type Evaluation = materials.Evaluation
type EvaluationScores = materials.EvaluationScores

type ActivityLog = activity.ActivityLog

const (
	CurriculumUniversity = materials.CurriculumUniversity
	CurriculumService    = materials.CurriculumService
)

var (
	UniversityCurriculumRef = materials.UniversityCurriculum
	ServiceCurriculumRef    = materials.ServiceCurriculum
	VerificationIDFor       = materials.VerificationIDFor
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&College{},
		&Department{},
		&Subject{},
		&UniversityCurriculum{},
		&ServiceCurriculum{},
		&Evaluation{},
		&InstructionalMaterial{},
		&AuthorLink{},
		&Submission{},
		&Certificate{},
		&ActivityLog{},
	}
}
