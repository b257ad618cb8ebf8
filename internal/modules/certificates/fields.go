package certificates

import (
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/imtrack-backend/internal/data/repos"
	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/platform/dbctx"
)

const (
	notAvailable = "N/A"
	// DateLayout renders issue dates as "March 01, 2026".
	DateLayout = "January 02, 2006"
)

// Course is the catalog context printed on a certificate.
type Course struct {
	CollegeName string
	CourseCode  string
	CourseTitle string
	ProgramName string
}

// ResolveCourse loads the material's curriculum. Missing catalog rows print
// as N/A; a service curriculum always prints "Service Course" as program.
func ResolveCourse(dbc dbctx.Context, catalog repos.CatalogRepo, m *types.InstructionalMaterial) (Course, error) {
	c := Course{CollegeName: notAvailable, CourseCode: notAvailable, CourseTitle: notAvailable, ProgramName: notAvailable}
	ref, err := m.Curriculum()
	if err != nil {
		return c, err
	}
	switch ref.Kind() {
	case types.CurriculumUniversity:
		uc, err := catalog.GetUniversityCurriculum(dbc, ref.ID())
		if err != nil {
			return c, err
		}
		if uc.College != nil {
			c.CollegeName = uc.College.Name
		}
		if uc.Subject != nil {
			c.CourseCode, c.CourseTitle = uc.Subject.Code, uc.Subject.Name
		}
		if uc.Department != nil {
			c.ProgramName = uc.Department.Name
		}
	case types.CurriculumService:
		sc, err := catalog.GetServiceCurriculum(dbc, ref.ID())
		if err != nil {
			return c, err
		}
		if sc.College != nil {
			c.CollegeName = sc.College.Name
		}
		if sc.Subject != nil {
			c.CourseCode, c.CourseTitle = sc.Subject.Code, sc.Subject.Name
		}
		c.ProgramName = "Service Course"
	}
	return c, nil
}

// AcademicYear turns a validity year Y into "Y-(Y+1)". Anything that is not a
// plain year is returned unchanged.
func AcademicYear(validity string) string {
	v := strings.TrimSpace(validity)
	y, err := strconv.Atoi(v)
	if err != nil {
		return validity
	}
	return strconv.Itoa(y) + "-" + strconv.Itoa(y+1)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func mergeFields(course Course, m *types.InstructionalMaterial, author *types.User, issued time.Time) map[string]string {
	return map[string]string{
		"{{COLLEGE_NAME}}":  course.CollegeName,
		"{{COURSE_CODE}}":   course.CourseCode,
		"{{COURSE_TITLE}}":  course.CourseTitle,
		"{{AUTHOR_RANK}}":   author.Rank,
		"{{AUTHOR_NAME}}":   author.DisplayName(),
		"{{PROGRAM_NAME}}":  course.ProgramName,
		"{{SEMESTER}}":      orNA(m.Semester),
		"{{ACADEMIC_YEAR}}": AcademicYear(m.Validity),
		"{{DATE_ISSUED}}":   issued.Format(DateLayout),
	}
}
