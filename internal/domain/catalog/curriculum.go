package catalog

// UniversityCurriculum places a subject inside a department program.
type UniversityCurriculum struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	CollegeID    uint        `gorm:"column:college_id;not null;index" json:"college_id"`
	College      *College    `gorm:"foreignKey:CollegeID" json:"college,omitempty"`
	DepartmentID uint        `gorm:"column:department_id;not null;index" json:"department_id"`
	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	SubjectID    uint        `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Subject      *Subject    `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	YearLevel    int         `gorm:"column:year_level;not null" json:"year_level"`
}

func (UniversityCurriculum) TableName() string { return "university_curriculum" }

// ServiceCurriculum is a subject a college teaches for other programs.
type ServiceCurriculum struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	CollegeID uint     `gorm:"column:college_id;not null;index" json:"college_id"`
	College   *College `gorm:"foreignKey:CollegeID" json:"college,omitempty"`
	SubjectID uint     `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Subject   *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
}

func (ServiceCurriculum) TableName() string { return "service_curriculum" }
