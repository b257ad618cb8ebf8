package testutil

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/imtrack-backend/internal/domain"
	"github.com/yungbote/imtrack-backend/internal/lifecycle"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		Role:      "Faculty",
		StaffID:   "staff-" + email,
		FirstName: "Ana",
		LastName:  "Cruz",
		Rank:      "Instructor I",
		Email:     email,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// Catalog holds one seeded college with a department, a subject and both
// curriculum kinds pointing at it.
type Catalog struct {
	College    *types.College
	Department *types.Department
	Subject    *types.Subject
	University *types.UniversityCurriculum
	Service    *types.ServiceCurriculum
}

func SeedCatalog(tb testing.TB, ctx context.Context, tx *gorm.DB, suffix string) *Catalog {
	tb.Helper()
	db := tx.WithContext(ctx)
	c := &Catalog{
		College: &types.College{Abbreviation: "CCS" + suffix, Name: "College of Computing Studies " + suffix},
		Subject: &types.Subject{Code: "IT101" + suffix, Name: "Introduction to Computing " + suffix},
	}
	if err := db.Create(c.College).Error; err != nil {
		tb.Fatalf("seed college: %v", err)
	}
	c.Department = &types.Department{CollegeID: c.College.ID, Abbreviation: "DIT" + suffix, Name: "Information Technology " + suffix}
	if err := db.Create(c.Department).Error; err != nil {
		tb.Fatalf("seed department: %v", err)
	}
	if err := db.Create(c.Subject).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	c.University = &types.UniversityCurriculum{CollegeID: c.College.ID, DepartmentID: c.Department.ID, SubjectID: c.Subject.ID, YearLevel: 1}
	if err := db.Create(c.University).Error; err != nil {
		tb.Fatalf("seed university curriculum: %v", err)
	}
	c.Service = &types.ServiceCurriculum{CollegeID: c.College.ID, SubjectID: c.Subject.ID}
	if err := db.Create(c.Service).Error; err != nil {
		tb.Fatalf("seed service curriculum: %v", err)
	}
	return c
}

func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, ref types.CurriculumRef, status lifecycle.Status, storageKey string) *types.InstructionalMaterial {
	tb.Helper()
	m := &types.InstructionalMaterial{
		Validity:  "2025",
		Semester:  "1st Semester",
		CreatedBy: "seed",
		UpdatedBy: "seed",
	}
	if err := m.SetCurriculum(ref); err != nil {
		tb.Fatalf("seed material curriculum: %v", err)
	}
	c := lifecycle.InitialCounters(status)
	m.SetLifecycle(status, c, c.Version())
	if storageKey != "" {
		m.StorageKey = &storageKey
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func LinkAuthors(tb testing.TB, ctx context.Context, tx *gorm.DB, materialID uint, users ...*types.User) {
	tb.Helper()
	for _, u := range users {
		if err := tx.WithContext(ctx).Create(&types.AuthorLink{MaterialID: materialID, UserID: u.ID}).Error; err != nil {
			tb.Fatalf("link author %d: %v", u.ID, err)
		}
	}
}

func Email(n int) string { return fmt.Sprintf("author%d@univ.edu", n) }
