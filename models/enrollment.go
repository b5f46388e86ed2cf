package models

import (
	"time"
)

// Enrollment links one user to one course. SectionCount is the number of
// sections the course had at enrollment time and is never updated.
type Enrollment struct {
	ID                  uint              `gorm:"primaryKey" json:"_id"`
	UserID              uint              `gorm:"not null;index;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID            uint              `gorm:"not null;index;uniqueIndex:idx_enrollment_user_course" json:"courseId"`
	SectionCount        int               `gorm:"not null" json:"course_Length"`
	Progress            []SectionProgress `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE" json:"progress"`
	CertificateIssuedAt *time.Time        `json:"certificateDate"`
	EnrollmentDate      time.Time         `gorm:"not null" json:"enrollmentDate"`
	CreatedAt           time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

func (Enrollment) TableName() string {
	return "enrolled_courses"
}

// IsComplete reports whether every snapshotted section has been completed
func (e Enrollment) IsComplete() bool {
	return e.CertificateIssuedAt != nil
}

// SectionProgress is one completed section. The unique index on
// (enrollment, section) keeps a section from being recorded twice.
type SectionProgress struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	EnrollmentID uint      `gorm:"not null;uniqueIndex:idx_progress_enrollment_section" json:"-"`
	SectionID    int       `gorm:"not null;uniqueIndex:idx_progress_enrollment_section" json:"sectionId"`
	CompletedAt  time.Time `gorm:"not null" json:"completedAt"`
}

func (SectionProgress) TableName() string {
	return "enrollment_progress"
}
