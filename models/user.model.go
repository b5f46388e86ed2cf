package models

import (
	"time"
)

const (
	UserTypeStudent = "Student"
	UserTypeTeacher = "Teacher"
	UserTypeAdmin   = "Admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Type      string    `gorm:"type:varchar(20);not null;default:'Student'" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
