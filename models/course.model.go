package models

import (
	"time"

	"gorm.io/datatypes"
)

// PriceFree marks a course that can be enrolled in without a charge
const PriceFree = "free"

var CourseCategories = []string{
	"IT & Software",
	"Finance & Accounting",
	"Personal Development",
}

// SectionContent references the uploaded media of a section
type SectionContent struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

type Section struct {
	Title       string         `json:"S_title"`
	Description string         `json:"S_description"`
	Content     SectionContent `json:"S_content"`
}

// Course is a published course. Sections are fixed after creation and
// Enrolled is only changed through an atomic increment.
type Course struct {
	ID          uint                         `gorm:"primaryKey" json:"_id"`
	UserID      uint                         `gorm:"not null;index" json:"userId"`
	Educator    string                       `gorm:"type:varchar(100);not null" json:"C_educator"`
	Title       string                       `gorm:"type:varchar(200);not null" json:"C_title"`
	Category    string                       `gorm:"type:varchar(50);not null;index" json:"C_categories"`
	Price       string                       `gorm:"type:varchar(20);not null;default:'free'" json:"C_price"`
	Description string                       `gorm:"type:varchar(1000);not null" json:"C_description"`
	Sections    datatypes.JSONSlice[Section] `json:"sections"`
	Enrolled    int64                        `gorm:"not null;default:0" json:"enrolled"`
	IsActive    bool                         `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time                    `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`
}

func (Course) TableName() string {
	return "courses"
}

// IsFree reports whether the stored price is the free sentinel
func (c Course) IsFree() bool {
	return c.Price == PriceFree
}
