package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// amounts go out as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// PaymentStatus defines the status of a course payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const (
	PaymentMethodFree = "free"
	PaymentMethodCard = "card"
	DefaultCurrency   = "INR"
)

const (
	maskedCardPrefix = "****-****-****-"
	maskedCVV        = "***"
)

// CardDetails are the card fields accepted when paying for a course
type CardDetails struct {
	CardholderName string `gorm:"type:varchar(100)" json:"cardholdername"`
	CardNumber     string `gorm:"type:varchar(32)" json:"cardnumber"`
	CVVCode        string `gorm:"type:varchar(8)" json:"cvvcode"`
	ExpMonthYear   string `gorm:"type:varchar(10)" json:"expmonthyear"`
}

// FreeCourseCard is the placeholder card recorded for free enrollments
// and used for any field a paying caller leaves empty.
var FreeCourseCard = CardDetails{
	CardholderName: "Free Course",
	CardNumber:     "0000-0000-0000-0000",
	CVVCode:        "000",
	ExpMonthYear:   "12/2025",
}

// WithDefaults fills every empty field from FreeCourseCard
func (d CardDetails) WithDefaults() CardDetails {
	if strings.TrimSpace(d.CardholderName) == "" {
		d.CardholderName = FreeCourseCard.CardholderName
	}
	if strings.TrimSpace(d.CardNumber) == "" {
		d.CardNumber = FreeCourseCard.CardNumber
	}
	if strings.TrimSpace(d.CVVCode) == "" {
		d.CVVCode = FreeCourseCard.CVVCode
	}
	if strings.TrimSpace(d.ExpMonthYear) == "" {
		d.ExpMonthYear = FreeCourseCard.ExpMonthYear
	}
	return d
}

// Redacted keeps the last four characters of the card number and drops the CVV
func (d CardDetails) Redacted() CardDetails {
	if d.CardNumber != "" {
		number := strings.NewReplacer(" ", "", "-", "").Replace(d.CardNumber)
		if len(number) > 4 {
			number = number[len(number)-4:]
		}
		d.CardNumber = maskedCardPrefix + number
	}
	d.CVVCode = maskedCVV
	return d
}

// CoursePayment is an append-only record of a simulated course payment
type CoursePayment struct {
	ID            uint            `gorm:"primaryKey" json:"_id"`
	UserID        uint            `gorm:"not null;index" json:"userId"`
	CourseID      uint            `gorm:"not null;index" json:"courseId"`
	CardDetails   CardDetails     `gorm:"embedded;embeddedPrefix:card_" json:"cardDetails"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(10);not null;default:'INR'" json:"currency"`
	Status        PaymentStatus   `gorm:"type:varchar(20);not null;default:'completed'" json:"status"`
	PaymentMethod string          `gorm:"type:varchar(20);not null;default:'card'" json:"paymentMethod"`
	TransactionID string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"transactionId"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (CoursePayment) TableName() string {
	return "course_payments"
}

// BeforeCreate redacts card data so raw numbers never reach the table
func (p *CoursePayment) BeforeCreate(tx *gorm.DB) error {
	p.CardDetails = p.CardDetails.Redacted()
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}
