package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"learnhub/events"
	"learnhub/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const paymentStatusSuccess = "success"

// CatalogCache is told when a course listing goes stale
type CatalogCache interface {
	Invalidate(ctx context.Context)
}

type Options struct {
	// StrictSectionIDs rejects section ids outside [0, sectionCount)
	StrictSectionIDs bool
	Publisher        events.Publisher
	Cache            CatalogCache
	Now              func() time.Time
}

// Coordinator runs the enrollment lifecycle: enrolling with a payment,
// reading content, and recording section completion.
type Coordinator struct {
	db        *gorm.DB
	log       zerolog.Logger
	publisher events.Publisher
	cache     CatalogCache
	strict    bool
	now       func() time.Time
}

func NewCoordinator(db *gorm.DB, log zerolog.Logger, opts Options) *Coordinator {
	c := &Coordinator{
		db:        db,
		log:       log.With().Str("component", "enrollment").Logger(),
		publisher: opts.Publisher,
		cache:     opts.Cache,
		strict:    opts.StrictSectionIDs,
		now:       opts.Now,
	}
	if c.publisher == nil {
		c.publisher = events.LogPublisher{Log: c.log}
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// PaymentConfirmation is the simulated gateway answer returned to the client
type PaymentConfirmation struct {
	PaymentID string          `json:"paymentId"`
	OrderID   string          `json:"orderId"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
}

type EnrollResult struct {
	Course       models.Course
	Enrollment   models.Enrollment
	Payment      models.CoursePayment
	Confirmation PaymentConfirmation
}

// CourseContent is what an enrolled user sees of a course
type CourseContent struct {
	Sections   []models.Section
	Progress   []models.SectionProgress
	Enrollment models.Enrollment
}

type CompletionResult struct {
	Enrollment        models.Enrollment
	CertificateIssued bool
}

type enrollmentCreatedEvent struct {
	EnrollmentID  uint            `json:"enrollmentId"`
	UserID        uint            `json:"userId"`
	CourseID      uint            `json:"courseId"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId"`
	EnrolledAt    time.Time       `json:"enrolledAt"`
}

type enrollmentCompletedEvent struct {
	EnrollmentID        uint      `json:"enrollmentId"`
	UserID              uint      `json:"userId"`
	CourseID            uint      `json:"courseId"`
	SectionCount        int       `json:"sectionCount"`
	CertificateIssuedAt time.Time `json:"certificateIssuedAt"`
}

// Enroll charges the course price and enrolls the user. The payment, the
// enrollment and the course counter increment commit together or not at all.
// card may be nil; missing fields fall back to the free course placeholders.
func (c *Coordinator) Enroll(ctx context.Context, userID, courseID uint, card *models.CardDetails) (*EnrollResult, error) {
	if userID == 0 || courseID == 0 {
		return nil, ErrInvalidID
	}

	if err := c.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	course, err := c.findCourse(ctx, c.db, courseID)
	if err != nil {
		return nil, err
	}

	var existing models.Enrollment
	err = c.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Take(&existing).Error
	switch {
	case err == nil:
		c.log.Info().Uint("userId", userID).Uint("courseId", courseID).Msg("duplicate enrollment attempt")
		return nil, &ConflictError{CourseID: course.ID, Title: course.Title}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("lookup enrollment: %w", err)
	}

	amount := c.chargeableAmount(course)
	now := c.now()
	paymentID := NewReference("pay", now.UnixMilli())
	orderID := NewReference("order", now.UnixMilli())

	payment := models.CoursePayment{
		UserID:        userID,
		CourseID:      courseID,
		CardDetails:   paymentCard(amount, card),
		Amount:        amount,
		Currency:      models.DefaultCurrency,
		Status:        models.PaymentStatusCompleted,
		PaymentMethod: models.PaymentMethodCard,
		TransactionID: paymentID,
	}
	if amount.IsZero() {
		payment.PaymentMethod = models.PaymentMethodFree
	}

	enrollment := models.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		SectionCount:   len(course.Sections),
		EnrollmentDate: now,
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if err := tx.Create(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{CourseID: course.ID, Title: course.Title}
			}
			return fmt.Errorf("create enrollment: %w", err)
		}

		res := tx.Model(&models.Course{}).
			Where("id = ?", courseID).
			Update("enrolled", gorm.Expr("enrolled + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment enrolled: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrNotFound
		}

		return tx.Select("id", "enrolled").Take(course, courseID).Error
	})
	if err != nil {
		var conflict *ConflictError
		switch {
		case errors.As(err, &conflict):
			c.log.Info().Uint("userId", userID).Uint("courseId", courseID).Msg("enrollment lost race to concurrent request")
			return nil, conflict
		case errors.Is(err, ErrNotFound):
			return nil, ErrNotFound
		}
		c.log.Error().Err(err).Uint("userId", userID).Uint("courseId", courseID).Msg("enrollment rolled back")
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailure, err)
	}

	c.log.Info().
		Uint("userId", userID).
		Uint("courseId", courseID).
		Str("transactionId", payment.TransactionID).
		Str("amount", amount.StringFixed(2)).
		Msg("user enrolled")

	c.publish(ctx, events.EnrollmentCreated, enrollment.ID, enrollmentCreatedEvent{
		EnrollmentID:  enrollment.ID,
		UserID:        userID,
		CourseID:      courseID,
		Amount:        amount,
		TransactionID: payment.TransactionID,
		EnrolledAt:    enrollment.EnrollmentDate,
	})
	if c.cache != nil {
		c.cache.Invalidate(ctx)
	}

	return &EnrollResult{
		Course:     *course,
		Enrollment: enrollment,
		Payment:    payment,
		Confirmation: PaymentConfirmation{
			PaymentID: paymentID,
			OrderID:   orderID,
			Amount:    amount,
			Status:    paymentStatusSuccess,
		},
	}, nil
}

// FakePayment quotes a simulated payment for the course without writing anything
func (c *Coordinator) FakePayment(ctx context.Context, courseID uint) (*PaymentConfirmation, error) {
	if courseID == 0 {
		return nil, ErrInvalidID
	}
	course, err := c.findCourse(ctx, c.db, courseID)
	if err != nil {
		return nil, err
	}

	millis := c.now().UnixMilli()
	return &PaymentConfirmation{
		PaymentID: NewReference("pay", millis),
		OrderID:   NewReference("order", millis),
		Amount:    c.chargeableAmount(course),
		Status:    paymentStatusSuccess,
	}, nil
}

// GetContent returns the sections of a course the user is enrolled in along
// with their progress. Users without an enrollment get ErrForbidden whether or
// not the course exists.
func (c *Coordinator) GetContent(ctx context.Context, userID, courseID uint) (*CourseContent, error) {
	if userID == 0 || courseID == 0 {
		return nil, ErrInvalidID
	}

	var enrollment models.Enrollment
	err := c.db.WithContext(ctx).
		Preload("Progress", func(db *gorm.DB) *gorm.DB { return db.Order("completed_at ASC, id ASC") }).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Take(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrForbidden
		}
		return nil, fmt.Errorf("lookup enrollment: %w", err)
	}

	course, err := c.findCourse(ctx, c.db, courseID)
	if err != nil {
		return nil, err
	}

	progress := enrollment.Progress
	if progress == nil {
		progress = []models.SectionProgress{}
	}
	return &CourseContent{
		Sections:   course.Sections,
		Progress:   progress,
		Enrollment: enrollment,
	}, nil
}

// CompleteSection records sectionID as completed. The first call that brings
// progress up to the enrollment's section count issues the certificate.
func (c *Coordinator) CompleteSection(ctx context.Context, userID, courseID uint, sectionID int) (*CompletionResult, error) {
	if userID == 0 || courseID == 0 {
		return nil, ErrInvalidID
	}

	var (
		enrollment models.Enrollment
		issued     bool
	)
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Take(&enrollment).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrForbidden
			}
			return fmt.Errorf("lookup enrollment: %w", err)
		}

		if c.strict && (sectionID < 0 || sectionID >= enrollment.SectionCount) {
			return ErrSectionOutOfRange
		}

		var done int64
		if err := tx.Model(&models.SectionProgress{}).
			Where("enrollment_id = ? AND section_id = ?", enrollment.ID, sectionID).
			Count(&done).Error; err != nil {
			return fmt.Errorf("check progress: %w", err)
		}
		if done > 0 {
			return ErrSectionCompleted
		}

		now := c.now()
		entry := models.SectionProgress{EnrollmentID: enrollment.ID, SectionID: sectionID, CompletedAt: now}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSectionCompleted
			}
			return fmt.Errorf("record progress: %w", err)
		}

		var completed int64
		if err := tx.Model(&models.SectionProgress{}).
			Where("enrollment_id = ?", enrollment.ID).
			Count(&completed).Error; err != nil {
			return fmt.Errorf("count progress: %w", err)
		}

		if int(completed) == enrollment.SectionCount {
			res := tx.Model(&models.Enrollment{}).
				Where("id = ? AND certificate_issued_at IS NULL", enrollment.ID).
				Update("certificate_issued_at", now)
			if res.Error != nil {
				return fmt.Errorf("issue certificate: %w", res.Error)
			}
			issued = res.RowsAffected == 1
		}

		return tx.Preload("Progress", func(db *gorm.DB) *gorm.DB { return db.Order("completed_at ASC, id ASC") }).
			Take(&enrollment, enrollment.ID).Error
	})
	if err != nil {
		if errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict) || errors.Is(err, ErrInvalidID) {
			return nil, err
		}
		c.log.Error().Err(err).Uint("userId", userID).Uint("courseId", courseID).Int("sectionId", sectionID).Msg("section completion rolled back")
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailure, err)
	}

	if issued {
		c.log.Info().Uint("enrollmentId", enrollment.ID).Msg("certificate issued")
		c.publish(ctx, events.EnrollmentCompleted, enrollment.ID, enrollmentCompletedEvent{
			EnrollmentID:        enrollment.ID,
			UserID:              userID,
			CourseID:            courseID,
			SectionCount:        enrollment.SectionCount,
			CertificateIssuedAt: *enrollment.CertificateIssuedAt,
		})
	}

	return &CompletionResult{Enrollment: enrollment, CertificateIssued: issued}, nil
}

// ListEnrollments returns the courses the user is enrolled in, oldest
// enrollment first. Enrollments whose course is gone are skipped.
func (c *Coordinator) ListEnrollments(ctx context.Context, userID uint) ([]models.Course, error) {
	if userID == 0 {
		return nil, ErrInvalidID
	}

	courses := []models.Course{}
	err := c.db.WithContext(ctx).
		Model(&models.Course{}).
		Select("courses.*").
		Joins("JOIN enrolled_courses ON enrolled_courses.course_id = courses.id").
		Where("enrolled_courses.user_id = ?", userID).
		Order("enrolled_courses.created_at ASC, enrolled_courses.id ASC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return courses, nil
}

// requireUser fails with ErrUserNotFound for ids whose account was deleted
// while their token is still valid.
func (c *Coordinator) requireUser(ctx context.Context, userID uint) error {
	var n int64
	if err := c.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (c *Coordinator) findCourse(ctx context.Context, db *gorm.DB, courseID uint) (*models.Course, error) {
	var course models.Course
	if err := db.WithContext(ctx).Take(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup course: %w", err)
	}
	return &course, nil
}

func (c *Coordinator) chargeableAmount(course *models.Course) decimal.Decimal {
	amount, ok := ChargeableAmount(course.Price)
	if !ok {
		c.log.Warn().Uint("courseId", course.ID).Str("price", course.Price).Msg("unparseable course price, charging 0")
	}
	return amount
}

func (c *Coordinator) publish(ctx context.Context, eventType string, enrollmentID uint, v any) {
	key := "enrollment-" + strconv.FormatUint(uint64(enrollmentID), 10)
	if err := events.PublishJSON(ctx, c.publisher, eventType, key, v); err != nil {
		c.log.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}

func paymentCard(amount decimal.Decimal, card *models.CardDetails) models.CardDetails {
	if amount.IsZero() || card == nil {
		return models.FreeCourseCard
	}
	return card.WithDefaults()
}

// lockForUpdate takes a row lock where the dialect supports it. SQLite
// serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
