package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"learnhub/database/dbtest"
	"learnhub/events"
	"learnhub/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type publishedEvent struct {
	eventType string
	key       string
	payload   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType, partitionKey, string(payload)})
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type countingCache struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCache) Invalidate(context.Context) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db        *gorm.DB
	svc       *Coordinator
	publisher *recordingPublisher
	cache     *countingCache
	clock     *clock
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	f := &fixture{
		db:        dbtest.New(t),
		publisher: &recordingPublisher{},
		cache:     &countingCache{},
		clock:     &clock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}
	for i := 1; i <= 9; i++ {
		learner := models.User{
			ID:       uint(i),
			Name:     fmt.Sprintf("Learner %d", i),
			Email:    fmt.Sprintf("learner%d@example.com", i),
			Password: "x",
			Type:     models.UserTypeStudent,
		}
		require.NoError(t, f.db.Create(&learner).Error)
	}
	f.svc = NewCoordinator(f.db, zerolog.Nop(), Options{
		StrictSectionIDs: strict,
		Publisher:        f.publisher,
		Cache:            f.cache,
		Now:              f.clock.Now,
	})
	return f
}

func (f *fixture) course(t *testing.T, price string, sections int) models.Course {
	t.Helper()
	list := make([]models.Section, sections)
	for i := range list {
		list[i] = models.Section{
			Title:       fmt.Sprintf("Section %d", i+1),
			Description: "Lesson",
			Content:     models.SectionContent{Filename: fmt.Sprintf("s%d.mp4", i), Path: fmt.Sprintf("/uploads/s%d.mp4", i), Mimetype: "video/mp4", Size: 1024},
		}
	}
	course := models.Course{
		UserID:      99,
		Educator:    "R. Iyer",
		Title:       "Course priced " + price,
		Category:    models.CourseCategories[0],
		Price:       price,
		Description: "A course",
		Sections:    datatypes.NewJSONSlice(list),
	}
	require.NoError(t, f.db.Create(&course).Error)
	return course
}

func (f *fixture) enrolledCount(t *testing.T, courseID uint) int64 {
	t.Helper()
	var course models.Course
	require.NoError(t, f.db.Take(&course, courseID).Error)
	return course.Enrolled
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestFreeCourseLifecycle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	course := f.course(t, "free", 3)

	res, err := f.svc.Enroll(ctx, 1, course.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Course.Enrolled)
	assert.Equal(t, 3, res.Enrollment.SectionCount)
	assert.True(t, res.Payment.Amount.IsZero())
	assert.Equal(t, models.PaymentMethodFree, res.Payment.PaymentMethod)
	assert.Equal(t, "success", res.Confirmation.Status)
	assert.Regexp(t, `^pay_\d+_[0-9a-f]{9}$`, res.Confirmation.PaymentID)
	assert.Regexp(t, `^order_\d+_[0-9a-f]{9}$`, res.Confirmation.OrderID)

	var payment models.CoursePayment
	require.NoError(t, f.db.Take(&payment, "user_id = ? AND course_id = ?", 1, course.ID).Error)
	assert.Equal(t, "Free Course", payment.CardDetails.CardholderName)
	assert.Equal(t, "****-****-****-0000", payment.CardDetails.CardNumber)
	assert.Equal(t, "***", payment.CardDetails.CVVCode)
	assert.Equal(t, "12/2025", payment.CardDetails.ExpMonthYear)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	assert.Equal(t, "INR", payment.Currency)
	assert.Equal(t, res.Confirmation.PaymentID, payment.TransactionID)

	_, err = f.svc.Enroll(ctx, 1, course.ID, nil)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, course.ID, conflict.CourseID)
	assert.Equal(t, course.Title, conflict.Title)
	assert.Equal(t, int64(1), f.enrolledCount(t, course.ID))
	assert.Equal(t, int64(1), f.count(t, &models.CoursePayment{}))

	for _, section := range []int{0, 1} {
		out, err := f.svc.CompleteSection(ctx, 1, course.ID, section)
		require.NoError(t, err)
		assert.False(t, out.CertificateIssued)
		assert.Nil(t, out.Enrollment.CertificateIssuedAt)
	}

	content, err := f.svc.GetContent(ctx, 1, course.ID)
	require.NoError(t, err)
	assert.Len(t, content.Progress, 2)
	assert.Nil(t, content.Enrollment.CertificateIssuedAt)

	f.clock.Advance(time.Hour)
	out, err := f.svc.CompleteSection(ctx, 1, course.ID, 2)
	require.NoError(t, err)
	assert.True(t, out.CertificateIssued)
	require.NotNil(t, out.Enrollment.CertificateIssuedAt)
	assert.True(t, out.Enrollment.CertificateIssuedAt.Equal(f.clock.Now()))
	assert.Len(t, out.Enrollment.Progress, 3)

	assert.Len(t, f.publisher.ofType(events.EnrollmentCreated), 1)
	completed := f.publisher.ofType(events.EnrollmentCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, fmt.Sprintf("enrollment-%d", res.Enrollment.ID), completed[0].key)
	assert.Equal(t, 1, f.cache.calls)
}

func TestEnrollPaidCourseRedactsCard(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "49.99", 2)

	card := &models.CardDetails{
		CardholderName: "Meera Nair",
		CardNumber:     "4111-1111-1111-4242",
		CVVCode:        "321",
		ExpMonthYear:   "08/2028",
	}
	res, err := f.svc.Enroll(context.Background(), 2, course.ID, card)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("49.99").Equal(res.Confirmation.Amount))

	var payment models.CoursePayment
	require.NoError(t, f.db.Take(&payment, "user_id = ?", 2).Error)
	assert.True(t, decimal.RequireFromString("49.99").Equal(payment.Amount), "amount %s", payment.Amount)
	assert.Equal(t, models.PaymentMethodCard, payment.PaymentMethod)
	assert.Equal(t, "****-****-****-4242", payment.CardDetails.CardNumber)
	assert.Equal(t, "***", payment.CardDetails.CVVCode)
	assert.Equal(t, "Meera Nair", payment.CardDetails.CardholderName)
	assert.NotContains(t, payment.CardDetails.CardNumber, "4111")
}

func TestEnrollUnparseablePriceChargesNothing(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "49.99abc", 1)

	res, err := f.svc.Enroll(context.Background(), 3, course.ID, &models.CardDetails{CardNumber: "4242424242424242"})
	require.NoError(t, err)
	assert.True(t, res.Payment.Amount.IsZero())
	assert.Equal(t, models.PaymentMethodFree, res.Payment.PaymentMethod)
}

func TestEnrollRejectsBadInput(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Enroll(context.Background(), 0, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = f.svc.Enroll(context.Background(), 1, 12345, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnrollRejectsUnknownUser(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "25", 2)

	_, err := f.svc.Enroll(context.Background(), 4242, course.ID, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.db.Delete(&models.User{}, 3).Error)
	_, err = f.svc.Enroll(context.Background(), 3, course.ID, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.Zero(t, f.enrolledCount(t, course.ID))
	assert.Zero(t, f.count(t, &models.CoursePayment{}))
	assert.Zero(t, f.count(t, &models.Enrollment{}))
	assert.Empty(t, f.publisher.ofType("enrollment.created"))
}

func TestEnrollRollsBackWhenEnrollmentWriteFails(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "10", 2)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_enrollment", func(tx *gorm.DB) {
		if tx.Statement.Table == "enrolled_courses" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := f.svc.Enroll(context.Background(), 4, course.ID, nil)
	require.ErrorIs(t, err, ErrTransactionFailure)

	assert.Zero(t, f.count(t, &models.CoursePayment{}), "payment must be rolled back")
	assert.Zero(t, f.count(t, &models.Enrollment{}))
	assert.Zero(t, f.enrolledCount(t, course.ID))
	assert.Empty(t, f.publisher.ofType(events.EnrollmentCreated))
}

func TestEnrollRollsBackWhenCounterUpdateFails(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "free", 2)

	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:fail_counter", func(tx *gorm.DB) {
		if tx.Statement.Table == "courses" {
			_ = tx.AddError(errors.New("lock timeout"))
		}
	}))

	_, err := f.svc.Enroll(context.Background(), 5, course.ID, nil)
	require.ErrorIs(t, err, ErrTransactionFailure)

	assert.Zero(t, f.count(t, &models.CoursePayment{}))
	assert.Zero(t, f.count(t, &models.Enrollment{}))
}

func TestConcurrentEnrollSamePair(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "free", 2)

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
		others    []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Enroll(context.Background(), 7, course.ID, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, int64(1), f.enrolledCount(t, course.ID))
	assert.Equal(t, int64(1), f.count(t, &models.CoursePayment{}))
}

func TestCompleteSectionDuplicate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	course := f.course(t, "free", 3)
	_, err := f.svc.Enroll(ctx, 1, course.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.CompleteSection(ctx, 1, course.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.CompleteSection(ctx, 1, course.ID, 1)
	assert.ErrorIs(t, err, ErrSectionCompleted)
	assert.ErrorIs(t, err, ErrConflict)

	content, err := f.svc.GetContent(ctx, 1, course.ID)
	require.NoError(t, err)
	assert.Len(t, content.Progress, 1)
}

func TestCompleteSectionRequiresEnrollment(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "free", 1)

	_, err := f.svc.CompleteSection(context.Background(), 1, course.ID, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, f.count(t, &models.SectionProgress{}))
}

func TestCertificateUsesSnapshotAndIsNeverOverwritten(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	course := f.course(t, "free", 2)
	_, err := f.svc.Enroll(ctx, 1, course.ID, nil)
	require.NoError(t, err)

	// the course grows after enrollment; the snapshot stays at two
	grown := append(course.Sections, models.Section{Title: "Bonus"})
	require.NoError(t, f.db.Model(&models.Course{}).Where("id = ?", course.ID).Update("sections", grown).Error)

	_, err = f.svc.CompleteSection(ctx, 1, course.ID, 0)
	require.NoError(t, err)
	out, err := f.svc.CompleteSection(ctx, 1, course.ID, 1)
	require.NoError(t, err)
	require.True(t, out.CertificateIssued)
	issuedAt := *out.Enrollment.CertificateIssuedAt

	f.clock.Advance(24 * time.Hour)
	out, err = f.svc.CompleteSection(ctx, 1, course.ID, 2)
	require.NoError(t, err)
	assert.False(t, out.CertificateIssued)
	assert.True(t, issuedAt.Equal(*out.Enrollment.CertificateIssuedAt))
	assert.Len(t, out.Enrollment.Progress, 3)
	assert.Len(t, f.publisher.ofType(events.EnrollmentCompleted), 1)
}

func TestCompleteSectionOutOfRange(t *testing.T) {
	t.Run("lenient accepts stale ids", func(t *testing.T) {
		f := newFixture(t, false)
		course := f.course(t, "free", 2)
		_, err := f.svc.Enroll(context.Background(), 1, course.ID, nil)
		require.NoError(t, err)

		_, err = f.svc.CompleteSection(context.Background(), 1, course.ID, 7)
		assert.NoError(t, err)
		_, err = f.svc.CompleteSection(context.Background(), 1, course.ID, -1)
		assert.NoError(t, err)
	})

	t.Run("strict rejects", func(t *testing.T) {
		f := newFixture(t, true)
		course := f.course(t, "free", 2)
		_, err := f.svc.Enroll(context.Background(), 1, course.ID, nil)
		require.NoError(t, err)

		_, err = f.svc.CompleteSection(context.Background(), 1, course.ID, 2)
		assert.ErrorIs(t, err, ErrSectionOutOfRange)
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = f.svc.CompleteSection(context.Background(), 1, course.ID, -1)
		assert.ErrorIs(t, err, ErrSectionOutOfRange)

		_, err = f.svc.CompleteSection(context.Background(), 1, course.ID, 1)
		assert.NoError(t, err)
	})
}

func TestGetContentForbiddenWithoutEnrollment(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "free", 2)

	_, err := f.svc.GetContent(context.Background(), 1, course.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetContent(context.Background(), 1, 424242)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetContentReturnsSectionsAndEmptyProgress(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "free", 2)
	_, err := f.svc.Enroll(context.Background(), 1, course.ID, nil)
	require.NoError(t, err)

	content, err := f.svc.GetContent(context.Background(), 1, course.ID)
	require.NoError(t, err)
	require.Len(t, content.Sections, 2)
	assert.Equal(t, "Section 1", content.Sections[0].Title)
	assert.NotNil(t, content.Progress)
	assert.Empty(t, content.Progress)
	assert.Equal(t, 2, content.Enrollment.SectionCount)
}

func TestListEnrollmentsSkipsDeletedCourses(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	first := f.course(t, "free", 1)
	second := f.course(t, "12.50", 1)
	third := f.course(t, "free", 1)

	for _, c := range []models.Course{first, second, third} {
		_, err := f.svc.Enroll(ctx, 1, c.ID, nil)
		require.NoError(t, err)
	}
	_, err := f.svc.Enroll(ctx, 2, first.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.db.Delete(&models.Course{}, second.ID).Error)

	courses, err := f.svc.ListEnrollments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, first.ID, courses[0].ID)
	assert.Equal(t, third.ID, courses[1].ID)

	none, err := f.svc.ListEnrollments(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFakePaymentHasNoSideEffects(t *testing.T) {
	f := newFixture(t, false)
	course := f.course(t, "199", 1)

	quote, err := f.svc.FakePayment(context.Background(), course.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(199).Equal(quote.Amount))
	assert.Equal(t, "success", quote.Status)
	assert.NotEqual(t, quote.PaymentID, quote.OrderID)

	assert.Zero(t, f.count(t, &models.CoursePayment{}))
	assert.Zero(t, f.count(t, &models.Enrollment{}))
	assert.Zero(t, f.enrolledCount(t, course.ID))

	_, err = f.svc.FakePayment(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
