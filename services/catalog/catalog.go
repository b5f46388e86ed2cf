package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"learnhub/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidPrice = errors.New("price must be a non-negative number")
	ErrNoSections   = errors.New("a course needs at least one section")
)

// CourseCache is the cache consulted for the public course list
type CourseCache interface {
	Courses(ctx context.Context) ([]models.Course, bool)
	SetCourses(ctx context.Context, courses []models.Course)
	Invalidate(ctx context.Context)
}

type Service struct {
	db    *gorm.DB
	cache CourseCache
	log   zerolog.Logger
}

func NewService(db *gorm.DB, cache CourseCache, log zerolog.Logger) *Service {
	return &Service{db: db, cache: cache, log: log.With().Str("component", "catalog").Logger()}
}

type NewCourse struct {
	UserID      uint
	Educator    string
	Title       string
	Category    string
	Price       string
	Description string
	Sections    []models.Section
}

// NormalizePrice maps an empty or zero price to "free" and rejects anything
// that is not a non-negative decimal.
func NormalizePrice(price string) (string, error) {
	price = strings.TrimSpace(price)
	if price == "" || strings.EqualFold(price, models.PriceFree) {
		return models.PriceFree, nil
	}
	amount, err := decimal.NewFromString(price)
	if err != nil || amount.IsNegative() {
		return "", ErrInvalidPrice
	}
	if amount.IsZero() {
		return models.PriceFree, nil
	}
	return amount.String(), nil
}

func (s *Service) CreateCourse(ctx context.Context, in NewCourse) (*models.Course, error) {
	if len(in.Sections) == 0 {
		return nil, ErrNoSections
	}
	price, err := NormalizePrice(in.Price)
	if err != nil {
		return nil, err
	}

	course := models.Course{
		UserID:      in.UserID,
		Educator:    strings.TrimSpace(in.Educator),
		Title:       strings.TrimSpace(in.Title),
		Category:    in.Category,
		Price:       price,
		Description: strings.TrimSpace(in.Description),
		Sections:    datatypes.NewJSONSlice(in.Sections),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(&course).Error; err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.log.Info().Uint("courseId", course.ID).Uint("teacherId", in.UserID).Int("sections", len(in.Sections)).Msg("course created")
	s.invalidate(ctx)
	return &course, nil
}

// ListCourses returns every course, newest first
func (s *Service) ListCourses(ctx context.Context) ([]models.Course, error) {
	if s.cache != nil {
		if courses, ok := s.cache.Courses(ctx); ok {
			return courses, nil
		}
	}

	courses := []models.Course{}
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if s.cache != nil {
		s.cache.SetCourses(ctx, courses)
	}
	return courses, nil
}

func (s *Service) ListTeacherCourses(ctx context.Context, teacherID uint) ([]models.Course, error) {
	courses := []models.Course{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", teacherID).
		Order("created_at DESC, id DESC").
		Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("list teacher courses: %w", err)
	}
	return courses, nil
}

// DeleteCourse removes a course together with its enrollments, progress and
// payments. Only the owning teacher or an admin may delete.
func (s *Service) DeleteCourse(ctx context.Context, courseID, requesterID uint, isAdmin bool) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).Take(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup course: %w", err)
	}
	if !isAdmin && course.UserID != requesterID {
		return nil, ErrForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCourses(tx, []uint{course.ID})
	})
	if err != nil {
		return nil, fmt.Errorf("delete course: %w", err)
	}

	s.log.Info().Uint("courseId", course.ID).Uint("by", requesterID).Msg("course deleted")
	s.invalidate(ctx)
	return &course, nil
}

// ListUsers returns every user, newest first
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a non-admin user. A teacher's courses go with them, and
// the user's own enrollments are removed with the course counters adjusted.
// It returns the courses that were removed.
func (s *Service) DeleteUser(ctx context.Context, userID uint) ([]models.Course, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Type == models.UserTypeAdmin {
		return nil, ErrForbidden
	}

	var removed []models.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if user.Type == models.UserTypeTeacher {
			if err := tx.Where("user_id = ?", user.ID).Find(&removed).Error; err != nil {
				return err
			}
			ids := make([]uint, len(removed))
			for i, c := range removed {
				ids[i] = c.ID
			}
			if err := deleteCourses(tx, ids); err != nil {
				return err
			}
		}

		var enrolledIn []uint
		if err := tx.Model(&models.Enrollment{}).Where("user_id = ?", user.ID).Pluck("course_id", &enrolledIn).Error; err != nil {
			return err
		}
		if len(enrolledIn) > 0 {
			if err := tx.Model(&models.Course{}).
				Where("id IN ? AND enrolled > 0", enrolledIn).
				Update("enrolled", gorm.Expr("enrolled - 1")).Error; err != nil {
				return err
			}
		}

		enrollments := tx.Model(&models.Enrollment{}).Select("id").Where("user_id = ?", user.ID)
		if err := tx.Where("enrollment_id IN (?)", enrollments).Delete(&models.SectionProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CoursePayment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}

	s.log.Info().Uint("userId", user.ID).Str("type", user.Type).Int("courses", len(removed)).Msg("user deleted")
	s.invalidate(ctx)
	return removed, nil
}

type Stats struct {
	Users       int64           `json:"users"`
	Students    int64           `json:"students"`
	Teachers    int64           `json:"teachers"`
	Courses     int64           `json:"courses"`
	Enrollments int64           `json:"enrollments"`
	Completed   int64           `json:"completed"`
	Revenue     decimal.Decimal `json:"revenue"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	var out Stats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&out.Users, db.Model(&models.User{})},
		{&out.Students, db.Model(&models.User{}).Where("type = ?", models.UserTypeStudent)},
		{&out.Teachers, db.Model(&models.User{}).Where("type = ?", models.UserTypeTeacher)},
		{&out.Courses, db.Model(&models.Course{})},
		{&out.Enrollments, db.Model(&models.Enrollment{})},
		{&out.Completed, db.Model(&models.Enrollment{}).Where("certificate_issued_at IS NOT NULL")},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	err := db.Model(&models.CoursePayment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", models.PaymentStatusCompleted).
		Row().Scan(&out.Revenue)
	if err != nil {
		return nil, fmt.Errorf("stats revenue: %w", err)
	}
	return &out, nil
}

func deleteCourses(tx *gorm.DB, courseIDs []uint) error {
	if len(courseIDs) == 0 {
		return nil
	}

	enrollments := tx.Model(&models.Enrollment{}).Select("id").Where("course_id IN ?", courseIDs)
	if err := tx.Where("enrollment_id IN (?)", enrollments).Delete(&models.SectionProgress{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.Enrollment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id IN ?", courseIDs).Delete(&models.CoursePayment{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", courseIDs).Delete(&models.Course{}).Error
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
