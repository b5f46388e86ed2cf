package enrollment

import (
	"context"
	"fmt"
	"time"
)

// ReconcileCounts resets courses.enrolled to the number of enrollment rows for
// every course where the two disagree and returns how many courses changed.
func (c *Coordinator) ReconcileCounts(ctx context.Context) (int64, error) {
	const actual = "(SELECT COUNT(*) FROM enrolled_courses WHERE enrolled_courses.course_id = courses.id)"

	res := c.db.WithContext(ctx).Exec(
		"UPDATE courses SET enrolled = " + actual + " WHERE enrolled <> " + actual,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("reconcile enrolled counts: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		c.log.Warn().Int64("courses", res.RowsAffected).Msg("enrolled counters drifted and were reset")
	}
	return res.RowsAffected, nil
}

// IdleEnrollment is an unfinished enrollment with no recent activity
type IdleEnrollment struct {
	EnrollmentID uint
	UserName     string
	UserEmail    string
	CourseTitle  string
	SectionCount int
	Completed    int
}

// IdleEnrollments lists enrollments without a certificate whose last
// completed section (or enrollment date when nothing is completed) is older
// than since.
func (c *Coordinator) IdleEnrollments(ctx context.Context, since time.Time) ([]IdleEnrollment, error) {
	var out []IdleEnrollment
	err := c.db.WithContext(ctx).
		Table("enrolled_courses AS e").
		Select("e.id AS enrollment_id, u.name AS user_name, u.email AS user_email, c.title AS course_title, e.section_count AS section_count, COUNT(p.id) AS completed").
		Joins("JOIN users u ON u.id = e.user_id").
		Joins("JOIN courses c ON c.id = e.course_id").
		Joins("LEFT JOIN enrollment_progress p ON p.enrollment_id = e.id").
		Where("e.certificate_issued_at IS NULL").
		Group("e.id, u.name, u.email, c.title, e.section_count, e.enrollment_date").
		Having("COALESCE(MAX(p.completed_at), e.enrollment_date) < ?", since.UTC()).
		Order("e.id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list idle enrollments: %w", err)
	}
	return out, nil
}
