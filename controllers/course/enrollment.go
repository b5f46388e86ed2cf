package controllers

import (
	"context"
	"errors"

	"learnhub/middleware"
	"learnhub/models"
	"learnhub/services/enrollment"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) EnrollInCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("courseID").(uint)
	reqData := c.Locals("validatedEnrollment").(*courseValidator.EnrollRequest)

	res, err := h.coordinator.Enroll(c.UserContext(), userID, courseID, reqData.Card())
	if err != nil {
		var conflict *enrollment.ConflictError
		switch {
		case errors.As(err, &conflict):
			return middleware.JsonResponseWith(c, fiber.StatusConflict, false, fiber.Map{
				"message": "You are already enrolled in this course",
				"course":  fiber.Map{"id": conflict.CourseID, "Title": conflict.Title},
			})
		case errors.Is(err, enrollment.ErrInvalidID):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID", nil)
		case errors.Is(err, enrollment.ErrUserNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found", nil)
		case errors.Is(err, enrollment.ErrNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course", nil)
	}

	if user, ok := h.findUser(c.UserContext(), userID); ok {
		h.mailer.SendEnrollmentEmail(user.Email, user.Name, res.Course.Title, res.Payment.Amount, res.Payment.TransactionID)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{
		"message": "Enrollment successful",
		"course": fiber.Map{
			"id":       res.Course.ID,
			"Title":    res.Course.Title,
			"enrolled": res.Course.Enrolled,
		},
		"payment": res.Confirmation,
	})
}

func (h *Handler) FakePayment(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(uint)

	payment, err := h.coordinator.FakePayment(c.UserContext(), courseID)
	switch {
	case errors.Is(err, enrollment.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found", nil)
	case err != nil:
		h.log.Error().Err(err).Uint("courseId", courseID).Msg("quoting payment failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{"payment": payment})
}

func (h *Handler) GetCourseContent(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("courseID").(uint)

	content, err := h.coordinator.GetContent(c.UserContext(), userID, courseID)
	switch {
	case errors.Is(err, enrollment.ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course", nil)
	case errors.Is(err, enrollment.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found", nil)
	case err != nil:
		h.log.Error().Err(err).Uint("courseId", courseID).Msg("loading course content failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{
		"courseContent":  content.Sections,
		"completeModule": content.Progress,
		"certficateData": content.Enrollment,
	})
}

func (h *Handler) CompleteModule(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedCompletion").(*courseValidator.CompleteModuleRequest)

	res, err := h.coordinator.CompleteSection(c.UserContext(), userID, reqData.CourseID, *reqData.SectionID)
	switch {
	case errors.Is(err, enrollment.ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course", nil)
	case errors.Is(err, enrollment.ErrSectionCompleted):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Section already completed", nil)
	case errors.Is(err, enrollment.ErrSectionOutOfRange):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid section ID", nil)
	case errors.Is(err, enrollment.ErrInvalidID):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID", nil)
	case err != nil:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error", nil)
	}

	if res.CertificateIssued {
		h.sendCertificate(c.UserContext(), userID, res.Enrollment)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Section completed successfully", nil)
}

func (h *Handler) GetEnrolledCourses(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	courses, err := h.coordinator.ListEnrollments(c.UserContext(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("userId", userID).Msg("listing enrolled courses failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrolled courses", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{
		"data":  courses,
		"count": len(courses),
	})
}

func (h *Handler) sendCertificate(ctx context.Context, userID uint, e models.Enrollment) {
	if !h.mailer.Enabled() || e.CertificateIssuedAt == nil {
		return
	}
	user, ok := h.findUser(ctx, userID)
	if !ok {
		return
	}
	var course models.Course
	if err := h.db.WithContext(ctx).Select("id", "title").Take(&course, e.CourseID).Error; err != nil {
		h.log.Warn().Err(err).Uint("courseId", e.CourseID).Msg("course missing for certificate email")
		return
	}
	h.mailer.SendCertificateEmail(user.Email, user.Name, course.Title, *e.CertificateIssuedAt)
}

func (h *Handler) findUser(ctx context.Context, userID uint) (models.User, bool) {
	var user models.User
	if !h.mailer.Enabled() {
		return user, false
	}
	if err := h.db.WithContext(ctx).Take(&user, userID).Error; err != nil {
		h.log.Warn().Err(err).Uint("userId", userID).Msg("user missing for email")
		return user, false
	}
	return user, true
}
