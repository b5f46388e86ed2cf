package controllers

import (
	"errors"

	"learnhub/middleware"
	"learnhub/models"
	"learnhub/services/catalog"
	"learnhub/services/enrollment"
	"learnhub/utils"
	courseValidator "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Handler serves the course catalogue and the learner facing enrollment
// endpoints.
type Handler struct {
	db          *gorm.DB
	catalog     *catalog.Service
	coordinator *enrollment.Coordinator
	mailer      *utils.Mailer
	uploadDir   string
	log         zerolog.Logger
}

func NewHandler(db *gorm.DB, catalogSvc *catalog.Service, coordinator *enrollment.Coordinator, mailer *utils.Mailer, uploadDir string, log zerolog.Logger) *Handler {
	return &Handler{
		db:          db,
		catalog:     catalogSvc,
		coordinator: coordinator,
		mailer:      mailer,
		uploadDir:   uploadDir,
		log:         log.With().Str("component", "courses").Logger(),
	}
}

func (h *Handler) GetAllCourses(c *fiber.Ctx) error {
	courses, err := h.catalog.ListCourses(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("listing courses failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{
		"data":  courses,
		"count": len(courses),
	})
}

func (h *Handler) AddCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedCourse").(*courseValidator.AddCourseRequest)

	sections := make([]models.Section, 0, len(reqData.Files))
	for i, file := range reqData.Files {
		content, err := utils.SaveUploadedFile(file, h.uploadDir)
		if err != nil {
			h.log.Error().Err(err).Str("file", file.Filename).Msg("saving section file failed")
			utils.RemoveSectionFiles(h.uploadDir, sections)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course", nil)
		}
		sections = append(sections, models.Section{
			Title:       reqData.SectionTitle[i],
			Description: reqData.SectionDesc[i],
			Content:     content,
		})
	}

	course, err := h.catalog.CreateCourse(c.UserContext(), catalog.NewCourse{
		UserID:      userID,
		Educator:    reqData.Educator,
		Title:       reqData.Title,
		Category:    reqData.Category,
		Price:       reqData.Price,
		Description: reqData.Description,
		Sections:    sections,
	})
	if err != nil {
		utils.RemoveSectionFiles(h.uploadDir, sections)
		switch {
		case errors.Is(err, catalog.ErrInvalidPrice):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Price must be a number or free", nil)
		case errors.Is(err, catalog.ErrNoSections):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "At least one section is required", nil)
		}
		h.log.Error().Err(err).Msg("creating course failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusCreated, true, fiber.Map{
		"message":  "Course created successfully",
		"courseId": course.ID,
	})
}

func (h *Handler) GetTeacherCourses(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	courses, err := h.catalog.ListTeacherCourses(c.UserContext(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("userId", userID).Msg("listing teacher courses failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{
		"message": "Courses fetched successfully",
		"data":    courses,
		"count":   len(courses),
	})
}

// DeleteCourse removes a course owned by the caller. Admins go through the
// admin route instead.
func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	courseID := c.Locals("courseID").(uint)

	course, err := h.catalog.DeleteCourse(c.UserContext(), courseID, userID, false)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found", nil)
	case errors.Is(err, catalog.ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You can only delete your own courses", nil)
	case err != nil:
		h.log.Error().Err(err).Uint("courseId", courseID).Msg("deleting course failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course", nil)
	}

	utils.RemoveSectionFiles(h.uploadDir, course.Sections)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully", nil)
}
