package superAdminController

import (
	"errors"

	"learnhub/middleware"
	"learnhub/services/catalog"
	"learnhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type Handler struct {
	catalog   *catalog.Service
	uploadDir string
	log       zerolog.Logger
}

func NewHandler(catalogSvc *catalog.Service, uploadDir string, log zerolog.Logger) *Handler {
	return &Handler{catalog: catalogSvc, uploadDir: uploadDir, log: log.With().Str("component", "admin").Logger()}
}

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	users, err := h.catalog.ListUsers(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("listing users failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Error fetching users", nil)
	}
	if len(users) == 0 {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "No users found", users)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully", users)
}

func (h *Handler) GetAllCourses(c *fiber.Ctx) error {
	courses, err := h.catalog.ListCourses(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("listing courses failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Error fetching courses", nil)
	}
	if len(courses) == 0 {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "No courses found", courses)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully", courses)
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	stats, err := h.catalog.Stats(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("loading stats failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Error fetching stats", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Stats fetched successfully", stats)
}

func (h *Handler) DeleteCourse(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)
	courseID := c.Locals("courseID").(uint)

	course, err := h.catalog.DeleteCourse(c.UserContext(), courseID, adminID, true)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found", nil)
	case err != nil:
		h.log.Error().Err(err).Uint("courseId", courseID).Msg("deleting course failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course", nil)
	}

	utils.RemoveSectionFiles(h.uploadDir, course.Sections)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course and related data deleted successfully", nil)
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	removed, err := h.catalog.DeleteUser(c.UserContext(), userID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found", nil)
	case errors.Is(err, catalog.ErrForbidden):
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Cannot delete admin users", nil)
	case err != nil:
		h.log.Error().Err(err).Uint("userId", userID).Msg("deleting user failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user", nil)
	}

	for _, course := range removed {
		utils.RemoveSectionFiles(h.uploadDir, course.Sections)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "User and related data deleted successfully", nil)
}
