package superAdminRoutes

import (
	superAdminController "learnhub/controllers/superAdmin"
	"learnhub/middleware"
	courseValidator "learnhub/validators/course"
	userValidator "learnhub/validators/user"

	"github.com/gofiber/fiber/v2"
)

func SetupSuperAdminRoutes(app *fiber.App, h *superAdminController.Handler) {
	adminGroup := app.Group("/api/admin", middleware.JWTMiddleware, middleware.AdminOnly())

	adminGroup.Get("/getallusers", h.GetAllUsers)
	adminGroup.Get("/getallcourses", h.GetAllCourses)
	adminGroup.Get("/stats", h.Stats)
	adminGroup.Delete("/deletecourse/:courseId", courseValidator.CourseIDParam(), h.DeleteCourse)
	adminGroup.Delete("/deleteuser/:userId", userValidator.UserIDParam(), h.DeleteUser)
}
