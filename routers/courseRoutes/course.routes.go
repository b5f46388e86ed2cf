package courseRoutes

import (
	controllers "learnhub/controllers/course"
	"learnhub/middleware"
	"learnhub/models"
	validators "learnhub/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes registers the catalogue and enrollment routes
func SetupCourseRoutes(app *fiber.App, h *controllers.Handler) {
	userGroup := app.Group("/api/user")
	teacherOnly := middleware.RequireUserType(models.UserTypeTeacher)

	userGroup.Get("/getallcourses", h.GetAllCourses)

	// Teacher
	userGroup.Post("/addcourse", middleware.JWTMiddleware, teacherOnly, validators.AddCourse(), h.AddCourse)
	userGroup.Get("/getallcoursesteacher", middleware.JWTMiddleware, teacherOnly, h.GetTeacherCourses)
	userGroup.Delete("/deletecourse/:courseId", middleware.JWTMiddleware, teacherOnly, validators.CourseIDParam(), h.DeleteCourse)

	// Learner
	userGroup.Post("/enrolledcourse/:courseId", middleware.JWTMiddleware, validators.EnrollCourse(), h.EnrollInCourse)
	userGroup.Get("/coursecontent/:courseId", middleware.JWTMiddleware, validators.CourseIDParam(), h.GetCourseContent)
	userGroup.Post("/completemodule", middleware.JWTMiddleware, validators.CompleteModule(), h.CompleteModule)
	userGroup.Get("/getallcoursesuser", middleware.JWTMiddleware, h.GetEnrolledCourses)
	userGroup.Get("/fake-payment/:courseId", middleware.JWTMiddleware, validators.CourseIDParam(), h.FakePayment)
}
