package authRoutes

import (
	authControllers "learnhub/controllers/auth"
	authValidators "learnhub/validators/user"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, h *authControllers.Handler) {
	authGroup := app.Group("/api/user")

	authGroup.Post("/register", authValidators.Register(), h.Register)
	authGroup.Post("/login", authValidators.Login(), h.Login)
	authGroup.Post("/forgot-password", authValidators.ForgotPassword(), h.ForgotPassword)
}
