package middleware

import (
	"learnhub/models"

	"github.com/gofiber/fiber/v2"
)

// RequireUserType lets the request through only for the listed user types.
// It must run after JWTMiddleware.
func RequireUserType(types ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userType, _ := c.Locals("userType").(string)
		for _, t := range types {
			if userType == t {
				return c.Next()
			}
		}
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
}

// AdminOnly guards the admin routes
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userType, _ := c.Locals("userType").(string); userType != models.UserTypeAdmin {
			return JsonResponse(c, fiber.StatusForbidden, false, "Access denied. Admin privileges required.", nil)
		}
		return c.Next()
	}
}
