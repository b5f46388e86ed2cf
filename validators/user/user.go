package userValidator

import (
	"learnhub/middleware"
	"learnhub/validators"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Type     string `json:"type" validate:"required,oneof=Student Teacher Admin"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Register validator middleware
func Register() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(RegisterRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if reqData.Name == "" || reqData.Email == "" || reqData.Password == "" || reqData.Type == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "All fields are required", nil)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if errs := validators.Struct(reqData); errs != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Email and password are required", errs)
		}

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}

func ForgotPassword() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ForgotPasswordRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if reqData.Email == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Email is required", nil)
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Please enter a valid email address", nil)
		}

		c.Locals("validatedForgotPassword", reqData)
		return c.Next()
	}
}

// UserIDParam validates the :userId path parameter
func UserIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validators.ParseID(c.Params("userId"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user ID", nil)
		}
		c.Locals("userID", id)
		return c.Next()
	}
}
