package middleware

import "github.com/gofiber/fiber/v2"

func JsonResponse(c *fiber.Ctx, statusCode int, success bool, message string, data interface{}) error {
	body := fiber.Map{
		"success": success,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(statusCode).JSON(body)
}

// JsonResponseWith writes success plus the given top level fields
func JsonResponseWith(c *fiber.Ctx, statusCode int, success bool, fields fiber.Map) error {
	body := fiber.Map{"success": success}
	for k, v := range fields {
		body[k] = v
	}
	return c.Status(statusCode).JSON(body)
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed!",
		"errors":  errors,
	})
}
