package middleware

import (
	"fmt"
	"learnhub/config"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID uint, email, userType string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"type":  userType,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(config.AppConfig.JWTTTLHours) * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

// JWTMiddleware resolves the bearer token to the caller's id and type and
// stores them as "userId" and "userType" locals.
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Authorization header missing", nil)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid Authorization header format", nil)
	}

	tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
	if tokenString == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Token missing", nil)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Token is not valid", nil)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
	}

	// numeric claims decode as float64
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid token payload", nil)
	}
	userType, _ := claims["type"].(string)

	c.Locals("userId", uint(id))
	c.Locals("userType", userType)

	return c.Next()
}
