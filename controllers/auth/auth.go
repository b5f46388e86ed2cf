package authController

import (
	"errors"

	"learnhub/config"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/utils"
	userValidator "learnhub/validators/user"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	mailer *utils.Mailer
	log    zerolog.Logger
}

func NewHandler(db *gorm.DB, mailer *utils.Mailer, log zerolog.Logger) *Handler {
	return &Handler{db: db, mailer: mailer, log: log.With().Str("component", "auth").Logger()}
}

func (h *Handler) Register(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUser").(*userValidator.RegisterRequest)
	db := h.db.WithContext(c.UserContext())

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", reqData.Email).Count(&existing).Error; err != nil {
		h.log.Error().Err(err).Msg("checking email failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Registration failed", nil)
	}
	if existing > 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already exists with this email", nil)
	}

	saltRound := bcrypt.DefaultCost
	if config.AppConfig != nil && config.AppConfig.SaltRound >= bcrypt.MinCost {
		saltRound = config.AppConfig.SaltRound
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), saltRound)
	if err != nil {
		h.log.Error().Err(err).Msg("hashing password failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Registration failed", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Password: string(hashedPassword),
		Type:     reqData.Type,
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already exists with this email", nil)
		}
		h.log.Error().Err(err).Msg("saving user failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Registration failed", nil)
	}

	h.log.Info().Uint("userId", newUser.ID).Str("type", newUser.Type).Msg("user registered")
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Registration successful", nil)
}

func (h *Handler) Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedLogin").(*userValidator.LoginRequest)

	var user models.User
	if err := h.db.WithContext(c.UserContext()).Where("email = ?", reqData.Email).Take(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Error().Err(err).Msg("loading user failed")
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Login failed", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Email, user.Type)
	if err != nil {
		h.log.Error().Err(err).Msg("signing token failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Login failed", nil)
	}

	return middleware.JsonResponseWith(c, fiber.StatusOK, true, fiber.Map{
		"message":  "Login successful",
		"token":    token,
		"userData": user,
	})
}

// ForgotPassword always answers the same way so it cannot be used to probe
// which emails are registered.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	reqData := c.Locals("validatedForgotPassword").(*userValidator.ForgotPasswordRequest)

	var user models.User
	err := h.db.WithContext(c.UserContext()).Where("email = ?", reqData.Email).Take(&user).Error
	switch {
	case err == nil:
		h.mailer.SendPasswordResetEmail(user.Email, user.Name)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		h.log.Error().Err(err).Msg("loading user for password reset failed")
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reset link sent to "+reqData.Email, nil)
}
