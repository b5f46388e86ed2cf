package courseValidator

import (
	"learnhub/config"
	"learnhub/middleware"
	"learnhub/models"
	"learnhub/validators"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// EnrollRequest carries optional card details, either nested under
// cardDetails or as top level fields.
type EnrollRequest struct {
	CardDetails *CardDetailsRequest `json:"cardDetails" validate:"omitempty"`
	CardDetailsRequest
}

type CardDetailsRequest struct {
	CardholderName string `json:"cardholdername" validate:"omitempty,max=100"`
	CardNumber     string `json:"cardnumber" validate:"omitempty,min=4,max=23"`
	CVVCode        string `json:"cvvcode" validate:"omitempty,numeric,min=3,max=4"`
	ExpMonthYear   string `json:"expmonthyear" validate:"omitempty,max=7"`
}

// Card returns the supplied card or nil when none was sent
func (r *EnrollRequest) Card() *models.CardDetails {
	src := r.CardDetails
	if src == nil {
		src = &r.CardDetailsRequest
	}
	if *src == (CardDetailsRequest{}) {
		return nil
	}
	return &models.CardDetails{
		CardholderName: strings.TrimSpace(src.CardholderName),
		CardNumber:     strings.TrimSpace(src.CardNumber),
		CVVCode:        strings.TrimSpace(src.CVVCode),
		ExpMonthYear:   strings.TrimSpace(src.ExpMonthYear),
	}
}

type CompleteModuleRequest struct {
	CourseID  uint `json:"courseId" validate:"required,gt=0"`
	SectionID *int `json:"sectionId" validate:"required"`
}

type AddCourseRequest struct {
	Educator     string                  `form:"C_educator" validate:"required,max=100"`
	Title        string                  `form:"C_title" validate:"required,max=200"`
	Category     string                  `form:"C_categories" validate:"required,oneof='IT & Software' 'Finance & Accounting' 'Personal Development'"`
	Price        string                  `form:"C_price" validate:"omitempty,max=20"`
	Description  string                  `form:"C_description" validate:"required,max=1000"`
	SectionTitle []string                `form:"S_title" validate:"dive,required,max=200"`
	SectionDesc  []string                `form:"S_description" validate:"dive,required,max=1000"`
	Files        []*multipart.FileHeader `form:"-"`
}

// CourseIDParam validates the :courseId path parameter
func CourseIDParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validators.ParseID(c.Params("courseId"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID", nil)
		}
		c.Locals("courseID", id)
		return c.Next()
	}
}

func EnrollCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := validators.ParseID(c.Params("courseId"))
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID", nil)
		}

		reqData := new(EnrollRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(reqData); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}
		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals("courseID", id)
		c.Locals("validatedEnrollment", reqData)
		return c.Next()
	}
}

func CompleteModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CompleteModuleRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if errs := validators.Struct(reqData); errs != nil {
			if _, bad := errs["courseId"]; bad {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course ID", errs)
			}
			return middleware.ValidationErrorResponse(c, errs)
		}

		c.Locals("validatedCompletion", reqData)
		return c.Next()
	}
}

// AddCourse validates the multipart course form. Every section needs a title,
// a description and one uploaded file, matched by position.
func AddCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AddCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if form, err := c.MultipartForm(); err == nil {
			reqData.Files = form.File["S_content"]
		}

		if errs := validators.Struct(reqData); errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}

		sections := len(reqData.Files)
		if len(reqData.SectionTitle) != sections || len(reqData.SectionDesc) != sections {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Mismatch between titles, descriptions, and uploaded files", nil)
		}
		if sections == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "At least one section is required", nil)
		}
		if limit := maxSections(); limit > 0 && sections > limit {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Too many sections", nil)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

func maxSections() int {
	if config.AppConfig == nil {
		return 0
	}
	return config.AppConfig.MaxSections
}
