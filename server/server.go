package server

import (
	"learnhub/cache"
	"learnhub/config"
	authControllers "learnhub/controllers/auth"
	courseControllers "learnhub/controllers/course"
	superAdminController "learnhub/controllers/superAdmin"
	"learnhub/events"
	authRoutes "learnhub/routers/authRoutes"
	"learnhub/routers/courseRoutes"
	superAdminRoutes "learnhub/routers/superAdmin"
	"learnhub/services/catalog"
	"learnhub/services/enrollment"
	"learnhub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Cache     *cache.CourseCache
	Publisher events.Publisher
	Mailer    *utils.Mailer
	Log       zerolog.Logger
	// AccessLog enables the request log line per call
	AccessLog bool
}

type Server struct {
	App         *fiber.App
	Coordinator *enrollment.Coordinator
	Catalog     *catalog.Service
}

// New wires the services, handlers and routes into a fiber app
func New(d Deps) *Server {
	cfg := d.Config

	catalogSvc := catalog.NewService(d.DB, d.Cache, d.Log)
	coordinator := enrollment.NewCoordinator(d.DB, d.Log, enrollment.Options{
		StrictSectionIDs: cfg.StrictSectionIDs,
		Publisher:        d.Publisher,
		Cache:            d.Cache,
	})

	app := fiber.New(fiber.Config{
		AppName:   "LearnHub",
		BodyLimit: 100 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if d.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	app.Static("/uploads", cfg.UploadDir)

	authRoutes.SetupAuthRoutes(app, authControllers.NewHandler(d.DB, d.Mailer, d.Log))
	courseRoutes.SetupCourseRoutes(app, courseControllers.NewHandler(d.DB, catalogSvc, coordinator, d.Mailer, cfg.UploadDir, d.Log))
	superAdminRoutes.SetupSuperAdminRoutes(app, superAdminController.NewHandler(catalogSvc, cfg.UploadDir, d.Log))

	return &Server{App: app, Coordinator: coordinator, Catalog: catalogSvc}
}
