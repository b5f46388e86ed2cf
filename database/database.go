package database

import (
	"fmt"
	"learnhub/config"
	"learnhub/logger"
	"learnhub/models"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the configured database, runs migrations and stores the
// connection in Database.
func ConnectDb(cfg *config.Config) error {
	db, err := Open(cfg.DBDriver, DSN(cfg), cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}

	Database = DbInstance{Db: db}
	return nil
}

// DSN builds the driver specific connection string
func DSN(cfg *config.Config) string {
	switch cfg.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case "sqlite":
		return cfg.DBName
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
	}
}

// Open connects with the named driver, sets up pooling and migrates the schema
func Open(driver, dsn string, maxOpenConns int) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) error {
	logger.Log.Debug().Msg("running migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Enrollment{},
		&models.SectionProgress{},
		&models.CoursePayment{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Log.Debug().Msg("migrations completed")
	return nil
}

// gormWriter sends gorm's slow query and error lines to the application log
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// newGormLogger reports slow queries and errors. Missing rows are an
// expected lookup result and are not logged.
func newGormLogger() gormlogger.Interface {
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
