package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port string
	Env  string

	DBDriver       string // postgres, mysql or sqlite
	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBMaxOpenConns int

	JWTKey      string
	JWTTTLHours int
	SaltRound   int

	UploadDir        string
	MaxSections      int
	StrictSectionIDs bool

	RedisURL        string
	CourseCacheTTL  int // seconds
	KafkaBrokers    []string
	EnrollmentTopic string
	CertificateHook string

	SendgridAPIKey string
	EmailSender    string

	ReconcileCron    string
	ReminderCron     string
	ReminderIdleDays int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SendgridAPIKey == "" {
		log.Println("Warning: SENDGRID_API_KEY not set. Emails will be skipped.")
	}
}

// FromEnv builds a Config from the current process environment without touching .env
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),
		Env:  getEnv("ENV", "production"),

		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "learnhub"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),

		JWTKey:      getEnv("JWT_SECRET_KEY", "defaultSecret"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 7*24),
		SaltRound:   getEnvInt("SALT_ROUND", 12),

		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		MaxSections:      getEnvInt("MAX_SECTIONS", 10),
		StrictSectionIDs: getEnvBool("STRICT_SECTION_IDS", false),

		RedisURL:        getEnv("REDIS_URL", ""),
		CourseCacheTTL:  getEnvInt("COURSE_CACHE_TTL_SECONDS", 60),
		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		EnrollmentTopic: getEnv("KAFKA_ENROLLMENT_TOPIC", "learnhub.enrollments"),
		CertificateHook: getEnv("CERTIFICATE_WEBHOOK_URL", ""),

		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@learnhub.local"),

		ReconcileCron:    getEnv("RECONCILE_CRON", "0 3 * * *"),
		ReminderCron:     getEnv("REMINDER_CRON", "0 9 * * *"),
		ReminderIdleDays: getEnvInt("REMINDER_IDLE_DAYS", 7),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
