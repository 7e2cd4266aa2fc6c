package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool

	FSPath string // Physical directory for file uploads
	FSURL  string // URL path prefix for file access

	CORSOrigins string

	// SMTP settings for password reset mail
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
	AppURL   string // base URL embedded in reset links

	// Optional shared presence store. Empty means the in-process map.
	RedisAddr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "taskpilot"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		FSPath:      getEnv("FS_PATH", "./uploads"),
		FSURL:       getEnv("FS_URL", "/fs/uploads"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000, http://localhost:5173"),
		SMTPHost:    getEnv("SMTP_HOST", "localhost"),
		SMTPPort:    smtpPort,
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		MailFrom:    getEnv("MAIL_FROM", "no-reply@taskpilot.local"),
		AppURL:      getEnv("APP_URL", "http://localhost:3000"),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
