package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/SaiCharanMahadevan/HealthTrackerApp/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Config captures everything the services need at construction time so that
// none of them read ambient process state after startup.
type Config struct {
	Port      string
	JWTSecret string

	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GeminiTimeout      time.Duration
	GeminiTemperature  float64
	GeminiMaxOutTokens int

	OFFBaseURL string
	OFFTimeout time.Duration

	S3Region string
	S3Bucket string
}

func Load() *Config {
	// .env is optional outside local dev
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		GeminiAPIKey:       os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiTimeout:      getDurationEnv("GEMINI_TIMEOUT", 30*time.Second),
		GeminiTemperature:  getFloatEnv("GEMINI_TEMPERATURE", 0.2),
		GeminiMaxOutTokens: getIntEnv("GEMINI_MAX_OUTPUT_TOKENS", 2048),

		OFFBaseURL: getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
		OFFTimeout: getDurationEnv("OFF_TIMEOUT", 10*time.Second),

		S3Region: getEnv("S3_REGION", os.Getenv("AWS_REGION")),
		S3Bucket: os.Getenv("S3_BUCKET"),
	}
}

func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.HealthEntry{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
