package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser        string
	DBPassword    string
	DBName        string
	DBHost        string
	DBPort        string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	BotToken      string

	// Generation service (bot side)
	GenServiceURL string
	APISecretKey  string
	CardTimeout   time.Duration
	PhotoTimeout  time.Duration

	// Generation service (server side)
	GenListenAddr   string
	ImageGenAPIKey  string
	ImageGenBaseURL string
	ImageGenModel   string
	ImageGenTimeout time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "kartochka_bot"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		BotToken:      getEnv("BOT_TOKEN", ""),

		GenServiceURL: getEnv("GEN_SERVICE_URL", "http://127.0.0.1:9000"),
		APISecretKey:  getEnv("API_SECRET_KEY", ""),
		CardTimeout:   getEnvSeconds("CARD_TIMEOUT", 120),
		PhotoTimeout:  getEnvSeconds("PHOTO_TIMEOUT", 300),

		GenListenAddr:   getEnv("GEN_LISTEN_ADDR", ":9000"),
		ImageGenAPIKey:  getEnv("IMAGE_GEN_API_KEY", ""),
		ImageGenBaseURL: getEnv("IMAGE_GEN_BASE_URL", "https://api.cometapi.com"),
		ImageGenModel:   getEnv("IMAGE_GEN_MODEL", "gemini-2.5-flash-image"),
		ImageGenTimeout: getEnvSeconds("IMAGE_GEN_TIMEOUT", 180),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		log.Printf("Invalid %s value %q, using default %ds", key, value, fallback)
	}
	return time.Duration(fallback) * time.Second
}
