package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port string

	DBDriver      string
	MongoURL      string
	MongoDatabase string

	JWTSecret string
	TokenTTL  time.Duration

	// RedisURL enables token revocation on logout when set.
	RedisURL string

	CORSOrigins []string

	LoginRatePerMinute int
	LoginRateBurst     int

	InteractionDueCron string
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("error loading .env file: %v", err)
		}
	} else {
		log.Println(".env file loaded")
	}

	return &Config{
		Port:               getEnv("PORT", "8000"),
		DBDriver:           getEnv("DB_DRIVER", DriverMongo),
		MongoURL:           getEnv("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "kam"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSOrigins:        getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:3001"}),
		LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 30),
		LoginRateBurst:     getEnvAsInt("LOGIN_RATE_BURST", 5),
		InteractionDueCron: getEnv("INTERACTION_DUE_CRON", "0 8 * * *"),
	}
}

func (c *Config) Validate() error {
	var problems []string
	switch c.DBDriver {
	case DriverMongo:
		if c.MongoURL == "" {
			problems = append(problems, "MONGODB_URL is required")
		}
	case DriverMemory:
	default:
		problems = append(problems, "DB_DRIVER must be mongo or memory")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL_HOURS must be positive")
	}
	if c.LoginRatePerMinute <= 0 || c.LoginRateBurst <= 0 {
		problems = append(problems, "LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must be positive")
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
