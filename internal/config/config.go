package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	RedisAddr     string
	RedisPassword string
	JWTSecret     string

	PaymentSecretKey     string
	PaymentBaseURL       string
	PaymentWebhookSecret string
	Currency             string

	// Capacity policy
	LeadTime    time.Duration
	HorizonDays int
	Location    *time.Location

	// Owned by the admin configuration service, read-only here.
	SlotTripsPerHour int
	WindowMinutes    int

	CORSOrigins []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:               os.Getenv("DB_HOST"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		DBPort:               os.Getenv("DB_PORT"),
		AppPort:              getEnv("APP_PORT", "8080"),
		AppEnv:               os.Getenv("APP_ENV"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		PaymentSecretKey:     os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", "https://api.stripe.com"),
		PaymentWebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		Currency:             strings.ToLower(getEnv("CURRENCY", "usd")),
		LeadTime:             time.Duration(getEnvInt("LEAD_TIME_MINUTES", 105)) * time.Minute,
		HorizonDays:          getEnvInt("HORIZON_DAYS", 7),
		SlotTripsPerHour:     getEnvInt("SLOT_TRIPS_PER_HOUR", 2),
		WindowMinutes:        getEnvInt("WINDOW_MINUTES", 30),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	loc, err := time.LoadLocation(getEnv("STORE_TIMEZONE", "America/New_York"))
	if err != nil {
		log.Printf("invalid STORE_TIMEZONE, falling back to UTC: %v", err)
		loc = time.UTC
	}
	cfg.Location = loc

	return cfg
}

// SlotMinutes is the courier slot length implied by the trips-per-hour setting.
func (c *Config) SlotMinutes() int {
	switch c.SlotTripsPerHour {
	case 3:
		return 20
	case 4:
		return 15
	default:
		return 30
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
