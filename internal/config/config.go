package config

import (
	"os"
	"strconv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   int // minutes
	RefreshTokenTTL  int // days

	GinMode string
	Port    string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "prepbuddy"),
		DBPassword: getEnv("DB_PASSWORD", "prepbuddy"),
		DBName:     getEnv("DB_NAME", "prepbuddy"),

		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret-change-me"),
		AccessTokenTTL:   getEnvInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTokenTTL:  getEnvInt("REFRESH_TOKEN_TTL_DAYS", 7),

		GinMode: getEnv("GIN_MODE", "debug"),
		Port:    getEnv("PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
