package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds process settings read from the environment
type Env struct {
	LogLevel  string
	PrettyLog bool
	Workers   int
	Addr      string
	Tables    string
}

// LoadEnv reads settings from the environment, loading a .env file first if one exists
func LoadEnv() *Env {
	_ = godotenv.Load()

	return &Env{
		LogLevel:  getEnv("VIABILITY_LOG_LEVEL", "info"),
		PrettyLog: getEnvAsBool("VIABILITY_PRETTY_LOG", true),
		Workers:   getEnvAsInt("VIABILITY_WORKERS", runtime.NumCPU()),
		Addr:      getEnv("VIABILITY_ADDR", ":8080"),
		Tables:    getEnv("VIABILITY_TABLES", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
