package config

import (
	"os"
	"strings"
)

// Config — настройки сервиса из переменных окружения.
type Config struct {
	HTTPAddr        string
	CredentialsFile string
	ProjectID       string
	AllowOrigins    []string
}

// Load читает настройки, подставляя значения по умолчанию.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		CredentialsFile: getenv("FIREBASE_CREDENTIALS", "firebase-adminsdk.json"),
		ProjectID:       getenv("FIREBASE_PROJECT_ID", ""),
		AllowOrigins:    splitCSV(getenv("CORS_ORIGINS", "*")),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
