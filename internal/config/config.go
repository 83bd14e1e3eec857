package config

import (
	"os"
	"strings"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	Port           string
	DataDir        string
	JWTSecret      string
	LogLevel       string
	AllowedOrigins []string
}

// Load reads the environment with development fallbacks. JWTSecret has no
// fallback; main refuses to start without it.
func Load() Config {
	cfg := Config{
		Port:      getenv("PORT", "3000"),
		DataDir:   getenv("DATA_DIR", "data"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
	}

	origins := getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
