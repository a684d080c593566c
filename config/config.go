package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server is the configuration of the review store service.
type Server struct {
	Port          string `env:"PORT" envDefault:"8080"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBUser        string `env:"user"`
	DBPassword    string `env:"password"`
	DBHost        string `env:"host"`
	DBPort        string `env:"port" envDefault:"5432"`
	DBName        string `env:"dbname"`
	DBSSLMode     string `env:"DB_SSLMODE" envDefault:"require"`
	JWTSecret     string `env:"REVIEWS_JWT_SECRET"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// DSN returns DatabaseURL when set, otherwise builds a postgres URL from the
// discrete connection fields.
func (s Server) DSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		strings.TrimSpace(s.DBUser),
		strings.TrimSpace(s.DBPassword),
		strings.TrimSpace(s.DBHost),
		strings.TrimSpace(s.DBPort),
		strings.TrimSpace(s.DBName),
		s.DBSSLMode,
	)
}

// Client is the configuration of the reviewctl front end.
type Client struct {
	ServerURL string        `env:"REVIEWS_SERVER_URL" envDefault:"http://localhost:8080"`
	Origin    string        `env:"REVIEWS_ORIGIN" envDefault:"http://localhost:3000"`
	Token     string        `env:"REVIEWS_TOKEN"`
	UserID    string        `env:"REVIEWS_USER_ID"`
	Timeout   time.Duration `env:"REVIEWS_TIMEOUT" envDefault:"10s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// LoadDotEnv reads .env into the process environment if present.
// It reports whether a file was loaded.
func LoadDotEnv(files ...string) bool {
	return godotenv.Load(files...) == nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
