package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is only accepted when PAWFECT_ENV is development.
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Addr           string              `yaml:"addr"`
	APITimeout     time.Duration       `yaml:"timeout"`
	JWTSecret      string              `yaml:"jwt_secret"`
	TokenDuration  time.Duration       `yaml:"token_duration"`
	AllowedOrigins []string            `yaml:"allowed_origins"`
	MaxBodyBytes   int64               `yaml:"max_body_bytes"`
	Database       DatabaseConfig      `yaml:"database"`
	Classifier     ClassifierConfig    `yaml:"classifier"`
	Mail           MailConfig          `yaml:"mail"`
	Notifications  NotificationsConfig `yaml:"notifications"`
	Log            LogConfig           `yaml:"log"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite | pgx
	DSN    string `yaml:"dsn"`
}

type ClassifierConfig struct {
	Provider         string        `yaml:"provider"` // gemini | ollama
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"api_key"`
	BaseURL          string        `yaml:"base_url"` // empty selects the provider default
	Timeout          time.Duration `yaml:"timeout"`
	StrictExtraction bool          `yaml:"strict_extraction"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FromName string `yaml:"from_name"`
}

type NotificationsConfig struct {
	RejectDelay   time.Duration `yaml:"reject_delay"`
	EmailOnAccept bool          `yaml:"email_on_accept"`
	Workers       int           `yaml:"workers"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig builds the configuration from environment defaults and then
// overlays the YAML file at path, if any. A .env file in the working
// directory is loaded first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	addr := getEnv("PAWFECT_ADDR", ":8081")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	cfg := &Config{
		Addr:           addr,
		APITimeout:     30 * time.Second,
		JWTSecret:      getEnv("JWT_SECRET", DefaultJWTSecret),
		TokenDuration:  getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		AllowedOrigins: nonEmpty(os.Getenv("FRONTEND_URL1"), os.Getenv("FRONTEND_URL2")),
		MaxBodyBytes:   10 << 20,
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "pawfect.db"),
		},
		Classifier: ClassifierConfig{
			Provider: getEnv("CLASSIFIER_PROVIDER", "gemini"),
			Model:    getEnv("CLASSIFIER_MODEL", "gemini-2.5-flash"),
			APIKey:   os.Getenv("GEMINI_API_KEY"),
			BaseURL:  os.Getenv("CLASSIFIER_BASE_URL"),
			Timeout:  30 * time.Second,
		},
		Mail: MailConfig{
			Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
			FromName: "PawfectCare",
		},
		Notifications: NotificationsConfig{
			RejectDelay:  time.Second,
			Workers:      2,
			PollInterval: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "jwt_secret is required")
	}
	if c.JWTSecret == DefaultJWTSecret && !IsDevelopment() {
		problems = append(problems, "jwt_secret uses the insecure default outside development")
	}
	if c.TokenDuration <= 0 {
		problems = append(problems, "token_duration must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		problems = append(problems, fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database dsn is required")
	}
	switch c.Classifier.Provider {
	case "gemini":
		if c.Classifier.APIKey == "" {
			problems = append(problems, "classifier api_key is required for gemini")
		}
	case "ollama":
	default:
		problems = append(problems, fmt.Sprintf("unsupported classifier provider %q", c.Classifier.Provider))
	}
	if c.Classifier.Model == "" {
		problems = append(problems, "classifier model is required")
	}
	if c.Notifications.RejectDelay < 0 {
		problems = append(problems, "notifications reject_delay must not be negative")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment reports whether PAWFECT_ENV selects the development profile.
func IsDevelopment() bool {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("PAWFECT_ENV")))
	return env == "" || env == "dev" || env == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getEnvDuration accepts Go durations ("12h") and the day shorthand ("1d")
// that jsonwebtoken-style settings commonly use.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if strings.HasSuffix(v, "d") {
		if n, err := strconv.Atoi(strings.TrimSuffix(v, "d")); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
