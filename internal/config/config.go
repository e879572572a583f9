package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	LogLevel              string
	DatabaseURL           string
	RedisURL              string
	NATSURL               string
	EventsSubjectPrefix   string
	JWTSecret             string
	DocumentRoot          string
	DocumentTmpDir        string
	RiskyExtensions       []string
	OfficeBinary          string
	OfficeTimeout         time.Duration
	MaxUploadSizeMB       int
	SubmissionsPerMinute  int
	RequiredProfileFields []string
	LockTTL               time.Duration
	CompetitionName       string
	CompetitionSlug       string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MaxUploadBytes converts the configured upload limit into bytes.
func (c Config) MaxUploadBytes() int64 {
	if c.MaxUploadSizeMB <= 0 {
		return 20 * 1024 * 1024
	}
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

// MaxArchiveExpandedBytes bounds the decompressed size of a correction archive.
func (c Config) MaxArchiveExpandedBytes() int64 {
	return c.MaxUploadBytes() * 20
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ROOTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Roots API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("events.subject_prefix", "roots.solutions")
	v.SetDefault("documents.root", "./media/protected")
	v.SetDefault("documents.tmp_dir", "")
	v.SetDefault("documents.risky_extensions", ".doc,.docx")
	v.SetDefault("documents.office_binary", "soffice")
	v.SetDefault("documents.office_timeout", "60s")
	v.SetDefault("uploads.max_size_mb", 20)
	v.SetDefault("uploads.submissions_per_minute", 10)
	v.SetDefault("profile.required_fields", "school,school_class,classlevel")
	v.SetDefault("locks.ttl", "2m")
	v.SetDefault("competition.name", "Roots")

	officeTimeout, err := time.ParseDuration(v.GetString("documents.office_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid office conversion timeout: %w", err)
	}

	lockTTL, err := time.ParseDuration(v.GetString("locks.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid lock ttl: %w", err)
	}

	tmpDir := v.GetString("documents.tmp_dir")
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		LogLevel:              strings.ToLower(v.GetString("log.level")),
		DatabaseURL:           v.GetString("database.url"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		EventsSubjectPrefix:   v.GetString("events.subject_prefix"),
		JWTSecret:             v.GetString("jwt.secret"),
		DocumentRoot:          v.GetString("documents.root"),
		DocumentTmpDir:        tmpDir,
		RiskyExtensions:       normalizeExtensions(splitList(v.GetString("documents.risky_extensions"))),
		OfficeBinary:          v.GetString("documents.office_binary"),
		OfficeTimeout:         officeTimeout,
		MaxUploadSizeMB:       v.GetInt("uploads.max_size_mb"),
		SubmissionsPerMinute:  v.GetInt("uploads.submissions_per_minute"),
		RequiredProfileFields: splitList(v.GetString("profile.required_fields")),
		LockTTL:               lockTTL,
		CompetitionName:       v.GetString("competition.name"),
		CompetitionSlug:       v.GetString("competition.slug"),
	}

	if cfg.CompetitionSlug == "" {
		cfg.CompetitionSlug = slug.Make(cfg.CompetitionName)
	}

	if cfg.DocumentRoot == "" {
		return Config{}, fmt.Errorf("documents root must be provided")
	}

	if cfg.MaxUploadSizeMB <= 0 {
		cfg.MaxUploadSizeMB = 20
	}

	return cfg, nil
}

// Validate checks the values required to serve HTTP traffic.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url must be provided")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func normalizeExtensions(exts []string) []string {
	for i, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	return exts
}
