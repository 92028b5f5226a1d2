// Package config reads server settings from the environment. Values from
// .env.local or .env are loaded first when those files exist.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the chat server.
type Config struct {
	Port     string
	LogLevel string

	DatabaseURL      string
	DBMaxOpenConns   int
	DBConnectRetries int

	SecretKey  string
	Algorithm  string
	TokenTTL   time.Duration
	BcryptCost int

	RedisURL        string
	ProfileCacheTTL time.Duration

	CORSOrigins []string

	S3 S3Config
}

// S3Config describes the S3-compatible bucket used for profile pictures.
// An empty Bucket disables uploads.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

// LoadEnvFiles loads .env.local, falling back to .env. Missing files are
// not an error.
func LoadEnvFiles() bool {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			return false
		}
	}
	return true
}

// Load builds a Config from the process environment. A missing database
// URL, secret or algorithm is an error.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT", "8000"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SecretKey:   os.Getenv("SECRET_KEY"),
		Algorithm:   strings.ToUpper(os.Getenv("ALGORITHM")),
		RedisURL:    os.Getenv("REDIS_URL"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getenv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PublicURL: strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/"),
		},
	}

	var errs []error
	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if cfg.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is not set"))
	}
	switch {
	case cfg.Algorithm == "":
		errs = append(errs, errors.New("ALGORITHM is not set"))
	case !supportedAlgorithms[cfg.Algorithm]:
		errs = append(errs, fmt.Errorf("ALGORITHM %q is not supported", cfg.Algorithm))
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.ProfileCacheTTL, err = durationEnv("PROFILE_CACHE_TTL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", bcrypt.DefaultCost); err != nil {
		errs = append(errs, err)
	} else if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if cfg.DBMaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 10); err != nil {
		errs = append(errs, err)
	}
	if cfg.DBConnectRetries, err = intEnv("DB_CONNECT_RETRIES", 5); err != nil {
		errs = append(errs, err)
	} else if cfg.DBConnectRetries < 0 {
		errs = append(errs, errors.New("DB_CONNECT_RETRIES must not be negative"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
