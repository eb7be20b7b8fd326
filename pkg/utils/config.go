package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	Storage  StorageConfig
	Email    EmailConfig
	Security SecurityConfig
	Session  SessionConfig
	Bank     BankConfig
}

type AppConfig struct {
	Name    string `validate:"required"`
	Port    string `validate:"required,numeric"`
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	SSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `validate:"min=1"`
}

type RedisConfig struct {
	Addr     string `validate:"required,hostname_port"`
	Password string
	DB       int    `validate:"min=0"`
	Queue    string `validate:"required"`
}

type WorkerConfig struct {
	Concurrency int `validate:"min=1,max=64"`
}

type StorageConfig struct {
	Endpoint  string `validate:"required"`
	AccessKey string
	SecretKey string
	Bucket    string `validate:"required"`
	UseSSL    bool
}

type EmailConfig struct {
	Host     string
	Port     int `validate:"min=0,max=65535"`
	User     string
	Password string
	From     string `validate:"omitempty,email"`
	SiteName string
}

type SecurityConfig struct {
	OTPLifetime        time.Duration `validate:"gt=0"`
	MaxOTPAttempts     int           `validate:"min=1"`
	MaxLoginAttempts   int           `validate:"min=1"`
	LockoutDuration    time.Duration `validate:"gt=0"`
	LockoutCheckMode   string        `validate:"oneof=literal intended"`
	NotifyEveryFailure bool

	Argon2Memory      uint32 `validate:"min=8192"`
	Argon2Time        uint32 `validate:"min=1"`
	Argon2Parallelism uint8  `validate:"min=1"`
}

type SessionConfig struct {
	TTL time.Duration `validate:"gt=0"`
}

type BankConfig struct {
	Name string `validate:"required"`
}

// LoadConfig reads path (a dotenv file) when it exists, then lets the
// process environment override every key.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("APP_NAME", "bank-backoffice")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "backoffice")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TASK_QUEUE", "tasks:default")
	v.SetDefault("WORKER_CONCURRENCY", 4)

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_BUCKET", "backoffice")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SITE_NAME", "Bank Back Office")

	v.SetDefault("OTP_LIFETIME", "2m")
	v.SetDefault("MAX_OTP_ATTEMPTS", 3)
	v.SetDefault("MAX_LOGIN_ATTEMPTS", 3)
	v.SetDefault("LOCKOUT_DURATION", "24h")
	v.SetDefault("LOCKOUT_CHECK_MODE", "literal")
	v.SetDefault("LOCKOUT_NOTIFY_EVERY_FAILURE", true)
	v.SetDefault("ARGON2_MEMORY_KB", 64*1024)
	v.SetDefault("ARGON2_TIME", 3)
	v.SetDefault("ARGON2_PARALLELISM", 2)

	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BANK_NAME", "Back Office Bank")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Port:    v.GetString("PORT"),
			Debug:   v.GetBool("DEBUG"),
			LogPath: v.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Queue:    v.GetString("TASK_QUEUE"),
		},
		Worker: WorkerConfig{
			Concurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
			SiteName: v.GetString("SITE_NAME"),
		},
		Security: SecurityConfig{
			OTPLifetime:        v.GetDuration("OTP_LIFETIME"),
			MaxOTPAttempts:     v.GetInt("MAX_OTP_ATTEMPTS"),
			MaxLoginAttempts:   v.GetInt("MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:    v.GetDuration("LOCKOUT_DURATION"),
			LockoutCheckMode:   v.GetString("LOCKOUT_CHECK_MODE"),
			NotifyEveryFailure: v.GetBool("LOCKOUT_NOTIFY_EVERY_FAILURE"),
			Argon2Memory:       v.GetUint32("ARGON2_MEMORY_KB"),
			Argon2Time:         v.GetUint32("ARGON2_TIME"),
			Argon2Parallelism:  uint8(v.GetUint("ARGON2_PARALLELISM")),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("SESSION_TTL"),
		},
		Bank: BankConfig{
			Name: v.GetString("BANK_NAME"),
		},
	}

	if errs := ValidateStruct(config); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", FormatValidationErrors(errs))
	}

	return config, nil
}
