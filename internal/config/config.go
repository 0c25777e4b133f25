package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service. Capability credentials
// are plain fields handed to clients at construction; nothing here is
// mutated after Load returns.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	MinIO      MinIOConfig
	RabbitMQ   RabbitMQConfig
	FFmpeg     FFmpegConfig
	Speech     SpeechConfig
	Correction CorrectionConfig
	Synthesis  SynthesisConfig
	Timeouts   StageTimeouts
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Name, c.User, c.Password, c.SSLMode,
	)
}

// MinIOConfig holds object storage configuration.
type MinIOConfig struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	Bucket         string
}

// RabbitMQConfig holds the progress-event broker configuration.
// An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL string
}

// FFmpegConfig holds media toolchain configuration.
type FFmpegConfig struct {
	Path string
}

// SpeechConfig holds speech-recognition capability configuration.
type SpeechConfig struct {
	URL    string
	APIKey string
}

// CorrectionConfig holds transcript-correction capability configuration.
// The correction stage is skipped entirely when Endpoint or APIKey is empty.
type CorrectionConfig struct {
	Endpoint  string
	APIKey    string
	MaxTokens int
}

// SynthesisConfig holds speech-synthesis capability configuration.
type SynthesisConfig struct {
	URL        string
	APIKey     string
	Voice      string
	SampleRate int
}

// StageTimeouts contains per-stage timeout configuration.
type StageTimeouts struct {
	Extract    time.Duration
	Transcribe time.Duration
	Correct    time.Duration
	Synthesize time.Duration
	Remux      time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	defaults := map[string]interface{}{
		"SERVER_HOST":                "0.0.0.0",
		"SERVER_PORT":                8080,
		"DB_HOST":                    "localhost",
		"DB_PORT":                    5432,
		"DB_NAME":                    "audioswap",
		"DB_USER":                    "audioswap",
		"DB_PASSWORD":                "audioswap123",
		"DB_SSLMODE":                 "disable",
		"MINIO_ENDPOINT":             "localhost:9000",
		"MINIO_PUBLIC_ENDPOINT":      "",
		"MINIO_ACCESS_KEY":           "minioadmin",
		"MINIO_SECRET_KEY":           "minioadmin123",
		"MINIO_USE_SSL":              false,
		"MINIO_BUCKET":               "runs",
		"RABBITMQ_URL":               "",
		"FFMPEG_PATH":                "/usr/bin/ffmpeg",
		"SPEECH_API_URL":             "http://localhost:8081",
		"SPEECH_API_KEY":             "",
		"CORRECTION_ENDPOINT":        "",
		"CORRECTION_API_KEY":         "",
		"CORRECTION_MAX_TOKENS":      300,
		"TTS_API_URL":                "http://localhost:8082",
		"TTS_API_KEY":                "",
		"TTS_VOICE":                  "en-US-Wavenet-J",
		"TTS_SAMPLE_RATE":            24000,
		"TIMEOUT_EXTRACT_SECONDS":    600,
		"TIMEOUT_TRANSCRIBE_SECONDS": 900,
		"TIMEOUT_CORRECT_SECONDS":    120,
		"TIMEOUT_SYNTHESIZE_SECONDS": 600,
		"TIMEOUT_REMUX_SECONDS":      900,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		MinIO: MinIOConfig{
			Endpoint:       v.GetString("MINIO_ENDPOINT"),
			PublicEndpoint: v.GetString("MINIO_PUBLIC_ENDPOINT"),
			AccessKey:      v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:      v.GetString("MINIO_SECRET_KEY"),
			UseSSL:         v.GetBool("MINIO_USE_SSL"),
			Bucket:         v.GetString("MINIO_BUCKET"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: v.GetString("RABBITMQ_URL"),
		},
		FFmpeg: FFmpegConfig{
			Path: v.GetString("FFMPEG_PATH"),
		},
		Speech: SpeechConfig{
			URL:    v.GetString("SPEECH_API_URL"),
			APIKey: v.GetString("SPEECH_API_KEY"),
		},
		Correction: CorrectionConfig{
			Endpoint:  v.GetString("CORRECTION_ENDPOINT"),
			APIKey:    v.GetString("CORRECTION_API_KEY"),
			MaxTokens: v.GetInt("CORRECTION_MAX_TOKENS"),
		},
		Synthesis: SynthesisConfig{
			URL:        v.GetString("TTS_API_URL"),
			APIKey:     v.GetString("TTS_API_KEY"),
			Voice:      v.GetString("TTS_VOICE"),
			SampleRate: v.GetInt("TTS_SAMPLE_RATE"),
		},
		Timeouts: StageTimeouts{
			Extract:    time.Duration(v.GetInt("TIMEOUT_EXTRACT_SECONDS")) * time.Second,
			Transcribe: time.Duration(v.GetInt("TIMEOUT_TRANSCRIBE_SECONDS")) * time.Second,
			Correct:    time.Duration(v.GetInt("TIMEOUT_CORRECT_SECONDS")) * time.Second,
			Synthesize: time.Duration(v.GetInt("TIMEOUT_SYNTHESIZE_SECONDS")) * time.Second,
			Remux:      time.Duration(v.GetInt("TIMEOUT_REMUX_SECONDS")) * time.Second,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if cfg.MinIO.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if cfg.FFmpeg.Path == "" {
		return fmt.Errorf("FFMPEG_PATH is required")
	}
	if cfg.Speech.URL == "" {
		return fmt.Errorf("SPEECH_API_URL is required")
	}
	if cfg.Synthesis.URL == "" {
		return fmt.Errorf("TTS_API_URL is required")
	}
	return nil
}
