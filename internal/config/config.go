package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	PageSize    int              `json:"page_size"`
	CORSOrigins []string         `json:"cors_origins"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Cleanup     CleanupConfig    `json:"cleanup"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	DSN      string `json:"dsn"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CleanupConfig struct {
	Spec           string `json:"spec"`
	UploadTTLHours int    `json:"upload_ttl_hours"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// The signing secret must come from config or the environment, never
	// from source.
	if env := os.Getenv("SNAPFEED_JWT_SECRET"); env != "" {
		cfg.JWTSecret = env
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required (config or SNAPFEED_JWT_SECRET)")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 1
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 2
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.host or database.dsn is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if cfg.Cleanup.Spec == "" {
		cfg.Cleanup.Spec = "0 * * * *"
	}
	if cfg.Cleanup.UploadTTLHours == 0 {
		cfg.Cleanup.UploadTTLHours = 24
	}
	return &cfg, nil
}
