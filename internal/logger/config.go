package logger

import (
	"os"
	"strconv"
)

// LogConfig chứa cấu hình cho hệ thống logging
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json hoặc text
	Output     string // stdout, file, both
	LogPath    string // Thư mục chứa file log (tương đối với root project)
	MaxSize    int    // Kích thước tối đa của một file log (MB)
	MaxBackups int    // Số file log cũ giữ lại
	MaxAge     int    // Số ngày giữ file log
	Compress   bool   // Nén file log cũ
}

// DefaultConfig trả về cấu hình mặc định, cho phép override qua environment variables
func DefaultConfig() *LogConfig {
	cfg := &LogConfig{
		Level:      "info",
		Format:     "text",
		Output:     "stdout",
		LogPath:    "logs",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv("LOG_MAX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSize = n
		}
	}

	return cfg
}
