package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/pdf-qa/frontend/internal/model/persona"
)

// Config 聚合整个前端服务的配置项。
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Screen  ScreenConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	backend, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}

	screen, err := loadScreenConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Backend: backend, Screen: screen}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

// BackendConfig describes how to reach the PDF Q&A backend.
type BackendConfig struct {
	BaseURL string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
}

// ScreenConfig holds limits applied to each screen.
type ScreenConfig struct {
	MaxUploadBytes int64
	IdleTTL        time.Duration
	DefaultPersona string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	origin := getEnvOrDefault("ALLOWED_ORIGIN", "*")

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":3000" 或 "127.0.0.1:3000"。
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

func loadBackendConfig() (BackendConfig, error) {
	raw := getEnvOrDefault("PDFQA_BACKEND_URL", "http://localhost:8000")
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return BackendConfig{}, fmt.Errorf("invalid PDFQA_BACKEND_URL value %q", raw)
	}

	timeout, err := parseOptionalIntEnv("PDFQA_REQUEST_TIMEOUT")
	if err != nil {
		return BackendConfig{}, err
	}
	var d time.Duration
	if timeout != nil {
		if *timeout < 0 {
			return BackendConfig{}, fmt.Errorf("invalid PDFQA_REQUEST_TIMEOUT value %d: must not be negative", *timeout)
		}
		d = time.Duration(*timeout) * time.Second
	}

	return BackendConfig{
		BaseURL: strings.TrimRight(raw, "/"),
		Timeout: d,
	}, nil
}

func loadScreenConfig() (ScreenConfig, error) {
	maxUpload := 32
	if override, err := parseOptionalIntEnv("PDFQA_MAX_UPLOAD_MB"); err != nil {
		return ScreenConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ScreenConfig{}, fmt.Errorf("invalid PDFQA_MAX_UPLOAD_MB value %d: must be positive", *override)
		}
		maxUpload = *override
	}

	ttl := 30
	if override, err := parseOptionalIntEnv("PDFQA_SCREEN_TTL"); err != nil {
		return ScreenConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ScreenConfig{}, fmt.Errorf("invalid PDFQA_SCREEN_TTL value %d: must be positive", *override)
		}
		ttl = *override
	}

	defaultPersona := strings.ToLower(getEnvOrDefault("PDFQA_DEFAULT_PERSONA", persona.Default))
	if _, ok := persona.NewMemoryStore(persona.Seed()).FindByID(defaultPersona); !ok {
		return ScreenConfig{}, fmt.Errorf("invalid PDFQA_DEFAULT_PERSONA value %q", defaultPersona)
	}

	return ScreenConfig{
		MaxUploadBytes: int64(maxUpload) << 20,
		IdleTTL:        time.Duration(ttl) * time.Minute,
		DefaultPersona: defaultPersona,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
