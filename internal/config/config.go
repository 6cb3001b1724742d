package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	Listen        string `json:"listen"`
	DatabaseURL   string `json:"database_url"`
	MaxConcurrent int    `json:"max_concurrent"`
	HistoryLimit  int    `json:"history_limit"`
	Auth          struct {
		Secret string `json:"secret"`
	} `json:"auth"`
	LLM struct {
		Provider         string  `json:"provider"`
		BaseURL          string  `json:"base_url"`
		APIKey           string  `json:"api_key"`
		Model            string  `json:"model"`
		MaxTokens        int     `json:"max_tokens"`
		Temperature      float32 `json:"temperature"`
		MaxContextTokens int     `json:"max_context_tokens"`
		OutputReserve    int     `json:"output_reserve"`
		TimeoutSeconds   int     `json:"timeout_seconds"`
		NativeTools      bool    `json:"native_tools"`
	} `json:"llm"`
	Media struct {
		BaseURL           string `json:"base_url"`
		APIKey            string `json:"api_key"`
		ImageModel        string `json:"image_model"`
		ImageEditModel    string `json:"image_edit_model"`
		VideoModel        string `json:"video_model"`
		ImagePollSeconds  int    `json:"image_poll_seconds"`
		ImagePollAttempts int    `json:"image_poll_attempts"`
		VideoPollSeconds  int    `json:"video_poll_seconds"`
		VideoPollAttempts int    `json:"video_poll_attempts"`
	} `json:"media"`
}

func Load(path string) (*Config, error) {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".vea"),
		MaxConcurrent: 2,
	}
	cfg.LogLevel = "info"
	cfg.Listen = ":8080"
	cfg.HistoryLimit = 200
	cfg.LLM.Provider = "openai"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.MaxTokens = 2000
	cfg.LLM.Temperature = 0.7
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096
	cfg.LLM.TimeoutSeconds = 180
	cfg.LLM.NativeTools = true
	cfg.Media.ImageModel = "flux-dev"
	cfg.Media.ImageEditModel = "flux-kontext"
	cfg.Media.VideoModel = "kling-v1-6"
	cfg.Media.ImagePollSeconds = 2
	cfg.Media.ImagePollAttempts = 30
	cfg.Media.VideoPollSeconds = 10
	cfg.Media.VideoPollAttempts = 30

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if mediaKey := os.Getenv("VEA_MEDIA_API_KEY"); mediaKey != "" {
		cfg.Media.APIKey = mediaKey
	}
	if mediaURL := os.Getenv("VEA_MEDIA_BASE_URL"); mediaURL != "" {
		cfg.Media.BaseURL = mediaURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if secret := os.Getenv("VEA_AUTH_SECRET"); secret != "" {
		cfg.Auth.Secret = secret
	}
	if listen := os.Getenv("VEA_LISTEN"); listen != "" {
		cfg.Listen = listen
	}

	return cfg, nil
}

// Save writes the config atomically, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
