package config

import (
	"os"
	"path/filepath"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.json")
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := &Config{
		DataDir:       "/tmp/test-data",
		LogLevel:      "debug",
		Listen:        ":9999",
		MaxConcurrent: 4,
		HistoryLimit:  100,
	}
	original.LLM.Provider = "openai"
	original.LLM.BaseURL = "https://api.openai.com/v1"
	original.LLM.APIKey = "sk-test-round-trip"
	original.LLM.Model = "gpt-4o"
	original.LLM.MaxTokens = 4000
	original.LLM.Temperature = 0.5
	original.LLM.NativeTools = true
	original.Media.APIKey = "media-key-123"
	original.Media.VideoModel = "kling-v1-6"

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file does not exist after Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("DataDir = %q", loaded.DataDir)
	}
	if loaded.Listen != ":9999" {
		t.Errorf("Listen = %q", loaded.Listen)
	}
	if loaded.LLM.APIKey != "sk-test-round-trip" && os.Getenv("OPENAI_API_KEY") == "" {
		t.Errorf("LLM.APIKey = %q", loaded.LLM.APIKey)
	}
	if loaded.Media.VideoModel != "kling-v1-6" {
		t.Errorf("Media.VideoModel = %q", loaded.Media.VideoModel)
	}
}

func TestLoad_WritesDefaults(t *testing.T) {
	path := tempConfigPath(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("Load must write a default config file")
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("default provider = %q", cfg.LLM.Provider)
	}
	if cfg.MaxConcurrent != 2 {
		t.Errorf("default MaxConcurrent = %d", cfg.MaxConcurrent)
	}
	if cfg.Media.ImagePollSeconds != 2 || cfg.Media.VideoPollSeconds != 10 {
		t.Errorf("default poll cadence = %d/%d", cfg.Media.ImagePollSeconds, cfg.Media.VideoPollSeconds)
	}
	if cfg.LLM.TimeoutSeconds != 180 {
		t.Errorf("default LLM timeout = %d, want 180", cfg.LLM.TimeoutSeconds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := tempConfigPath(t)

	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("VEA_MEDIA_API_KEY", "media-from-env")
	t.Setenv("DATABASE_URL", "postgres://env/vea")
	t.Setenv("VEA_LISTEN", ":7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.Media.APIKey != "media-from-env" {
		t.Errorf("Media.APIKey = %q", cfg.Media.APIKey)
	}
	if cfg.DatabaseURL != "postgres://env/vea" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
}

func TestLoad_FileValuesSurviveWithoutEnv(t *testing.T) {
	path := tempConfigPath(t)

	cfg := &Config{}
	cfg.LLM.Model = "gpt-4o"
	cfg.Media.BaseURL = "https://media.example.com"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LLM.Model != "gpt-4o" {
		t.Errorf("Model = %q", loaded.LLM.Model)
	}
	if loaded.Media.BaseURL != "https://media.example.com" {
		t.Errorf("Media.BaseURL = %q", loaded.Media.BaseURL)
	}
}
