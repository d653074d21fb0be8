package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from YAML with env overrides.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Game struct {
		LobbyGraceSeconds int `yaml:"lobby_grace_seconds"`
		BuzzerSeconds     int `yaml:"buzzer_seconds"`
		FinalWagerSeconds int `yaml:"final_wager_seconds"`
		FinalDrawSeconds  int `yaml:"final_draw_seconds"`
	} `yaml:"game"`

	AIHost struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"ai_host"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Profiles struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"profiles"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Game.LobbyGraceSeconds = 120
	cfg.Game.BuzzerSeconds = 10
	cfg.Game.FinalWagerSeconds = 30
	cfg.Game.FinalDrawSeconds = 30
	cfg.AIHost.BaseURL = "http://localhost:9090"
	cfg.NATS.SubjectPrefix = "jeopardy.games"
	return &cfg
}

// loadConfig reads the YAML config file and applies env overrides. A
// missing file yields defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.AIHost.BaseURL = getEnv("AI_HOST_URL", cfg.AIHost.BaseURL)
	cfg.AIHost.APIKey = getEnv("AI_HOST_API_KEY", cfg.AIHost.APIKey)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.Game.LobbyGraceSeconds = getEnvAsInt("LOBBY_GRACE_SECONDS", cfg.Game.LobbyGraceSeconds)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
