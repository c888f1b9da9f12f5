// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Dataset defaults (paths empty - supplied per deployment)
	if cfg.Dataset.RatingsPath != "" {
		t.Errorf("Dataset.RatingsPath should be empty by default, got %q", cfg.Dataset.RatingsPath)
	}
	if cfg.Dataset.MinRatingsPerItem != 5 {
		t.Errorf("Dataset.MinRatingsPerItem = %d, want 5", cfg.Dataset.MinRatingsPerItem)
	}
	if cfg.Dataset.LikedThreshold != 3.5 {
		t.Errorf("Dataset.LikedThreshold = %v, want 3.5", cfg.Dataset.LikedThreshold)
	}

	// Database defaults
	if cfg.Database.Path != "./data/lodestone.duckdb" {
		t.Errorf("Database.Path = %q, want ./data/lodestone.duckdb", cfg.Database.Path)
	}
	if cfg.Database.MaxMemory != "2GB" {
		t.Errorf("Database.MaxMemory = %q, want 2GB", cfg.Database.MaxMemory)
	}
	if !cfg.Database.PreserveInsertionOrder {
		t.Errorf("Database.PreserveInsertionOrder should be true by default")
	}

	// Server defaults
	if cfg.Server.Port != 8580 {
		t.Errorf("Server.Port = %d, want 8580", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Environment != "development" {
		t.Errorf("Server.Environment = %q, want development", cfg.Server.Environment)
	}

	// API defaults
	if cfg.API.DefaultPageSize != 50 {
		t.Errorf("API.DefaultPageSize = %d, want 50", cfg.API.DefaultPageSize)
	}
	if cfg.API.MaxPageSize != 500 {
		t.Errorf("API.MaxPageSize = %d, want 500", cfg.API.MaxPageSize)
	}

	// Security defaults
	if cfg.Security.AuthMode != "jwt" {
		t.Errorf("Security.AuthMode = %q, want jwt", cfg.Security.AuthMode)
	}
	if cfg.Security.RateLimitReqs != 100 {
		t.Errorf("Security.RateLimitReqs = %d, want 100", cfg.Security.RateLimitReqs)
	}
	if cfg.Security.SessionStore != "memory" {
		t.Errorf("Security.SessionStore = %q, want memory", cfg.Security.SessionStore)
	}

	// Recommend defaults (enabled, three algorithms)
	if !cfg.Recommend.Enabled {
		t.Errorf("Recommend.Enabled should be true by default")
	}
	if cfg.Recommend.TrainInterval != 24*time.Hour {
		t.Errorf("Recommend.TrainInterval = %v, want 24h", cfg.Recommend.TrainInterval)
	}
	wantAlgos := []string{"als", "itemknn", "popularity"}
	if len(cfg.Recommend.Algorithms) != len(wantAlgos) {
		t.Fatalf("Recommend.Algorithms = %v, want %v", cfg.Recommend.Algorithms, wantAlgos)
	}
	for i, a := range wantAlgos {
		if cfg.Recommend.Algorithms[i] != a {
			t.Errorf("Recommend.Algorithms[%d] = %q, want %q", i, cfg.Recommend.Algorithms[i], a)
		}
	}
	if cfg.Recommend.ALS.Factors != 50 {
		t.Errorf("Recommend.ALS.Factors = %d, want 50", cfg.Recommend.ALS.Factors)
	}
	if cfg.Recommend.ALS.Alpha != 40.0 {
		t.Errorf("Recommend.ALS.Alpha = %v, want 40", cfg.Recommend.ALS.Alpha)
	}
	if cfg.Recommend.KNN.Similarity != "cosine" {
		t.Errorf("Recommend.KNN.Similarity = %q, want cosine", cfg.Recommend.KNN.Similarity)
	}

	// Scrape defaults (polite)
	if cfg.Scrape.RequestsPerSecond != 1.0 {
		t.Errorf("Scrape.RequestsPerSecond = %v, want 1", cfg.Scrape.RequestsPerSecond)
	}
	if !cfg.Scrape.Headless {
		t.Errorf("Scrape.Headless should be true by default")
	}
	if cfg.Scrape.CacheTTL != 24*time.Hour {
		t.Errorf("Scrape.CacheTTL = %v, want 24h", cfg.Scrape.CacheTTL)
	}

	// Events defaults (disabled, embedded)
	if cfg.Events.Enabled {
		t.Errorf("Events.Enabled should be false by default")
	}
	if !cfg.Events.EmbeddedServer {
		t.Errorf("Events.EmbeddedServer should be true by default")
	}
	if cfg.Events.URL != "nats://127.0.0.1:4222" {
		t.Errorf("Events.URL = %q, want nats://127.0.0.1:4222", cfg.Events.URL)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Dataset
		{"RATINGS_PATH", "dataset.ratings_path"},
		{"MOVIES_PATH", "dataset.movies_path"},
		{"MIN_RATINGS_PER_ITEM", "dataset.min_ratings_per_item"},
		{"LIKED_THRESHOLD", "dataset.liked_threshold"},

		// Database
		{"DUCKDB_PATH", "database.path"},
		{"DUCKDB_MAX_MEMORY", "database.max_memory"},
		{"DUCKDB_THREADS", "database.threads"},

		// Server
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"ENVIRONMENT", "server.environment"},

		// Security
		{"AUTH_MODE", "security.auth_mode"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"ADMIN_USERNAME", "security.admin_username"},
		{"RATE_LIMIT_REQS", "security.rate_limit_reqs"},
		{"CORS_ORIGINS", "security.cors_origins"},

		// Recommend
		{"RECOMMEND_ENABLED", "recommend.enabled"},
		{"RECOMMEND_ALGORITHMS", "recommend.algorithms"},
		{"RECOMMEND_ALS_FACTORS", "recommend.als.factors"},
		{"RECOMMEND_ALS_ALPHA", "recommend.als.alpha"},
		{"RECOMMEND_KNN_NEIGHBORS", "recommend.knn.neighbors"},

		// Scrape
		{"SCRAPE_HEADLESS", "scrape.headless"},
		{"SCRAPE_CACHE_DIR", "scrape.cache_dir"},

		// Events
		{"EVENTS_ENABLED", "events.enabled"},
		{"EVENTS_EMBEDDED", "events.embedded_server"},
		{"EVENTS_STORE_DIR", "events.store_dir"},

		// Logging
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},

		// Prefixed dotted form
		{"LODESTONE_SERVER__PORT", "server.port"},
		{"LODESTONE_RECOMMEND__ALS__FACTORS", "recommend.als.factors"},

		// Unknown (should return empty)
		{"RANDOM_VAR", ""},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "config_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	defer func() {
		if err := os.Chdir(origDir); err != nil {
			t.Errorf("Failed to restore working directory: %v", err)
		}
	}()

	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Run("no config file exists", func(t *testing.T) {
		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		os.Unsetenv(ConfigPathEnvVar)
		result := findConfigFile()
		if result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom_config.yaml")
		if err := os.WriteFile(customPath, []byte("test: true"), 0644); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		os.Setenv(ConfigPathEnvVar, customPath)
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		os.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		defer os.Unsetenv(ConfigPathEnvVar)

		result := findConfigFile()
		if result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadEnvOverrides tests loading configuration from environment variables
func TestLoadEnvOverrides(t *testing.T) {
	os.Clearenv()

	os.Setenv("AUTH_MODE", "none")
	os.Setenv("HTTP_PORT", "9000")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	os.Setenv("RECOMMEND_ALGORITHMS", "als,popularity")
	os.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("Database.Path = %q, want /tmp/test.duckdb", cfg.Database.Path)
	}
	if len(cfg.Recommend.Algorithms) != 2 || cfg.Recommend.Algorithms[0] != "als" || cfg.Recommend.Algorithms[1] != "popularity" {
		t.Errorf("Recommend.Algorithms = %v, want [als popularity]", cfg.Recommend.Algorithms)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example.com" {
		t.Errorf("Security.CORSOrigins = %v, want trimmed two-element slice", cfg.Security.CORSOrigins)
	}

	// Defaults survive under overrides
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
}

// TestLoadConfigFile tests the YAML file layer
func TestLoadConfigFile(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
server:
  port: 7777
security:
  auth_mode: none
recommend:
  algorithms:
    - popularity
logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	os.Setenv(ConfigPathEnvVar, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if len(cfg.Recommend.Algorithms) != 1 || cfg.Recommend.Algorithms[0] != "popularity" {
		t.Errorf("Recommend.Algorithms = %v, want [popularity]", cfg.Recommend.Algorithms)
	}
}

// TestEnvOverridesFile verifies env beats file
func TestEnvOverridesFile(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	yamlContent := `
server:
  port: 7777
security:
  auth_mode: none
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	os.Setenv(ConfigPathEnvVar, configPath)
	os.Setenv("HTTP_PORT", "8888")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888 (env should override file)", cfg.Server.Port)
	}
}
