// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/lodestone/internal/logging"
)

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are the locations searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lodestone/config.yaml",
	"/etc/lodestone/config.yml",
}

// sliceConfigPaths lists config keys that hold string slices. Environment
// variables provide these as comma-separated strings, which koanf would
// otherwise store as a single-element slice.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
	"security.oidc.scopes",
	"security.oidc.default_roles",
	"recommend.algorithms",
}

// defaultConfig returns a Config populated with default values.
// These form the base layer; file and environment values override them.
func defaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			RatingsPath:       "",
			MoviesPath:        "",
			ArtifactsDir:      "./artifacts",
			MinRatingsPerItem: 5,
			LikedThreshold:    3.5,
		},
		Database: DatabaseConfig{
			Path:                   "./data/lodestone.duckdb",
			MaxMemory:              "2GB",
			Threads:                0, // 0 = NumCPU
			PreserveInsertionOrder: true,
		},
		Server: ServerConfig{
			Port:        8580,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		API: APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTSecret:         "",
			SessionTimeout:    24 * time.Hour,
			AdminUsername:     "",
			AdminPassword:     "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
			TrustedProxies:    []string{},
			SessionStore:      "memory",
			SessionStorePath:  "./data/sessions",
			OIDC: OIDCConfig{
				Scopes:       []string{"openid", "profile", "email"},
				PKCEEnabled:  true,
				CookieName:   "lodestone_session",
				CookieSecure: true,
				RolesClaim:   "roles",
				DefaultRoles: []string{"viewer"},
				SessionAge:   24 * time.Hour,
			},
			Casbin: CasbinConfig{
				ModelPath:   "",
				PolicyPath:  "",
				DefaultRole: "viewer",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Recommend: RecommendConfig{
			Enabled:         true,
			TrainInterval:   24 * time.Hour,
			TrainOnStartup:  false,
			MinInteractions: 100,
			Algorithms:      []string{"als", "itemknn", "popularity"},
			CacheTTL:        5 * time.Minute,
			MaxCandidates:   1000,
			ALS: ALSAlgorithmConfig{
				Factors:        50,
				Iterations:     15,
				Regularization: 0.01,
				Alpha:          40.0,
				NumWorkers:     0, // 0 = NumCPU
			},
			KNN: KNNAlgorithmConfig{
				Neighbors:      50,
				Similarity:     "cosine",
				Shrinkage:      100.0,
				MinCommonItems: 2,
			},
		},
		Scrape: ScrapeConfig{
			UserAgent:          "Lodestone/1.0 (+https://github.com/tomtom215/lodestone)",
			RequestsPerSecond:  1.0,
			Burst:              2,
			Timeout:            30 * time.Second,
			Headless:           true,
			CacheDir:           "./data/scrape-cache",
			CacheTTL:           24 * time.Hour,
			MaxPages:           50,
			BreakerMaxFailures: 5,
			BreakerCooldown:    60 * time.Second,
		},
		Events: EventsConfig{
			Enabled:            false,
			URL:                "nats://127.0.0.1:4222",
			EmbeddedServer:     true,
			StoreDir:           "./data/nats",
			JetStreamMaxMemory: 64 * 1024 * 1024,   // 64MB
			JetStreamMaxStore:  1024 * 1024 * 1024, // 1GB
			DurableName:        "lodestone-ratings",
			QueueGroup:         "lodestone-workers",
		},
	}
}

// Load reads configuration from defaults, an optional YAML config file, and
// environment variables, in that order of precedence (later layers win).
//
// The config file location is resolved from CONFIG_PATH or the first existing
// entry of DefaultConfigPaths. A missing file is not an error; environment
// variables alone are a fully supported deployment mode.
func Load() (*Config, error) {
	cfg, err := loadLayers(findConfigFile())
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWorkbench reads configuration for the offline CLI with the same
// layering as Load, but validates only the sections workbench commands
// use (dataset, scrape, recommend, logging). Server, security and
// database settings pass through unchecked so the CLI runs without a
// JWT secret or admin credentials. A non-empty configFile overrides
// the CONFIG_PATH/default-location search and must exist.
func LoadWorkbench(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}
	cfg, err := loadLayers(configFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateWorkbench(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadLayers applies the defaults, optional-file and environment layers
// and unmarshals the result. Validation is the caller's concern.
func loadLayers(configFile string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	// Layer 2: optional YAML config file.
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
		logging.Info().Str("file", configFile).Msg("Loaded configuration file")
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env strings become proper slices before unmarshal.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Threads <= 0 {
		cfg.Database.Threads = runtime.NumCPU()
	}
	if cfg.Recommend.ALS.NumWorkers <= 0 {
		cfg.Recommend.ALS.NumWorkers = runtime.NumCPU()
	}

	return cfg, nil
}

// findConfigFile returns the config file path from CONFIG_PATH or the first
// existing default location. Returns "" when no file is found.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		logging.Warn().Str("path", path).Msg("CONFIG_PATH set but file not found")
		return ""
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// processSliceFields converts comma-separated string values to string slices
// for the keys listed in sliceConfigPaths. Values already provided as slices
// (from the YAML layer) pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		s, ok := val.(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps flat environment variable names to dotted config paths.
// Only variables listed here (or prefixed LODESTONE_) reach the config tree;
// unrelated environment noise is ignored.
var envMappings = map[string]string{
	// Dataset
	"RATINGS_PATH":         "dataset.ratings_path",
	"MOVIES_PATH":          "dataset.movies_path",
	"ARTIFACTS_DIR":        "dataset.artifacts_dir",
	"MIN_RATINGS_PER_ITEM": "dataset.min_ratings_per_item",
	"LIKED_THRESHOLD":      "dataset.liked_threshold",

	// Database
	"DUCKDB_PATH":                     "database.path",
	"DUCKDB_MAX_MEMORY":               "database.max_memory",
	"DUCKDB_THREADS":                  "database.threads",
	"DUCKDB_PRESERVE_INSERTION_ORDER": "database.preserve_insertion_order",

	// Server
	"HTTP_PORT":   "server.port",
	"HTTP_HOST":   "server.host",
	"TIMEOUT":     "server.timeout",
	"ENVIRONMENT": "server.environment",

	// API
	"API_DEFAULT_PAGE_SIZE": "api.default_page_size",
	"API_MAX_PAGE_SIZE":     "api.max_page_size",

	// Security
	"AUTH_MODE":           "security.auth_mode",
	"JWT_SECRET":          "security.jwt_secret",
	"SESSION_TIMEOUT":     "security.session_timeout",
	"ADMIN_USERNAME":      "security.admin_username",
	"ADMIN_PASSWORD":      "security.admin_password",
	"RATE_LIMIT_REQS":     "security.rate_limit_reqs",
	"RATE_LIMIT_WINDOW":   "security.rate_limit_window",
	"RATE_LIMIT_DISABLED": "security.rate_limit_disabled",
	"CORS_ORIGINS":        "security.cors_origins",
	"TRUSTED_PROXIES":     "security.trusted_proxies",
	"SESSION_STORE":       "security.session_store",
	"SESSION_STORE_PATH":  "security.session_store_path",

	// OIDC
	"OIDC_ISSUER_URL":      "security.oidc.issuer_url",
	"OIDC_CLIENT_ID":       "security.oidc.client_id",
	"OIDC_CLIENT_SECRET":   "security.oidc.client_secret",
	"OIDC_REDIRECT_URL":    "security.oidc.redirect_url",
	"OIDC_SCOPES":          "security.oidc.scopes",
	"OIDC_PKCE_ENABLED":    "security.oidc.pkce_enabled",
	"OIDC_COOKIE_NAME":     "security.oidc.cookie_name",
	"OIDC_COOKIE_SECURE":   "security.oidc.cookie_secure",
	"OIDC_ROLES_CLAIM":     "security.oidc.roles_claim",
	"OIDC_DEFAULT_ROLES":   "security.oidc.default_roles",
	"OIDC_SESSION_MAX_AGE": "security.oidc.session_max_age",

	// Casbin
	"CASBIN_MODEL_PATH":   "security.casbin.model_path",
	"CASBIN_POLICY_PATH":  "security.casbin.policy_path",
	"CASBIN_DEFAULT_ROLE": "security.casbin.default_role",

	// Logging
	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
	"LOG_CALLER": "logging.caller",

	// Recommend
	"RECOMMEND_ENABLED":          "recommend.enabled",
	"RECOMMEND_TRAIN_INTERVAL":   "recommend.train_interval",
	"RECOMMEND_TRAIN_ON_STARTUP": "recommend.train_on_startup",
	"RECOMMEND_MIN_INTERACTIONS": "recommend.min_interactions",
	"RECOMMEND_ALGORITHMS":       "recommend.algorithms",
	"RECOMMEND_CACHE_TTL":        "recommend.cache_ttl",
	"RECOMMEND_MAX_CANDIDATES":   "recommend.max_candidates",

	"RECOMMEND_ALS_FACTORS":        "recommend.als.factors",
	"RECOMMEND_ALS_ITERATIONS":     "recommend.als.iterations",
	"RECOMMEND_ALS_REGULARIZATION": "recommend.als.regularization",
	"RECOMMEND_ALS_ALPHA":          "recommend.als.alpha",
	"RECOMMEND_ALS_NUM_WORKERS":    "recommend.als.num_workers",

	"RECOMMEND_KNN_NEIGHBORS":        "recommend.knn.neighbors",
	"RECOMMEND_KNN_SIMILARITY":       "recommend.knn.similarity",
	"RECOMMEND_KNN_SHRINKAGE":        "recommend.knn.shrinkage",
	"RECOMMEND_KNN_MIN_COMMON_ITEMS": "recommend.knn.min_common_items",

	// Scrape
	"SCRAPE_USER_AGENT":           "scrape.user_agent",
	"SCRAPE_REQUESTS_PER_SECOND":  "scrape.requests_per_second",
	"SCRAPE_BURST":                "scrape.burst",
	"SCRAPE_TIMEOUT":              "scrape.timeout",
	"SCRAPE_HEADLESS":             "scrape.headless",
	"SCRAPE_CACHE_DIR":            "scrape.cache_dir",
	"SCRAPE_CACHE_TTL":            "scrape.cache_ttl",
	"SCRAPE_MAX_PAGES":            "scrape.max_pages",
	"SCRAPE_BREAKER_MAX_FAILURES": "scrape.breaker_max_failures",
	"SCRAPE_BREAKER_COOLDOWN":     "scrape.breaker_cooldown",

	// Events
	"EVENTS_ENABLED":              "events.enabled",
	"EVENTS_URL":                  "events.url",
	"EVENTS_EMBEDDED":             "events.embedded_server",
	"EVENTS_STORE_DIR":            "events.store_dir",
	"EVENTS_JETSTREAM_MAX_MEMORY": "events.jetstream_max_memory",
	"EVENTS_JETSTREAM_MAX_STORE":  "events.jetstream_max_store",
	"EVENTS_DURABLE_NAME":         "events.durable_name",
	"EVENTS_QUEUE_GROUP":          "events.queue_group",
}

// envTransformFunc maps environment variable names to config paths.
// Returning "" tells koanf to skip the variable entirely.
//
// Two forms are accepted:
//   - Flat names from envMappings (JWT_SECRET, DUCKDB_PATH, ...)
//   - LODESTONE_ prefixed dotted paths (LODESTONE_SERVER__PORT -> server.port)
func envTransformFunc(s string) string {
	if path, ok := envMappings[s]; ok {
		return path
	}
	if after, ok := strings.CutPrefix(s, "LODESTONE_"); ok {
		return strings.ReplaceAll(strings.ToLower(after), "__", ".")
	}
	return ""
}
