// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables
// and config files.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Data:
//     - Dataset: CSV locations, cleaning thresholds, artifact output
//     - Database: DuckDB configuration (path, memory, threads)
//
//  2. Serving:
//     - Server: HTTP server configuration (port, host, timeout)
//     - API: Pagination and response limits
//     - Security: Authentication, authorization, rate limiting
//
//  3. Engines:
//     - Recommend: Recommendation engine training and algorithms
//     - Scrape: Web scraper politeness and caching
//     - Events: Embedded NATS JetStream rating-event pipeline (optional)
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Dataset   DatasetConfig   `koanf:"dataset"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
	Scrape    ScrapeConfig    `koanf:"scrape"`
	Events    EventsConfig    `koanf:"events"`
}

// DatasetConfig holds dataset file locations and cleaning policy.
//
// Environment Variables:
//   - RATINGS_PATH: Path to the ratings CSV (userId,movieId,rating,timestamp)
//   - MOVIES_PATH: Path to the movies CSV (movieId,title,genres)
//   - ARTIFACTS_DIR: Directory for cleaning reports and exports (default: ./artifacts)
//   - MIN_RATINGS_PER_ITEM: Popularity filter floor applied during cleaning (default: 5)
//   - LIKED_THRESHOLD: Rating at or above which an item counts as liked (default: 3.5)
type DatasetConfig struct {
	RatingsPath string `koanf:"ratings_path"`
	MoviesPath  string `koanf:"movies_path"`
	// ArtifactsDir receives cleaning reports and CSV/XLSX exports.
	ArtifactsDir string `koanf:"artifacts_dir"`
	// MinRatingsPerItem drops items with fewer ratings during cleaning.
	MinRatingsPerItem int `koanf:"min_ratings_per_item"`
	// LikedThreshold is the boundary used when deriving liked-item
	// transactions for rule mining and implicit-feedback signals.
	LikedThreshold float64 `koanf:"liked_threshold"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // Whether to preserve insertion order (default true)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // "development", "staging", "production" (default: "development")
}

// APIConfig holds API pagination and response settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds authentication and authorization settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // "jwt", "basic", "oidc", or "none"
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`

	// SessionStore specifies the session storage backend: "memory" or "badger".
	// Badger persists sessions across restarts.
	SessionStore string `koanf:"session_store"`
	// SessionStorePath is the path for BadgerDB storage (required when session_store=badger).
	SessionStorePath string `koanf:"session_store_path"`

	OIDC   OIDCConfig   `koanf:"oidc"`   // OIDC/OAuth 2.0 authentication
	Casbin CasbinConfig `koanf:"casbin"` // Casbin RBAC authorization
}

// OIDCConfig holds OIDC/OAuth 2.0 authentication settings.
//
// Environment Variables:
//   - OIDC_ISSUER_URL: OIDC provider issuer URL (required for oidc auth mode)
//   - OIDC_CLIENT_ID: OAuth 2.0 client ID (required for oidc auth mode)
//   - OIDC_CLIENT_SECRET: OAuth 2.0 client secret (optional for public clients)
//   - OIDC_REDIRECT_URL: OAuth callback URL (required for oidc auth mode)
//   - OIDC_SCOPES: Comma-separated list of OAuth scopes (default: openid,profile,email)
//   - OIDC_PKCE_ENABLED: Enable PKCE for public clients (default: true)
type OIDCConfig struct {
	IssuerURL    string        `koanf:"issuer_url"`
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	RedirectURL  string        `koanf:"redirect_url"`
	Scopes       []string      `koanf:"scopes"`
	PKCEEnabled  bool          `koanf:"pkce_enabled"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
	RolesClaim   string        `koanf:"roles_claim"`
	DefaultRoles []string      `koanf:"default_roles"`
	SessionAge   time.Duration `koanf:"session_max_age"`
}

// CasbinConfig holds Casbin RBAC authorization settings.
//
// Environment Variables:
//   - CASBIN_MODEL_PATH: Path to Casbin model file (default: embedded)
//   - CASBIN_POLICY_PATH: Path to Casbin policy file (default: embedded)
//   - CASBIN_DEFAULT_ROLE: Default role for users without an explicit role (default: viewer)
type CasbinConfig struct {
	ModelPath   string `koanf:"model_path"`
	PolicyPath  string `koanf:"policy_path"`
	DefaultRole string `koanf:"default_role"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// Enabled controls whether the recommendation engine is active.
	Enabled bool `koanf:"enabled"`

	// TrainInterval is how often to retrain models.
	// Default: 24h (once daily)
	TrainInterval time.Duration `koanf:"train_interval"`

	// TrainOnStartup triggers model training on application startup.
	// Useful for deployments with pre-seeded data.
	// Default: false (wait for scheduled training)
	TrainOnStartup bool `koanf:"train_on_startup"`

	// MinInteractions is the minimum interactions required before training.
	// Below this threshold only popularity recommendations are available.
	// Default: 100
	MinInteractions int `koanf:"min_interactions"`

	// Algorithms is the list of enabled recommendation algorithms.
	// Available: als, itemknn, userknn, popularity
	// Default: als, itemknn, popularity
	Algorithms []string `koanf:"algorithms"`

	// CacheTTL is how long to cache recommendation results.
	// Default: 5m
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// MaxCandidates limits the number of items to score per request.
	// Higher values improve quality but increase latency.
	// Default: 1000
	MaxCandidates int `koanf:"max_candidates"`

	ALS ALSAlgorithmConfig `koanf:"als"`
	KNN KNNAlgorithmConfig `koanf:"knn"`
}

// ALSAlgorithmConfig holds implicit-feedback ALS hyperparameters.
type ALSAlgorithmConfig struct {
	Factors        int     `koanf:"factors"`
	Iterations     int     `koanf:"iterations"`
	Regularization float64 `koanf:"regularization"`
	Alpha          float64 `koanf:"alpha"`
	NumWorkers     int     `koanf:"num_workers"` // 0 = use runtime.NumCPU()
}

// KNNAlgorithmConfig holds neighborhood collaborative-filtering hyperparameters.
type KNNAlgorithmConfig struct {
	Neighbors      int     `koanf:"neighbors"`
	Similarity     string  `koanf:"similarity"` // "cosine", "pearson", "jaccard"
	Shrinkage      float64 `koanf:"shrinkage"`
	MinCommonItems int     `koanf:"min_common_items"`
}

// ScrapeConfig holds web scraper politeness and caching settings.
//
// Environment Variables:
//   - SCRAPE_USER_AGENT: User-Agent header for HTTP fetches
//   - SCRAPE_REQUESTS_PER_SECOND: Per-host rate limit (default: 1)
//   - SCRAPE_BURST: Rate limiter burst size (default: 2)
//   - SCRAPE_TIMEOUT: Per-fetch timeout (default: 30s)
//   - SCRAPE_HEADLESS: Run the browser fetcher headless (default: true)
//   - SCRAPE_CACHE_DIR: BadgerDB page cache directory (default: ./data/scrape-cache)
//   - SCRAPE_CACHE_TTL: Page cache entry lifetime (default: 24h)
//   - SCRAPE_MAX_PAGES: Pagination cap per scrape (default: 50)
type ScrapeConfig struct {
	UserAgent         string        `koanf:"user_agent"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	Timeout           time.Duration `koanf:"timeout"`
	Headless          bool          `koanf:"headless"`
	CacheDir          string        `koanf:"cache_dir"`
	CacheTTL          time.Duration `koanf:"cache_ttl"`
	MaxPages          int           `koanf:"max_pages"`

	// Circuit breaker settings for the fetch path.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerCooldown    time.Duration `koanf:"breaker_cooldown"`
}

// EventsConfig holds the embedded NATS JetStream rating-event pipeline settings.
//
// Environment Variables:
//   - EVENTS_ENABLED: Enable the event pipeline (default: false)
//   - EVENTS_URL: NATS URL when using an external server (default: nats://127.0.0.1:4222)
//   - EVENTS_EMBEDDED: Run an in-process NATS server (default: true)
//   - EVENTS_STORE_DIR: JetStream storage directory (default: ./data/nats)
type EventsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	// JetStream resource limits for the embedded server.
	JetStreamMaxMemory int64 `koanf:"jetstream_max_memory"`
	JetStreamMaxStore  int64 `koanf:"jetstream_max_store"`
	// Durable consumer identity.
	DurableName string `koanf:"durable_name"`
	QueueGroup  string `koanf:"queue_group"`
}
