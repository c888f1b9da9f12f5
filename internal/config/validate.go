// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package config

import (
	"fmt"
	"strings"
	"time"
)

// Rate limit bounds prevent misconfiguration that would either disable
// protection or lock out legitimate clients.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour

	minJWTSecretLength = 32
)

// validAuthModes defines the allowed authentication modes
var validAuthModes = map[string]bool{
	"none":  true,
	"jwt":   true,
	"basic": true,
	"oidc":  true,
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validAlgorithms defines the recognized recommendation algorithm names
var validAlgorithms = map[string]bool{
	"als":        true,
	"itemknn":    true,
	"userknn":    true,
	"popularity": true,
}

// validSimilarities defines the recognized KNN similarity measures
var validSimilarities = map[string]bool{
	"cosine":  true,
	"pearson": true,
	"jaccard": true,
}

// validSessionStores defines the allowed session storage backends
var validSessionStores = map[string]bool{
	"memory": true,
	"badger": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateScrape(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

// ValidateWorkbench checks only the sections the offline CLI reads:
// dataset policy, scraper politeness, recommendation hyperparameters
// and logging. The CLI never serves HTTP, so server and security
// settings may be absent or invalid without blocking a command.
func (c *Config) ValidateWorkbench() error {
	if err := c.validateDataset(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateScrape(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateDataset validates dataset cleaning policy.
// Paths are optional at startup; ingest endpoints and CLI commands accept
// explicit paths, so only the policy values need bounds.
func (c *Config) validateDataset() error {
	if c.Dataset.MinRatingsPerItem < 0 {
		return fmt.Errorf("MIN_RATINGS_PER_ITEM must not be negative")
	}
	if c.Dataset.LikedThreshold < 0.5 || c.Dataset.LikedThreshold > 5.0 {
		return fmt.Errorf("LIKED_THRESHOLD must be between 0.5 and 5.0")
	}
	return nil
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	return nil
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("TIMEOUT must be at least 1s")
	}
	return nil
}

// validateAPI validates pagination bounds
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be >= API_DEFAULT_PAGE_SIZE")
	}
	return nil
}

// validateSecurity validates security configuration
func (c *Config) validateSecurity() error {
	if err := c.validateAuthMode(); err != nil {
		return err
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	if err := c.validateSessionStore(); err != nil {
		return err
	}

	return c.validateAuthModeConfig()
}

// validateAuthMode checks if auth mode is valid
func (c *Config) validateAuthMode() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt, basic, oidc")
	}

	return c.validateAuthModeForEnvironment()
}

// validateAuthModeForEnvironment ensures AUTH_MODE is appropriate for the
// environment. Unauthenticated production deployments are refused.
func (c *Config) validateAuthModeForEnvironment() error {
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production. " +
			"Either set AUTH_MODE to a secure option (jwt, basic, oidc) " +
			"or use ENVIRONMENT=development for testing purposes")
	}

	return nil
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// validateCORS rejects wildcard CORS in production when authentication is
// enabled. A wildcard origin combined with credentials lets any site replay
// stolen tokens.
func (c *Config) validateCORS() error {
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled. " +
			"Either set specific origins: CORS_ORIGINS=https://yourdomain.com " +
			"or use ENVIRONMENT=development for testing purposes")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validateRateLimits validates rate limiting configuration bounds
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateSessionStore validates the session storage backend selection
func (c *Config) validateSessionStore() error {
	if !validSessionStores[c.Security.SessionStore] {
		return fmt.Errorf("SESSION_STORE must be one of: memory, badger")
	}
	if c.Security.SessionStore == "badger" && c.Security.SessionStorePath == "" {
		return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
	}
	return nil
}

// validateAuthModeConfig validates configuration for the selected auth mode
func (c *Config) validateAuthModeConfig() error {
	validators := map[string]func() error{
		"jwt":   c.validateJWTAuth,
		"basic": c.validateBasicAuth,
		"oidc":  c.validateOIDCAuth,
	}

	validator, exists := validators[c.Security.AuthMode]
	if !exists {
		return nil // "none" mode has no additional validation
	}

	return validator()
}

// validateJWTAuth validates JWT authentication configuration
func (c *Config) validateJWTAuth() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	return c.validateAdminCredentials("jwt")
}

// validateJWTSecret validates the JWT secret configuration
func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters for security", minJWTSecretLength)
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateBasicAuth validates Basic authentication configuration
func (c *Config) validateBasicAuth() error {
	return c.validateAdminCredentials("basic")
}

// validateAdminCredentials validates admin username and password
func (c *Config) validateAdminCredentials(authMode string) error {
	if c.Security.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required when AUTH_MODE is %s", authMode)
	}
	if c.Security.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when AUTH_MODE is %s", authMode)
	}
	if containsPlaceholder(c.Security.AdminPassword) {
		return fmt.Errorf("ADMIN_PASSWORD contains a placeholder value - set a secure password")
	}
	return nil
}

// validateOIDCAuth validates OIDC authentication configuration
func (c *Config) validateOIDCAuth() error {
	if c.Security.OIDC.IssuerURL == "" {
		return fmt.Errorf("OIDC_ISSUER_URL is required when AUTH_MODE is oidc")
	}
	if !strings.HasPrefix(c.Security.OIDC.IssuerURL, "https://") && !strings.HasPrefix(c.Security.OIDC.IssuerURL, "http://") {
		return fmt.Errorf("OIDC_ISSUER_URL must be an http(s) URL")
	}
	if c.Security.OIDC.ClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required when AUTH_MODE is oidc")
	}
	if c.Security.OIDC.RedirectURL == "" {
		return fmt.Errorf("OIDC_REDIRECT_URL is required when AUTH_MODE is oidc")
	}
	return nil
}

// validateRecommend validates recommendation engine configuration
func (c *Config) validateRecommend() error {
	if !c.Recommend.Enabled {
		return nil
	}

	if len(c.Recommend.Algorithms) == 0 {
		return fmt.Errorf("RECOMMEND_ALGORITHMS must list at least one algorithm when RECOMMEND_ENABLED=true")
	}
	for _, name := range c.Recommend.Algorithms {
		if !validAlgorithms[name] {
			return fmt.Errorf("RECOMMEND_ALGORITHMS contains unknown algorithm %q (valid: als, itemknn, userknn, popularity)", name)
		}
	}

	if c.Recommend.TrainInterval < time.Minute {
		return fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be at least 1m")
	}
	if c.Recommend.MinInteractions < 1 {
		return fmt.Errorf("RECOMMEND_MIN_INTERACTIONS must be at least 1")
	}
	if c.Recommend.MaxCandidates < 1 {
		return fmt.Errorf("RECOMMEND_MAX_CANDIDATES must be at least 1")
	}

	if err := c.validateALS(); err != nil {
		return err
	}
	return c.validateKNN()
}

// validateALS validates ALS hyperparameters
func (c *Config) validateALS() error {
	if c.Recommend.ALS.Factors < 1 {
		return fmt.Errorf("RECOMMEND_ALS_FACTORS must be at least 1")
	}
	if c.Recommend.ALS.Iterations < 1 {
		return fmt.Errorf("RECOMMEND_ALS_ITERATIONS must be at least 1")
	}
	if c.Recommend.ALS.Regularization <= 0 {
		return fmt.Errorf("RECOMMEND_ALS_REGULARIZATION must be positive")
	}
	if c.Recommend.ALS.Alpha <= 0 {
		return fmt.Errorf("RECOMMEND_ALS_ALPHA must be positive")
	}
	return nil
}

// validateKNN validates KNN hyperparameters
func (c *Config) validateKNN() error {
	if c.Recommend.KNN.Neighbors < 1 {
		return fmt.Errorf("RECOMMEND_KNN_NEIGHBORS must be at least 1")
	}
	if !validSimilarities[c.Recommend.KNN.Similarity] {
		return fmt.Errorf("RECOMMEND_KNN_SIMILARITY must be one of: cosine, pearson, jaccard")
	}
	if c.Recommend.KNN.Shrinkage < 0 {
		return fmt.Errorf("RECOMMEND_KNN_SHRINKAGE must not be negative")
	}
	if c.Recommend.KNN.MinCommonItems < 1 {
		return fmt.Errorf("RECOMMEND_KNN_MIN_COMMON_ITEMS must be at least 1")
	}
	return nil
}

// validateScrape validates scraper politeness settings
func (c *Config) validateScrape() error {
	if c.Scrape.RequestsPerSecond <= 0 {
		return fmt.Errorf("SCRAPE_REQUESTS_PER_SECOND must be positive")
	}
	if c.Scrape.Burst < 1 {
		return fmt.Errorf("SCRAPE_BURST must be at least 1")
	}
	if c.Scrape.Timeout < time.Second {
		return fmt.Errorf("SCRAPE_TIMEOUT must be at least 1s")
	}
	if c.Scrape.MaxPages < 1 {
		return fmt.Errorf("SCRAPE_MAX_PAGES must be at least 1")
	}
	return nil
}

// validateEvents validates the event pipeline configuration (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}

	if c.Events.EmbeddedServer {
		if c.Events.StoreDir == "" {
			return fmt.Errorf("EVENTS_STORE_DIR is required when EVENTS_EMBEDDED=true")
		}
		if c.Events.JetStreamMaxMemory < 1024*1024 {
			return fmt.Errorf("EVENTS_JETSTREAM_MAX_MEMORY must be at least 1MB")
		}
		if c.Events.JetStreamMaxStore < 1024*1024 {
			return fmt.Errorf("EVENTS_JETSTREAM_MAX_STORE must be at least 1MB")
		}
	} else if c.Events.URL == "" {
		return fmt.Errorf("EVENTS_URL is required when EVENTS_ENABLED=true and EVENTS_EMBEDDED=false")
	}

	if c.Events.DurableName == "" {
		return fmt.Errorf("EVENTS_DURABLE_NAME is required when EVENTS_ENABLED=true")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
