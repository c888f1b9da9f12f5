// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ErrNoAdapter is returned by SavePolicy and LoadPolicy when the
// enforcer runs on the embedded policy and has nothing to persist to.
var ErrNoAdapter = errors.New("no policy adapter configured; using embedded policy")

// EnforcerConfig controls policy sources and the decision cache.
type EnforcerConfig struct {
	// ModelPath overrides the embedded Casbin model when it names an
	// existing file.
	ModelPath string

	// PolicyPath overrides the embedded policy when it names an
	// existing file. File-backed policies support reload.
	PolicyPath string

	// AutoReload re-reads a file-backed policy on an interval.
	AutoReload bool

	// ReloadInterval is the auto-reload period.
	ReloadInterval time.Duration

	// DefaultRole is enforced for subjects that carry no roles.
	DefaultRole string

	// CacheEnabled turns on per-tuple decision caching.
	CacheEnabled bool

	// CacheTTL bounds how long a cached decision is trusted.
	CacheTTL time.Duration
}

// DefaultEnforcerConfig returns the zero-configuration setup: embedded
// model and policy, viewer fallback, five-minute decision cache.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		AutoReload:     true,
		ReloadInterval: 30 * time.Second,
		DefaultRole:    "viewer",
		CacheEnabled:   true,
		CacheTTL:       5 * time.Minute,
	}
}

// EnforcerConfigFromSecurity maps the server's security configuration
// onto an EnforcerConfig, keeping the defaults for everything the
// config file does not name.
func EnforcerConfigFromSecurity(cfg *config.CasbinConfig) *EnforcerConfig {
	out := DefaultEnforcerConfig()
	if cfg == nil {
		return out
	}
	out.ModelPath = cfg.ModelPath
	out.PolicyPath = cfg.PolicyPath
	if cfg.DefaultRole != "" {
		out.DefaultRole = cfg.DefaultRole
	}
	return out
}

// Enforcer wraps a synced Casbin enforcer with decision caching and
// the lodestone role conventions.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer builds the enforcer from config, falling back to the
// embedded model and policy when no files are configured.
func NewEnforcer(cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = DefaultEnforcerConfig()
	}

	m, err := loadModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("loading casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		adapter := fileadapter.NewAdapter(cfg.PolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
		if err != nil {
			return nil, fmt.Errorf("creating casbin enforcer: %w", err)
		}
		if cfg.AutoReload {
			enforcer.StartAutoLoadPolicy(cfg.ReloadInterval)
		}
		logging.Info().Str("policy", cfg.PolicyPath).Bool("auto_reload", cfg.AutoReload).
			Msg("authorization policy loaded from file")
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err != nil {
			return nil, fmt.Errorf("creating casbin enforcer: %w", err)
		}
		if err := loadPolicyRules(enforcer, embeddedPolicy); err != nil {
			return nil, fmt.Errorf("loading embedded policy: %w", err)
		}
		logging.Debug().Msg("authorization using embedded policy")
	}

	e := &Enforcer{config: cfg, enforcer: enforcer}
	if cfg.CacheEnabled {
		e.cache = newDecisionCache(cfg.CacheTTL)
	}
	return e, nil
}

func loadModel(path string) (model.Model, error) {
	if path != "" && fileExists(path) {
		return model.NewModelFromFile(path)
	}
	return model.NewModelFromString(embeddedModel)
}

// loadPolicyRules feeds CSV policy lines into the enforcer. Used for
// the embedded policy, which has no file adapter behind it.
func loadPolicyRules(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) >= 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("adding policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) >= 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("adding grouping policy %v: %w", parts[1:], err)
			}
		}
	}
	return nil
}

// Enforce reports whether subject may perform action on object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	start := time.Now()

	if e.cache != nil {
		if allowed, ok := e.cache.get(subject, object, action); ok {
			metrics.RecordAuthzDecision(allowed, time.Since(start), true)
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(subject, object, action, allowed)
	}
	metrics.RecordAuthzDecision(allowed, time.Since(start), false)
	return allowed, nil
}

// EnforceWithRoles checks the subject itself, then each carried role,
// then the configured default role when the subject carries none.
func (e *Enforcer) EnforceWithRoles(subject string, roles []string, object, action string) (bool, error) {
	if subject != "" {
		allowed, err := e.Enforce(subject, object, action)
		if err != nil || allowed {
			return allowed, err
		}
	}

	for _, role := range roles {
		allowed, err := e.Enforce(role, object, action)
		if err != nil || allowed {
			return allowed, err
		}
	}

	if len(roles) == 0 && e.config.DefaultRole != "" {
		return e.Enforce(e.config.DefaultRole, object, action)
	}
	return false, nil
}

// AddRoleForUser grants a role. The grant lives in memory unless a
// file adapter is configured and SavePolicy is called.
func (e *Enforcer) AddRoleForUser(user, role string) (bool, error) {
	added, err := e.enforcer.AddGroupingPolicy(user, role)
	if err != nil {
		return false, fmt.Errorf("adding role: %w", err)
	}
	e.invalidate(user)
	return added, nil
}

// DeleteRoleForUser revokes a role.
func (e *Enforcer) DeleteRoleForUser(user, role string) (bool, error) {
	removed, err := e.enforcer.RemoveGroupingPolicy(user, role)
	if err != nil {
		return false, fmt.Errorf("removing role: %w", err)
	}
	e.invalidate(user)
	return removed, nil
}

// GetRolesForUser returns the user's direct roles.
func (e *Enforcer) GetRolesForUser(user string) ([]string, error) {
	return e.enforcer.GetRolesForUser(user)
}

// GetUsersForRole returns the users granted a role.
func (e *Enforcer) GetUsersForRole(role string) ([]string, error) {
	return e.enforcer.GetUsersForRole(role)
}

// AddPolicy adds one sub/obj/act rule and drops all cached decisions.
func (e *Enforcer) AddPolicy(subject, object, action string) (bool, error) {
	added, err := e.enforcer.AddPolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("adding policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return added, nil
}

// RemovePolicy removes one sub/obj/act rule and drops all cached
// decisions.
func (e *Enforcer) RemovePolicy(subject, object, action string) (bool, error) {
	removed, err := e.enforcer.RemovePolicy(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("removing policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return removed, nil
}

// GetPolicy returns all sub/obj/act rules.
func (e *Enforcer) GetPolicy() [][]string {
	policies, _ := e.enforcer.GetPolicy() //nolint:errcheck // fails only on a nil enforcer
	return policies
}

// GetFilteredPolicy returns rules matching fieldValues starting at
// fieldIndex (0=subject, 1=object, 2=action).
func (e *Enforcer) GetFilteredPolicy(fieldIndex int, fieldValues ...string) [][]string {
	policies, _ := e.enforcer.GetFilteredPolicy(fieldIndex, fieldValues...) //nolint:errcheck // fails only on a nil enforcer
	return policies
}

// GetGroupingPolicy returns all role grants and inheritance links.
func (e *Enforcer) GetGroupingPolicy() [][]string {
	policies, _ := e.enforcer.GetGroupingPolicy() //nolint:errcheck // fails only on a nil enforcer
	return policies
}

// SavePolicy persists the live policy through the file adapter.
func (e *Enforcer) SavePolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	return e.enforcer.SavePolicy()
}

// LoadPolicy re-reads the policy file and drops cached decisions.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return ErrNoAdapter
	}
	err := e.enforcer.LoadPolicy()
	metrics.RecordPolicyReload(err)
	if err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// DefaultRole returns the role enforced for subjects without roles.
func (e *Enforcer) DefaultRole() string {
	return e.config.DefaultRole
}

// Close stops auto-reload and the cache janitor.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
	if e.cache != nil {
		e.cache.stop()
	}
}

func (e *Enforcer) invalidate(user string) {
	if e.cache != nil {
		e.cache.invalidateSubject(user)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
