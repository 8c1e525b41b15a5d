package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RepoDirName is the per-project directory searched for a config.json override.
const RepoDirName = ".snip"

// Config holds application configuration.
type Config struct {
	// DataDir is where snippets.json, metadata.json and sample_snippets.json live.
	// Empty means the global base directory (~/.snip).
	DataDir string `json:"data_dir,omitempty"`

	// MaxPromptChars is the maximum character count for a snippet's prompt text.
	MaxPromptChars int `json:"max_prompt_chars" validate:"gte=0"`

	// DefaultSortOrder is the sort_order given to categories created on first reference.
	DefaultSortOrder int `json:"default_sort_order" validate:"gte=0"`

	// StrictPersistence makes metadata write failures fail the calling operation.
	// When false, a failed metadata write is logged and the in-memory cache stays
	// the working copy for the rest of the session.
	StrictPersistence bool `json:"strict_persistence,omitempty"`

	// SkipSamples disables seeding snippets.json from the sample set on first run.
	SkipSamples bool `json:"skip_samples,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export.
	// Paths outside <data dir>/exports must be directly in one of these.
	// Relative entries are ignored.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths lifts the directory restriction for import/export.
	// Symlink, extension and data-file checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely
	// (e.g. "selection" removes every selection_* tool).
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

var validate = validator.New()

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxPromptChars:   8000,
		DefaultSortOrder: 5,
		LogLevel:         "info",
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ResolveDataDir returns the data directory, falling back to baseDir.
// A leading "~/" is expanded to the user's home directory.
func (c *Config) ResolveDataDir(baseDir string) string {
	dir := strings.TrimSpace(c.DataDir)
	if dir == "" {
		return baseDir
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return dir
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.snip.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.snip) and repo (.snip) directories.
// Repo config is found by walking upward from startDir to find the nearest .snip/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindRepoConfig walks upward from startDir to find the nearest .snip/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, RepoDirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.DataDir = overlay.DataDir
	if result.DataDir == "" {
		result.DataDir = base.DataDir
	}

	result.MaxPromptChars = overlay.MaxPromptChars
	if result.MaxPromptChars == 0 {
		result.MaxPromptChars = base.MaxPromptChars
	}

	result.DefaultSortOrder = overlay.DefaultSortOrder
	if result.DefaultSortOrder == 0 {
		result.DefaultSortOrder = base.DefaultSortOrder
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	// Booleans: overlay wins if true, else base
	result.StrictPersistence = base.StrictPersistence || overlay.StrictPersistence
	result.SkipSamples = base.SkipSamples || overlay.SkipSamples
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
