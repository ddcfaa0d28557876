package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirName is the name of both the global (~/.shrule) and repo (.shrule) config dirs.
const DirName = ".shrule"

// Config holds application configuration.
type Config struct {
	// RFilesOutsideCwd keeps read events outside the working directory. Default true.
	RFilesOutsideCwd *bool `json:"rfiles_outside_cwd,omitempty"`

	// WFilesOutsideCwd keeps write events outside the working directory. Default false.
	WFilesOutsideCwd *bool `json:"wfiles_outside_cwd,omitempty"`

	// Quote is the quote character of printed paths and shell commands: `"` or `'`.
	Quote string `json:"quote,omitempty"`

	// Indent is the number of spaces per indentation level of printed rules.
	Indent int `json:"indent,omitempty"`

	// RulePrefix names generated rules <prefix>_<n>.
	RulePrefix string `json:"rule_prefix,omitempty"`

	// MaxSubstitutionDepth bounds nested command substitutions while tokenizing.
	MaxSubstitutionDepth int `json:"max_substitution_depth,omitempty"`

	// LogLevel is one of debug, info, warning, error.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for Snakefile exports.
	// Paths outside ~/.shrule/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for exports.
	// Symlink and file name checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RFilesOutsideCwd:     boolPtr(true),
		WFilesOutsideCwd:     boolPtr(false),
		Quote:                `"`,
		Indent:               4,
		RulePrefix:           "undefined",
		MaxSubstitutionDepth: 64,
		LogLevel:             "warning",
	}
}

func boolPtr(b bool) *bool { return &b }

// KeepReadsOutsideCwd reports the effective rfiles_outside_cwd setting.
func (c *Config) KeepReadsOutsideCwd() bool {
	return c.RFilesOutsideCwd == nil || *c.RFilesOutsideCwd
}

// KeepWritesOutsideCwd reports the effective wfiles_outside_cwd setting.
func (c *Config) KeepWritesOutsideCwd() bool {
	return c.WFilesOutsideCwd != nil && *c.WFilesOutsideCwd
}

// Validate checks values that would otherwise produce broken output.
func (c *Config) Validate() error {
	if c.Quote != `"` && c.Quote != `'` {
		return fmt.Errorf("quote must be %q or %q, got %q", `"`, `'`, c.Quote)
	}
	if c.Indent < 1 || c.Indent > 16 {
		return fmt.Errorf("indent must be between 1 and 16, got %d", c.Indent)
	}
	if c.MaxSubstitutionDepth < 1 {
		return fmt.Errorf("max_substitution_depth must be positive, got %d", c.MaxSubstitutionDepth)
	}
	if strings.TrimSpace(c.RulePrefix) == "" {
		return errors.New("rule_prefix must not be empty")
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.shrule.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.shrule) and repo (.shrule) directories.
// Repo config is found by walking upward from startDir to find the nearest .shrule/config.json.
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

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .shrule/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
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

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
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
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		RFilesOutsideCwd:     pickBool(base.RFilesOutsideCwd, overlay.RFilesOutsideCwd),
		WFilesOutsideCwd:     pickBool(base.WFilesOutsideCwd, overlay.WFilesOutsideCwd),
		Quote:                pickString(base.Quote, overlay.Quote),
		Indent:               pickInt(base.Indent, overlay.Indent),
		RulePrefix:           pickString(base.RulePrefix, overlay.RulePrefix),
		MaxSubstitutionDepth: pickInt(base.MaxSubstitutionDepth, overlay.MaxSubstitutionDepth),
		LogLevel:             pickString(base.LogLevel, overlay.LogLevel),
		DBMaxOpenConns:       pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns:       pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
	}

	// Booleans without a default: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickBool(base, overlay *bool) *bool {
	if overlay != nil {
		return overlay
	}
	return base
}

func pickString(base, overlay string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
