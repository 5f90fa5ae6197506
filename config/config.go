// Package config loads the rewriter's run configuration.
//
// Configuration is layered: built-in defaults, then an optional
// .i18n-formatter.yaml in the target root, then I18N_FMT_* environment
// variables (a .env file in the working directory is honored when
// present). Most runs need no configuration at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the optional per-project configuration file.
const FileName = ".i18n-formatter.yaml"

// Config describes what to scan and rewrite.
type Config struct {
	// Keywords are the translation function names to look for.
	// Aliases imported from invenio_i18n are always added per file.
	Keywords []string `yaml:"keywords,omitempty"`
	// Extensions are the file extensions to process.
	Extensions []string `yaml:"extensions,omitempty"`
	// ExcludeDirs are directory names skipped during traversal.
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Keywords:   []string{"_", "gettext", "lazy_gettext"},
		Extensions: []string{".py"},
		ExcludeDirs: []string{
			".git", ".hg", ".svn",
			"node_modules", "__pycache__",
			".tox", ".venv", "venv", ".eggs",
			"dist", "build",
		},
	}
}

// Load builds the configuration for a run rooted at rootDir. A missing
// config file is not an error; a malformed one is.
func Load(rootDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if len(file.Keywords) > 0 {
			cfg.Keywords = file.Keywords
		}
		if len(file.Extensions) > 0 {
			cfg.Extensions = file.Extensions
		}
		if len(file.ExcludeDirs) > 0 {
			cfg.ExcludeDirs = file.ExcludeDirs
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides list settings from I18N_FMT_* variables.
// Values are comma-separated.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("I18N_FMT_KEYWORDS"); v != "" {
		cfg.Keywords = splitList(v)
	}
	if v := os.Getenv("I18N_FMT_EXTENSIONS"); v != "" {
		cfg.Extensions = splitList(v)
	}
	if v := os.Getenv("I18N_FMT_EXCLUDE_DIRS"); v != "" {
		cfg.ExcludeDirs = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
