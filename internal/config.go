package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readmana/internal/catalog"
	pkgconfig "github.com/starford/readmana/pkg/config"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "READMANA_CONFIG"

const appName = "readmana"

// DefaultConfigPath returns $READMANA_CONFIG, or config.yaml under the XDG
// config home.
func DefaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// NewDefaultConfig returns a catalog configuration that keeps records and
// notes under the XDG data home and the search index under the cache home.
func NewDefaultConfig() *catalog.Config {
	data := filepath.Join(xdg.DataHome, appName)
	return &catalog.Config{
		RecordDir: filepath.Join(data, "records"),
		NoteDir:   filepath.Join(data, "notes"),
		IndexPath: filepath.Join(xdg.CacheHome, appName, "index.db"),
		LogLevel:  slog.LevelInfo,
	}
}

// InitConfig creates the directories cfg names and writes it to path. An
// existing config file is never replaced.
func InitConfig(path string, cfg *catalog.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, dir := range []string{cfg.RecordDir, cfg.NoteDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return pkgconfig.Save(path, cfg)
}

// Config represents the runtime configuration of the index service.
type Config struct {
	LogLevel   slog.Level
	IndexPath  string
	RecordDir  string
	ArchiveDir string
}

// NewConfig derives the index service configuration from an opened catalog.
func NewConfig(c *catalog.Catalog) *Config {
	cfg := c.Config()
	return &Config{
		LogLevel:   cfg.LogLevel,
		IndexPath:  cfg.IndexPath,
		RecordDir:  c.RecordDir(),
		ArchiveDir: c.ArchiveDir(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.IndexPath, validation.Required.Error("index_path must be set in the config file")),
		validation.Field(&c.RecordDir, validation.Required),
		validation.Field(&c.ArchiveDir, validation.Required),
	)
}
