package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/record"
	pkgconfig "github.com/starford/readmana/pkg/config"
)

// ConfigDirVar expands to the directory holding the config file.
const ConfigDirVar = "CONFIG_DIR"

// ArchiveDirName is the default archive subdirectory of the record directory.
const ArchiveDirName = "archive"

// Config is the catalog configuration document.
type Config struct {
	RecordDir  string            `yaml:"record_dir"`
	NoteDir    string            `yaml:"note_dir"`
	ArchiveDir string            `yaml:"archive_dir,omitempty"`
	Openers    map[string]string `yaml:"openers,omitempty"`
	IndexPath  string            `yaml:"index_path,omitempty"`
	LogLevel   slog.Level        `yaml:"log_level"`
}

// Validate reports missing required fields as apperr.ErrSchema.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.RecordDir, validation.Required),
		validation.Field(&c.NoteDir, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrSchema, err)
	}
	return nil
}

// LoadConfig reads the document at path, expanding $CONFIG_DIR, environment
// variables and a leading "~/" in directory values.
func LoadConfig(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: config %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("catalog: config %s is a directory: %w", abs, apperr.ErrNotFound)
	}

	cfg := &Config{LogLevel: slog.LevelInfo}
	err = pkgconfig.LoadWith(abs, cfg, func(name string) string {
		if name == ConfigDirVar {
			return dir
		}
		return os.Getenv(name)
	})
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("catalog: config %s: %w", abs, apperr.ErrNotFound)
	case errors.Is(err, apperr.ErrSchema):
		return nil, fmt.Errorf("catalog: config %s: %w", abs, err)
	default:
		return nil, fmt.Errorf("catalog: config %s: %w: %w", abs, apperr.ErrFormat, err)
	}

	cfg.resolve()
	return cfg, nil
}

func (c *Config) resolve() {
	c.RecordDir = expandUser(c.RecordDir)
	c.NoteDir = expandUser(c.NoteDir)
	if c.ArchiveDir == "" {
		c.ArchiveDir = filepath.Join(c.RecordDir, ArchiveDirName)
	}
	c.ArchiveDir = expandUser(c.ArchiveDir)
	if c.IndexPath != "" {
		c.IndexPath = expandUser(c.IndexPath)
	}

	openers := make(map[string]string, len(c.Openers))
	for ext, app := range c.Openers {
		openers[normalizeExt(ext)] = app
	}
	c.Openers = openers
}

func normalizeExt(ext string) string {
	return record.Fold(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// expandUser replaces a leading "~" with the home directory.
func expandUser(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return filepath.Clean(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(p)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
