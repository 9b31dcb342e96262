package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/starford/readmana/internal"
	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/catalog"
	"github.com/starford/readmana/internal/presenter"
	"github.com/starford/readmana/internal/record"
)

// openCatalog loads the catalog named by --config with a logger at the
// configured level.
func openCatalog(cmd *cli.Command) (*catalog.Catalog, *slog.Logger, error) {
	cfg, err := catalog.LoadConfig(cmd.String("config"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w (run `readmana init` to create one)", err)
		}
		return nil, nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.LogLevel)
	c, err := catalog.Open(cfg, catalog.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}

// parseIndex turns the 1-based argument at pos into a list index.
func parseIndex(cmd *cli.Command, pos int) (int, error) {
	raw := cmd.Args().Get(pos)
	if raw == "" {
		return 0, fmt.Errorf("missing record number: %w", apperr.ErrValidation)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("record number %q: %w", raw, apperr.ErrValidation)
	}
	return n - 1, nil
}

func parseIndices(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing record number: %w", apperr.ErrValidation)
	}
	out := make([]int, 0, len(args))
	for _, raw := range args {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("record number %q: %w", raw, apperr.ErrValidation)
		}
		out = append(out, n-1)
	}
	return out, nil
}

// withRecord opens the catalog, resolves the record at the first argument,
// applies edit and persists the record with a backup when it changed.
func withRecord(cmd *cli.Command, edit func(c *catalog.Catalog, r *record.Record) error) error {
	c, logger, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	i, err := parseIndex(cmd, 0)
	if err != nil {
		return err
	}
	r, err := c.Record(i)
	if err != nil {
		return err
	}
	if err := edit(c, r); err != nil {
		return err
	}
	if !r.Dirty() {
		return nil
	}
	if err := r.Persist(false); err != nil {
		return err
	}
	logger.Debug("record saved", slog.String("path", r.Path()))
	return nil
}

// parsePage reads a page number; zero is allowed.
func parsePage(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("page %q: %w", raw, apperr.ErrValidation)
	}
	return n, nil
}

var intKeys = map[string]bool{ //nolint:gochecknoglobals // fixed schema
	record.KeyPageTotal:   true,
	record.KeyPageCurrent: true,
	record.KeyYear:        true,
	record.KeyEdition:     true,
}

// parseValue converts a command-line value for key. "null" clears a value.
func parseValue(key, raw string) any {
	if raw == "null" {
		return nil
	}
	if intKeys[key] {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return raw
}

func renderOptions(short bool) presenter.Options {
	opts := presenter.Options{Palette: detectPalette(), ShortTitles: short}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 && width < 160 {
		opts.BarWidth = max(width-120, 20)
	}
	return opts
}

// detectPalette enables colour only on a terminal. NO_COLOR wins.
func detectPalette() presenter.Palette {
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return presenter.PaletteNone
	}
	t := os.Getenv("TERM")
	switch {
	case t == "dumb":
		return presenter.PaletteNone
	case strings.Contains(t, "256color"), os.Getenv("COLORTERM") != "":
		return presenter.Palette256
	}
	return presenter.Palette8
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
