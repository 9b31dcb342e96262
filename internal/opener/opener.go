// Package opener launches external applications for notes and local sources.
package opener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrUnsupportedOS is returned for platforms without a known launcher.
var ErrUnsupportedOS = errors.New("opener: unsupported OS")

// Command builds the command that opens path on goos. An empty app means the
// system default handler. On darwin a file without extension opens in the
// default text editor.
func Command(ctx context.Context, goos, path, app string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		args := []string{path}
		switch {
		case app != "":
			args = append(args, "-a", app)
		case filepath.Ext(path) == "":
			args = append(args, "-e")
		}
		return exec.CommandContext(ctx, "open", args...), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		if app != "" {
			return exec.CommandContext(ctx, app, path), nil
		}
		return exec.CommandContext(ctx, "xdg-open", path), nil
	case "windows":
		if app != "" {
			return exec.CommandContext(ctx, "cmd", "/c", "start", "", app, path), nil
		}
		return exec.CommandContext(ctx, "cmd", "/c", "start", "", path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
	}
}

// Target is one file to open.
type Target struct {
	Path string
	App  string // empty for the OS default
}

// Opener starts external processes without waiting for them.
type Opener struct {
	goos   string
	logger *slog.Logger
}

// New returns an Opener for the running platform.
func New(logger *slog.Logger) *Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Opener{goos: runtime.GOOS, logger: logger}
}

// Open starts one process per target. Failures are collected and returned
// after every target was tried.
func (o *Opener) Open(ctx context.Context, targets ...Target) error {
	var errs []error
	for _, t := range targets {
		cmd, err := Command(ctx, o.goos, t.Path, t.App)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := cmd.Start(); err != nil {
			errs = append(errs, fmt.Errorf("opener: start %s: %w", t.Path, err))
			continue
		}
		o.logger.Debug("opened", slog.String("path", t.Path), slog.String("app", t.App))
		go func() { _ = cmd.Wait() }()
	}
	return errors.Join(errs...)
}
