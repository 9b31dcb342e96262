package opener

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommand(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		goos, app string
		want      []string
	}{
		{"darwin", "", []string{"open", "/b/x.pdf"}},
		{"darwin", "Skim", []string{"open", "/b/x.pdf", "-a", "Skim"}},
		{"linux", "", []string{"xdg-open", "/b/x.pdf"}},
		{"linux", "zathura", []string{"zathura", "/b/x.pdf"}},
		{"windows", "", []string{"cmd", "/c", "start", "", "/b/x.pdf"}},
	}
	for _, tc := range cases {
		t.Run(tc.goos+"/"+tc.app, func(t *testing.T) {
			cmd, err := Command(ctx, tc.goos, "/b/x.pdf", tc.app)
			if err != nil {
				t.Fatalf("Command: %v", err)
			}
			got := append([]string{filepath.Base(cmd.Args[0])}, cmd.Args[1:]...)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommand_DarwinPlainText(t *testing.T) {
	cmd, err := Command(context.Background(), "darwin", "/b/README", "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"open", "/b/README", "-e"}, cmd.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCommand_UnsupportedOS(t *testing.T) {
	if _, err := Command(context.Background(), "plan9", "/x", ""); !errors.Is(err, ErrUnsupportedOS) {
		t.Errorf("err = %v, want ErrUnsupportedOS", err)
	}
}

func TestOpen_ReportsUnsupportedPlatform(t *testing.T) {
	o := &Opener{goos: "plan9", logger: New(nil).logger}
	err := o.Open(context.Background(), Target{Path: "/a"}, Target{Path: "/b"})
	if !errors.Is(err, ErrUnsupportedOS) {
		t.Errorf("err = %v", err)
	}
}
