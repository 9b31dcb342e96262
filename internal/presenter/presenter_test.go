package presenter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/starford/readmana/internal/catalog"
	"github.com/starford/readmana/internal/record"
)

func TestBar(t *testing.T) {
	cases := []struct {
		name string
		p    record.Progress
		want string
	}{
		{"empty", record.Progress{}, "|..........|"},
		{"behind plan", record.Progress{Current: 30, Plan: 50}, "|===--.....|"},
		{"ahead of plan", record.Progress{Current: 70, Plan: 20}, "|=======...|"},
		{"overdue plan capped", record.Progress{Current: 10, Plan: 250}, "|=---------|"},
		{"done", record.Progress{Current: 100, Plan: 100}, "|==========|"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Bar(tc.p, 10, PaletteNone); got != tc.want {
				t.Errorf("Bar(%+v) = %q, want %q", tc.p, got, tc.want)
			}
		})
	}
}

func TestBar_Colours(t *testing.T) {
	got := Bar(record.Progress{Current: 50, Plan: 80}, 10, Palette256)
	if !strings.Contains(got, "\033[38;5;100m=====") {
		t.Errorf("256-colour bar missing gradient colour: %q", got)
	}
	if !strings.Contains(got, ansiPlan+"---"+ansiReset) {
		t.Errorf("plan segment not blue: %q", got)
	}

	got = Bar(record.Progress{Current: 0, Plan: 100}, 4, Palette8)
	if strings.Contains(got, ansiRead8) {
		t.Errorf("empty read segment must not be painted: %q", got)
	}
}

func TestReadColorGradientEnds(t *testing.T) {
	if got := readColor(0, Palette256); got != "\033[38;5;202m" {
		t.Errorf("0%% colour = %q", got)
	}
	if got := readColor(100, Palette256); got != "\033[38;5;2m" {
		t.Errorf("100%% colour = %q", got)
	}
	if got := readColor(40, Palette8); got != ansiRead8 {
		t.Errorf("8-colour = %q", got)
	}
}

func TestMarker(t *testing.T) {
	if Marker(catalog.FileAbsent) != "✗" || Marker(catalog.FilePresent) != "◆" || Marker(catalog.FileMissing) != "?" {
		t.Error("unexpected markers")
	}
}

func TestRender(t *testing.T) {
	rows := []Row{
		{Index: 1, Author: "Stephen Gaius", Title: "A Brief History of Time", Pages: 200,
			Note: catalog.FilePresent, Source: catalog.FileMissing, Progress: record.Progress{Current: 25, Plan: 50}},
		{Index: 2, Title: "Broken Dates", Pages: 10, Err: errors.New("date order")},
	}
	var buf bytes.Buffer
	Render(&buf, rows, Options{BarWidth: 8, TitleWidth: 12})
	out := buf.String()

	for _, want := range []string{"Author", "Progress", "A Brief H...", "Stephen Gaius", "◆", "?", "|==--....|", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "AUTHOR") {
		t.Errorf("headers should keep their casing:\n%s", out)
	}
}
