// Package presenter renders catalog listings as terminal tables with
// reading progress bars.
package presenter

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/starford/readmana/internal/catalog"
	"github.com/starford/readmana/internal/record"
)

// Palette selects how progress bars are coloured.
type Palette int

// Palettes.
const (
	PaletteNone Palette = iota
	Palette8
	Palette256
)

const (
	ansiReset = "\033[0m"
	ansiPlan  = "\033[34m"
	ansiRead8 = "\033[92m"
)

// gradient256 runs from orange (just started) to green (finished).
var gradient256 = []int{202, 214, 172, 178, 142, 100, 106, 70, 34, 28, 2} //nolint:gochecknoglobals // colour table

// Options control the table layout.
type Options struct {
	Palette     Palette
	BarWidth    int // inner width of the progress bar
	TitleWidth  int
	AuthorWidth int
	ShortTitles bool
}

func (o Options) withDefaults() Options {
	if o.BarWidth <= 0 {
		o.BarWidth = 50
	}
	if o.TitleWidth <= 0 {
		o.TitleWidth = 48
	}
	if o.AuthorWidth <= 0 {
		o.AuthorWidth = 32
	}
	return o
}

// Row is one rendered line.
type Row struct {
	Index    int // 1-based
	Author   string
	Title    string
	Pages    int
	Note     catalog.FileState
	Source   catalog.FileState
	Progress record.Progress
	Err      error // progress could not be computed
}

// Rows builds table rows for the active records, or the archived ones.
func Rows(c *catalog.Catalog, archived, shortTitles bool) []Row {
	list := c.Active()
	if archived {
		list = c.Archived()
	}
	rows := make([]Row, len(list))
	for i, r := range list {
		note, src := c.FileStates(r)
		p, err := r.ComputeProgress()
		rows[i] = Row{
			Index:    i + 1,
			Author:   r.Author(),
			Title:    r.DisplayTitle(shortTitles),
			Pages:    r.PageTotal(),
			Note:     note,
			Source:   src,
			Progress: p,
			Err:      err,
		}
	}
	return rows
}

// Render writes rows as a table.
func Render(w io.Writer, rows []Row, opts Options) {
	opts = opts.withDefaults()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Author", "Title", "Pages", "N", "S", "Progress", "%"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})

	for _, r := range rows {
		bar, pct := "n/a", "-"
		if r.Err == nil {
			bar = Bar(r.Progress, opts.BarWidth, opts.Palette)
			pct = fmt.Sprintf("%d", r.Progress.Current)
		}
		t.AppendRow(table.Row{
			r.Index,
			runewidth.Truncate(r.Author, opts.AuthorWidth, "..."),
			runewidth.Truncate(r.Title, opts.TitleWidth, "..."),
			r.Pages,
			Marker(r.Note),
			Marker(r.Source),
			bar,
			pct,
		})
	}

	t.Render()
}

// Marker returns the single-character symbol for a file state.
func Marker(s catalog.FileState) string {
	switch s {
	case catalog.FilePresent:
		return "◆"
	case catalog.FileMissing:
		return "?"
	default:
		return "✗"
	}
}

// Bar draws a progress bar of the given inner width: '=' for pages read,
// '-' for pages planned but not read yet, '.' for the rest. The plan part
// is capped at the full width.
func Bar(p record.Progress, width int, pal Palette) string {
	if width < 1 {
		width = 1
	}
	read := min(max(p.Current, 0), 100) * width / 100
	planned := max(p.PlanClamped()*width/100-read, 0)
	rest := width - read - planned

	var b strings.Builder
	b.WriteByte('|')
	b.WriteString(paint(strings.Repeat("=", read), readColor(p.Current, pal), pal))
	b.WriteString(paint(strings.Repeat("-", planned), ansiPlan, pal))
	b.WriteString(strings.Repeat(".", rest))
	b.WriteByte('|')
	return b.String()
}

func paint(s, color string, pal Palette) string {
	if pal == PaletteNone || s == "" {
		return s
	}
	return color + s + ansiReset
}

func readColor(pct int, pal Palette) string {
	if pal != Palette256 {
		return ansiRead8
	}
	i := min(max(pct, 0), 100) * (len(gradient256) - 1) / 100
	return fmt.Sprintf("\033[38;5;%dm", gradient256[i])
}
