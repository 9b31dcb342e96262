package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/starford/readmana/internal"
	"github.com/starford/readmana/internal/apperr"
	"github.com/starford/readmana/internal/catalog"
	"github.com/starford/readmana/internal/opener"
	"github.com/starford/readmana/internal/presenter"
	"github.com/starford/readmana/internal/record"
	"github.com/starford/readmana/internal/storage"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default config and create the library directories",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			if err := internal.InitConfig(path, internal.NewDefaultConfig()); err != nil {
				return fmt.Errorf("init: %w", err)
			}
			fmt.Fprintf(writer(cmd), "config written to %s\n", path)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List records with their reading progress",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Usage: "title, author, modified or read", Value: string(catalog.SortModified)},
			&cli.BoolFlag{Name: "archived", Aliases: []string{"a"}, Usage: "list the archive instead"},
			&cli.BoolFlag{Name: "short", Usage: "prefer short titles"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, _, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			if err := c.SortBy(catalog.SortKey(cmd.String("sort"))); err != nil {
				return err
			}
			short := cmd.Bool("short")
			presenter.Render(writer(cmd), presenter.Rows(c, cmd.Bool("archived"), short), renderOptions(short))
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the tag set of a record",
		ArgsUsage: "N",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "archived", Aliases: []string{"a"}, Usage: "N refers to the archive"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, _, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			i, err := parseIndex(cmd, 0)
			if err != nil {
				return err
			}
			get := c.Record
			if cmd.Bool("archived") {
				get = c.ArchivedRecord
			}
			r, err := get(i)
			if err != nil {
				return err
			}

			w := writer(cmd)
			fmt.Fprintln(w, r.Path())
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(r.Snapshot()); err != nil {
				return err
			}
			if p, err := r.ComputeProgress(); err == nil {
				fmt.Fprintf(w, "read %d%%, schedule %d%%\n", p.Current, p.Plan)
			}
			return nil
		},
	}
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "List active records matching title, author or tags",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}},
			&cli.StringSliceFlag{Name: "tag", Usage: "may be repeated"},
			&cli.BoolFlag{Name: "any", Usage: "match any criterion instead of all"},
			&cli.BoolFlag{Name: "short", Usage: "prefer short titles"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, _, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			q := record.Query{
				Title:    cmd.String("title"),
				Author:   cmd.String("author"),
				Tags:     cmd.StringSlice("tag"),
				MatchAll: !cmd.Bool("any"),
			}
			active := c.Active()
			short := cmd.Bool("short")
			var rows []presenter.Row
			for _, row := range presenter.Rows(c, false, short) {
				if active[row.Index-1].Filter(q) {
					rows = append(rows, row)
				}
			}
			presenter.Render(writer(cmd), rows, renderOptions(short))
			return nil
		},
	}
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Print every label used in the library",
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, _, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			for _, t := range c.AllTags() {
				fmt.Fprintln(writer(cmd), t)
			}
			return nil
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a record dated today",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title"},
			&cli.StringFlag{Name: "author"},
			&cli.IntFlag{Name: "pages", Usage: "total page count"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, _, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			r, err := c.CreateRecord(cmd.Args().First())
			if err != nil {
				return err
			}
			for key, flag := range map[string]string{record.KeyTitle: "title", record.KeyAuthor: "author"} {
				if v := cmd.String(flag); v != "" {
					if err := r.Set(key, v); err != nil {
						return err
					}
				}
			}
			if pages := int(cmd.Int("pages")); pages > 0 {
				if err := r.UpdatePage(record.PageTotal, pages); err != nil {
					return err
				}
			}
			if err := r.Persist(false); err != nil {
				return err
			}
			fmt.Fprintln(writer(cmd), r.Path())
			return nil
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a tag; optional tags (" + strings.Join(record.OptionalKeys(), ", ") + ") are added when missing",
		ArgsUsage: "N KEY VALUE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 3 {
				return fmt.Errorf("set: want N KEY VALUE: %w", apperr.ErrValidation)
			}
			key := cmd.Args().Get(1)
			value := parseValue(key, cmd.Args().Get(2))
			return withRecord(cmd, func(_ *catalog.Catalog, r *record.Record) error {
				if !r.Has(key) && !record.IsRequired(key) {
					return r.Add(key, value)
				}
				return r.Set(key, value)
			})
		},
	}
}

func pageCommand() *cli.Command {
	return &cli.Command{
		Name:      "page",
		Usage:     "Set the current page, or the total with --total",
		ArgsUsage: "N VALUE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "total"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			kind := record.PageCurrent
			if cmd.Bool("total") {
				kind = record.PageTotal
			}
			value, err := parsePage(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			return withRecord(cmd, func(_ *catalog.Catalog, r *record.Record) error {
				return r.UpdatePage(kind, value)
			})
		},
	}
}

func dateCommand() *cli.Command {
	return &cli.Command{
		Name:      "date",
		Usage:     "Set the added or plan date; today when DATE is omitted",
		ArgsUsage: "N added|plan [DATE]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			kind := record.DateKind(cmd.Args().Get(1))
			date := cmd.Args().Get(2)
			return withRecord(cmd, func(_ *catalog.Catalog, r *record.Record) error {
				outcome, err := r.UpdateDate(kind, date)
				if err != nil {
					return err
				}
				if outcome == record.DateSkipped {
					fmt.Fprintf(writer(cmd), "plan date %q is not YYYY-MM-DD, left unchanged\n", date)
				}
				return nil
			})
		},
	}
}

func tagCommand() *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Add labels to a record, or remove them with --remove",
		ArgsUsage: "N TAG...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "remove", Aliases: []string{"r"}},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			tags := cmd.Args().Slice()
			if len(tags) < 2 {
				return fmt.Errorf("tag: want N TAG...: %w", apperr.ErrValidation)
			}
			return withRecord(cmd, func(_ *catalog.Catalog, r *record.Record) error {
				r.UpdateTag(tags[1:], !cmd.Bool("remove"))
				return nil
			})
		},
	}
}

func remarkCommand() *cli.Command {
	return &cli.Command{
		Name:      "remark",
		Usage:     "Add a remark dated today",
		ArgsUsage: "N TEXT...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			text := strings.Join(cmd.Args().Tail(), " ")
			return withRecord(cmd, func(_ *catalog.Catalog, r *record.Record) error {
				r.AddRemark(strings.TrimSpace(text))
				return nil
			})
		},
	}
}

func readCommand() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "Log a reading session ending on PAGE",
		ArgsUsage: "N PAGE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			page, err := parsePage(cmd.Args().Get(1))
			if err != nil {
				return err
			}
			return withRecord(cmd, func(_ *catalog.Catalog, r *record.Record) error {
				if err := r.UpdatePage(record.PageCurrent, page); err != nil {
					return err
				}
				r.UpdateLastRead()
				r.UpdateLog()
				return nil
			})
		},
	}
}

func openCommand() *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open the source file and the note of a record",
		ArgsUsage: "N",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-note", Usage: "open only the source"},
			&cli.BoolFlag{Name: "no-source", Usage: "open only the note"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
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

			var targets []opener.Target
			if !cmd.Bool("no-source") {
				if path, ok := catalog.SourcePathOf(r); ok && storage.FileExists(path) {
					targets = append(targets, opener.Target{Path: path, App: c.Opener(r.SourceExt())})
				}
			}
			if !cmd.Bool("no-note") {
				if path, ok := c.NotePathOf(r); ok && storage.FileExists(path) {
					typ, _ := r.NoteType()
					targets = append(targets, opener.Target{Path: path, App: c.Opener(typ)})
				}
			}
			if len(targets) == 0 {
				return fmt.Errorf("open: %s has no existing note or source: %w", r.Path(), apperr.ErrNotFound)
			}
			return opener.New(logger).Open(ctx, targets...)
		},
	}
}

func archiveCommand() *cli.Command {
	return archiveOpCommand("archive", "Move records to the archive", catalog.OpArchive)
}

func unarchiveCommand() *cli.Command {
	return archiveOpCommand("unarchive", "Move archived records back to the library", catalog.OpUnarchive)
}

func archiveOpCommand(name, usage string, op catalog.ArchiveOp) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "N...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, _, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			indices, err := parseIndices(cmd.Args().Slice())
			if err != nil {
				return err
			}
			return c.Archive(indices, op)
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over titles, authors, tags and remarks",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, logger, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			db, _, err := internal.OpenIndex(internal.NewConfig(c), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			hits, err := db.Search(strings.Join(cmd.Args().Slice(), " "), int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(writer(cmd))
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Title", "Author", "Archived", "Match", "Path"})
			for _, h := range hits {
				archived := ""
				if h.Archived {
					archived = "yes"
				}
				t.AppendRow(table.Row{h.Title, h.Author, archived, h.Snippet, h.Path})
			}
			t.Render()
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Keep the search index in step with the record directories",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, logger, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			opts := []internal.Option{
				internal.WithConfig(internal.NewConfig(c)),
				internal.WithLogger(logger),
				internal.WithEventCallback(func(kind, path string) {
					logger.Info("index updated", slog.String("event", kind), slog.String("path", path))
				}),
			}
			if err := internal.Run(ctx, opts...); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}
}
