package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/readmana/internal"
)

func main() {
	cmd := &cli.Command{
		Name:   "readmana",
		Usage:  "Track reading progress, schedules and notes for a personal library",
		Writer: os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "$XDG_CONFIG_HOME/readmana/config.yaml",
				Value:       internal.DefaultConfigPath(),
				Sources:     cli.EnvVars(internal.EnvConfigPath),
			},
		},
		Commands: []*cli.Command{
			initCommand(),
			listCommand(),
			showCommand(),
			findCommand(),
			tagsCommand(),
			newCommand(),
			setCommand(),
			pageCommand(),
			dateCommand(),
			tagCommand(),
			remarkCommand(),
			readCommand(),
			openCommand(),
			archiveCommand(),
			unarchiveCommand(),
			searchCommand(),
			watchCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
