package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/claude/liftlog/internal/backup"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/templates"
)

func statsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Training summary over a window",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 30, Usage: "Window size in days"},
		},
		Action: func(c *cli.Context) error {
			days := c.Int("days")
			if days < 1 {
				return cli.Exit("days must be at least 1", 1)
			}
			sum := stats.Summarize(env.manager.Sessions(), time.Now(), days)
			fmt.Fprint(env.out, env.renderSummary(sum))
			return nil
		},
	}
}

func splitCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "split",
		Usage: "Session count per type over a window",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 30, Usage: "Window size in days"},
		},
		Action: func(c *cli.Context) error {
			days := c.Int("days")
			if days < 1 {
				return cli.Exit("days must be at least 1", 1)
			}
			shares := stats.SplitDistribution(env.manager.Sessions(), time.Now(), days)
			fmt.Fprint(env.out, env.renderSplit(shares))
			return nil
		},
	}
}

func heatmapCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "heatmap",
		Usage: "Calendar heatmap of completed sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 84, Usage: "Days to cover, ending today"},
		},
		Action: func(c *cli.Context) error {
			days := c.Int("days")
			if days < 1 {
				return cli.Exit("days must be at least 1", 1)
			}
			cells := stats.Heatmap(env.manager.Sessions(), time.Now(), days)
			fmt.Fprint(env.out, env.renderHeatmap(cells))
			return nil
		},
	}
}

func progressionCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "progression",
		Usage:     "Heaviest logged weight per day for one exercise",
		ArgsUsage: "<exercise name>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: 90, Usage: "Window size in days"},
			&cli.IntFlag{Name: "points", Value: 10, Usage: "Most recent points to chart"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("exercise name is required", 1)
			}
			days := c.Int("days")
			if days < 1 {
				return cli.Exit("days must be at least 1", 1)
			}
			name := strings.Join(c.Args().Slice(), " ")
			points := stats.ExerciseProgression(env.manager.Sessions(), name, time.Now(), days)
			points = stats.ChartPoints(points, c.Int("points"))
			fmt.Fprint(env.out, env.renderProgression(name, points))
			return nil
		},
	}
}

func templatesCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "Show the exercises each strength type starts with",
		Action: func(c *cli.Context) error {
			for i, typ := range templates.Types() {
				if i > 0 {
					fmt.Fprintln(env.out)
				}
				fmt.Fprintln(env.out, env.paint(headerStyle, string(typ)))
				entries, err := templates.Describe(typ)
				if err != nil {
					return err
				}
				for _, e := range entries {
					hint := ""
					if e.TargetRepHint != "" {
						hint = "  " + env.paint(mutedStyle, e.TargetRepHint)
					}
					fmt.Fprintf(env.out, "  %-20s %d sets%s\n", e.Name, e.SetCount, hint)
				}
			}
			return nil
		},
	}
}

func exportCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a dated backup of every session",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "stdout", Usage: "Write the backup JSON to stdout instead of a file"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("stdout") {
				data, _, err := env.backup.Payload()
				if err != nil {
					return err
				}
				_, err = env.out.Write(data)
				return err
			}
			path, err := env.backup.Export(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.out, path)
			return nil
		},
	}
}

func importCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load sessions from a backup file, '-' for stdin",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "merge", Usage: "merge keeps existing sessions, replace supersedes them"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("backup path is required, '-' reads stdin", 1)
			}
			mode := session.ImportMode(c.String("mode"))
			if mode != session.ImportMerge && mode != session.ImportReplace {
				return cli.Exit(fmt.Sprintf("mode must be merge or replace, got %q", mode), 1)
			}
			var (
				res *backup.Result
				err error
			)
			if path == "-" {
				data, readErr := io.ReadAll(os.Stdin)
				if readErr != nil {
					return readErr
				}
				res, err = env.backup.Import(c.Context, "stdin", data, mode)
			} else {
				res, err = env.backup.ImportFile(c.Context, path, mode)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(env.out, "imported %d sessions, skipped %d (%s)\n", res.Added, res.Skipped, res.Mode)
			return nil
		},
	}
}

func importsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "imports",
		Usage: "Show the import log, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum entries to show"},
		},
		Action: func(c *cli.Context) error {
			records, err := env.backup.History(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(env.out, "no imports yet")
				return nil
			}
			for _, rec := range records {
				status := env.paint(successStyle, rec.Status)
				if rec.Status != "success" {
					status = env.paint(errorStyle, rec.Status)
				}
				fmt.Fprintf(env.out, "%s  %s  %-7s  added %d, skipped %d  %s\n",
					rec.CreatedAt.In(time.Local).Format("2006-01-02 15:04"),
					status, rec.Mode, rec.SessionsAdded, rec.SessionsSkipped, rec.Source)
				if rec.ErrorMessage != nil {
					fmt.Fprintf(env.out, "    %s\n", *rec.ErrorMessage)
				}
			}
			return nil
		},
	}
}
