package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/stats"
)

// listCmd shows stored sessions, newest first.
func listCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List sessions, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by session type (push|pull|legs_core|murph|run)"},
			&cli.BoolFlag{Name: "drafts", Usage: "Only unfinished sessions"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum sessions to show"},
		},
		Action: func(c *cli.Context) error {
			typ := models.SessionType(c.String("type"))
			if typ != "" && !typ.Valid() {
				return cli.Exit(fmt.Sprintf("unknown session type %q", typ), 1)
			}
			sessions := env.manager.Sessions()
			sort.SliceStable(sessions, func(i, j int) bool {
				return sessions[i].Date.After(sessions[j].Date.Time)
			})
			limit := c.Int("limit")
			shown := 0
			for _, s := range sessions {
				if typ != "" && s.Type != typ {
					continue
				}
				if c.Bool("drafts") && s.Completed {
					continue
				}
				if limit > 0 && shown >= limit {
					break
				}
				env.printSessionRow(s)
				shown++
			}
			if shown == 0 {
				fmt.Fprintln(env.out, "no sessions")
			}
			return nil
		},
	}
}

func showCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one session in full",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Raw JSON instead of the formatted view"},
		},
		Action: func(c *cli.Context) error {
			id, err := env.resolveID(c.Args().First())
			if err != nil {
				return err
			}
			sess, _ := env.manager.Get(id)
			if c.Bool("json") {
				return outputJSON(env.out, sess)
			}
			fmt.Fprint(env.out, env.renderSession(*sess))
			return nil
		},
	}
}

func startCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Start a session and make it the open draft",
		ArgsUsage: "<push|pull|legs_core|murph|run>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "lite", Usage: "Murph Lite: 25 minute cap, uncapped rounds"},
			&cli.BoolFlag{Name: "vest", Usage: "Murph with a weight vest"},
			&cli.Float64Flag{Name: "vest-kg", Usage: "Vest weight in kg"},
		},
		Action: func(c *cli.Context) error {
			typ := models.SessionType(c.Args().First())
			if !typ.Valid() {
				return cli.Exit("give a session type: push, pull, legs_core, murph, or run", 1)
			}
			var (
				sess *models.Session
				err  error
			)
			if typ == models.TypeMurph {
				opts := session.MurphOptions{Lite: c.Bool("lite"), WeightVest: c.Bool("vest")}
				if c.IsSet("vest-kg") {
					kg := c.Float64("vest-kg")
					opts.WeightVest = true
					opts.WeightVestKg = &kg
				}
				sess, err = env.manager.StartMurph(c.Context, opts)
			} else {
				sess, err = env.manager.Start(c.Context, typ)
			}
			if err != nil {
				return err
			}
			env.saveState(func(st *cliState) { st.ActiveID = sess.ID; st.Undo = nil })
			fmt.Fprint(env.out, env.renderSession(*sess))
			return nil
		},
	}
}

func resumeCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Pick a draft back up where it was left",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := env.resolveID(c.Args().First())
			if err != nil {
				return err
			}
			sess, err := env.manager.Resume(c.Context, id)
			if err != nil {
				return err
			}
			env.saveState(func(st *cliState) { st.ActiveID = sess.ID })
			fmt.Fprint(env.out, env.renderSession(*sess))
			return nil
		},
	}
}

func cancelCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Put the open draft aside, keeping it for a later resume",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "purge", Usage: "Also delete the draft"},
		},
		Action: func(c *cli.Context) error {
			if _, err := env.activate(c.Context); err != nil {
				return err
			}
			sess, err := env.manager.Cancel(c.Context, c.Bool("purge"))
			if err != nil {
				return err
			}
			env.saveState(func(st *cliState) { st.ActiveID = ""; st.Undo = nil })
			if c.Bool("purge") {
				fmt.Fprintf(env.out, "canceled and deleted %s %s\n", sess.Type, shortID(sess.ID))
				return nil
			}
			fmt.Fprintf(env.out, "canceled %s %s, resume with 'liftlog resume %s'\n",
				sess.Type, shortID(sess.ID), shortID(sess.ID))
			return nil
		},
	}
}

func finishCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "finish",
		Usage: "Complete the open draft and compute totals",
		Action: func(c *cli.Context) error {
			if _, err := env.activate(c.Context); err != nil {
				return err
			}
			sess, err := env.manager.Finalize(c.Context)
			if err != nil {
				return err
			}
			env.saveState(func(st *cliState) { st.ActiveID = ""; st.Undo = nil })
			fmt.Fprint(env.out, env.renderSession(*sess))
			return nil
		},
	}
}

func deleteCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a session permanently",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := env.resolveID(c.Args().First())
			if err != nil {
				return err
			}
			if err := env.manager.Delete(c.Context, id); err != nil {
				return err
			}
			env.saveState(func(st *cliState) {
				if st.ActiveID == id {
					st.ActiveID = ""
				}
				if st.Undo != nil && st.Undo.SessionID == id {
					st.Undo = nil
				}
			})
			fmt.Fprintf(env.out, "deleted %s\n", shortID(id))
			return nil
		},
	}
}

func exerciseCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "exercise",
		Usage: "Edit the open draft's exercise list",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Append an exercise with a 3-set skeleton",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "variation", Aliases: []string{"v"}, Usage: "Variation, tracked separately in history"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("exercise name is required", 1)
					}
					if _, err := env.activate(c.Context); err != nil {
						return err
					}
					sess, err := env.manager.AddExercise(c.Context, strings.Join(c.Args().Slice(), " "), c.String("variation"))
					if err != nil {
						return err
					}
					fmt.Fprint(env.out, env.renderSession(*sess))
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove the exercise at a position, as numbered by show",
				ArgsUsage: "<position>",
				Action: func(c *cli.Context) error {
					pos, err := argPosition(c, 0, "exercise position")
					if err != nil {
						return err
					}
					if _, err := env.activate(c.Context); err != nil {
						return err
					}
					sess, err := env.manager.RemoveExercise(c.Context, pos-1)
					if errors.Is(err, session.ErrIndexOutOfRange) {
						return cli.Exit(fmt.Sprintf("no exercise %d in the open session", pos), 1)
					}
					if err != nil {
						return err
					}
					fmt.Fprint(env.out, env.renderSession(*sess))
					return nil
				},
			},
		},
	}
}

func setCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Edit sets in the open draft",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Append a blank set to an exercise",
				ArgsUsage: "<exercise>",
				Action: func(c *cli.Context) error {
					pos, err := argPosition(c, 0, "exercise position")
					if err != nil {
						return err
					}
					if _, err := env.activate(c.Context); err != nil {
						return err
					}
					sess, err := env.manager.AddSet(c.Context, pos-1)
					if errors.Is(err, session.ErrIndexOutOfRange) {
						return cli.Exit(fmt.Sprintf("no exercise %d in the open session", pos), 1)
					}
					if err != nil {
						return err
					}
					fmt.Fprint(env.out, env.renderSession(*sess))
					return nil
				},
			},
			{
				Name:      "edit",
				Usage:     "Write one set's weight, reps, or notes",
				ArgsUsage: "<exercise> <set>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "weight", Aliases: []string{"w"}, Usage: "Weight in kg, comma or dot decimals; empty clears"},
					&cli.StringFlag{Name: "reps", Aliases: []string{"r"}, Usage: "Rep count; empty clears"},
					&cli.StringFlag{Name: "notes", Usage: "Free-text note on the set"},
				},
				Action: func(c *cli.Context) error {
					exPos, err := argPosition(c, 0, "exercise position")
					if err != nil {
						return err
					}
					setPos, err := argPosition(c, 1, "set position")
					if err != nil {
						return err
					}
					var in session.UpdateSetInput
					if c.IsSet("weight") {
						v := c.String("weight")
						in.Weight = &v
					}
					if c.IsSet("reps") {
						v := c.String("reps")
						in.Reps = &v
					}
					if c.IsSet("notes") {
						v := c.String("notes")
						in.Notes = &v
					}
					if in.Weight == nil && in.Reps == nil && in.Notes == nil {
						return cli.Exit("nothing to change, give --weight, --reps, or --notes", 1)
					}
					if _, err := env.activate(c.Context); err != nil {
						return err
					}
					sess, err := env.manager.UpdateSet(c.Context, exPos-1, setPos-1, in)
					if errors.Is(err, session.ErrIndexOutOfRange) {
						return cli.Exit(fmt.Sprintf("no set %d/%d in the open session", exPos, setPos), 1)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(env.out, "%d) %s\n", setPos, formatSet(sess.Exercises[exPos-1].Sets[setPos-1]))
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove one set, undoable for a few seconds",
				ArgsUsage: "<exercise> <set>",
				Action: func(c *cli.Context) error {
					exPos, err := argPosition(c, 0, "exercise position")
					if err != nil {
						return err
					}
					setPos, err := argPosition(c, 1, "set position")
					if err != nil {
						return err
					}
					if _, err := env.activate(c.Context); err != nil {
						return err
					}
					_, deadline, err := env.manager.RemoveSet(c.Context, exPos-1, setPos-1)
					if errors.Is(err, session.ErrIndexOutOfRange) {
						return cli.Exit(fmt.Sprintf("no set %d/%d in the open session", exPos, setPos), 1)
					}
					if err != nil {
						return err
					}
					if u, ok := env.manager.PendingUndo(); ok {
						env.saveState(func(st *cliState) { st.Undo = &u })
					}
					fmt.Fprintf(env.out, "set removed, 'liftlog set undo' restores it until %s\n",
						deadline.In(time.Local).Format("15:04:05"))
					return nil
				},
			},
			{
				Name:  "undo",
				Usage: "Restore the last removed set",
				Action: func(c *cli.Context) error {
					pending := env.state.read().Undo
					if pending == nil {
						if u, ok := env.manager.PendingUndo(); ok {
							pending = &u
						}
					}
					if pending == nil {
						return cli.Exit("nothing to undo", 1)
					}
					if _, err := env.activate(c.Context); err != nil {
						return err
					}
					if err := env.manager.SeedUndo(*pending); err != nil {
						env.saveState(func(st *cliState) { st.Undo = nil })
						return err
					}
					sess, err := env.manager.UndoRemoveSet(c.Context)
					env.saveState(func(st *cliState) { st.Undo = nil })
					if err != nil {
						return err
					}
					fmt.Fprint(env.out, env.renderSession(*sess))
					return nil
				},
			},
		},
	}
}

func lastCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "last",
		Usage:     "Show the previous logged set for an exercise",
		ArgsUsage: "<exercise name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "Session type to search (push|pull|legs_core)"},
			&cli.StringFlag{Name: "variation", Aliases: []string{"v"}, Usage: "Exercise variation"},
			&cli.IntFlag{Name: "set", Value: 1, Usage: "Set position within the exercise"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("exercise name is required", 1)
			}
			typ := models.SessionType(c.String("type"))
			if !typ.IsStrength() {
				return cli.Exit("type must be push, pull, or legs_core", 1)
			}
			setPos := c.Int("set")
			if setPos < 1 {
				return cli.Exit("set position must be at least 1", 1)
			}
			name := strings.Join(c.Args().Slice(), " ")
			set := stats.FindLastSet(env.manager.Sessions(), typ, name, c.String("variation"), setPos-1, "")
			if set == nil {
				fmt.Fprintln(env.out, "no previous set")
				return nil
			}
			fmt.Fprintf(env.out, "%s, from %s\n", formatSet(*set), localDate(set.CreatedAt))
			return nil
		},
	}
}

func runCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run logging",
		Subcommands: []*cli.Command{
			{
				Name:      "log",
				Usage:     "Record a finished run",
				ArgsUsage: "<km> <duration>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "Session date (YYYY-MM-DD), default today"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() < 2 {
						return cli.Exit("usage: liftlog run log <km> <duration>, e.g. 5,2 26:30", 1)
					}
					total, err := parseClock(c.Args().Get(1))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					when, err := argDate(c.String("date"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					sess, pace, err := env.manager.SaveRun(c.Context, session.RunInput{
						Distance: c.Args().Get(0),
						Minutes:  strconv.Itoa(total / 60),
						Seconds:  strconv.Itoa(total % 60),
						When:     when,
					})
					if err != nil {
						return err
					}
					r := sess.RunData
					fmt.Fprintf(env.out, "run saved: %s km in %s (%s)\n",
						formatKg(r.Distance), formatClock(r.Duration), pace)
					return nil
				},
			},
		},
	}
}

func murphCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "murph",
		Usage: "Murph logging",
		Subcommands: []*cli.Command{
			{
				Name:  "log",
				Usage: "Record a finished murph without the live timer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "time", Required: true, Usage: "Total time, M:SS or H:MM:SS"},
					&cli.IntFlag{Name: "rounds", Usage: "Completed rounds"},
					&cli.BoolFlag{Name: "lite", Usage: "Lite mode: 25 minute cap, uncapped rounds"},
					&cli.BoolFlag{Name: "vest", Usage: "Worn weight vest"},
					&cli.Float64Flag{Name: "vest-kg", Usage: "Vest weight in kg"},
					&cli.StringFlag{Name: "date", Usage: "Session date (YYYY-MM-DD), default today"},
				},
				Action: func(c *cli.Context) error {
					total, err := parseClock(c.String("time"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					when, err := argDate(c.String("date"))
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					// An untimed murph draft is absorbed, but only the one
					// the CLI would operate on anyway.
					if st := env.state.read(); st.ActiveID != "" {
						if s, ok := env.manager.Get(st.ActiveID); ok && !s.Completed && s.Type == models.TypeMurph {
							_, _ = env.manager.Resume(c.Context, s.ID)
						}
					}
					in := session.MurphLog{
						Rounds:    c.Int("rounds"),
						TotalTime: total,
						Lite:      c.Bool("lite"),
						Vest:      c.Bool("vest"),
						When:      when,
					}
					if c.IsSet("vest-kg") {
						kg := c.Float64("vest-kg")
						in.Vest = true
						in.VestKg = &kg
					}
					sess, err := env.manager.LogMurph(c.Context, in)
					if err != nil {
						return err
					}
					env.saveState(func(st *cliState) {
						if st.ActiveID == sess.ID {
							st.ActiveID = ""
						}
					})
					fmt.Fprint(env.out, env.renderSession(*sess))
					return nil
				},
			},
		},
	}
}

// argPosition parses a 1-based position argument.
func argPosition(c *cli.Context, i int, what string) (int, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, cli.Exit(what+" is required", 1)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, cli.Exit(fmt.Sprintf("%s must be a positive number, got %q", what, raw), 1)
	}
	return n, nil
}

// parseClock parses a duration given as M:SS, H:MM:SS, or bare minutes,
// returning total seconds.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration is required")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("duration %q is not M:SS or H:MM:SS", s)
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (i > 0 && n > 59) {
			return 0, fmt.Errorf("duration %q is not M:SS or H:MM:SS", s)
		}
		total = total*60 + n
	}
	if len(parts) == 1 {
		total *= 60
	}
	return total, nil
}

// argDate parses a YYYY-MM-DD flag into local noon; noon keeps the entry
// on the intended calendar day across DST changes. Empty means now.
func argDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(models.DateOnlyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD, got %q", s)
	}
	return d.Add(12 * time.Hour), nil
}
