package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/stats"
)

// A restrained palette: one accent for headers, muted gray for identifiers
// and labels, and the four-step green scale the heatmap shares with the
// web frontend.
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	draftStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	levelStyles = [4]lipgloss.Style{
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("65")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("71")),
		lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
	}

	typeStyles = map[models.SessionType]lipgloss.Style{
		models.TypePush:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		models.TypePull:     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		models.TypeLegsCore: lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		models.TypeMurph:    lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		models.TypeRun:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// levelGlyphs are the four intensity buckets as block characters, readable
// with and without color.
var levelGlyphs = [4]string{"·", "░", "▒", "█"}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// paint applies st when styled output is on, else returns s unchanged.
func (e *cliEnv) paint(st lipgloss.Style, s string) string {
	if !e.styled {
		return s
	}
	return st.Render(s)
}

// formatKg renders a weight without trailing zeros: 80, 82.5.
func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatClock renders seconds as M:SS, or H:MM:SS past the hour.
func formatClock(totalSec int) string {
	if totalSec < 0 {
		totalSec = 0
	}
	h := totalSec / 3600
	m := totalSec % 3600 / 60
	s := totalSec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func localDate(t models.Time) string {
	return t.In(time.Local).Format(models.DateOnlyLayout)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusWord(s models.Session) string {
	if s.Completed {
		return "done"
	}
	return "draft"
}

// formatSet renders one set's logged values, "-" while still blank.
func formatSet(set models.Set) string {
	var parts []string
	if set.WeightKg != nil {
		parts = append(parts, formatKg(*set.WeightKg)+" kg")
	}
	if set.Reps != nil {
		parts = append(parts, fmt.Sprintf("x %d", *set.Reps))
	}
	if len(parts) == 0 {
		parts = append(parts, "-")
	}
	if set.Notes != "" {
		parts = append(parts, "("+set.Notes+")")
	}
	return strings.Join(parts, " ")
}

// summarize renders the type-specific half of a list row.
func summarize(s models.Session) string {
	switch {
	case s.Type == models.TypeMurph && s.MurphData != nil:
		d := s.MurphData
		parts := []string{fmt.Sprintf("%d rounds", d.Rounds)}
		if d.TotalTime != nil {
			parts = append(parts, formatClock(*d.TotalTime))
		}
		if d.IsLite {
			parts = append(parts, "lite")
		}
		if d.WeightVest {
			v := "vest"
			if d.WeightVestKg != nil {
				v = fmt.Sprintf("vest %s kg", formatKg(*d.WeightVestKg))
			}
			parts = append(parts, v)
		}
		return strings.Join(parts, ", ")
	case s.Type == models.TypeRun && s.RunData != nil:
		r := s.RunData
		if r.Distance <= 0 {
			return "not logged yet"
		}
		return fmt.Sprintf("%s km in %s (%s)", formatKg(r.Distance), formatClock(r.Duration), session.Pace(r.Distance, r.Duration))
	default:
		if s.Totals != nil {
			return fmt.Sprintf("%d exercises, %d sets, %s kg", len(s.Exercises), s.Totals.SetCount, formatKg(s.Totals.VolumeKg))
		}
		logged := 0
		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				if set.WeightKg != nil || set.Reps != nil {
					logged++
				}
			}
		}
		return fmt.Sprintf("%d exercises, %d sets logged", len(s.Exercises), logged)
	}
}

// printSessionRow writes one list line: date, type, status, summary, id.
func (e *cliEnv) printSessionRow(s models.Session) {
	st := draftStyle
	if s.Completed {
		st = successStyle
	}
	fmt.Fprintf(e.out, "%s  %-9s  %s  %-40s  %s\n",
		localDate(s.Date),
		s.Type,
		e.paint(st, fmt.Sprintf("%-5s", statusWord(s))),
		summarize(s),
		e.paint(mutedStyle, shortID(s.ID)))
}

// renderSession writes the full detail view for one session.
func (e *cliEnv) renderSession(s models.Session) string {
	var b strings.Builder
	st := draftStyle
	if s.Completed {
		st = successStyle
	}
	fmt.Fprintf(&b, "%s %s %s %s\n",
		e.paint(headerStyle, string(s.Type)),
		localDate(s.Date),
		e.paint(st, statusWord(s)),
		e.paint(mutedStyle, shortID(s.ID)))
	switch {
	case s.Type == models.TypeMurph && s.MurphData != nil,
		s.Type == models.TypeRun && s.RunData != nil:
		fmt.Fprintf(&b, "  %s\n", summarize(s))
	default:
		for i, ex := range s.Exercises {
			name := ex.Name
			if ex.Variation != "" {
				name += " (" + ex.Variation + ")"
			}
			hint := ""
			if ex.TargetRepHint != "" {
				hint = " " + e.paint(mutedStyle, "["+ex.TargetRepHint+"]")
			}
			fmt.Fprintf(&b, "  %2d. %s%s\n", i+1, name, hint)
			for j, set := range ex.Sets {
				fmt.Fprintf(&b, "      %d) %s\n", j+1, formatSet(set))
			}
		}
		if s.Totals != nil {
			fmt.Fprintf(&b, "  %s %s kg over %d sets\n",
				e.paint(labelStyle, "total"), formatKg(s.Totals.VolumeKg), s.Totals.SetCount)
		}
	}
	return b.String()
}

// renderSummary writes the stats block for one trailing window.
func (e *cliEnv) renderSummary(sum stats.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", e.paint(headerStyle, fmt.Sprintf("Training, last %d days", sum.WindowDays)))
	fmt.Fprintf(&b, "%s %d\n", e.paint(labelStyle, "sessions"), sum.SessionCount)
	fmt.Fprintf(&b, "%s %s kg\n", e.paint(labelStyle, "volume  "), formatKg(sum.VolumeKg))
	fmt.Fprintf(&b, "%s %d\n", e.paint(labelStyle, "sets    "), sum.SetCount)
	if len(sum.Split) > 0 {
		parts := make([]string, 0, len(sum.Split))
		for _, sh := range sum.Split {
			parts = append(parts, fmt.Sprintf("%s %d%%", sh.Type, sh.Pct))
		}
		fmt.Fprintf(&b, "%s %s\n", e.paint(labelStyle, "split   "), strings.Join(parts, "  "))
	}
	fmt.Fprintf(&b, "%s %d sessions\n", e.paint(labelStyle, "all time"), sum.TotalSessions)
	return b.String()
}

// renderSplit writes one bar per session type, ordered by share.
func (e *cliEnv) renderSplit(shares []stats.SplitShare) string {
	if len(shares) == 0 {
		return "no completed sessions in window\n"
	}
	var b strings.Builder
	for _, sh := range shares {
		style, ok := typeStyles[sh.Type]
		if !ok {
			style = labelStyle
		}
		fmt.Fprintf(&b, "%-9s  %3d  %3d%%  %s\n",
			sh.Type, sh.Count, sh.Pct, e.paint(style, bar(float64(sh.Pct)/100, 24)))
	}
	return b.String()
}

// renderHeatmap writes the contribution-calendar view, one row per weekday
// and one column per week, plus the intensity legend.
func (e *cliEnv) renderHeatmap(days []stats.HeatmapDay) string {
	grid := heatmapGrid(days)
	if grid == nil {
		return "no data\n"
	}
	var b strings.Builder
	for r := 0; r < 7; r++ {
		b.WriteString(e.paint(labelStyle, weekdayLabels[r]))
		for _, level := range grid[r] {
			if level < 0 {
				b.WriteString("  ")
				continue
			}
			b.WriteString(" " + e.paint(levelStyles[level], levelGlyphs[level]))
		}
		b.WriteString("\n")
	}
	b.WriteString(e.paint(labelStyle, "less"))
	for l := 0; l < 4; l++ {
		b.WriteString(" " + e.paint(levelStyles[l], levelGlyphs[l]))
	}
	b.WriteString(" " + e.paint(labelStyle, "more") + "\n")
	return b.String()
}

// renderProgression writes one bar per charted session, scaled to the top
// weight in the window.
func (e *cliEnv) renderProgression(name string, points []stats.ProgressionPoint) string {
	if len(points) == 0 {
		return fmt.Sprintf("no logged weights for %s in window\n", name)
	}
	maxW := 0.0
	for _, p := range points {
		if p.MaxWeight > maxW {
			maxW = p.MaxWeight
		}
	}
	var b strings.Builder
	for _, p := range points {
		frac := 0.0
		if maxW > 0 {
			frac = p.MaxWeight / maxW
		}
		fmt.Fprintf(&b, "%s  %6s kg  %s\n",
			p.Date, formatKg(p.MaxWeight), e.paint(successStyle, bar(frac, 30)))
	}
	return b.String()
}

// heatmapGrid lays the day sequence out in Monday-first week columns, the
// way contribution calendars do. Cells before the first day are -1.
func heatmapGrid(days []stats.HeatmapDay) [][]int {
	if len(days) == 0 {
		return nil
	}
	first, err := time.Parse(models.DateOnlyLayout, days[0].Date)
	if err != nil {
		return nil
	}
	offset := mondayIndex(first.Weekday())
	weeks := (offset + len(days) + 6) / 7
	grid := make([][]int, 7)
	for r := range grid {
		grid[r] = make([]int, weeks)
		for c := range grid[r] {
			grid[r][c] = -1
		}
	}
	for i, d := range days {
		pos := offset + i
		grid[pos%7][pos/7] = d.Level
	}
	return grid
}

// mondayIndex maps a weekday to its grid row, Monday first.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// bar renders a proportional block bar of at most width cells. Any nonzero
// share shows at least one cell.
func bar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	n := int(math.Round(frac * float64(width)))
	if n == 0 && frac > 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
