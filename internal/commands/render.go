package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/crewledger/crewledger/internal/batch"
	"github.com/crewledger/crewledger/internal/matchlog"
	"github.com/crewledger/crewledger/internal/model"
	"github.com/crewledger/crewledger/internal/pipeline"
	"github.com/crewledger/crewledger/internal/store"
)

const (
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	okStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle  = lipgloss.NewStyle().Foreground(colorPeach)
	errStyle   = lipgloss.NewStyle().Foreground(colorRed)
	mutedStyle = lipgloss.NewStyle().Foreground(colorOverlay1)
)

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// table renders rows in aligned columns with a bold header.
func table(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, cell := range r {
			if cw := lipgloss.Width(cell); i < len(widths) && cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	line := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = padRight(style.Render(c), widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(header, titleStyle)
	for _, r := range rows {
		line(r, lipgloss.NewStyle())
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func entityLabel(pr *model.MatchCandidate) string {
	if pr == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%d)", pr.DisplayName, pr.Confidence)
}

func renderPreview(w io.Writer, p *pipeline.Preview) {
	fmt.Fprintln(w, titleStyle.Render("Preview of "+p.FileName))
	fmt.Fprintf(w, "%s %d  %s %d  %s %d  %s %d\n",
		labelStyle.Render("new"), len(p.UniqueRows),
		labelStyle.Render("duplicates"), p.DuplicateCount(),
		labelStyle.Render("unresolved"), len(p.UnresolvedEntities),
		labelStyle.Render("errors"), len(p.Errors))

	if len(p.UniqueRows) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, 0, len(p.UniqueRows))
		for _, r := range p.UniqueRows {
			var entity, project *model.MatchCandidate
			for _, pr := range r.Resolution.Pools {
				switch pr.Pool {
				case model.PoolProjects:
					project = pr.Active
				default:
					entity = pr.Active
				}
			}
			rows = append(rows, []string{
				fmt.Sprint(r.Row.Line),
				r.Row.Date.Format("2006-01-02"),
				r.Row.Amount.StringFixed(2),
				r.Row.Name,
				entityLabel(entity),
				entityLabel(project),
				r.Classification.Category,
			})
		}
		table(w, []string{"LINE", "DATE", "AMOUNT", "NAME", "ENTITY", "PROJECT", "CATEGORY"}, rows)
	}

	if len(p.InFileDuplicates) > 0 || len(p.HistoryDuplicates) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Duplicates"))
		for _, d := range p.InFileDuplicates {
			fmt.Fprintf(w, "  line %d  %s\n", d.Row.Line, mutedStyle.Render(d.Reason))
		}
		for _, d := range p.HistoryDuplicates {
			fmt.Fprintf(w, "  line %d  %s\n", d.Row.Line,
				mutedStyle.Render(fmt.Sprintf("already imported as %s in %s", d.Historical.ID, d.Historical.BatchID)))
		}
	}

	if len(p.UnresolvedEntities) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Unresolved entities"))
		for _, u := range p.UnresolvedEntities {
			var sugg []string
			for _, s := range u.Suggestions {
				sugg = append(sugg, fmt.Sprintf("%s [%s] %d", s.DisplayName, s.EntityID, s.Confidence))
			}
			hint := "no suggestions"
			if len(sugg) > 0 {
				hint = "suggest: " + strings.Join(sugg, ", ")
			}
			fmt.Fprintf(w, "  line %d  %s %q  %s\n", u.Line, u.Pool, u.Input, mutedStyle.Render(hint))
		}
	}

	if len(p.UnmappedCategories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Unmapped account paths"))
		for _, u := range p.UnmappedCategories {
			hint := ""
			if u.Suggestion != "" {
				hint = mutedStyle.Render("suggest: " + u.Suggestion)
			}
			fmt.Fprintf(w, "  %s  %d rows  %s  %s\n", warnStyle.Render(u.AccountPath), u.Count, u.TotalAmount.StringFixed(2), hint)
		}
	}

	if len(p.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Rejected rows"))
		for _, e := range p.Errors {
			fmt.Fprintln(w, "  "+errStyle.Render(e.Error()))
		}
	}

	fmt.Fprintln(w)
	rec := p.Reconciliation
	status := okStyle.Render("aligned")
	if !rec.IsAligned {
		status = errStyle.Render("MISMATCH")
	}
	fmt.Fprintf(w, "%s %s  %s %s  %s %s  %s\n",
		labelStyle.Render("existing"), rec.ExistingTotal.StringFixed(2),
		labelStyle.Render("file"), rec.DuplicateTotal.StringFixed(2),
		labelStyle.Render("difference"), rec.Difference.StringFixed(2),
		status)
}

func renderSummary(w io.Writer, s batch.Summary) {
	fmt.Fprintf(w, "%s %s: imported %d, %d duplicates, %d errors (%s)\n",
		okStyle.Render("Committed"), s.BatchID, s.ImportedCount, s.DuplicateCount, s.ErrorCount, s.Status)
}

func renderBatches(w io.Writer, batches []model.ImportBatch) {
	if len(batches) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No batches."))
		return
	}
	rows := make([][]string, 0, len(batches))
	for _, b := range batches {
		status := string(b.Status)
		if b.Status == model.BatchRolledBack {
			status = warnStyle.Render(status)
		}
		rows = append(rows, []string{
			b.ID,
			b.CreatedAt.Local().Format("2006-01-02 15:04"),
			b.SourceFile,
			fmt.Sprint(b.ImportedCount),
			fmt.Sprint(b.DuplicateCount),
			fmt.Sprint(b.ErrorCount),
			status,
		})
	}
	table(w, []string{"BATCH", "CREATED", "FILE", "IMPORTED", "DUPLICATES", "ERRORS", "STATUS"}, rows)
}

func renderBatchRows(w io.Writer, rows []model.CommittedRow) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		entity := "-"
		if r.EntityID != nil {
			entity = *r.EntityID
		}
		project := "-"
		if r.ProjectID != nil {
			project = *r.ProjectID
		}
		out = append(out, []string{r.ID, r.Date.Format("2006-01-02"), r.Amount.StringFixed(2), r.SourceName, entity, project, r.Category})
	}
	table(w, []string{"ID", "DATE", "AMOUNT", "NAME", "ENTITY", "PROJECT", "CATEGORY"}, out)
}

func renderMatchLog(w io.Writer, entries []matchlog.Entry) {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, []string{fmt.Sprint(e.Line), string(e.Pool), e.Input, e.EntityID, fmt.Sprint(e.Confidence), string(e.MatchType), string(e.Decision)})
	}
	table(w, []string{"LINE", "POOL", "INPUT", "ENTITY", "CONF", "TYPE", "DECISION"}, out)
}

func renderDuplicateGroups(w io.Writer, groups []store.DuplicateGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, okStyle.Render("No cross-batch duplicates."))
		return
	}
	for _, g := range groups {
		fmt.Fprintln(w, warnStyle.Render(g.Key))
		for _, r := range g.Rows {
			fmt.Fprintf(w, "  %s  %s  %s\n", r.ID, r.BatchID, r.Amount.StringFixed(2))
		}
	}
}
