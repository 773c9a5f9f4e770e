package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/vvka-141/reviewseed/pkg/reviewseed"
)

// WriteLoadSummary reports a committed load. The plain form is one stable
// line suitable for scripts; the styled form is a bordered panel.
func WriteLoadSummary(w io.Writer, bankName string, result reviewseed.LoadResult, styled bool) {
	if !styled {
		fmt.Fprintf(w, "Inserted %d reviews into the Reviews table (bank_id=%d, total rows: %d).\n",
			result.Inserted, result.BankID, result.CountAfter)
		return
	}

	rows := [][2]string{
		{"Bank", fmt.Sprintf("%s (id %d)", bankName, result.BankID)},
		{"Inserted", fmt.Sprintf("%d", result.Inserted)},
		{"Rows", fmt.Sprintf("%d %s %d", result.CountBefore, SymbolArrowRight, result.CountAfter)},
		{"Elapsed", result.Elapsed.Round(time.Millisecond).String()},
		{"Run", result.RunID},
	}
	header := SuccessStyle.Render(SymbolCheck + " Load committed")
	fmt.Fprintln(w, BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, "", renderRows(rows))))
}

// WriteCountSummary reports the reviews row count.
func WriteCountSummary(w io.Writer, result reviewseed.CountResult, styled bool) {
	if !styled {
		if result.BankName != "" {
			fmt.Fprintf(w, "%d\t%s\n", result.BankTotal, result.BankName)
		}
		fmt.Fprintf(w, "%d\ttotal\n", result.Total)
		return
	}

	rows := [][2]string{{"Total", fmt.Sprintf("%d", result.Total)}}
	if result.BankName != "" {
		rows = append(rows, [2]string{"Bank", fmt.Sprintf("%d  %s (id %d)", result.BankTotal, result.BankName, result.BankID)})
	}
	fmt.Fprintln(w, BoxStyle.Render(renderRows(rows)))
}

func renderRows(rows [][2]string) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, LabelStyle.Render(r[0])+ValueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}
