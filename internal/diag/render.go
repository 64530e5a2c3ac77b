package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// RenderLine writes the single human-facing line spec.md §6 requires:
// "one line keyed by a source location" — plus the code (bold red) and
// phase (cyan) and,
// if present, a suggested fix. Structured detail beyond this line belongs
// in the Report's JSON form (see ToJSON), not on the terminal.
func RenderLine(w io.Writer, r *Report) {
	loc := "?"
	if r.Pos != nil {
		loc = r.Pos.String()
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", bold(loc), red(r.Code), cyan(r.Phase), r.Message)
	if r.Fix != nil && r.Fix.Suggestion != "" {
		fmt.Fprintf(w, "  %s %s\n", yellow("fix:"), r.Fix.Suggestion)
	}
}
