package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Strob0t/planforge/internal/domain/run"
)

// Output formats accepted by --output.
const (
	formatAuto   = "auto"
	formatText   = "text"
	formatJSON   = "json"
	formatStyled = "styled"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// resolveFormat maps the --output flag to a concrete format. auto picks the
// styled rendering when w is a terminal and plain text otherwise.
func resolveFormat(flag string, w io.Writer) (string, error) {
	switch strings.ToLower(flag) {
	case formatAuto, "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: fd fits in int
			return formatStyled, nil
		}
		return formatText, nil
	case formatText:
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q: must be auto, text or json", flag)
}

func renderReport(w io.Writer, rep *run.Report, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case formatStyled:
		return renderStyled(w, rep)
	default:
		_, err := io.WriteString(w, rep.String())
		return err
	}
}

func renderStyled(w io.Writer, rep *run.Report) error {
	var b strings.Builder
	for i := range rep.Entries {
		e := &rep.Entries[i]
		b.WriteString(headerStyle.Render("Planner "+e.Solver+":") + "\n")

		body := e.Outcome.String()
		if !e.Outcome.OK() {
			body = failureStyle.Render(strings.TrimSuffix(body, "\n")) + "\n"
		}
		b.WriteString(body)

		meta := e.Duration.Round(time.Millisecond).String()
		if e.Cached {
			meta += ", cached"
		}
		b.WriteString(dimStyle.Render("("+meta+")") + "\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
