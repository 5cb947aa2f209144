// Package report renders mismatches and the final verdict to the console.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tracediff/internal/trace"
)

type Style string

const (
	// StyleWindow prints a context window around the mismatch for both traces.
	StyleWindow Style = "window"
	// StyleAdjacent prints only the previous and the differing line.
	StyleAdjacent Style = "adjacent"
)

const (
	marker      = ">>> "
	indent      = "    "
	closingRule = "======================"
	adjacentSep = "---------------------------------"
)

func ParseStyle(raw string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StyleWindow:
		return StyleWindow, nil
	case StyleAdjacent:
		return StyleAdjacent, nil
	default:
		return "", fmt.Errorf("unknown report style %q (expected %s or %s)", raw, StyleWindow, StyleAdjacent)
	}
}

// Side is one of the two traces being reported.
type Side struct {
	Label string
	Lines trace.Trace
}

type Printer struct {
	Style  Style
	Radius int
	Out    io.Writer
}

func NewPrinter(style Style, radius int, out io.Writer) *Printer {
	return &Printer{Style: style, Radius: radius, Out: out}
}

// Mismatch writes the report block for m.
func (p *Printer) Mismatch(m trace.Mismatch, ref, cand Side) error {
	w := bufio.NewWriter(p.Out)
	switch p.Style {
	case StyleAdjacent:
		writeAdjacent(w, m, ref, cand)
	default:
		fmt.Fprintf(w, "Mismatch at line %d\n", m.Line())
		writeWindow(w, ref, trace.WindowAt(ref.Lines, m.Index, p.Radius))
		fmt.Fprintf(w, "%s\n\n", closingRule)
		writeWindow(w, cand, trace.WindowAt(cand.Lines, m.Index, p.Radius))
		fmt.Fprintln(w, closingRule)
	}
	return w.Flush()
}

// Success writes the final message when no mismatch was found.
func (p *Printer) Success(message string) error {
	_, err := fmt.Fprintln(p.Out, message)
	return err
}

func writeWindow(w io.Writer, side Side, win trace.Window) {
	fmt.Fprintf(w, "===== %s =====\n", side.Label)
	for _, line := range win.Before {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
	fmt.Fprintf(w, "%s%s\n", marker, win.Center)
	for _, line := range win.After {
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

func writeAdjacent(w io.Writer, m trace.Mismatch, ref, cand Side) {
	fmt.Fprintf(w, "Mismatch Occured at Line %d:\n", m.Line())
	fmt.Fprintf(w, "%s:     %s\n\n%s\n", ref.Label, trace.Previous(ref.Lines, m.Index), trace.StripNewline(m.Expected))
	fmt.Fprintln(w, adjacentSep)
	fmt.Fprintf(w, "%s:  %s\n\n%s\n", cand.Label, trace.Previous(cand.Lines, m.Index), trace.StripNewline(m.Actual))
}
