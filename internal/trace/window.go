package trace

// DefaultRadius is the number of context lines shown on each side.
const DefaultRadius = 5

// Window is the context around one line, newlines stripped.
type Window struct {
	Index  int
	Before []string
	Center string
	After  []string
}

// WindowAt returns up to radius lines strictly before i, the line at i and
// up to radius lines strictly after i, clamped to the trace.
func WindowAt(lines Trace, i, radius int) Window {
	w := Window{Index: i}
	if i < 0 || i >= len(lines) {
		return w
	}
	radius = max(radius, 0)
	for j := max(i-radius, 0); j < i; j++ {
		w.Before = append(w.Before, StripNewline(lines[j]))
	}
	w.Center = StripNewline(lines[i])
	for j := i + 1; j <= i+radius && j < len(lines); j++ {
		w.After = append(w.After, StripNewline(lines[j]))
	}
	return w
}

// Previous returns the line before i with its newline stripped, or "" at
// the first line.
func Previous(lines Trace, i int) string {
	if i <= 0 || i > len(lines) {
		return ""
	}
	return StripNewline(lines[i-1])
}
