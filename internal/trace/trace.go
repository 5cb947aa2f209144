package trace

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Trace is the ordered line sequence of one emulator log. Lines keep their
// trailing newline; the last line may not have one.
type Trace []string

// Len reports the number of lines.
func (t Trace) Len() int {
	return len(t)
}

// Load reads the trace file at path.
func Load(path string) (Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, err)
	}
	defer f.Close()

	lines, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read trace %s: %w", path, err)
	}
	return lines, nil
}

// Read splits r into lines. "\r\n" and a lone "\r" end a line like "\n"
// and are stored as "\n", so logs from different platforms compare equal.
func Read(r io.Reader) (Trace, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	sc.Split(scanLines)
	out := make(Trace, 0, 1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const maxLineSize = 16 * 1024 * 1024

// scanLines is a bufio.SplitFunc that keeps the terminator, normalized to
// "\n". A final line without a terminator is returned as is.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i+1], nil
	case i+1 < len(data):
		advance := i + 1
		if data[i+1] == '\n' {
			advance++
		}
		return advance, append(data[:i:i], '\n'), nil
	case atEOF:
		return i + 1, append(data[:i:i], '\n'), nil
	default:
		// "\r" at the end of the buffer; need one more byte to tell "\r\n".
		return 0, nil, nil
	}
}

// Prefix returns the first n characters of line. Characters are code
// points, so multi-byte annotations never split mid-rune.
func Prefix(line string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(line) <= n {
		return line
	}
	count := 0
	for i := range line {
		if count == n {
			return line[:i]
		}
		count++
	}
	return line
}

// StripNewline removes one trailing "\n" and a preceding "\r".
func StripNewline(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
