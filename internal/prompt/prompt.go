// Package prompt decides whether a scan continues past a mismatch.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Policy string

const (
	// None stops at the first mismatch without asking.
	None Policy = "none"
	// ContinueUnlessNo keeps scanning unless the answer is exactly "n".
	ContinueUnlessNo Policy = "continue-unless-n"
	// StopUnlessYes keeps scanning only if the answer is exactly "y".
	StopUnlessYes Policy = "stop-unless-y"
)

func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", None:
		return None, nil
	case ContinueUnlessNo:
		return ContinueUnlessNo, nil
	case StopUnlessYes:
		return StopUnlessYes, nil
	default:
		return "", fmt.Errorf("unknown prompt policy %q (expected %s, %s or %s)", raw, None, ContinueUnlessNo, StopUnlessYes)
	}
}

// Question is the text written before reading an answer.
func (p Policy) Question() string {
	switch p {
	case ContinueUnlessNo:
		return "Continue? (y/n)"
	case StopUnlessYes:
		return "Continue? (y/n): "
	default:
		return ""
	}
}

// Continue applies the policy to one answer with its line terminator removed.
func (p Policy) Continue(answer string) bool {
	switch p {
	case ContinueUnlessNo:
		return answer != "n"
	case StopUnlessYes:
		return answer == "y"
	default:
		return false
	}
}

// Interactive reports whether the policy reads from the user.
func (p Policy) Interactive() bool {
	return p == ContinueUnlessNo || p == StopUnlessYes
}

// Decider is asked once per mismatch whether to keep scanning.
type Decider interface {
	Continue(ctx context.Context) (bool, error)
}

// Console asks on out and reads answers from in.
type Console struct {
	policy  Policy
	in      *bufio.Reader
	out     io.Writer
	pending chan answer
}

type answer struct {
	line string
	err  error
}

func NewConsole(policy Policy, in io.Reader, out io.Writer) *Console {
	return &Console{policy: policy, in: bufio.NewReader(in), out: out}
}

// Continue writes the question and reads one line. End of input stops the
// scan; cancelling ctx abandons the read and returns ctx.Err().
func (c *Console) Continue(ctx context.Context) (bool, error) {
	if !c.policy.Interactive() {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := io.WriteString(c.out, c.policy.Question()); err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}

	// A read abandoned by a cancelled ctx stays pending and is picked up by
	// the next call instead of racing a second reader.
	if c.pending == nil {
		c.pending = make(chan answer, 1)
		go func(ch chan<- answer) {
			line, err := c.in.ReadString('\n')
			ch <- answer{line: line, err: err}
		}(c.pending)
	}

	var a answer
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a = <-c.pending:
		c.pending = nil
	}

	if a.err != nil && !errors.Is(a.err, io.EOF) {
		return false, fmt.Errorf("prompt: read answer: %w", a.err)
	}
	if errors.Is(a.err, io.EOF) && a.line == "" {
		return false, nil
	}
	line := strings.TrimSuffix(a.line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return c.policy.Continue(line), nil
}
