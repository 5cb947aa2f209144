package trace

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPrefix = errors.New("prefix length must be positive")

// Bound selects how far the lockstep scan may run.
type Bound string

const (
	// BoundSymmetric scans indices below min(len(A), len(B)).
	BoundSymmetric Bound = "symmetric"
	// BoundCandidateShort walks A and stops at len(B)-1, leaving the last
	// line of B unchecked even when A is longer.
	BoundCandidateShort Bound = "candidate-short"
)

func ParseBound(raw string) (Bound, error) {
	switch Bound(strings.ToLower(strings.TrimSpace(raw))) {
	case "", BoundSymmetric:
		return BoundSymmetric, nil
	case BoundCandidateShort:
		return BoundCandidateShort, nil
	default:
		return "", fmt.Errorf("unknown scan bound %q (expected %s or %s)", raw, BoundSymmetric, BoundCandidateShort)
	}
}

// Limit returns the exclusive upper index for a scan over traces of the
// given lengths. It never exceeds either length.
func (b Bound) Limit(lenA, lenB int) int {
	limit := min(lenA, lenB)
	if b == BoundCandidateShort {
		limit = min(lenA, lenB-1)
	}
	return max(limit, 0)
}

// Mismatch is a line where the two prefixes differ.
type Mismatch struct {
	Index    int
	Expected string
	Actual   string
}

// Line is the 1-based line number of the mismatch.
func (m Mismatch) Line() int {
	return m.Index + 1
}

type Options struct {
	Prefix int
	Bound  Bound
}

func (o Options) Validate() error {
	if o.Prefix <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPrefix, o.Prefix)
	}
	if _, err := ParseBound(string(o.Bound)); err != nil {
		return err
	}
	return nil
}

// Aligner walks a reference trace and a candidate trace in lockstep. Each
// call to Next resumes one line after the previous mismatch.
type Aligner struct {
	a, b   Trace
	prefix int
	limit  int
	next   int
}

func NewAligner(a, b Trace, opts Options) (*Aligner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bound, _ := ParseBound(string(opts.Bound))
	return &Aligner{
		a:      a,
		b:      b,
		prefix: opts.Prefix,
		limit:  bound.Limit(len(a), len(b)),
	}, nil
}

// Next returns the next mismatch, or false when the scan range is spent.
func (al *Aligner) Next() (Mismatch, bool) {
	for al.next < al.limit {
		i := al.next
		al.next++
		if Prefix(al.a[i], al.prefix) != Prefix(al.b[i], al.prefix) {
			return Mismatch{Index: i, Expected: al.a[i], Actual: al.b[i]}, true
		}
	}
	return Mismatch{}, false
}

// Scanned is the number of line pairs compared so far.
func (al *Aligner) Scanned() int {
	return al.next
}

// Limit is the exclusive upper index of the scan.
func (al *Aligner) Limit() int {
	return al.limit
}

// Unchecked reports how many lines of each trace lie outside the scan range.
func (al *Aligner) Unchecked() (int, int) {
	return len(al.a) - al.limit, len(al.b) - al.limit
}
