package compare

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/danmuck/tracediff/internal/config"
	"github.com/danmuck/tracediff/internal/prompt"
	"github.com/danmuck/tracediff/internal/report"
	"github.com/danmuck/tracediff/internal/runner"
	"github.com/danmuck/tracediff/internal/trace"
	"github.com/rs/zerolog/log"
)

// Result summarizes one session.
type Result struct {
	Mismatches []trace.Mismatch
	Scanned    int
	ExitCode   int
}

// Found reports whether any mismatch was printed.
func (r Result) Found() bool {
	return len(r.Mismatches) > 0
}

// Session runs the comparator for one profile.
type Session struct {
	Profile config.Profile
	Runner  runner.Runner
	Decider prompt.Decider
	Out     io.Writer
}

func NewSession(profile config.Profile, r runner.Runner, decider prompt.Decider, out io.Writer) *Session {
	return &Session{Profile: profile, Runner: r, Decider: decider, Out: out}
}

// Run captures both traces (when the profile runs emulators), then compares
// them. input is passed as the only argument to both emulators.
func (s *Session) Run(ctx context.Context, input string) (Result, error) {
	if err := config.Validate(s.Profile); err != nil {
		return Result{}, fmt.Errorf("profile %s: %w", s.Profile.Name, err)
	}
	if s.Profile.Run {
		if err := s.capture(ctx, input); err != nil {
			return Result{}, err
		}
	}
	return s.Compare(ctx)
}

// capture runs the reference and then the candidate; the two never overlap.
func (s *Session) capture(ctx context.Context, input string) error {
	for _, emu := range []config.Emulator{s.Profile.Reference, s.Profile.Candidate} {
		outcome, err := runner.Capture(ctx, s.Runner, runner.Target{
			Label:   captureLabel(emu),
			Command: runner.Command{Path: emu.Path, Args: []string{input}},
			Output:  emu.Output,
			Timeout: s.Profile.Timeout,
		})
		if err != nil {
			return err
		}
		log.Debug().
			Str("output", emu.Output).
			Bool("timed_out", outcome.TimedOut).
			Int("exit_code", outcome.ExitCode).
			Dur("elapsed", outcome.Elapsed).
			Msg("trace captured")
	}
	return nil
}

// Compare loads both output files and reports mismatches.
func (s *Session) Compare(ctx context.Context) (Result, error) {
	ref, err := trace.Load(s.Profile.Reference.Output)
	if err != nil {
		return Result{}, err
	}
	cand, err := trace.Load(s.Profile.Candidate.Output)
	if err != nil {
		return Result{}, err
	}
	return s.CompareTraces(ctx, ref, cand)
}

// CompareTraces scans ref and cand in lockstep. After each mismatch the
// decider chooses whether to keep scanning. Cancelling ctx aborts the scan.
func (s *Session) CompareTraces(ctx context.Context, ref, cand trace.Trace) (Result, error) {
	al, err := trace.NewAligner(ref, cand, trace.Options{Prefix: s.Profile.Prefix, Bound: s.Profile.Bound})
	if err != nil {
		return Result{}, err
	}
	printer := report.NewPrinter(s.Profile.Style, s.Profile.ContextLines, s.Out)
	refSide := report.Side{Label: s.Profile.Reference.Label, Lines: ref}
	candSide := report.Side{Label: s.Profile.Candidate.Label, Lines: cand}

	var res Result
	for {
		if err := ctx.Err(); err != nil {
			res.Scanned = al.Scanned()
			return res, fmt.Errorf("compare aborted at line %d: %w", res.Scanned+1, err)
		}
		m, ok := al.Next()
		if !ok {
			break
		}
		res.Mismatches = append(res.Mismatches, m)
		if err := printer.Mismatch(m, refSide, candSide); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		if s.Decider == nil {
			break
		}
		more, err := s.Decider.Continue(ctx)
		if err != nil {
			res.Scanned = al.Scanned()
			return res, fmt.Errorf("compare aborted after line %d: %w", m.Line(), err)
		}
		if !more {
			break
		}
	}
	res.Scanned = al.Scanned()
	log.Debug().
		Int("scanned", res.Scanned).
		Int("mismatches", len(res.Mismatches)).
		Msg("scan complete")

	if ua, ub := al.Unchecked(); ua > 0 || ub > 0 {
		log.Debug().
			Int("reference_lines", ref.Len()).
			Int("candidate_lines", cand.Len()).
			Int("scan_limit", al.Limit()).
			Msg("trace length differs")
	}

	if !res.Found() || s.Profile.AlwaysFinish {
		if err := printer.Success(s.Profile.SuccessMessage); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
	}
	if res.Found() {
		res.ExitCode = s.Profile.MismatchExitCode
	}
	return res, nil
}

func captureLabel(emu config.Emulator) string {
	return filepath.Base(emu.Path)
}
