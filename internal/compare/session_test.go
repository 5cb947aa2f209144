package compare

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/tracediff/internal/config"
	"github.com/danmuck/tracediff/internal/prompt"
	"github.com/danmuck/tracediff/internal/runner"
	"github.com/danmuck/tracediff/internal/testutil/testlog"
	"github.com/danmuck/tracediff/internal/trace"
	"github.com/stretchr/testify/require"
)

// scriptedRunner writes a fixed trace per executable, then blocks until the
// capture timeout fires like a real emulator would.
type scriptedRunner struct {
	traces map[string]string
	calls  []runner.Command
	block  bool
}

func (r *scriptedRunner) Run(ctx context.Context, cmd runner.Command, out io.Writer) error {
	r.calls = append(r.calls, cmd)
	body, ok := r.traces[cmd.Path]
	if !ok {
		return errors.New("exec: no such file")
	}
	if _, err := io.WriteString(out, body); err != nil {
		return err
	}
	if r.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

type answers struct {
	replies []bool
	asked   int
}

func (a *answers) Continue(ctx context.Context) (bool, error) {
	a.asked++
	if len(a.replies) == 0 {
		return false, nil
	}
	next := a.replies[0]
	a.replies = a.replies[1:]
	return next, nil
}

func testProfile(t *testing.T, base string) config.Profile {
	t.Helper()
	p := config.Builtins()[base]
	dir := t.TempDir()
	p.Reference.Output = filepath.Join(dir, "ref.txt")
	p.Candidate.Output = filepath.Join(dir, "cand.txt")
	p.Timeout = 50 * time.Millisecond
	return p
}

func TestRunCapturesBothThenReportsMismatch(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "autodebug")
	r := &scriptedRunner{
		block: true,
		traces: map[string]string{
			p.Reference.Path: "AAAA1\nAAAA2\nAAAA3\nAAAA4\n",
			p.Candidate.Path: "AAAA1\nXXXX2\nAAAA3\nAAAA4\n",
		},
	}
	p.Prefix = 4

	var out bytes.Buffer
	res, err := NewSession(p, r, nil, &out).Run(context.Background(), "cpu_instrs.gb")
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	require.Equal(t, 2, res.Mismatches[0].Line())
	require.Equal(t, 0, res.ExitCode)

	require.Len(t, r.calls, 2)
	require.Equal(t, p.Reference.Path, r.calls[0].Path)
	require.Equal(t, p.Candidate.Path, r.calls[1].Path)
	require.Equal(t, []string{"cpu_instrs.gb"}, r.calls[1].Args)

	report := out.String()
	require.True(t, strings.HasPrefix(report, "Mismatch at line 2\n===== Binjgb Log =====\n"), report)
	require.Contains(t, report, ">>> XXXX2\n")
	require.True(t, strings.HasSuffix(report, "======================\nFinished\n"), report)
}

func TestRunIdenticalTracesReportsSuccess(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, config.DefaultProfile)
	body := "AAAA1\nAAAA2\nAAAA3\n"
	r := &scriptedRunner{traces: map[string]string{p.Reference.Path: body, p.Candidate.Path: body}}

	var out bytes.Buffer
	res, err := NewSession(p, r, nil, &out).Run(context.Background(), "rom.gb")
	require.NoError(t, err)
	require.False(t, res.Found())
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, 3, res.Scanned)
	require.Equal(t, "No mismatches occurred :D\n", out.String())
}

func TestRunDefaultProfileExitsNonZeroOnMismatch(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, config.DefaultProfile)
	r := &scriptedRunner{traces: map[string]string{
		p.Reference.Path: "PC:0100\n",
		p.Candidate.Path: "PC:0101\n",
	}}

	var out bytes.Buffer
	res, err := NewSession(p, r, nil, &out).Run(context.Background(), "rom.gb")
	require.NoError(t, err)
	require.True(t, res.Found())
	require.Equal(t, 1, res.ExitCode)
	require.NotContains(t, out.String(), "No mismatches occurred")
}

func TestRunLaunchFailureIsFatal(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, config.DefaultProfile)
	r := &scriptedRunner{traces: map[string]string{p.Reference.Path: "x\n"}}

	var out bytes.Buffer
	_, err := NewSession(p, r, nil, &out).Run(context.Background(), "rom.gb")
	require.Error(t, err)
	require.Empty(t, out.String())
}

func TestRunRejectsInvalidProfile(t *testing.T) {
	p := testProfile(t, config.DefaultProfile)
	p.Prefix = 0
	_, err := NewSession(p, &scriptedRunner{}, nil, io.Discard).Run(context.Background(), "rom.gb")
	require.Error(t, err)
}

func TestCompareExistingFilesWithoutRunning(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "gba")
	require.NoError(t, os.WriteFile(p.Reference.Output, []byte("r0=0\nr0=1\n"), 0o644))
	require.NoError(t, os.WriteFile(p.Candidate.Output, []byte("r0=0\nr0=2\n"), 0o644))

	r := &scriptedRunner{}
	var out bytes.Buffer
	res, err := NewSession(p, r, &answers{}, &out).Run(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, r.calls)
	require.Len(t, res.Mismatches, 1)
	require.Contains(t, out.String(), "Mismatch Occured at Line 2:\n")
	require.NotContains(t, out.String(), "No Mismatches Found")
}

func TestCompareMissingOutputIsFatal(t *testing.T) {
	p := testProfile(t, "gba")
	_, err := NewSession(p, nil, nil, io.Discard).Compare(context.Background())
	require.Error(t, err)
}

func TestCompareTracesContinuesWhileDeciderAgrees(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "autodebug-interactive")
	p.Prefix = 2
	p.Bound = trace.BoundSymmetric
	ref := trace.Trace{"ok\n", "a1\n", "ok\n", "a3\n", "a4\n"}
	cand := trace.Trace{"ok\n", "b1\n", "ok\n", "b3\n", "b4\n"}

	decider := &answers{replies: []bool{true, false}}
	var out bytes.Buffer
	res, err := NewSession(p, nil, decider, &out).CompareTraces(context.Background(), ref, cand)
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 2)
	require.Equal(t, 2, decider.asked)
	require.Equal(t, 2, strings.Count(out.String(), "Mismatch at line"))
	require.Equal(t, 4, res.Scanned)
}

func TestCompareTracesWithConsolePrompt(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "autodebug-interactive")
	p.Prefix = 1
	p.Bound = trace.BoundSymmetric
	ref := trace.Trace{"a\n", "a\n", "a\n"}
	cand := trace.Trace{"b\n", "b\n", "b\n"}

	var out bytes.Buffer
	console := prompt.NewConsole(p.Prompt, strings.NewReader("y\nn\n"), &out)
	res, err := NewSession(p, nil, console, &out).CompareTraces(context.Background(), ref, cand)
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 2)
	require.Equal(t, 2, strings.Count(out.String(), "Continue? (y/n)"))
}

func TestCompareTracesEmpty(t *testing.T) {
	p := testProfile(t, config.DefaultProfile)
	var out bytes.Buffer
	res, err := NewSession(p, nil, nil, &out).CompareTraces(context.Background(), nil, nil)
	require.NoError(t, err)
	require.False(t, res.Found())
	require.Equal(t, "No mismatches occurred :D\n", out.String())
}

func TestCompareTracesCancelledContext(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "autodebug-interactive")
	p.Prefix = 1
	ref := trace.Trace{"a\n", "a\n", "a\n"}
	cand := trace.Trace{"b\n", "b\n", "b\n"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	decider := &answers{replies: []bool{true, true, true}}
	var out bytes.Buffer
	res, err := NewSession(p, nil, decider, &out).CompareTraces(ctx, ref, cand)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, res.Mismatches)
	require.Zero(t, decider.asked)
	require.Empty(t, out.String())
}

func TestCompareTracesStopsWhenCancelledAtPrompt(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "autodebug-interactive")
	p.Prefix = 1
	p.Bound = trace.BoundSymmetric
	ref := trace.Trace{"a\n", "a\n", "a\n"}
	cand := trace.Trace{"b\n", "b\n", "b\n"}

	ctx, cancel := context.WithCancel(context.Background())
	decider := &cancellingDecider{cancel: cancel}
	var out bytes.Buffer
	res, err := NewSession(p, nil, decider, &out).CompareTraces(ctx, ref, cand)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, res.Mismatches, 1)
	require.Equal(t, 1, strings.Count(out.String(), "Mismatch at line"))
	require.NotContains(t, out.String(), "Finished")
}

// cancellingDecider models an interrupt arriving while the user is asked.
type cancellingDecider struct {
	cancel context.CancelFunc
}

func (d *cancellingDecider) Continue(ctx context.Context) (bool, error) {
	d.cancel()
	<-ctx.Done()
	return false, ctx.Err()
}

func TestGBAAnsweringYesThroughEveryMismatchOmitsSuccessLine(t *testing.T) {
	testlog.Start(t)
	p := testProfile(t, "gba")
	p.Prefix = 4
	ref := trace.Trace{"r0=0\n", "r0=1\n", "r0=2\n"}
	cand := trace.Trace{"r0=9\n", "r0=8\n", "r0=7\n"}

	decider := &answers{replies: []bool{true, true, true}}
	var out bytes.Buffer
	res, err := NewSession(p, nil, decider, &out).CompareTraces(context.Background(), ref, cand)
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 3)
	require.Equal(t, 3, res.Scanned)
	require.NotContains(t, out.String(), "No Mismatches Found")
}
