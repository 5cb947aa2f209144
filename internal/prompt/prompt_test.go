package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicyContinue(t *testing.T) {
	cases := []struct {
		policy Policy
		answer string
		want   bool
	}{
		{ContinueUnlessNo, "n", false},
		{ContinueUnlessNo, "y", true},
		{ContinueUnlessNo, "", true},
		{ContinueUnlessNo, "no", true},
		{ContinueUnlessNo, "N", true},
		{StopUnlessYes, "y", true},
		{StopUnlessYes, "", false},
		{StopUnlessYes, "yes", false},
		{StopUnlessYes, "Y", false},
		{None, "y", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, tc.policy.Continue(tc.answer), "policy=%s answer=%q", tc.policy, tc.answer)
	}
}

func TestConsoleReadsAnswers(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(ContinueUnlessNo, strings.NewReader("y\r\n\nn\n"), &out)

	for i, want := range []bool{true, true, false} {
		got, err := c.Continue(context.Background())
		require.NoError(t, err)
		require.Equal(t, want, got, "answer %d", i)
	}
	require.Equal(t, strings.Repeat("Continue? (y/n)", 3), out.String())
}

func TestConsoleEOFStops(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(ContinueUnlessNo, strings.NewReader(""), &out)
	got, err := c.Continue(context.Background())
	require.NoError(t, err)
	require.False(t, got)
}

func TestConsoleLastLineWithoutNewline(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(StopUnlessYes, strings.NewReader("y"), &out)
	got, err := c.Continue(context.Background())
	require.NoError(t, err)
	require.True(t, got)
	require.Equal(t, "Continue? (y/n): ", out.String())
}

func TestConsoleNonInteractiveNeverAsks(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(None, strings.NewReader("y\n"), &out)
	got, err := c.Continue(context.Background())
	require.NoError(t, err)
	require.False(t, got)
	require.Empty(t, out.String())
}

func TestConsoleCancelledBeforeAsking(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	c := NewConsole(ContinueUnlessNo, strings.NewReader("\n\n\n"), &out)
	got, err := c.Continue(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, got)
	require.Empty(t, out.String())
}

func TestConsoleCancelWhileWaitingForAnswer(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	c := NewConsole(StopUnlessYes, pr, &out)

	done := make(chan error, 1)
	go func() {
		_, err := c.Continue(ctx)
		done <- err
	}()
	cancel()
	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The abandoned read still delivers the next answer.
	go func() { _, _ = io.WriteString(pw, "y\n") }()
	got, err := c.Continue(context.Background())
	require.NoError(t, err)
	require.True(t, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, None, p)

	p, err = ParsePolicy("Stop-Unless-Y")
	require.NoError(t, err)
	require.Equal(t, StopUnlessYes, p)

	_, err = ParsePolicy("ask")
	require.Error(t, err)
}
