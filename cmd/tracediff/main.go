package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/tracediff/internal/compare"
	"github.com/danmuck/tracediff/internal/config"
	"github.com/danmuck/tracediff/internal/logging"
	"github.com/danmuck/tracediff/internal/prompt"
	"github.com/danmuck/tracediff/internal/report"
	"github.com/danmuck/tracediff/internal/runner"
	"github.com/danmuck/tracediff/internal/trace"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

// Looked up in the working directory when --config is not given.
const localConfig = "tracediff.toml"

// exit code for usage and runtime errors, distinct from a mismatch.
const exitFatal = 2

func main() {
	logging.ConfigureRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	if err != nil {
		fatalf("%v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) (int, error) {
	opts, parser, err := parseArgs(args)
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, ferr.Message)
			return 0, nil
		}
		return exitFatal, err
	}
	if opts.LogLevel != "" && !logging.SetLevel(opts.LogLevel) {
		return exitFatal, fmt.Errorf("unknown log level %q", opts.LogLevel)
	}

	file, err := loadConfig(opts.Config)
	if err != nil {
		return exitFatal, err
	}

	if opts.ListProfiles {
		for _, name := range file.Names() {
			p, _ := file.Resolve(name)
			fmt.Fprintln(stdout, config.Describe(p))
		}
		return 0, nil
	}
	if opts.InitConfig != "" {
		if err := file.WriteTemplate(opts.InitConfig, opts.Profile, opts.Force); err != nil {
			return exitFatal, err
		}
		log.Info().Str("path", opts.InitConfig).Msg("wrote config template")
		return 0, nil
	}

	profile, err := file.Resolve(opts.Profile)
	if err != nil {
		return exitFatal, err
	}
	profile, err = applyOverrides(profile, opts, parser)
	if err != nil {
		return exitFatal, err
	}
	if profile.Run && opts.Args.Input == "" {
		return exitFatal, fmt.Errorf("usage: tracediff [flags] <rom_or_input_path> (profile %s runs emulators)", profile.Name)
	}

	log.Debug().Str("profile", config.Describe(profile)).Msg("session start")
	console := prompt.NewConsole(profile.Prompt, stdin, stdout)
	session := compare.NewSession(profile, runner.ExecRunner{}, console, stdout)
	res, err := session.Run(ctx, opts.Args.Input)
	if err != nil {
		return exitFatal, err
	}
	return res.ExitCode, nil
}

func loadConfig(path string) (config.File, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(localConfig); err == nil {
		return config.Load(localConfig)
	}
	return config.Default(), nil
}

// applyOverrides layers explicitly set flags over the resolved profile.
func applyOverrides(p config.Profile, opts options, parser *flags.Parser) (config.Profile, error) {
	set := func(long string) bool {
		opt := parser.FindOptionByLongName(long)
		return opt != nil && opt.IsSet()
	}
	if set("prefix") {
		p.Prefix = opts.Prefix
	}
	if set("timeout") {
		p.Timeout = opts.Timeout
	}
	if set("context") {
		p.ContextLines = opts.Context
	}
	if set("exit-code") {
		p.MismatchExitCode = opts.ExitCode
	}
	if set("reference") {
		p.Reference.Path = opts.Reference
	}
	if set("candidate") {
		p.Candidate.Path = opts.Candidate
	}
	if set("bound") {
		b, err := trace.ParseBound(opts.Bound)
		if err != nil {
			return config.Profile{}, err
		}
		p.Bound = b
	}
	if set("prompt") {
		pol, err := prompt.ParsePolicy(opts.Prompt)
		if err != nil {
			return config.Profile{}, err
		}
		p.Prompt = pol
	}
	if set("style") {
		s, err := report.ParseStyle(opts.Style)
		if err != nil {
			return config.Profile{}, err
		}
		p.Style = s
	}
	if opts.NoRun {
		p.Run = false
	}
	if err := config.Validate(p); err != nil {
		return config.Profile{}, fmt.Errorf("profile %s: %w", p.Name, err)
	}
	return p, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "tracediff: "+format+"\n", args...)
	os.Exit(exitFatal)
}
