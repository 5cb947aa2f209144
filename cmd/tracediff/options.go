package main

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Config       string        `short:"c" long:"config" value-name:"FILE" description:"tracediff.toml to load (default: ./tracediff.toml when present)"`
	Profile      string        `short:"p" long:"profile" value-name:"NAME" description:"profile to run (default: the config's selected profile)"`
	Reference    string        `long:"reference" value-name:"PATH" description:"reference emulator executable"`
	Candidate    string        `long:"candidate" value-name:"PATH" description:"candidate emulator executable"`
	Prefix       int           `long:"prefix" value-name:"N" description:"characters of each line to compare"`
	Timeout      time.Duration `long:"timeout" value-name:"DURATION" description:"wall-clock budget per emulator"`
	Bound        string        `long:"bound" choice:"symmetric" choice:"candidate-short" description:"scan range"`
	Prompt       string        `long:"prompt" choice:"none" choice:"continue-unless-n" choice:"stop-unless-y" description:"ask whether to continue after a mismatch"`
	Style        string        `long:"style" choice:"window" choice:"adjacent" description:"mismatch report layout"`
	Context      int           `long:"context" value-name:"N" description:"context lines on each side of a mismatch"`
	ExitCode     int           `long:"exit-code" value-name:"CODE" description:"exit status when a mismatch is found"`
	NoRun        bool          `long:"no-run" description:"compare the existing output files without launching emulators"`
	LogLevel     string        `long:"log-level" value-name:"LEVEL" description:"trace|debug|info|warn|error|off"`
	ListProfiles bool          `long:"list-profiles" description:"print the available profiles and exit"`
	InitConfig   string        `long:"init-config" value-name:"FILE" description:"write a config template for --profile and exit"`
	Force        bool          `long:"force" description:"overwrite an existing file with --init-config"`

	Args struct {
		Input string `positional-arg-name:"rom_or_input_path" description:"passed as the only argument to both emulators"`
	} `positional-args:"yes"`
}

func parseArgs(args []string) (options, *flags.Parser, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "tracediff"
	parser.Usage = "[OPTIONS] <rom_or_input_path>"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return options{}, parser, err
	}
	if len(rest) > 0 {
		return options{}, parser, fmt.Errorf("expected exactly one input path, got extra arguments %q", rest)
	}
	return opts, parser, nil
}
