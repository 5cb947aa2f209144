package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tracediff/internal/prompt"
	"github.com/danmuck/tracediff/internal/report"
	"github.com/danmuck/tracediff/internal/trace"
)

const DefaultProfile = "default"

var ErrUnknownProfile = errors.New("unknown profile")

// Emulator is one side of the comparison.
type Emulator struct {
	Path   string
	Label  string
	Output string
}

// Profile is a fully resolved comparator configuration. When Run is false
// the existing output files are compared without launching anything.
// AlwaysFinish prints SuccessMessage even after a reported mismatch.
type Profile struct {
	Name             string
	Reference        Emulator
	Candidate        Emulator
	Prefix           int
	Timeout          time.Duration
	Bound            trace.Bound
	Prompt           prompt.Policy
	Style            report.Style
	ContextLines     int
	MismatchExitCode int
	SuccessMessage   string
	AlwaysFinish     bool
	Run              bool
}

// File is a parsed tracediff.toml.
type File struct {
	Profile  string
	Profiles map[string]Profile
}

// tracediff.toml key mapping for one [profiles.<name>] table.
type fileProfile struct {
	Base             string `toml:"base,omitempty"`
	Reference        string `toml:"reference"`
	Candidate        string `toml:"candidate"`
	ReferenceLabel   string `toml:"reference_label"`
	CandidateLabel   string `toml:"candidate_label"`
	ReferenceOutput  string `toml:"reference_output"`
	CandidateOutput  string `toml:"candidate_output"`
	Prefix           int    `toml:"prefix"`
	Timeout          string `toml:"timeout"`
	Bound            string `toml:"bound"`
	Prompt           string `toml:"prompt"`
	Style            string `toml:"style"`
	ContextLines     int    `toml:"context_lines"`
	MismatchExitCode int    `toml:"mismatch_exit_code"`
	SuccessMessage   string `toml:"success_message"`
	AlwaysFinish     bool   `toml:"always_finish"`
	Run              bool   `toml:"run"`
}

type fileConfig struct {
	Profile  string                 `toml:"profile"`
	Profiles map[string]fileProfile `toml:"profiles"`
}

// Builtins returns the shipped profiles keyed by name.
func Builtins() map[string]Profile {
	return map[string]Profile{
		DefaultProfile: {
			Name:             DefaultProfile,
			Reference:        Emulator{Path: "./reference", Label: "Reference Log", Output: "referenceLog.txt"},
			Candidate:        Emulator{Path: "./candidate", Label: "Candidate Log", Output: "candidateLog.txt"},
			Prefix:           30,
			Timeout:          5 * time.Second,
			Bound:            trace.BoundSymmetric,
			Prompt:           prompt.None,
			Style:            report.StyleWindow,
			ContextLines:     trace.DefaultRadius,
			MismatchExitCode: 1,
			SuccessMessage:   "No mismatches occurred :D",
			Run:              true,
		},
		"autodebug": {
			Name:           "autodebug",
			Reference:      Emulator{Path: "./binjgb-debugger", Label: "Binjgb Log", Output: "binjgbLog.txt"},
			Candidate:      Emulator{Path: "../megagbc", Label: "MegaGBC Log", Output: "megagbcLog.txt"},
			Prefix:         30,
			Timeout:        3 * time.Second,
			Bound:          trace.BoundCandidateShort,
			Prompt:         prompt.None,
			Style:          report.StyleWindow,
			ContextLines:   trace.DefaultRadius,
			SuccessMessage: "Finished",
			AlwaysFinish:   true,
			Run:            true,
		},
		"autodebug-interactive": {
			Name:           "autodebug-interactive",
			Reference:      Emulator{Path: "./../binjgb/bin/binjgb", Label: "Binjgb Log", Output: "log2.txt"},
			Candidate:      Emulator{Path: "./megagb", Label: "MegaGBC Log", Output: "log1.txt"},
			Prefix:         20,
			Timeout:        5 * time.Second,
			Bound:          trace.BoundCandidateShort,
			Prompt:         prompt.ContinueUnlessNo,
			Style:          report.StyleWindow,
			ContextLines:   trace.DefaultRadius,
			SuccessMessage: "Finished",
			AlwaysFinish:   true,
			Run:            true,
		},
		"gba": {
			Name:           "gba",
			Reference:      Emulator{Label: "MGBA", Output: "mgbalog.txt"},
			Candidate:      Emulator{Label: "MegaGBA", Output: "megalog.txt"},
			Prefix:         170,
			Timeout:        5 * time.Second,
			Bound:          trace.BoundSymmetric,
			Prompt:         prompt.StopUnlessYes,
			Style:          report.StyleAdjacent,
			ContextLines:   1,
			SuccessMessage: "No Mismatches Found :D",
			Run:            false,
		},
	}
}

// BuiltinNames lists the shipped profile names in sorted order.
func BuiltinNames() []string {
	return sortedNames(Builtins())
}

// Default returns a File holding only the shipped profiles.
func Default() File {
	return File{Profile: DefaultProfile, Profiles: Builtins()}
}

// Load reads path and overlays its profiles on the shipped ones.
func Load(path string) (File, error) {
	out := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return File{}, fmt.Errorf("load tracediff config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("load tracediff config: unknown key %q", undecoded[0].String())
	}
	if meta.IsDefined("profile") {
		out.Profile = strings.TrimSpace(raw.Profile)
	}

	builtins := Builtins()
	state := make(map[string]int, len(raw.Profiles))
	var resolve func(name string) error
	resolve = func(name string) error {
		switch state[name] {
		case 1:
			return fmt.Errorf("profile %q: base cycle", name)
		case 2:
			return nil
		}
		state[name] = 1
		entry := raw.Profiles[name]
		base := baseOf(name, entry, meta, builtins)
		if _, pending := raw.Profiles[base]; pending && base != name {
			if err := resolve(base); err != nil {
				return err
			}
		}
		p, err := overlay(out.Profiles, name, base, entry, meta)
		if err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		out.Profiles[name] = p
		state[name] = 2
		return nil
	}
	for _, name := range sortedNames(raw.Profiles) {
		if err := resolve(name); err != nil {
			return File{}, fmt.Errorf("load tracediff config: %w", err)
		}
	}

	if _, ok := out.Profiles[out.Profile]; !ok {
		return File{}, fmt.Errorf("load tracediff config: %w %q", ErrUnknownProfile, out.Profile)
	}
	return out, nil
}

// baseOf names the profile a [profiles.<name>] table overlays: its base
// key, the built-in of the same name, or the default profile.
func baseOf(name string, raw fileProfile, meta toml.MetaData, builtins map[string]Profile) string {
	if meta.IsDefined("profiles", name, "base") {
		return strings.TrimSpace(raw.Base)
	}
	if _, ok := builtins[name]; ok {
		return name
	}
	return DefaultProfile
}

func overlay(known map[string]Profile, name, baseName string, raw fileProfile, meta toml.MetaData) (Profile, error) {
	defined := func(key string) bool {
		return meta.IsDefined("profiles", name, key)
	}

	p, ok := known[baseName]
	if !ok {
		return Profile{}, fmt.Errorf("base: %w %q", ErrUnknownProfile, baseName)
	}
	p.Name = name

	if defined("reference") {
		p.Reference.Path = strings.TrimSpace(raw.Reference)
	}
	if defined("candidate") {
		p.Candidate.Path = strings.TrimSpace(raw.Candidate)
	}
	if defined("reference_label") {
		p.Reference.Label = strings.TrimSpace(raw.ReferenceLabel)
	}
	if defined("candidate_label") {
		p.Candidate.Label = strings.TrimSpace(raw.CandidateLabel)
	}
	if defined("reference_output") {
		p.Reference.Output = strings.TrimSpace(raw.ReferenceOutput)
	}
	if defined("candidate_output") {
		p.Candidate.Output = strings.TrimSpace(raw.CandidateOutput)
	}
	if defined("prefix") {
		p.Prefix = raw.Prefix
	}
	if defined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return Profile{}, fmt.Errorf("timeout: %w", err)
		}
		p.Timeout = d
	}
	if defined("bound") {
		b, err := trace.ParseBound(raw.Bound)
		if err != nil {
			return Profile{}, fmt.Errorf("bound: %w", err)
		}
		p.Bound = b
	}
	if defined("prompt") {
		pol, err := prompt.ParsePolicy(raw.Prompt)
		if err != nil {
			return Profile{}, fmt.Errorf("prompt: %w", err)
		}
		p.Prompt = pol
	}
	if defined("style") {
		s, err := report.ParseStyle(raw.Style)
		if err != nil {
			return Profile{}, fmt.Errorf("style: %w", err)
		}
		p.Style = s
	}
	if defined("context_lines") {
		p.ContextLines = raw.ContextLines
	}
	if defined("mismatch_exit_code") {
		p.MismatchExitCode = raw.MismatchExitCode
	}
	if defined("success_message") {
		p.SuccessMessage = raw.SuccessMessage
	}
	if defined("always_finish") {
		p.AlwaysFinish = raw.AlwaysFinish
	}
	if defined("run") {
		p.Run = raw.Run
	}

	if err := Validate(p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Resolve returns the named profile, or the file's selected profile when
// name is empty.
func (f File) Resolve(name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = f.Profile
	}
	p, ok := f.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownProfile, name, strings.Join(f.Names(), ", "))
	}
	return p, nil
}

// Names lists every profile in the file, sorted.
func (f File) Names() []string {
	return sortedNames(f.Profiles)
}

func Validate(p Profile) error {
	if p.Prefix <= 0 {
		return fmt.Errorf("prefix must be positive, got %d", p.Prefix)
	}
	if p.ContextLines < 0 {
		return fmt.Errorf("context_lines must not be negative, got %d", p.ContextLines)
	}
	if strings.TrimSpace(p.Reference.Output) == "" {
		return fmt.Errorf("reference_output is required")
	}
	if strings.TrimSpace(p.Candidate.Output) == "" {
		return fmt.Errorf("candidate_output is required")
	}
	if p.Reference.Output == p.Candidate.Output {
		return fmt.Errorf("reference_output and candidate_output must differ (%s)", p.Reference.Output)
	}
	if p.MismatchExitCode < 0 || p.MismatchExitCode > 125 {
		return fmt.Errorf("mismatch_exit_code must be within 0..125, got %d", p.MismatchExitCode)
	}
	if !p.Run {
		return nil
	}
	if strings.TrimSpace(p.Reference.Path) == "" {
		return fmt.Errorf("reference is required when run=true")
	}
	if strings.TrimSpace(p.Candidate.Path) == "" {
		return fmt.Errorf("candidate is required when run=true")
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive when run=true, got %s", p.Timeout)
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
