package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Template renders a tracediff.toml selecting profile, with that profile's
// resolved values spelled out so they can be edited in place. The profile
// may be a built-in or one defined in f.
func (f File) Template(profile string) (string, error) {
	p, err := f.Resolve(profile)
	if err != nil {
		return "", err
	}
	doc := fileConfig{
		Profile: p.Name,
		Profiles: map[string]fileProfile{
			p.Name: toFileProfile(p),
		},
	}
	var buf bytes.Buffer
	buf.WriteString("# tracediff configuration\n")
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	return buf.String(), nil
}

func (f File) WriteTemplate(path, profile string, overwrite bool) error {
	template, err := f.Template(profile)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o644)
}

func toFileProfile(p Profile) fileProfile {
	return fileProfile{
		Reference:        p.Reference.Path,
		Candidate:        p.Candidate.Path,
		ReferenceLabel:   p.Reference.Label,
		CandidateLabel:   p.Candidate.Label,
		ReferenceOutput:  p.Reference.Output,
		CandidateOutput:  p.Candidate.Output,
		Prefix:           p.Prefix,
		Timeout:          p.Timeout.String(),
		Bound:            string(p.Bound),
		Prompt:           string(p.Prompt),
		Style:            string(p.Style),
		ContextLines:     p.ContextLines,
		MismatchExitCode: p.MismatchExitCode,
		SuccessMessage:   p.SuccessMessage,
		AlwaysFinish:     p.AlwaysFinish,
		Run:              p.Run,
	}
}

// Describe is a one-line summary of p for listings.
func Describe(p Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s prefix=%-3d bound=%-15s prompt=%-17s style=%-8s exit=%d",
		p.Name, p.Prefix, p.Bound, p.Prompt, p.Style, p.MismatchExitCode)
	if p.Run {
		fmt.Fprintf(&b, " timeout=%s run=%s,%s", p.Timeout, p.Reference.Path, p.Candidate.Path)
	} else {
		fmt.Fprintf(&b, " compare=%s,%s", p.Reference.Output, p.Candidate.Output)
	}
	return b.String()
}
