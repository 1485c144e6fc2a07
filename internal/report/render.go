package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yongy146/dota-brain-sub002/internal/validate"
)

// ErrUnknownFormat is returned for output formats other than text, json and yaml.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// IsValid reports whether f is a supported format.
func (f Format) IsValid() bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// ParseFormat converts s into a [Format]. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	f := Format(strings.ToLower(s))
	if !f.IsValid() {
		return "", fmt.Errorf("%w %q (want text, json or yaml)", ErrUnknownFormat, s)
	}
	return f, nil
}

// Render writes r to w. The output only depends on r, so equal reports render
// to identical bytes.
func Render(w io.Writer, r *Report, f Format) error {
	switch f {
	case FormatText, "":
		return renderText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("report: encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("report: encode yaml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

func renderText(w io.Writer, r *Report) error {
	var b strings.Builder

	switch r.State {
	case StateAborted:
		b.WriteString("ERROR: validation aborted\n")
	default:
		fmt.Fprintf(&b, "%s: %s, %s in %s, %s\n",
			strings.ToUpper(string(r.Verdict)),
			plural(r.Stats.Errors, "error"), plural(r.Stats.Warnings, "warning"),
			plural(r.Stats.Heroes, "hero"), plural(r.Stats.Records, "build"))
	}

	for _, f := range r.Findings {
		loc := f.Location.String()
		if loc == "" {
			loc = "-"
		}
		fmt.Fprintf(&b, "%-7s %s %s: %s\n", f.Severity, f.Kind, loc, f.Message)
		for _, rel := range f.Related {
			fmt.Fprintf(&b, "        see %s\n", rel)
		}
		if f.Suggestion != "" {
			fmt.Fprintf(&b, "        did you mean %q?\n", f.Suggestion)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func plural(n int, noun string) string {
	switch {
	case n == 1:
		return "1 " + noun
	case strings.HasSuffix(noun, "o"):
		return fmt.Sprintf("%d %ses", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Counts returns the number of findings per kind, for logging.
func Counts(r *Report) map[validate.Kind]int {
	out := make(map[validate.Kind]int)
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}
