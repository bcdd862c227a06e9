// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"math"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Stage names.
const (
	StageTrain   Stage = "train"
	StageRender  Stage = "render"
	StageMetrics Stage = "metrics"
)

type (
	// Stage is one of the three pipeline stages.
	Stage string

	// Command is a single delegated program invocation.
	Command struct {
		Stage Stage `toml:"stage"`
		// Scene is empty for the metrics command.
		Scene      string `toml:"scene,omitempty"`
		Collection string `toml:"collection,omitempty"`
		// Iteration is the checkpoint a render command reads, otherwise 0.
		Iteration int      `toml:"iteration,omitempty"`
		Argv      []string `toml:"argv"`

		// dquoteFrom, when > 0, is the argv index from which every argument
		// is wrapped in double quotes regardless of content.
		dquoteFrom int
	}
)

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// Line renders the command as a POSIX shell line. Arguments are quoted
// only when the shell would otherwise split or expand them.
func (c Command) Line() string {
	words := make([]string, len(c.Argv))
	for i, arg := range c.Argv {
		if c.dquoteFrom > 0 && i >= c.dquoteFrom {
			words[i] = doubleQuote(arg)
			continue
		}
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			// Only NUL bytes and non-printable runes reach here; the
			// double-quoted form at least keeps the line visibly intact.
			q = doubleQuote(arg)
		}
		words[i] = q
	}
	return strings.Join(words, " ")
}

// doubleQuote wraps s in double quotes, escaping the characters that stay
// special inside them.
func doubleQuote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '$', '`':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

// formatFloat prints f the way a Python f-string does: the shortest
// round-tripping form, always with a decimal point or an exponent.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
