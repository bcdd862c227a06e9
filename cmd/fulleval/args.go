// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
)

// shortAliases are the multi-letter single-dash dataset flags. pflag only
// knows one-letter shorthands, so they are rewritten before parsing.
var shortAliases = map[string]string{
	"-m360": "--mipnerf360",
	"-tat":  "--tanksandtemples",
	"-db":   "--deepblending",
}

// normalizeArgs rewrites the argument forms pflag cannot parse:
// "-m360 x" and "-m360=x" become "--mipnerf360 x" and "--mipnerf360=x",
// and "--prune_iterations 1 2 3" becomes "--prune_iterations=1,2,3".
// Everything after "--" is left untouched.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := shortAliases[name]; ok {
			if hasValue {
				arg = long + "=" + value
			} else {
				arg = long
			}
			name = long
		}

		if name == "--prune_iterations" && !hasValue {
			var values []string
			for i+1 < len(args) && isUint(args[i+1]) {
				values = append(values, args[i+1])
				i++
			}
			if len(values) > 0 {
				arg = name + "=" + strings.Join(values, ",")
			}
		}
		out = append(out, arg)
	}
	return out
}

func isUint(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
