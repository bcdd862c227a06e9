// SPDX-License-Identifier: MPL-2.0

// Package runtime executes single shell command lines.
//
// Two runtime implementations are available:
//   - native: hands the line to the host shell (-c)
//   - virtual: parses and runs the line in the embedded mvdan/sh interpreter
//
// Both implement Runtime. A non-zero exit of the delegated program is reported
// through Result.ExitCode with a nil Error; Result.Error is reserved for
// failures to start the program at all.
package runtime
