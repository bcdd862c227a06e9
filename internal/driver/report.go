// SPDX-License-Identifier: MPL-2.0

package driver

import (
	"time"

	"github.com/speedygs/fulleval/internal/bench"
	"github.com/speedygs/fulleval/pkg/types"
)

type (
	// Entry records one issued command.
	Entry struct {
		Command  bench.Command
		Line     string
		ExitCode types.ExitCode
		// Err is set when the command could not be started.
		Err      error
		Duration time.Duration
		// DryRun marks a command that was printed but not executed.
		DryRun bool
	}

	// Report lists every command the driver issued, in order.
	Report struct {
		Entries []Entry
		// Planned is the number of commands in the plan.
		Planned int
		// Interrupted is set when the context was cancelled before the
		// plan finished.
		Interrupted bool
		Elapsed     time.Duration
	}
)

// Failed reports whether the entry's command did not exit cleanly.
func (e Entry) Failed() bool {
	return e.Err != nil || !e.ExitCode.IsSuccess()
}

// Failed returns the entries whose command did not exit cleanly.
func (r *Report) Failed() []Entry {
	var failed []Entry
	for _, e := range r.Entries {
		if e.Failed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// ByStage returns the entries of one stage.
func (r *Report) ByStage(stage bench.Stage) []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Command.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}
