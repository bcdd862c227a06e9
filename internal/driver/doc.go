// SPDX-License-Identifier: MPL-2.0

// Package driver runs the benchmark plan: every training command, then every
// render command, then the metrics command, one at a time. A failing command
// is logged and recorded in the Report; it never stops the run.
package driver
