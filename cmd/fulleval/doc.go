// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the fulleval CLI.
//
// The root command runs the benchmark: it trains every catalog scene, renders
// two checkpoints per scene and scores all outputs in one metrics call. The
// plan, scenes and config subcommands inspect what a run would do without
// executing anything.
package cmd
