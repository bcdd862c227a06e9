// SPDX-License-Identifier: MPL-2.0

// Package bench builds the benchmark plan: one trainer command per scene,
// two renderer commands per scene and a single metrics command, all in
// catalog order.
//
// Commands are argv lists. Line renders them as a POSIX shell line, which
// is both what gets printed and what the runtimes execute.
package bench
