// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error reporting for fulleval.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for the user. The issue catalog holds longer markdown help
// pages that the CLI renders with glamour when a known failure happens.
package issue
