// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests: fatal-on-error filesystem
// and working directory helpers, and a controllable clock.
package testutil
