// SPDX-License-Identifier: MPL-2.0

// Package types holds small validated value types shared by the CLI,
// configuration and runtime packages.
package types
