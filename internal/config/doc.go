// SPDX-License-Identifier: MPL-2.0

// Package config handles fulleval configuration using Viper with CUE as the file format.
//
// Values are resolved with the precedence: changed command-line flag, then
// FULLEVAL_* environment variable, then the CUE config file, then defaults.
// The config file is looked up at the --config path, then
// <config dir>/fulleval/config.cue (XDG on Linux, ~/Library/Application Support
// on macOS, %APPDATA% on Windows), then ./config.cue. Files are validated
// against the embedded config_schema.cue before they are merged.
package config
