// SPDX-License-Identifier: MPL-2.0

// Package catalog defines the benchmark scene catalog: the four dataset
// collections and the fixed order in which their scenes are processed.
//
// Catalog order is load-bearing. It is the order training, rendering and
// metrics commands are issued in, and each collection decides which dataset
// root and image directory its scenes use.
package catalog
