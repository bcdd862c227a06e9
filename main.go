// SPDX-License-Identifier: MPL-2.0

// Command fulleval runs the full Gaussian splatting pruning benchmark.
package main

import cmd "github.com/speedygs/fulleval/cmd/fulleval"

func main() {
	cmd.Execute()
}
