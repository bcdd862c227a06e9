// SPDX-License-Identifier: MPL-2.0

package bench

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
)

type (
	planDocument struct {
		Commands []commandDocument `toml:"command"`
	}

	commandDocument struct {
		Command
		Line string `toml:"line"`
	}
)

// WriteTOML writes the plan as an array of [[command]] tables, each with
// its argv and rendered shell line.
func (p Plan) WriteTOML(w io.Writer) error {
	doc := planDocument{}
	for _, c := range p.Commands() {
		doc.Commands = append(doc.Commands, commandDocument{Command: c, Line: c.Line()})
	}

	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	return nil
}
