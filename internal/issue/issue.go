// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Issue identifiers. Values start at 1 so the zero Id is never valid.
const (
	ConfigLoadFailedId Id = iota + 1
	DatasetRootMissingId
	ShellNotFoundId
	CommandFailedId
	InvalidRuntimeId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is markdown source rendered for the terminal.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is a markdown help page for a known failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw markdown.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the page with the given glamour style ("dark", "light",
// "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	upstreamLinks = []HttpLink{
		"https://github.com/graphdeco-inria/gaussian-splatting",
		"https://github.com/VITA-Group/LightGaussian",
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

fulleval reads its configuration from, in order:

1. the file given with ` + "`--config`" + `
2. ` + "`config.cue`" + ` in the user configuration directory
3. ` + "`config.cue`" + ` in the current directory

## Things you can try
- Print the defaults and compare with your file:
~~~
$ fulleval config show
~~~
- Write a fresh default file:
~~~
$ fulleval config init
~~~`,
	}

	datasetRootMissingIssue = &Issue{
		id: DatasetRootMissingId,
		mdMsg: `
# Dataset root not set

Training and rendering read scenes from one root per collection:

| Flag | Collections |
|---|---|
| ` + "`--mipnerf360`" + ` / ` + "`-m360`" + ` | outdoor, indoor |
| ` + "`--tanksandtemples`" + ` / ` + "`-tat`" + ` | truck, train |
| ` + "`--deepblending`" + ` / ` + "`-db`" + ` | drjohnson, playroom |

## Things you can try
- Pass the roots on the command line:
~~~
$ fulleval -m360 /data/360_v2 -tat /data/tandt -db /data/db
~~~
- Or set them once under ` + "`datasets`" + ` in config.cue.
- Only scoring existing outputs? Add ` + "`--skip_training --skip_rendering`" + `.`,
		extLinks: upstreamLinks,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# No shell found

The native runtime runs each command through a POSIX host shell (` + "`sh`" + `,
then ` + "`bash`" + `) and none could be found.

## Things you can try
- Point ` + "`--shell`" + ` (or ` + "`shell`" + ` in config.cue) at a POSIX shell.
- Use the embedded interpreter instead:
~~~
$ fulleval --runtime virtual
~~~`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# Some benchmark commands failed

fulleval does not stop when a trainer, renderer or scorer exits non-zero.
Later stages still ran, possibly against missing or stale checkpoints.

## Things you can try
- Scroll up to the first failing command and rerun it by hand.
- Rerun only the stages you need, e.g. ` + "`--skip_training`" + `.
- Preview the exact command lines without running them:
~~~
$ fulleval plan
~~~`,
		extLinks: upstreamLinks,
	}

	invalidRuntimeIssue = &Issue{
		id: InvalidRuntimeId,
		mdMsg: `
# Unknown runtime

Valid runtimes are **native** (host shell) and **virtual** (embedded
mvdan/sh interpreter).`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		datasetRootMissingIssue.Id(): datasetRootMissingIssue,
		shellNotFoundIssue.Id():      shellNotFoundIssue,
		commandFailedIssue.Id():      commandFailedIssue,
		invalidRuntimeIssue.Id():     invalidRuntimeIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
