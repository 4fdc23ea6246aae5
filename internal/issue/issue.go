// SPDX-License-Identifier: MPL-2.0

// Package issue is the catalog of recurring, user-fixable failure classes.
// Each entry carries markdown help that the CLI renders below the raw error
// so the user gets a next step, not just a stack of wrapped messages.
package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConnectionFailedId Id = iota + 1
	AuthRejectedId
	MonitorTimeoutId
)

type Issue struct {
	id       Id
	mdMsg    string
	docLinks []string
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() string {
	return i.mdMsg
}

func (i *Issue) DocLinks() []string {
	return slices.Clone(i.docLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- " + link + "\n"
		}
	}
	return render(i.mdMsg+extraMd, stylePath)
}

var (
	render = glamour.Render

	connectionFailedIssue = &Issue{
		id: ConnectionFailedId,
		mdMsg: `
# Could not reach the API host

The configured host did not answer.

## Things you can try
- Check the host value:
~~~
$ autokit config show
~~~
- Point at the right controller:
~~~
$ autokit --conf.host https://tower.example.org job_templates list
~~~
- If the server uses a self-signed certificate, add ` + "`-k`" + ` to skip
  verification.`,
	}

	authRejectedIssue = &Issue{
		id: AuthRejectedId,
		mdMsg: `
# Authentication was rejected

The API host answered, but refused the supplied credentials.

## Things you can try
- Supply a fresh token:
~~~
$ AUTOKIT_TOKEN=... autokit jobs list
~~~
- Or use basic authentication with ` + "`--conf.username` and `--conf.password`" + `.
- Tokens expire; re-issue one from the controller's user settings page.`,
	}

	monitorTimeoutIssue = &Issue{
		id: MonitorTimeoutId,
		mdMsg: `
# Gave up waiting on job completion

The job did not reach a terminal state before the configured timeout. The
job keeps running server-side; only the wait was abandoned.

## Things you can try
- Check on it later:
~~~
$ autokit jobs get <id>
$ autokit jobs stdout <id>
~~~
- Raise the wait budget with ` + "`--timeout <seconds>`" + `, or drop the flag to
  wait indefinitely.`,
	}
)

var catalog = map[Id]*Issue{
	ConnectionFailedId: connectionFailedIssue,
	AuthRejectedId:     authRejectedIssue,
	MonitorTimeoutId:   monitorTimeoutIssue,
}

// Get returns the catalog entry for id, nil when none exists.
func Get(id Id) *Issue {
	return catalog[id]
}
