// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"

	"autokit-cli/internal/rest"

	"github.com/spf13/cobra"
)

func init() {
	for _, resource := range []string{"jobs", "project_updates", "inventory_updates", "ad_hoc_commands"} {
		mustRegister(resource, "stdout", func(res *rest.Resource) Handler {
			return &jobStdout{res: res, colorOutput: colorOutput}
		})
	}
}

// colorOutput reports whether ANSI output is enabled for this session. The
// CLI front-end installs the real detection at startup; the default keeps
// output plain.
var colorOutput = func() bool { return false }

// SetColorOutput installs the session-wide color detection used when
// choosing the stdout download format.
func SetColorOutput(fn func() bool) {
	if fn != nil {
		colorOutput = fn
	}
}

// jobStdout retrieves a point-in-time snapshot of a finished or running
// job's output. No monitoring: one GET against the stdout relation, in ANSI
// form when color is enabled and plain text otherwise.
type jobStdout struct {
	res         *rest.Resource
	colorOutput func() bool
}

func (h *jobStdout) AddArguments(cmd *cobra.Command) {
	cmd.Use = "stdout <id>"
	cmd.Args = cobra.ExactArgs(1)
}

func (h *jobStdout) BindArgs(args []string, p Params) error {
	if len(args) > 0 {
		p["id"] = args[0]
	}
	return nil
}

func (h *jobStdout) Perform(ctx context.Context, p Params) (any, error) {
	target, err := resolveTarget(ctx, h.res, p.Str("id"))
	if err != nil {
		return nil, err
	}
	page, err := target.Get(ctx)
	if err != nil {
		return nil, err
	}
	rel, err := page.Related("stdout")
	if err != nil {
		return nil, err
	}
	format := "txt_download"
	if h.colorOutput() {
		format = "ansi_download"
	}
	body, err := h.res.Connection().Get(ctx, rel.Endpoint(), queryValues("format", format))
	if err != nil {
		return nil, err
	}
	return string(body), nil
}
