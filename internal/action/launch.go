// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"fmt"
	"net/url"

	"autokit-cli/internal/monitor"
	"autokit-cli/internal/rest"

	"github.com/spf13/cobra"
)

func init() {
	mustRegister("job_templates", "launch", func(res *rest.Resource) Handler {
		return newLaunch(res, "launch")
	})
	mustRegister("projects", "update", func(res *rest.Resource) Handler {
		return newLaunch(res, "update")
	})
	mustRegister("inventory_sources", "update", func(res *rest.Resource) Handler {
		return newLaunch(res, "update")
	})
	mustRegister("workflow_job_templates", "launch", func(res *rest.Resource) Handler {
		return newLaunch(res, "launch")
	})
	mustRegister("ad_hoc_commands", "create", func(res *rest.Resource) Handler {
		return &adhocCommandLaunch{launch: newLaunch(res, "create")}
	})
	mustRegister("projects", "create", func(res *rest.Resource) Handler {
		return &projectCreate{res: res, monitorJob: monitor.Job}
	})
}

// launch implements the shared behavior of the launch family: POST to the
// resource's launch relation, then optionally block on the monitor
// collaborator. The monitor functions are fields so tests can observe the
// composition without a live polling loop.
type launch struct {
	res    *rest.Resource
	action string

	monitorJob      monitor.Func
	monitorWorkflow monitor.Func
}

func newLaunch(res *rest.Resource, actionName string) *launch {
	return &launch{
		res:             res,
		action:          actionName,
		monitorJob:      monitor.Job,
		monitorWorkflow: monitor.Workflow,
	}
}

func (h *launch) AddArguments(cmd *cobra.Command) {
	cmd.Use = h.action + " <id>"
	cmd.Args = cobra.ExactArgs(1)
	addMonitorFlags(cmd, true)
}

func addMonitorFlags(cmd *cobra.Command, withTimeout bool) {
	cmd.Flags().Bool("monitor", false, "print stdout of the launched job until it finishes")
	cmd.Flags().Bool("wait", false, "wait until the launched job finishes")
	if withTimeout {
		cmd.Flags().Int("timeout", 0, "with --monitor or --wait, seconds to wait on job completion")
	}
}

func (h *launch) BindArgs(args []string, p Params) error {
	if len(args) > 0 {
		p["id"] = args[0]
	}
	return nil
}

func (h *launch) Perform(ctx context.Context, p Params) (any, error) {
	target, err := resolveTarget(ctx, h.res, p.Str("id"))
	if err != nil {
		return nil, err
	}
	page, err := target.Get(ctx)
	if err != nil {
		return nil, err
	}
	rel, err := page.Related(h.action)
	if err != nil {
		return nil, err
	}
	result, err := rel.Post(ctx, nil)
	if err != nil {
		return nil, err
	}
	if result.Page == nil {
		return nil, fmt.Errorf("launching %s returned no job description", rel.Endpoint())
	}
	if err := h.watch(ctx, result.Page, p); err != nil {
		return nil, err
	}
	return result.Page, nil
}

// watch runs the monitor/wait step on a freshly launched job. With neither
// flag set the launch stays fire-and-forget. A terminal status overwrites
// the response's status field; an empty status (timeout, no observation)
// leaves the prior value untouched.
func (h *launch) watch(ctx context.Context, job *rest.Page, p Params) error {
	if !p.Bool("monitor") && !p.Bool("wait") {
		return nil
	}
	mon := h.monitorJob
	if job.Type() == "workflow_job" {
		mon = h.monitorWorkflow
	}
	status, err := mon(ctx, job, h.res.Connection().Session(), !p.Bool("wait"), p.Seconds("timeout"))
	if err != nil {
		return err
	}
	if status != "" {
		job.JSON["status"] = status
	}
	return nil
}

// adhocCommandLaunch creates and optionally monitors an ad hoc command.
// Commands are created rather than targeted by id, so the identifier
// argument is absent and the monitor flags are stripped from the payload
// before the POST: the create endpoint does not accept them as attributes.
type adhocCommandLaunch struct {
	launch *launch
}

func (h *adhocCommandLaunch) AddArguments(cmd *cobra.Command) {
	addMonitorFlags(cmd, true)
	cmd.Flags().StringArray("set", nil, "set a field as name=value (repeatable)")
}

func (h *adhocCommandLaunch) BindArgs(args []string, p Params) error {
	return nil
}

func (h *adhocCommandLaunch) Perform(ctx context.Context, p Params) (any, error) {
	watchParams := Params{
		"monitor": p.PopBool("monitor"),
		"wait":    p.PopBool("wait"),
		"timeout": int(p.PopSeconds("timeout").Seconds()),
	}
	payload, err := payloadFromPairs(p.Strings("set"))
	if err != nil {
		return nil, err
	}
	result, err := h.launch.res.Post(ctx, payload)
	if err != nil {
		return nil, err
	}
	if result.Page == nil {
		return nil, fmt.Errorf("creating %s returned no job description", h.launch.res.Endpoint())
	}
	if err := h.launch.watch(ctx, result.Page, watchParams); err != nil {
		return nil, err
	}
	return result.Page, nil
}

// projectCreate creates a project. The POST creates the resource itself,
// not a launch of an existing one, so there is no direct job response to
// monitor: on --monitor or --wait the handler fetches the newest related
// project update and monitors that instead.
type projectCreate struct {
	res        *rest.Resource
	monitorJob monitor.Func
}

func (h *projectCreate) AddArguments(cmd *cobra.Command) {
	addMonitorFlags(cmd, false)
	cmd.Flags().StringArray("set", nil, "set a field as name=value (repeatable)")
}

func (h *projectCreate) BindArgs(args []string, p Params) error {
	return nil
}

func (h *projectCreate) Perform(ctx context.Context, p Params) (any, error) {
	shouldMonitor := p.PopBool("monitor")
	wait := p.PopBool("wait")

	payload, err := payloadFromPairs(p.Strings("set"))
	if err != nil {
		return nil, err
	}
	result, err := h.res.Post(ctx, payload)
	if err != nil {
		return nil, err
	}
	if result.Page == nil {
		return nil, fmt.Errorf("creating %s returned no project description", h.res.Endpoint())
	}
	if shouldMonitor || wait {
		updates, err := result.Page.Related("project_updates")
		if err != nil {
			return nil, err
		}
		list, err := updates.Get(ctx, url.Values{"order_by": {"-created"}})
		if err != nil {
			return nil, err
		}
		results := list.Results()
		if len(results) == 0 {
			return nil, fmt.Errorf("project was created but no update to monitor exists at %s", updates.Endpoint())
		}
		if _, err := h.monitorJob(ctx, results[0], h.res.Connection().Session(), !wait, 0); err != nil {
			return nil, err
		}
	}
	return result.Page, nil
}
