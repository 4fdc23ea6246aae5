// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"autokit-cli/internal/action"
	"autokit-cli/internal/issue"
	"autokit-cli/internal/monitor"
	"autokit-cli/internal/rest"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resourceDef describes one API resource exposed as a top-level command.
// verbs lists the generic HTTP-verb actions it supports; override actions
// from the registry are added on top and shadow a verb of the same name.
type resourceDef struct {
	name     string
	endpoint string
	short    string
	verbs    []string
}

var (
	fullVerbs     = []string{"list", "get", "create", "modify", "delete"}
	readOnlyVerbs = []string{"list", "get", "delete"}
)

var resourceTable = []resourceDef{
	{"job_templates", "/api/v2/job_templates/", "Manage job templates", fullVerbs},
	{"projects", "/api/v2/projects/", "Manage SCM projects", fullVerbs},
	{"inventories", "/api/v2/inventories/", "Manage inventories", fullVerbs},
	{"inventory_sources", "/api/v2/inventory_sources/", "Manage inventory sources", fullVerbs},
	{"inventory_updates", "/api/v2/inventory_updates/", "Inspect inventory source updates", readOnlyVerbs},
	{"workflow_job_templates", "/api/v2/workflow_job_templates/", "Manage workflow job templates", fullVerbs},
	{"workflow_jobs", "/api/v2/workflow_jobs/", "Inspect workflow runs", readOnlyVerbs},
	{"jobs", "/api/v2/jobs/", "Inspect job runs", readOnlyVerbs},
	{"project_updates", "/api/v2/project_updates/", "Inspect project updates", readOnlyVerbs},
	{"ad_hoc_commands", "/api/v2/ad_hoc_commands/", "Run ad hoc commands", readOnlyVerbs},
	{"organizations", "/api/v2/organizations/", "Manage organizations", fullVerbs},
	{"notification_templates", "/api/v2/notification_templates/", "Manage notification templates", fullVerbs},
	{"credentials", "/api/v2/credentials/", "Manage credentials", fullVerbs},
	{"teams", "/api/v2/teams/", "Manage teams", fullVerbs},
	{"users", "/api/v2/users/", "Manage users", fullVerbs},
	{"settings", "/api/v2/settings/", "Read and write configuration", nil},
}

// newResourceCommand builds the command for one resource: override actions
// first, then the generic verbs the registry did not claim.
func newResourceCommand(conn *rest.Connection, def resourceDef) *cobra.Command {
	rc := &cobra.Command{
		Use:   def.name,
		Short: def.short,
	}
	overridden := map[string]bool{}
	for _, key := range action.Keys() {
		if key.Resource != def.name {
			continue
		}
		rc.AddCommand(newActionCommand(conn, def, key.Action))
		overridden[key.Action] = true
	}
	for _, verb := range def.verbs {
		if overridden[verb] {
			continue
		}
		rc.AddCommand(newActionCommand(conn, def, verb))
	}
	return rc
}

// newActionCommand builds one action subcommand. Dispatch decides whether
// the action runs through an override handler (and is invoked as the
// canonical perform verb) or through generic verb handling; either way the
// performer contributes its own flag and argument surface.
func newActionCommand(conn *rest.Connection, def resourceDef, actionName string) *cobra.Command {
	res := rest.NewResource(conn, def.endpoint)
	performer, effective := action.Dispatch(def.name, actionName, res)

	ac := &cobra.Command{
		Use:   actionName,
		Short: fmt.Sprintf("%s %s", actionName, def.name),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := paramsFromFlags(cmd)
			if err := performer.BindArgs(args, params); err != nil {
				return err
			}
			out, err := performer.Do(cmd.Context(), effective, params)
			if err != nil {
				renderIssueHelp(cmd.ErrOrStderr(), err)
				return err
			}
			warnUnresolvedWait(cmd.ErrOrStderr(), params, out)
			return renderResult(cmd.OutOrStdout(), out)
		},
	}
	performer.AddArguments(ac)
	return ac
}

// paramsFromFlags builds the perform parameters from every flag the user
// actually set, typed per the flag's value kind.
func paramsFromFlags(cmd *cobra.Command) action.Params {
	params := action.Params{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(f.Name)
			params[f.Name] = v
		case "int":
			v, _ := cmd.Flags().GetInt(f.Name)
			params[f.Name] = v
		case "stringArray":
			v, _ := cmd.Flags().GetStringArray(f.Name)
			params[f.Name] = v
		default:
			params[f.Name] = f.Value.String()
		}
	})
	return params
}

// warnUnresolvedWait points the user at the timeout help when a blocking
// launch came back without a terminal status: the wait was abandoned, not
// the job.
func warnUnresolvedWait(stderr io.Writer, params action.Params, out any) {
	if !params.Bool("monitor") && !params.Bool("wait") {
		return
	}
	if params.Seconds("timeout") == 0 {
		return
	}
	page, ok := out.(*rest.Page)
	if !ok || page == nil {
		return
	}
	if monitor.IsTerminal(page.Str("status")) {
		return
	}
	if entry := issue.Get(issue.MonitorTimeoutId); entry != nil {
		if rendered, err := entry.Render("dark"); err == nil {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// renderResult writes an action's outcome: job stdout verbatim, pages and
// everything else as indented JSON.
func renderResult(w io.Writer, out any) error {
	switch v := out.(type) {
	case nil:
		return nil
	case string:
		_, err := io.WriteString(w, v)
		return err
	case *rest.Page:
		if v == nil {
			return nil
		}
		return writeJSON(w, v.JSON)
	default:
		return writeJSON(w, v)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(encoded)); err != nil {
		return err
	}
	return nil
}

// renderIssueHelp renders catalog help below recognizable failures so the
// raw error is followed by a next step.
func renderIssueHelp(stderr io.Writer, err error) {
	id := classifyIssue(err)
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		log.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(stderr, rendered)
}
