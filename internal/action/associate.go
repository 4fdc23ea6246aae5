// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"fmt"

	"autokit-cli/internal/rest"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func init() {
	// The three standard notification targets are shared across resource
	// types; job templates additionally accept a credential target on an
	// owned copy of the table.
	jobTemplateTargets := notificationTargets.merged(TargetTable{
		"credential": {Relation: "credentials"},
	})
	for _, entry := range []struct {
		resource string
		targets  TargetTable
	}{
		{"job_templates", jobTemplateTargets},
		{"workflow_job_templates", notificationTargets.merged(nil)},
		{"projects", notificationTargets.merged(nil)},
		{"inventory_sources", notificationTargets.merged(nil)},
		{"organizations", notificationTargets.merged(nil)},
	} {
		for _, actionName := range []string{"associate", "disassociate"} {
			targets := entry.targets
			name := actionName
			mustRegister(entry.resource, actionName, func(res *rest.Resource) Handler {
				return &association{res: res, action: name, targets: targets}
			})
		}
	}
}

type (
	// Target describes one association flag: the relation it posts to and
	// the label used in help text. An empty label falls back to the flag
	// name.
	Target struct {
		Relation string
		Label    string
	}

	// TargetTable maps a CLI flag name to its association target. Base
	// tables are never mutated; subtypes extend an independent copy via
	// merged.
	TargetTable map[string]Target
)

// notificationTargets is the base table shared by every resource type that
// manages notification-template associations.
var notificationTargets = TargetTable{
	"start_notification":   {Relation: "notification_templates_started", Label: "notification template"},
	"success_notification": {Relation: "notification_templates_success", Label: "notification template"},
	"failure_notification": {Relation: "notification_templates_error", Label: "notification template"},
}

// merged returns an independent copy of t extended with extra. The receiver
// is left untouched.
func (t TargetTable) merged(extra TargetTable) TargetTable {
	out := make(TargetTable, len(t)+len(extra))
	maps.Copy(out, t)
	maps.Copy(out, extra)
	return out
}

// names returns the table's flag names, sorted for deterministic flag
// registration and iteration.
func (t TargetTable) names() []string {
	names := maps.Keys(t)
	slices.Sort(names)
	return names
}

// association relates (or unrelates) one entity to an owning resource
// through a many-to-many relation. One target per call: the CLI argument
// group is mutually exclusive and required, and perform stops after the
// first supplied target even if more somehow arrive.
type association struct {
	res     *rest.Resource
	action  string // "associate" or "disassociate"
	targets TargetTable
}

func (h *association) AddArguments(cmd *cobra.Command) {
	cmd.Use = h.action + " <id>"
	cmd.Args = cobra.ExactArgs(1)
	names := h.targets.names()
	for _, name := range names {
		target := h.targets[name]
		label := target.Label
		if label == "" {
			label = name
		}
		cmd.Flags().Int(name, 0, fmt.Sprintf("the ID of the %s to %s", label, h.action))
	}
	cmd.MarkFlagsMutuallyExclusive(names...)
	cmd.MarkFlagsOneRequired(names...)
}

func (h *association) BindArgs(args []string, p Params) error {
	if len(args) > 0 {
		p["id"] = args[0]
	}
	return nil
}

func (h *association) Perform(ctx context.Context, p Params) (any, error) {
	owner, err := resolveTarget(ctx, h.res, p.Str("id"))
	if err != nil {
		return nil, err
	}
	// At most one target arrives through the flag group; only the first
	// supplied one is processed either way.
	for _, name := range h.targets.names() {
		id, ok := p.Int(name)
		if !ok {
			continue
		}
		page, err := owner.Get(ctx)
		if err != nil {
			return nil, err
		}
		rel, err := page.Related(h.targets[name].Relation)
		if err != nil {
			return nil, err
		}
		// These endpoints answer 204 No Content on success; only a real
		// transport or validation error propagates.
		if _, err := rel.Post(ctx, map[string]any{"id": id, h.action: true}); err != nil {
			return nil, err
		}
		return rel.Get(ctx)
	}
	return nil, fmt.Errorf("%s needs one target to %s", h.res.Endpoint(), h.action)
}
