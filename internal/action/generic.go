// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"autokit-cli/internal/rest"

	"github.com/spf13/cobra"
)

// genericPerformer is the fall-through path of Dispatch: plain HTTP-verb
// handling for every (resource, action) pair without an override.
type genericPerformer struct {
	res    *rest.Resource
	action string
}

func (g *genericPerformer) AddArguments(cmd *cobra.Command) {
	switch g.action {
	case "list":
		cmd.Flags().StringArray("filter", nil, "filter results by field=value (repeatable)")
	case "get", "delete":
		cmd.Use = g.action + " <id>"
		cmd.Args = cobra.ExactArgs(1)
	case "create":
		cmd.Flags().StringArray("set", nil, "set a field as name=value (repeatable)")
	case "modify":
		cmd.Use = "modify <id>"
		cmd.Args = cobra.ExactArgs(1)
		cmd.Flags().StringArray("set", nil, "set a field as name=value (repeatable)")
	}
}

func (g *genericPerformer) BindArgs(args []string, p Params) error {
	if len(args) > 0 {
		p["id"] = args[0]
	}
	return nil
}

func (g *genericPerformer) Do(ctx context.Context, actionName string, p Params) (any, error) {
	switch actionName {
	case "list":
		query := url.Values{}
		for _, pair := range p.Strings("filter") {
			name, value, found := strings.Cut(pair, "=")
			if !found || name == "" {
				return nil, fmt.Errorf("malformed filter %q, expected field=value", pair)
			}
			query.Set(name, value)
		}
		return g.res.Get(ctx, query)
	case "get":
		target, err := g.target(ctx, p)
		if err != nil {
			return nil, err
		}
		return target.Get(ctx)
	case "create":
		payload, err := payloadFromPairs(p.Strings("set"))
		if err != nil {
			return nil, err
		}
		result, err := g.res.Post(ctx, payload)
		if err != nil {
			return nil, err
		}
		return result.Page, nil
	case "modify":
		payload, err := payloadFromPairs(p.Strings("set"))
		if err != nil {
			return nil, err
		}
		target, err := g.target(ctx, p)
		if err != nil {
			return nil, err
		}
		return target.Patch(ctx, payload)
	case "delete":
		target, err := g.target(ctx, p)
		if err != nil {
			return nil, err
		}
		return nil, target.Delete(ctx)
	default:
		return nil, fmt.Errorf("resource %s does not support action %q", g.res.Endpoint(), actionName)
	}
}

func (g *genericPerformer) target(ctx context.Context, p Params) (*rest.Resource, error) {
	ident := p.Str("id")
	if ident == "" {
		return nil, fmt.Errorf("action %q on %s needs an id", g.action, g.res.Endpoint())
	}
	return resolveTarget(ctx, g.res, ident)
}
