// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"fmt"
	"strings"

	"autokit-cli/internal/rest"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	mustRegister("settings", "list", func(res *rest.Resource) Handler {
		return &settingsList{res: res}
	})
	mustRegister("settings", "modify", func(res *rest.Resource) Handler {
		return &settingsModify{res: res}
	})
}

// settingsList reads the configuration subset the backend exposes under one
// slug (category), defaulting to the "all" aggregate.
type settingsList struct {
	res *rest.Resource
}

func (h *settingsList) AddArguments(cmd *cobra.Command) {
	cmd.Flags().String("slug", "all", "optional setting category/slug")
}

func (h *settingsList) BindArgs(args []string, p Params) error {
	return nil
}

func (h *settingsList) Perform(ctx context.Context, p Params) (any, error) {
	slug := p.Str("slug")
	if slug == "" {
		slug = "all"
	}
	return h.res.Sub(slug).Get(ctx)
}

// settingsModify writes one configuration key. The set of writable keys is
// not static: it is discovered from the backend's OPTIONS metadata for the
// "all" slug and enforced while arguments are validated, before any PATCH
// goes out. This is the only argument contribution in the override layer
// that depends on a live request.
type settingsModify struct {
	res *rest.Resource
}

func (h *settingsModify) AddArguments(cmd *cobra.Command) {
	cmd.Use = "modify <key> <value>"
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(2)(cmd, args); err != nil {
			return err
		}
		keys, err := h.writableKeys(cmd.Context())
		if err != nil {
			return err
		}
		if !slices.Contains(keys, args[0]) {
			return fmt.Errorf("invalid key %q (choose from: %s)", args[0], strings.Join(keys, ", "))
		}
		return nil
	}
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		keys, err := h.writableKeys(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	}
}

func (h *settingsModify) writableKeys(ctx context.Context) ([]string, error) {
	meta, err := h.res.Sub("all").Options(ctx)
	if err != nil {
		return nil, err
	}
	return meta.AllowedFields("PUT"), nil
}

func (h *settingsModify) BindArgs(args []string, p Params) error {
	if len(args) != 2 {
		return fmt.Errorf("modify takes exactly a key and a value")
	}
	p["key"] = args[0]
	p["value"] = args[1]
	return nil
}

// Perform patches the key and echoes the value read back from the server's
// response, so server-side coercion and validation stay observable.
func (h *settingsModify) Perform(ctx context.Context, p Params) (any, error) {
	key := p.Str("key")
	page, err := h.res.Sub("all").Patch(ctx, map[string]any{key: coerceValue(p.Str("value"))})
	if err != nil {
		return nil, err
	}
	return map[string]any{"key": key, "value": page.JSON[key]}, nil
}
