// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"fmt"
	"strconv"

	"autokit-cli/internal/rest"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// PerformVerb is the canonical action every override handler answers to.
// Dispatch rewrites a resolved action to this verb.
const PerformVerb = "perform"

type (
	// Key identifies one override: an ordered (resource, action) pair.
	Key struct {
		Resource string
		Action   string
	}

	// Handler implements the custom behavior for one (resource, action)
	// pair. A handler is bound to a resource handle at construction, holds
	// no other state, and is never reused across dispatches.
	Handler interface {
		// AddArguments contributes the handler's flags and positional-arg
		// contract to its CLI command.
		AddArguments(cmd *cobra.Command)
		// BindArgs maps positional arguments into the perform parameters.
		BindArgs(args []string, p Params) error
		// Perform executes the action and returns its renderable result.
		Perform(ctx context.Context, p Params) (any, error)
	}

	// Constructor builds a handler bound to a resource handle.
	Constructor func(res *rest.Resource) Handler

	// Performer is what Dispatch hands back: either an override handler or
	// the generic verb fallback, invoked uniformly with the effective
	// action Dispatch returned alongside it.
	Performer interface {
		AddArguments(cmd *cobra.Command)
		BindArgs(args []string, p Params) error
		Do(ctx context.Context, action string, p Params) (any, error)
	}

	// Registry maps Keys to handler constructors. The default registry is
	// populated once at init time by the handler files and read-only
	// afterwards; no runtime re-registration exists.
	Registry struct {
		handlers map[Key]Constructor
	}

	// DuplicateActionError reports two handlers claiming the same key. It
	// is a configuration error: program initialization must abort.
	DuplicateActionError struct {
		Key Key
	}
)

// String renders the key in its registry form, space-joined.
func (k Key) String() string {
	return k.Resource + " " + k.Action
}

// Error implements the error interface.
func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("custom action %q is registered twice", e.Key)
}

// NewRegistry returns an empty registry. Production code uses the package
// default; tests build their own.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Key]Constructor)}
}

// Register adds a constructor under key, failing with a
// *DuplicateActionError when the key is already taken.
func (r *Registry) Register(key Key, ctor Constructor) error {
	if _, exists := r.handlers[key]; exists {
		return &DuplicateActionError{Key: key}
	}
	r.handlers[key] = ctor
	return nil
}

// Resolve looks up the constructor for key. Pure lookup, no side effects.
func (r *Registry) Resolve(key Key) (Constructor, bool) {
	ctor, ok := r.handlers[key]
	return ctor, ok
}

// Keys returns every registered key, sorted, for building the CLI surface.
func (r *Registry) Keys() []Key {
	keys := maps.Keys(r.handlers)
	slices.SortFunc(keys, func(a, b Key) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		default:
			return 0
		}
	})
	return keys
}

// Dispatch resolves (resource, action) against the registry. On a hit it
// constructs the handler bound to res and rewrites the action to
// PerformVerb; on a miss the generic verb performer and the original action
// pass through unchanged.
func (r *Registry) Dispatch(resource, actionName string, res *rest.Resource) (Performer, string) {
	if ctor, ok := r.Resolve(Key{Resource: resource, Action: actionName}); ok {
		return handlerPerformer{Handler: ctor(res)}, PerformVerb
	}
	return &genericPerformer{res: res, action: actionName}, actionName
}

var defaultRegistry = NewRegistry()

// Register adds a constructor to the default registry.
func Register(key Key, ctor Constructor) error {
	return defaultRegistry.Register(key, ctor)
}

// Resolve looks up a constructor in the default registry.
func Resolve(key Key) (Constructor, bool) {
	return defaultRegistry.Resolve(key)
}

// Keys lists the default registry's keys, sorted.
func Keys() []Key {
	return defaultRegistry.Keys()
}

// Dispatch resolves against the default registry.
func Dispatch(resource, actionName string, res *rest.Resource) (Performer, string) {
	return defaultRegistry.Dispatch(resource, actionName, res)
}

// mustRegister is the init-time registration entry point of the handler
// files. A duplicate key aborts startup.
func mustRegister(resource, actionName string, ctor Constructor) {
	if err := Register(Key{Resource: resource, Action: actionName}, ctor); err != nil {
		panic(err)
	}
}

// handlerPerformer adapts a resolved Handler to the Performer contract: it
// only answers to the canonical perform verb.
type handlerPerformer struct {
	Handler
}

func (h handlerPerformer) Do(ctx context.Context, actionName string, p Params) (any, error) {
	if actionName != PerformVerb {
		return nil, fmt.Errorf("override handlers only perform, got action %q", actionName)
	}
	return h.Perform(ctx, p)
}

// resolveTarget returns the handle for one resource instance, accepting a
// primary key or a unique name.
func resolveTarget(ctx context.Context, res *rest.Resource, ident string) (*rest.Resource, error) {
	if ident == "" {
		return nil, fmt.Errorf("%s needs an id or name", res.Endpoint())
	}
	if _, err := strconv.Atoi(ident); err == nil {
		return res.Sub(ident), nil
	}
	page, err := res.Get(ctx, queryValues("name", ident))
	if err != nil {
		return nil, err
	}
	results := page.Results()
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("no resource at %s named %q", res.Endpoint(), ident)
	case 1:
		return results[0].Resource(), nil
	default:
		return nil, fmt.Errorf("multiple resources at %s named %q, use the id instead", res.Endpoint(), ident)
	}
}
