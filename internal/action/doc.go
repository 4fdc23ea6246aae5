// SPDX-License-Identifier: MPL-2.0

// Package action is the override layer that replaces the generic HTTP-verb
// handling of specific (resource, action) pairs with resource-aware
// behavior: launching and optionally blocking on long-running jobs,
// retrieving job output, managing notification and credential associations,
// and reading or writing scoped configuration keys.
//
// Every override registers itself under its "<resource> <action>" key at
// init time. Dispatch consults the registry: a hit yields a handler bound to
// the resource handle and rewrites the action to the canonical "perform"
// verb; a miss falls through to generic verb handling. The substitution is
// transparent to the caller, which always invokes the returned performer
// with the effective action it was handed back.
package action
