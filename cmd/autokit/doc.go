// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for autokit. The command tree is
// one subcommand per API resource, each with one sub-subcommand per action.
// Which actions exist, which flags they take and what they do is decided by
// the action dispatcher: overridden (resource, action) pairs get their
// resource-aware handler, everything else falls through to plain HTTP verb
// handling.
package cmd
