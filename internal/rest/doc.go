// SPDX-License-Identifier: MPL-2.0

// Package rest implements the resource-oriented HTTP client for the
// automation-platform API. A Connection owns the transport session and
// authentication; a Resource is a handle to one endpoint (a collection or a
// single instance); a Page is the materialized JSON body of one response and
// exposes the "related" links that drive launches, stdout retrieval and
// association management.
package rest
