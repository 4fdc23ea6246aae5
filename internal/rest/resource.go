// SPDX-License-Identifier: MPL-2.0

package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type (
	// Resource is an opaque handle to one API endpoint: a collection such as
	// /api/v2/job_templates/ or a single instance such as
	// /api/v2/job_templates/42/. Handlers borrow it for the duration of one
	// perform call and never retain it beyond that.
	Resource struct {
		endpoint string
		conn     *Connection
	}

	// PostResult is the outcome of a successful POST. Association endpoints
	// answer HTTP 204 No Content on success; that is a distinct success
	// variant here, not an error to catch.
	PostResult struct {
		// Page is the decoded response body, nil when the server answered
		// with no content.
		Page *Page
	}

	// Metadata is the OPTIONS description of an endpoint: the fields each
	// HTTP verb accepts.
	Metadata struct {
		Actions map[string]map[string]json.RawMessage `json:"actions"`
	}
)

// NewResource creates a handle for an endpoint path on the given connection.
func NewResource(conn *Connection, endpoint string) *Resource {
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return &Resource{endpoint: endpoint, conn: conn}
}

// Endpoint returns the handle's endpoint path.
func (r *Resource) Endpoint() string {
	return r.endpoint
}

// Connection returns the connection the handle was built on.
func (r *Resource) Connection() *Connection {
	return r.conn
}

// Sub returns a handle for a child path, e.g. the "42/" instance of a
// collection or the "all/" slug of the settings endpoint.
func (r *Resource) Sub(segment string) *Resource {
	return NewResource(r.conn, r.endpoint+strings.Trim(segment, "/"))
}

// Get fetches the resource. An optional query filters collection results.
func (r *Resource) Get(ctx context.Context, query ...url.Values) (*Page, error) {
	var q url.Values
	if len(query) > 0 {
		q = query[0]
	}
	_, body, err := r.conn.do(ctx, http.MethodGet, r.endpoint, q, nil)
	if err != nil {
		return nil, err
	}
	return r.decode(body)
}

// Post sends a payload to the resource. A nil payload posts an empty JSON
// object, which is how launch relations are triggered.
func (r *Resource) Post(ctx context.Context, payload map[string]any) (PostResult, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	status, body, err := r.conn.do(ctx, http.MethodPost, r.endpoint, nil, payload)
	if err != nil {
		return PostResult{}, err
	}
	if status == http.StatusNoContent || len(body) == 0 {
		return PostResult{}, nil
	}
	page, err := r.decode(body)
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{Page: page}, nil
}

// Patch partially updates the resource and returns its new representation.
func (r *Resource) Patch(ctx context.Context, payload map[string]any) (*Page, error) {
	_, body, err := r.conn.do(ctx, http.MethodPatch, r.endpoint, nil, payload)
	if err != nil {
		return nil, err
	}
	return r.decode(body)
}

// Delete removes the resource.
func (r *Resource) Delete(ctx context.Context) error {
	_, _, err := r.conn.do(ctx, http.MethodDelete, r.endpoint, nil, nil)
	return err
}

// Options fetches the endpoint metadata describing the fields each verb
// accepts. Settings modification uses it to discover the writable keys.
func (r *Resource) Options(ctx context.Context) (*Metadata, error) {
	_, body, err := r.conn.do(ctx, http.MethodOptions, r.endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decoding OPTIONS %s: %w", r.endpoint, err)
	}
	return &meta, nil
}

func (r *Resource) decode(body []byte) (*Page, error) {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", r.endpoint, err)
	}
	return &Page{JSON: decoded, res: r}, nil
}

// AllowedFields returns the sorted field names the given verb accepts,
// e.g. AllowedFields("PUT") for the writable settings keys.
func (m *Metadata) AllowedFields(verb string) []string {
	fields := maps.Keys(m.Actions[verb])
	slices.Sort(fields)
	return fields
}
