// SPDX-License-Identifier: MPL-2.0

package rest

import (
	"fmt"
)

// Page is the materialized JSON body of one API response, still attached to
// the resource it came from. JSON is deliberately exported and mutable: the
// launch handlers overwrite the "status" field once a monitored job reaches
// a terminal state, so the returned page reflects the final observed state
// rather than the initial pending one.
type Page struct {
	JSON map[string]any
	res  *Resource
}

// Resource returns the handle this page was fetched from.
func (p *Page) Resource() *Resource {
	return p.res
}

// Type returns the page's "type" field, e.g. "job" or "workflow_job".
func (p *Page) Type() string {
	return p.Str("type")
}

// Str returns a string field, or "" when absent or not a string.
func (p *Page) Str(key string) string {
	s, _ := p.JSON[key].(string)
	return s
}

// Int returns a numeric field as an int. JSON numbers decode as float64.
func (p *Page) Int(key string) (int, bool) {
	f, ok := p.JSON[key].(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Related returns a handle for a named entry of the page's "related" map,
// e.g. "launch", "stdout" or "notification_templates_started".
func (p *Page) Related(name string) (*Resource, error) {
	related, ok := p.JSON["related"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s has no related links", p.res.Endpoint())
	}
	endpoint, ok := related[name].(string)
	if !ok {
		return nil, fmt.Errorf("%s has no related link %q", p.res.Endpoint(), name)
	}
	return NewResource(p.res.conn, endpoint), nil
}

// Results returns the entries of a list page, each attached to the resource
// named by its "url" field. Entries without a url keep the list's resource.
func (p *Page) Results() []*Page {
	raw, ok := p.JSON["results"].([]any)
	if !ok {
		return nil
	}
	pages := make([]*Page, 0, len(raw))
	for _, entry := range raw {
		body, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		res := p.res
		if u, ok := body["url"].(string); ok && u != "" {
			res = NewResource(p.res.conn, u)
		}
		pages = append(pages, &Page{JSON: body, res: res})
	}
	return pages
}

// Count returns the "count" field of a list page.
func (p *Page) Count() (int, bool) {
	return p.Int("count")
}
