// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"net/http"
	"net/url"

	"autokit-cli/internal/issue"
	"autokit-cli/internal/rest"
)

// classifyIssue maps an error to its catalog entry, 0 when no help exists.
// Transport and validation errors themselves propagate unchanged; the
// catalog only adds guidance on top.
func classifyIssue(err error) issue.Id {
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return issue.AuthRejectedId
		}
		return 0
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return issue.ConnectionFailedId
	}
	return 0
}
