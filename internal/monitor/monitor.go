// SPDX-License-Identifier: MPL-2.0

// Package monitor blocks on a launched job until it reaches a terminal
// status, optionally streaming its stdout while it runs. Workflow jobs get
// their own routine because a workflow has no single stdout stream; progress
// is reported per node instead.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"autokit-cli/internal/rest"

	"github.com/charmbracelet/log"
)

// Func is the signature shared by Job and Workflow. The returned status is
// the terminal state that was observed, or "" when monitoring ended without
// one (e.g. the timeout elapsed first). An empty status with a nil error is
// an unknown outcome, not a failure.
type Func func(ctx context.Context, job *rest.Page, session *http.Client, printStdout bool, timeout time.Duration) (string, error)

// pollInterval is how often the job page is refreshed. Tests shorten it.
var pollInterval = time.Second

// output is where streamed stdout goes. Tests capture it.
var output io.Writer = os.Stdout

var terminalStatuses = map[string]bool{
	"successful": true,
	"failed":     true,
	"error":      true,
	"canceled":   true,
}

// IsTerminal reports whether status is a final job state.
func IsTerminal(status string) bool {
	return terminalStatuses[status]
}

// Job polls an ordinary unified job (job, project update, inventory update,
// ad hoc command) until it finishes. When printStdout is set, newly produced
// stdout is written incrementally as the job runs.
func Job(ctx context.Context, job *rest.Page, session *http.Client, printStdout bool, timeout time.Duration) (string, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "monitor"})

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := job.Resource()
	printed := 0
	for {
		page, err := res.Get(ctx)
		if err != nil {
			if timedOut(ctx, err, timeout) {
				return "", nil
			}
			return "", err
		}
		if printStdout {
			printed = streamStdout(ctx, page, session, printed, logger)
		}
		if status := page.Str("status"); terminalStatuses[status] {
			if printStdout {
				// one final fetch so the tail of the output is not lost
				streamStdout(ctx, page, session, printed, logger)
			}
			return status, nil
		}

		select {
		case <-ctx.Done():
			if timedOut(ctx, ctx.Err(), timeout) {
				logger.Warn("timed out waiting on job completion", "job", res.Endpoint())
				return "", nil
			}
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Workflow polls a workflow job until it finishes. Stdout aggregation
// differs from a single job: each workflow node runs its own job, so when
// printStdout is set the routine reports node job state transitions rather
// than one stdout stream.
func Workflow(ctx context.Context, job *rest.Page, session *http.Client, printStdout bool, timeout time.Duration) (string, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "monitor"})

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res := job.Resource()
	seen := map[string]string{}
	for {
		page, err := res.Get(ctx)
		if err != nil {
			if timedOut(ctx, err, timeout) {
				return "", nil
			}
			return "", err
		}
		if printStdout {
			reportNodes(ctx, page, seen)
		}
		if status := page.Str("status"); terminalStatuses[status] {
			return status, nil
		}

		select {
		case <-ctx.Done():
			if timedOut(ctx, ctx.Err(), timeout) {
				logger.Warn("timed out waiting on workflow completion", "workflow", res.Endpoint())
				return "", nil
			}
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// timedOut reports whether err is the expiry of the monitor's own deadline,
// which the callers treat as "no observation" rather than a failure.
func timedOut(ctx context.Context, err error, timeout time.Duration) bool {
	return timeout > 0 && errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// streamStdout fetches the job's stdout via the supplied session and writes
// everything past the already-printed offset. Fetch failures are logged and
// skipped; the next poll retries.
func streamStdout(ctx context.Context, page *rest.Page, session *http.Client, printed int, logger *log.Logger) int {
	rel, err := page.Related("stdout")
	if err != nil {
		return printed
	}
	conn := page.Resource().Connection()
	req, err := conn.NewRequest(ctx, http.MethodGet, rel.Endpoint(), url.Values{"format": {"txt_download"}}, nil)
	if err != nil {
		logger.Debug("stdout request failed", "error", err)
		return printed
	}
	resp, err := session.Do(req)
	if err != nil {
		logger.Debug("stdout fetch failed", "error", err)
		return printed
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		logger.Debug("stdout fetch failed", "status", resp.StatusCode)
		return printed
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Debug("stdout read failed", "error", err)
		return printed
	}
	if len(body) > printed {
		fmt.Fprint(output, string(body[printed:]))
		printed = len(body)
	}
	return printed
}

// reportNodes prints one line per workflow-node job state change.
func reportNodes(ctx context.Context, page *rest.Page, seen map[string]string) {
	rel, err := page.Related("workflow_nodes")
	if err != nil {
		return
	}
	list, err := rel.Get(ctx)
	if err != nil {
		return
	}
	for _, node := range list.Results() {
		summary, ok := node.JSON["summary_fields"].(map[string]any)
		if !ok {
			continue
		}
		nodeJob, ok := summary["job"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := nodeJob["name"].(string)
		status, _ := nodeJob["status"].(string)
		if name == "" || status == "" || seen[name] == status {
			continue
		}
		seen[name] = status
		fmt.Fprintf(output, "%s: %s\n", name, status)
	}
}
