// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"autokit-cli/internal/rest"
)

// launchServer fakes a job template with a launch relation that creates a
// pending job.
func launchServer(t *testing.T, jobType string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var launches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/job_templates/1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   1,
			"name": "Demo Template",
			"type": "job_template",
			"related": map[string]any{
				"launch": "/api/v2/job_templates/1/launch/",
			},
		})
	})
	mux.HandleFunc("/api/v2/job_templates/1/launch/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("launch method: got %s, want POST", r.Method)
		}
		launches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     99,
			"type":   jobType,
			"status": "pending",
			"url":    "/api/v2/jobs/99/",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &launches
}

// recordingMonitor returns a monitor stub that records its invocation and
// reports the given terminal status.
type monitorCall struct {
	called      bool
	printStdout bool
	timeout     time.Duration
}

func (c *monitorCall) fn(status string) func(context.Context, *rest.Page, *http.Client, bool, time.Duration) (string, error) {
	return func(_ context.Context, _ *rest.Page, _ *http.Client, printStdout bool, timeout time.Duration) (string, error) {
		c.called = true
		c.printStdout = printStdout
		c.timeout = timeout
		return status, nil
	}
}

func newTestLaunch(srv *httptest.Server) *launch {
	conn := rest.NewConnection(srv.URL)
	return newLaunch(rest.NewResource(conn, "/api/v2/job_templates/"), "launch")
}

func TestLaunch_FireAndForgetKeepsPendingStatus(t *testing.T) {
	t.Parallel()

	srv, launches := launchServer(t, "job")
	h := newTestLaunch(srv)
	var job, workflow monitorCall
	h.monitorJob = job.fn("successful")
	h.monitorWorkflow = workflow.fn("successful")

	out, err := h.Perform(context.Background(), Params{"id": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := out.(*rest.Page)
	if got := page.Str("status"); got != "pending" {
		t.Errorf("status: got %q, want untouched %q", got, "pending")
	}
	if job.called || workflow.called {
		t.Error("monitor must not run without --monitor or --wait")
	}
	if launches.Load() != 1 {
		t.Errorf("launches: got %d, want 1", launches.Load())
	}
}

func TestLaunch_WaitOverwritesStatusAndSilencesStdout(t *testing.T) {
	t.Parallel()

	srv, _ := launchServer(t, "job")
	h := newTestLaunch(srv)
	var job monitorCall
	h.monitorJob = job.fn("successful")

	out, err := h.Perform(context.Background(), Params{"id": "1", "wait": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := out.(*rest.Page)
	if got := page.Str("status"); got != "successful" {
		t.Errorf("status: got %q, want %q", got, "successful")
	}
	if !job.called {
		t.Fatal("monitor was not invoked")
	}
	if job.printStdout {
		t.Error("--wait must not stream stdout")
	}
}

func TestLaunch_MonitorStreamsStdoutAndForwardsTimeout(t *testing.T) {
	t.Parallel()

	srv, _ := launchServer(t, "job")
	h := newTestLaunch(srv)
	var job monitorCall
	h.monitorJob = job.fn("failed")

	out, err := h.Perform(context.Background(), Params{"id": "1", "monitor": true, "timeout": 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.called {
		t.Fatal("monitor was not invoked")
	}
	if !job.printStdout {
		t.Error("--monitor must stream stdout")
	}
	if job.timeout != 30*time.Second {
		t.Errorf("timeout: got %v, want 30s", job.timeout)
	}
	if got := out.(*rest.Page).Str("status"); got != "failed" {
		t.Errorf("status: got %q, want %q", got, "failed")
	}
}

func TestLaunch_NoTerminalObservationLeavesStatusUntouched(t *testing.T) {
	t.Parallel()

	srv, _ := launchServer(t, "job")
	h := newTestLaunch(srv)
	var job monitorCall
	h.monitorJob = job.fn("") // timeout elapsed, unknown outcome

	out, err := h.Perform(context.Background(), Params{"id": "1", "wait": true, "timeout": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.(*rest.Page).Str("status"); got != "pending" {
		t.Errorf("status: got %q, want prior %q", got, "pending")
	}
}

func TestLaunch_WorkflowJobsUseWorkflowMonitor(t *testing.T) {
	t.Parallel()

	srv, _ := launchServer(t, "workflow_job")
	h := newTestLaunch(srv)
	var job, workflow monitorCall
	h.monitorJob = job.fn("successful")
	h.monitorWorkflow = workflow.fn("successful")

	if _, err := h.Perform(context.Background(), Params{"id": "1", "wait": true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.called {
		t.Error("workflow launches must not use the plain job monitor")
	}
	if !workflow.called {
		t.Error("workflow monitor was not invoked")
	}
}

func TestAdhocCommandCreate_StripsMonitorFlagsFromPayload(t *testing.T) {
	t.Parallel()

	var posted map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/ad_hoc_commands/", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&posted); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "type": "ad_hoc_command", "status": "pending", "url": "/api/v2/ad_hoc_commands/7/",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := rest.NewConnection(srv.URL)
	h := &adhocCommandLaunch{launch: newLaunch(rest.NewResource(conn, "/api/v2/ad_hoc_commands/"), "create")}
	var job monitorCall
	h.launch.monitorJob = job.fn("successful")

	p := Params{
		"wait":    true,
		"timeout": 5,
		"set":     []string{"module_name=ping", "inventory=1"},
	}
	out, err := h.Perform(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, banned := range []string{"monitor", "wait", "timeout"} {
		if _, found := posted[banned]; found {
			t.Errorf("payload must not carry %q", banned)
		}
	}
	if posted["module_name"] != "ping" {
		t.Errorf("module_name: got %v", posted["module_name"])
	}
	if posted["inventory"] != float64(1) {
		t.Errorf("inventory: got %v (%T)", posted["inventory"], posted["inventory"])
	}
	if !job.called || job.printStdout {
		t.Errorf("wait must monitor silently: called=%v printStdout=%v", job.called, job.printStdout)
	}
	if job.timeout != 5*time.Second {
		t.Errorf("timeout: got %v, want 5s", job.timeout)
	}
	if got := out.(*rest.Page).Str("status"); got != "successful" {
		t.Errorf("status: got %q, want %q", got, "successful")
	}
}

func TestProjectCreate_MonitorsNewestRelatedUpdate(t *testing.T) {
	t.Parallel()

	var orderBy string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   3,
			"type": "project",
			"url":  "/api/v2/projects/3/",
			"related": map[string]any{
				"project_updates": "/api/v2/projects/3/project_updates/",
			},
		})
	})
	mux.HandleFunc("/api/v2/projects/3/project_updates/", func(w http.ResponseWriter, r *http.Request) {
		orderBy = r.URL.Query().Get("order_by")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 2,
			"results": []any{
				map[string]any{"id": 21, "url": "/api/v2/project_updates/21/", "created": "2026-08-30T12:00:00Z"},
				map[string]any{"id": 20, "url": "/api/v2/project_updates/20/", "created": "2026-08-29T12:00:00Z"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := rest.NewConnection(srv.URL)
	var monitored *rest.Page
	var printStdout bool
	h := &projectCreate{
		res: rest.NewResource(conn, "/api/v2/projects/"),
		monitorJob: func(_ context.Context, job *rest.Page, _ *http.Client, ps bool, _ time.Duration) (string, error) {
			monitored = job
			printStdout = ps
			return "successful", nil
		},
	}

	p := Params{"wait": true, "set": []string{"name=demo", "scm_type=git"}}
	if _, err := h.Perform(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orderBy != "-created" {
		t.Errorf("order_by: got %q, want -created", orderBy)
	}
	if monitored == nil {
		t.Fatal("no update was monitored")
	}
	if id, _ := monitored.Int("id"); id != 21 {
		t.Errorf("monitored update: got id %d, want the newest (21)", id)
	}
	if printStdout {
		t.Error("--wait must not stream stdout")
	}
}
