// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autokit-cli/internal/rest"
)

func findResource(name string) resourceDef {
	for _, def := range resourceTable {
		if def.name == name {
			return def
		}
	}
	return resourceDef{}
}

func TestResourceCommand_OverridesShadowGenericVerbs(t *testing.T) {
	t.Parallel()

	conn := rest.NewConnection("https://tower.example.org")
	rc := newResourceCommand(conn, findResource("projects"))

	names := map[string]int{}
	for _, child := range rc.Commands() {
		names[child.Name()]++
	}
	for _, want := range []string{"create", "update", "associate", "disassociate", "list", "get", "modify", "delete"} {
		if names[want] != 1 {
			t.Errorf("projects %s: got %d commands, want exactly 1", want, names[want])
		}
	}
}

func TestResourceCommand_SettingsExposesOnlyOverrides(t *testing.T) {
	t.Parallel()

	conn := rest.NewConnection("https://tower.example.org")
	rc := newResourceCommand(conn, findResource("settings"))

	var names []string
	for _, child := range rc.Commands() {
		names = append(names, child.Name())
	}
	if len(names) != 2 {
		t.Fatalf("settings commands: got %v, want list and modify only", names)
	}
}

func TestActionCommand_GenericListAgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   1,
			"results": []any{map[string]any{"id": 1, "name": "ops"}},
		})
	}))
	defer srv.Close()

	conn := rest.NewConnection(srv.URL)
	rc := newResourceCommand(conn, findResource("teams"))

	var out bytes.Buffer
	rc.SetOut(&out)
	rc.SetErr(&out)
	rc.SetArgs([]string{"list"})
	if err := rc.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), `"count": 1`) {
		t.Errorf("output: got %q", out.String())
	}
}

func TestActionCommand_AssociationFlagGroupContract(t *testing.T) {
	t.Parallel()

	conn := rest.NewConnection("https://tower.example.org")
	rc := newResourceCommand(conn, findResource("organizations"))

	// No target at all: the one-required group must reject before any I/O.
	var out bytes.Buffer
	rc.SetOut(&out)
	rc.SetErr(&out)
	rc.SetArgs([]string{"associate", "1"})
	rc.SilenceErrors = true
	if err := rc.ExecuteContext(context.Background()); err == nil {
		t.Error("expected one-required target group to reject")
	}

	// Two targets: the mutually exclusive group must reject.
	rc2 := newResourceCommand(conn, findResource("organizations"))
	rc2.SetOut(&out)
	rc2.SetErr(&out)
	rc2.SilenceErrors = true
	rc2.SetArgs([]string{"associate", "1", "--start_notification", "5", "--success_notification", "6"})
	if err := rc2.ExecuteContext(context.Background()); err == nil {
		t.Error("expected mutually exclusive target group to reject")
	}
}

func TestActionCommand_LaunchFlagsExist(t *testing.T) {
	t.Parallel()

	conn := rest.NewConnection("https://tower.example.org")
	rc := newResourceCommand(conn, findResource("job_templates"))

	for _, child := range rc.Commands() {
		if child.Name() != "launch" {
			continue
		}
		for _, flag := range []string{"monitor", "wait", "timeout"} {
			if child.Flags().Lookup(flag) == nil {
				t.Errorf("launch is missing --%s", flag)
			}
		}
		return
	}
	t.Fatal("job_templates has no launch command")
}

func TestRenderResult_Forms(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := renderResult(&out, "raw stdout\n"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "raw stdout\n" {
		t.Errorf("string render: got %q", out.String())
	}

	out.Reset()
	page := &rest.Page{JSON: map[string]any{"id": 1}}
	if err := renderResult(&out, page); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"id": 1`) {
		t.Errorf("page render: got %q", out.String())
	}

	out.Reset()
	if err := renderResult(&out, map[string]any{"key": "FOO", "value": 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"key": "FOO"`) {
		t.Errorf("map render: got %q", out.String())
	}

	out.Reset()
	if err := renderResult(&out, nil); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("nil render: got %q", out.String())
	}
}
