package extver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xa1bed0/extver/internal/fsops"
	"github.com/0xa1bed0/extver/internal/runtime"
	"github.com/0xa1bed0/extver/internal/versions"
	"github.com/spf13/afero"
)

// Commands share the process-wide logger, so these tests do not run in
// parallel.

func newExtensionsFs(t *testing.T) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	dirs := []string{
		"/ext/a/24.2", "/ext/a/24.1", "/ext/a/22.05", "/ext/a/23.1", "/ext/a/docs",
		"/ext/b/23.0", "/ext/b/21.1",
		"/ext/empty",
	}
	for _, d := range dirs {
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("MkdirAll(%s) failed: %v", d, err)
		}
	}
	if err := afero.WriteFile(fsys, "/ext/a/25.0", []byte("not a directory"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return fsys
}

func runCmd(t *testing.T, fsys afero.Fs, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rt := runtime.WithIO(context.Background(), &stdout, &stderr)
	t.Cleanup(rt.CancelCtx)

	full := append([]string{"--config=" + filepath.Join(t.TempDir(), "missing.toml")}, args...)
	err := execute(rt, fsops.FromFs(fsys), full)
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", path, err)
	}
	return path
}

func TestRootSelectsClosestAtOrBelow(t *testing.T) {
	out, err := runCmd(t, newExtensionsFs(t), "--galaxy-version", "22.10", "/ext/a", "/ext/b")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if want := "/ext/a/22.05\n/ext/b/21.1\n"; out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestSelectLatestKeepsInputOrder(t *testing.T) {
	out, err := runCmd(t, newExtensionsFs(t), "select", "-g", "latest", "/ext/b", "/ext/a", "/ext/b")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if want := "/ext/b/23.0\n/ext/a/24.2\n/ext/b/23.0\n"; out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestSelectJSON(t *testing.T) {
	out, err := runCmd(t, newExtensionsFs(t), "select", "--json", "-g", "20.0", "/ext/a")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}

	var got []resolutionOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	want := resolutionOutput{BasePath: "/ext/a", Requested: "20.0", Selected: "22.05", Path: "/ext/a/22.05", Fallback: true}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("got %+v, want [%+v]", got, want)
	}
}

func TestSelectUsesConfigFile(t *testing.T) {
	cfg := writeFile(t, "config.toml", `
galaxy_version = 24.1
paths = ["/ext/a", "/ext/b"]
`)

	out, err := runCmd(t, newExtensionsFs(t), "select", "--config="+cfg)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if want := "/ext/a/24.1\n/ext/b/23.0\n"; out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}

	// flags win over the config file
	out, err = runCmd(t, newExtensionsFs(t), "select", "--config="+cfg, "-g", "23.5", "/ext/a")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if want := "/ext/a/23.1\n"; out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestSelectErrors(t *testing.T) {
	fsys := newExtensionsFs(t)

	if _, err := runCmd(t, fsys, "select", "/ext/a"); err == nil || !strings.Contains(err.Error(), "galaxy version is required") {
		t.Fatalf("missing version: err = %v", err)
	}

	if _, err := runCmd(t, fsys, "select", "-g", "latest"); !errors.Is(err, errNoPaths) {
		t.Fatalf("missing paths: err = %v, want errNoPaths", err)
	}

	_, err := runCmd(t, fsys, "select", "-g", "invalid_version", "/ext/a")
	if !errors.Is(err, versions.ErrInvalidRequestedVersion) || !strings.Contains(err.Error(), "Invalid galaxy_version") {
		t.Fatalf("invalid version: err = %v", err)
	}

	_, err = runCmd(t, fsys, "select", "-g", "24.1", "/ext/a", "/ext/empty")
	if !errors.Is(err, versions.ErrEmptyVersionSet) || !strings.Contains(err.Error(), "path #1") {
		t.Fatalf("empty path: err = %v", err)
	}
}

func TestSelectRecordsHistory(t *testing.T) {
	fsys := newExtensionsFs(t)
	db := filepath.Join(t.TempDir(), "state.db")

	if _, err := runCmd(t, fsys, "select", "--record", "--state-db", db, "-g", "24.1", "/ext/a"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := runCmd(t, fsys, "select", "--record", "--state-db", db, "-g", "22.10", "/ext/a", "/ext/b"); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	out, err := runCmd(t, fsys, "history", "--state-db", db)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("history output has %d lines, want header, separator and 2 rows:\n%s", len(lines), out)
	}
	if f := strings.Fields(lines[2]); f[0] != "/ext/a" || f[1] != "22.10" || f[2] != "22.05" || f[3] != "false" {
		t.Fatalf("unexpected row %q", lines[2])
	}
	if f := strings.Fields(lines[3]); f[0] != "/ext/b" || f[2] != "21.1" {
		t.Fatalf("unexpected row %q", lines[3])
	}
}

func TestHistoryEmpty(t *testing.T) {
	out, err := runCmd(t, newExtensionsFs(t), "history", "--state-db", filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if out != "No resolutions recorded\n" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestListMarksSelectedVersion(t *testing.T) {
	out, err := runCmd(t, newExtensionsFs(t), "list", "-g", "23.5", "/ext/a", "/ext/empty")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		rows = append(rows, strings.Fields(line))
	}

	want := [][]string{
		{"/ext/a", "24.2"},
		{"24.1"},
		{"23.1", "*"},
		{"22.05"},
		{"/ext/empty", "(none)"},
	}
	// skip header and separator
	for i, w := range want {
		got := rows[i+2]
		if strings.Join(got, " ") != strings.Join(w, " ") {
			t.Fatalf("row %d = %v, want %v\n%s", i, got, w, out)
		}
	}
}

func TestModuleSuccess(t *testing.T) {
	args := writeFile(t, "args.json", `{"paths": ["/ext/a", "/ext/b"], "galaxy_version": 20.0, "_ansible_check_mode": false}`)

	out, err := runCmd(t, newExtensionsFs(t), "module", args)
	if err != nil {
		t.Fatalf("module failed: %v", err)
	}

	var res moduleResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	if res.Failed || res.Changed {
		t.Fatalf("unexpected result %+v", res)
	}
	if strings.Join(res.Result, ",") != "/ext/a/22.05,/ext/b/21.1" {
		t.Fatalf("result = %v", res.Result)
	}
	if len(res.Warnings) != 2 || !strings.Contains(res.Warnings[0], "Using oldest available version '22.05'") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestModuleCommaSeparatedPaths(t *testing.T) {
	args := writeFile(t, "args.json", `{"paths": "/ext/a, /ext/b", "galaxy_version": "latest"}`)

	out, err := runCmd(t, newExtensionsFs(t), "module", args)
	if err != nil {
		t.Fatalf("module failed: %v", err)
	}
	if want := `{"changed":false,"result":["/ext/a/24.2","/ext/b/23.0"]}` + "\n"; out != want {
		t.Fatalf("stdout = %q, want %q", out, want)
	}
}

func TestModuleFailures(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantMsg string
	}{
		{
			name:    "missing arguments",
			args:    `{}`,
			wantMsg: "missing required arguments: galaxy_version, paths",
		},
		{
			name:    "invalid version",
			args:    `{"paths": ["/ext/a"], "galaxy_version": "invalid_version"}`,
			wantMsg: "Invalid galaxy_version: invalid_version.",
		},
		{
			name:    "empty path",
			args:    `{"paths": ["/ext/empty"], "galaxy_version": "24.1"}`,
			wantMsg: "No available extension versions found in /ext/empty.",
		},
		{
			name:    "malformed json",
			args:    `{"paths": [`,
			wantMsg: "failed to parse module arguments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, newExtensionsFs(t), "module", writeFile(t, "args.json", tt.args))
			if runtime.ExitCode(err) != 1 {
				t.Fatalf("exit code = %d, want 1 (err %v)", runtime.ExitCode(err), err)
			}

			var res moduleResult
			if err := json.Unmarshal([]byte(out), &res); err != nil {
				t.Fatalf("stdout is not JSON: %v\n%s", err, out)
			}
			if !res.Failed || !strings.Contains(res.Msg, tt.wantMsg) {
				t.Fatalf("result = %+v, want failed with msg containing %q", res, tt.wantMsg)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, afero.NewMemMapFs(), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "extver local\n" {
		t.Fatalf("stdout = %q", out)
	}
}
