package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCapture(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runWith(append([]string{"revtree"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// =============================================================================
// Dispatch Tests
// =============================================================================

func TestRun_NoArgs(t *testing.T) {
	if code, _, _ := runCapture(); code != 1 {
		t.Errorf("expected exit code 1 for no args, got %d", code)
	}
}

func TestRun_Help(t *testing.T) {
	for _, arg := range []string{"help", "-h", "--help"} {
		t.Run(arg, func(t *testing.T) {
			code, out, _ := runCapture(arg)
			if code != 0 {
				t.Errorf("expected exit code 0, got %d", code)
			}
			if !strings.Contains(out, "Commands:") {
				t.Errorf("expected usage, got %q", out)
			}
		})
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCapture("unknown")
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut, "Unknown command: unknown") {
		t.Errorf("unexpected stderr: %q", errOut)
	}
}

func TestRun_CommandHelp(t *testing.T) {
	for _, cmd := range []string{"seed", "dump", "revisions", "version"} {
		for _, flag := range []string{"-h", "-help"} {
			t.Run(cmd+flag, func(t *testing.T) {
				code, out, _ := runCapture(cmd, flag)
				if code != 0 {
					t.Errorf("expected exit code 0, got %d", code)
				}
				if !strings.Contains(out, "Usage:") {
					t.Errorf("expected usage, got %q", out)
				}
			})
		}
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCapture("version")
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "revtree version "+version) {
		t.Errorf("unexpected output: %q", out)
	}

	code, out, _ = runCapture("version", "-short")
	if code != 0 || strings.TrimSpace(out) != version {
		t.Errorf("expected %q, got %q (%d)", version, out, code)
	}
}

// =============================================================================
// Seed / Dump / Revisions Tests
// =============================================================================

func TestSeedDumpRevisions(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	jsonFile := writeFile(t, dir, "doc.json", `{"name": "x", "tags": [true, null]}`)
	xmlFile := writeFile(t, dir, "doc.xml", `<book id="7"><title>Go</title></book>`)

	code, out, errOut := runCapture("seed", "-data-dir", dataDir, "-log-level", "error", "-file", jsonFile)
	if code != 0 {
		t.Fatalf("seed json failed: %s", errOut)
	}
	if !strings.Contains(out, "Committed revision 1") {
		t.Errorf("unexpected seed output: %q", out)
	}

	code, out, errOut = runCapture("seed", "-data-dir", dataDir, "-log-level", "error", "-file", xmlFile)
	if code != 0 {
		t.Fatalf("seed xml failed: %s", errOut)
	}
	if !strings.Contains(out, "Committed revision 2") {
		t.Errorf("unexpected seed output: %q", out)
	}

	code, out, errOut = runCapture("dump", "-data-dir", dataDir, "-log-level", "error", "-stats")
	if code != 0 {
		t.Fatalf("dump failed: %s", errOut)
	}
	for _, want := range []string{"Revision 2", "Document", "ObjectKey", "tags", "Boolean", "true", "Null", "Element", "book", `"7"`, `"Go"`, "Cache:"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump output missing %q:\n%s", want, out)
		}
	}

	// Revision 1 has no XML yet.
	code, out, _ = runCapture("dump", "-data-dir", dataDir, "-log-level", "error", "-revision", "1")
	if code != 0 {
		t.Fatal("dump -revision 1 failed")
	}
	if strings.Contains(out, "book") {
		t.Errorf("revision 1 should not contain the XML document:\n%s", out)
	}

	code, out, errOut = runCapture("revisions", "-data-dir", dataDir, "-log-level", "error")
	if code != 0 {
		t.Fatalf("revisions failed: %s", errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Errorf("expected header and 3 revisions, got %d lines:\n%s", len(lines), out)
	}
}

func TestDumpSubtree(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	file := writeFile(t, dir, "doc.json", `{"a": [1, 2], "b": "x"}`)

	if code, _, errOut := runCapture("seed", "-data-dir", dataDir, "-log-level", "error", "-file", file); code != 0 {
		t.Fatalf("seed failed: %s", errOut)
	}

	// Node 4 is the array under "a".
	code, out, errOut := runCapture("dump", "-data-dir", dataDir, "-log-level", "error", "-node", "4")
	if code != 0 {
		t.Fatalf("dump failed: %s", errOut)
	}
	if !strings.Contains(out, "Array") || strings.Contains(out, `"x"`) {
		t.Errorf("expected only the array subtree:\n%s", out)
	}

	code, _, errOut = runCapture("dump", "-data-dir", dataDir, "-log-level", "error", "-node", "999")
	if code != 1 || !strings.Contains(errOut, "node 999 not found") {
		t.Errorf("expected missing node error, got %d %q", code, errOut)
	}
}

func TestSeedErrors(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", []string{"seed", "-data-dir", dataDir}, "-file is required"},
		{"missing file", []string{"seed", "-data-dir", dataDir, "-file", filepath.Join(dir, "nope.json")}, "Error:"},
		{"unknown format", []string{"seed", "-data-dir", dataDir, "-file", writeFile(t, dir, "doc.txt", "hi")}, "unsupported format"},
		{"bad json", []string{"seed", "-data-dir", dataDir, "-file", writeFile(t, dir, "bad.json", "{")}, "Error:"},
		{"bad flag", []string{"seed", "-bogus"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCapture(tt.args...)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("expected %q in stderr, got %q", tt.want, errOut)
			}
		})
	}
}

func TestEmptyStore(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	for _, cmd := range []string{"dump", "revisions"} {
		code, _, errOut := runCapture(cmd, "-data-dir", dataDir, "-log-level", "error")
		if code != 1 {
			t.Errorf("%s: expected exit code 1 on an empty store, got %d", cmd, code)
		}
		if !strings.Contains(errOut, "no revision committed") {
			t.Errorf("%s: unexpected stderr %q", cmd, errOut)
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "from-config")
	cfgFile := writeFile(t, dir, "revtree.yaml", "storage:\n  dataDir: "+dataDir+"\nlogging:\n  level: error\n")
	doc := writeFile(t, dir, "doc.json", `[1]`)

	if code, _, errOut := runCapture("seed", "-config", cfgFile, "-file", doc); code != 0 {
		t.Fatalf("seed failed: %s", errOut)
	}
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("expected data dir from config: %v", err)
	}

	bad := writeFile(t, dir, "bad.yaml", "trx:\n  nodeNumber: 5000\n")
	code, _, errOut := runCapture("revisions", "-config", bad)
	if code != 1 || !strings.Contains(errOut, "trx.nodeNumber") {
		t.Errorf("expected validation error, got %d %q", code, errOut)
	}
}
