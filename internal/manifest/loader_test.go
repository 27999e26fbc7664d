package manifest

import (
	"testing"

	"github.com/runsheet/runsheet/internal/runerr"
)

func TestLoadTopOfTreeDialect(t *testing.T) {
	fs := newFakeFS().put("/work/project.toml", `
[tool.runsheet]
members = ["packages/*"]

[tool.runsheet.tasks]
greet = "echo hi"
`)
	m, err := Load(fs, "/work", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Tasks["greet"] == nil || m.Tasks["greet"].Command != "echo hi" {
		t.Fatalf("tasks = %+v", m.Tasks)
	}
}

func TestLoadStandaloneDialect(t *testing.T) {
	fs := newFakeFS().put("/work/runsheet.toml", `
[tasks]
greet = "echo hi"
`)
	m, err := Load(fs, "/work", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Tasks["greet"] == nil {
		t.Fatalf("tasks = %+v", m.Tasks)
	}
}

func TestLoadCompatDialect(t *testing.T) {
	fs := newFakeFS().put("/work/package.json", `{"scripts": {"build": "tsc -b"}}`)
	m, err := Load(fs, "/work", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	task := m.Tasks["build"]
	if task == nil || task.Command != "tsc -b" || !task.AllowShell {
		t.Fatalf("task = %+v", task)
	}
}

func TestLoadWalksUpToParent(t *testing.T) {
	fs := newFakeFS().put("/work/project.toml", `
[tool.runsheet.tasks]
greet = "echo hi"
`)
	m, err := Load(fs, "/work/sub/deeper", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Root != "/work" {
		t.Errorf("root = %q, want /work", m.Root)
	}
}

func TestLoadNoCandidate(t *testing.T) {
	fs := newFakeFS()
	_, err := Load(fs, "/work", "")
	if err == nil {
		t.Fatal("expected ManifestNotFound error")
	}
}

func TestLoadDialectOrderPrefersTopOfTree(t *testing.T) {
	fs := newFakeFS().
		put("/work/project.toml", "[tool.runsheet.tasks]\na = \"echo a\"\n").
		put("/work/runsheet.toml", "[tasks]\nb = \"echo b\"\n")
	m, err := Load(fs, "/work", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := m.Tasks["a"]; !ok {
		t.Errorf("expected project.toml to win over runsheet.toml, got tasks %v", m.Tasks)
	}
}

func TestLoadSkipsFileWithNoTasksTable(t *testing.T) {
	fs := newFakeFS().
		put("/work/project.toml", "[tool.other]\nx = 1\n").
		put("/work/runsheet.toml", "[tasks]\nb = \"echo b\"\n")
	m, err := Load(fs, "/work", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := m.Tasks["b"]; !ok {
		t.Errorf("expected fallback to runsheet.toml, got tasks %v", m.Tasks)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	fs := newFakeFS().put("/other/tasks.toml", "[tasks]\nb = \"echo b\"\n")
	m, err := Load(fs, "/work", "/other/tasks.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := m.Tasks["b"]; !ok {
		t.Errorf("tasks = %v", m.Tasks)
	}
}

func TestLoadExplicitPathWithNoTasksTableIsManifestError(t *testing.T) {
	fs := newFakeFS().put("/other/tasks.toml", "[tool.other]\nx = 1\n")
	_, err := Load(fs, "/work", "/other/tasks.toml")
	if err == nil {
		t.Fatal("expected NoTasks error")
	}
	me, ok := err.(*runerr.Manifest)
	if !ok {
		t.Fatalf("err = %T (%v), want *runerr.Manifest", err, err)
	}
	if me.Kind != "NoTasks" {
		t.Errorf("kind = %q, want NoTasks", me.Kind)
	}
	if me.ExitCode() != 2 {
		t.Errorf("ExitCode = %d, want 2", me.ExitCode())
	}
}

func TestLoadEmptyTasksTableIsError(t *testing.T) {
	fs := newFakeFS().put("/work/runsheet.toml", "[tasks]\n")
	_, err := Load(fs, "/work", "")
	if err == nil {
		t.Fatal("expected NoTasks error")
	}
}
