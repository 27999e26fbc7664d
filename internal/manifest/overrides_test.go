package manifest

import "testing"

func TestApplyOverridesFileDisablesMatchingTasks(t *testing.T) {
	fs := newFakeFS().put("/work/.runsheet.overrides.toml", `
[tasks]
"ts-*" = { disabled = true }
`)
	m := &Manifest{
		Root: "/work",
		Tasks: map[string]*Task{
			"ts-build": {Name: "ts-build"},
			"ts-test":  {Name: "ts-test"},
			"go-build": {Name: "go-build"},
		},
	}
	if err := applyOverridesFile(fs, m); err != nil {
		t.Fatalf("applyOverridesFile: %v", err)
	}
	if !m.Tasks["ts-build"].Disabled || !m.Tasks["ts-test"].Disabled {
		t.Errorf("expected ts-* tasks disabled, got %+v", m.Tasks)
	}
	if m.Tasks["go-build"].Disabled {
		t.Error("go-build should not be disabled")
	}
}

func TestApplyOverridesFileWorkflowsSectionDisablesOnlyComposites(t *testing.T) {
	fs := newFakeFS().put("/work/.runsheet.overrides.toml", `
[workflows]
"release-*" = { disabled = true }
`)
	m := &Manifest{
		Root: "/work",
		Tasks: map[string]*Task{
			"release-all": {Name: "release-all", Kind: BodySteps},
			"release-cmd": {Name: "release-cmd", Kind: BodyCommand, Command: "echo release"},
		},
	}
	if err := applyOverridesFile(fs, m); err != nil {
		t.Fatalf("applyOverridesFile: %v", err)
	}
	if !m.Tasks["release-all"].Disabled {
		t.Error("expected composite release-all to be disabled")
	}
	if m.Tasks["release-cmd"].Disabled {
		t.Error("plain command task release-cmd must not be disabled by a [workflows] pattern")
	}
}

func TestApplyOverridesFileMissingIsNoop(t *testing.T) {
	fs := newFakeFS()
	m := &Manifest{Root: "/work", Tasks: map[string]*Task{"a": {Name: "a"}}}
	if err := applyOverridesFile(fs, m); err != nil {
		t.Fatalf("applyOverridesFile: %v", err)
	}
	if m.Tasks["a"].Disabled {
		t.Error("expected no change when overrides file absent")
	}
}
