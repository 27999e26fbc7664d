// Package resolver turns a requested task name and argument vector into a
// concrete, ordered execution plan: a flat list of Steps, each carrying its
// own command text, cwd, and env, ready for the executor to run in sequence.
//
// This is where composite expansion, glob/filter steps, and argument
// interpolation all happen — the manifest package only normalizes shapes,
// it never looks at sibling tasks or $-placeholders.
package resolver

import "github.com/runsheet/runsheet/internal/manifest"

// Step is one concrete, resolved unit of work: either an inline shell
// command or the already-interpolated command line of a referenced task.
type Step struct {
	// TaskName is the originating task's name, for trace/log labeling. For
	// an inline composite command it's the owning composite's name.
	TaskName string

	// Command is always populated, space-joined, for display (--dry-run,
	// trace, error messages). When AllowShell is false and Argv is set,
	// Command is NOT what gets executed — the executor spawns Argv
	// directly; Argv preserves elements that may themselves contain spaces.
	Command    string
	Argv       []string
	AllowShell bool
	Cwd        string
	Env        map[string]string

	KeepGoing bool
}

// Plan is the fully resolved, ordered list of Steps for one invocation,
// against a single manifest root. Workspace member fan-out (running this
// same resolution once per member directory) is driven by the executor
// straight off manifest.Manifest.Members — see executor.RunInvocation —
// since each member needs its own fresh Resolve, not a rewrite of one Plan.
type Plan struct {
	Steps []Step
}

// Resolver resolves task invocations against a loaded manifest.
type Resolver struct {
	m *manifest.Manifest
}

// New returns a Resolver bound to m.
func New(m *manifest.Manifest) *Resolver {
	return &Resolver{m: m}
}
