// Package manifest loads a project's task manifest and normalizes its
// heterogeneous task shapes into the canonical Task representation used by
// the rest of runsheet.
package manifest

// BodyKind distinguishes the two shapes a Task body can take.
type BodyKind int

const (
	// BodyCommand is a single command line, run via a shell or exec'd
	// directly depending on AllowShell.
	BodyCommand BodyKind = iota
	// BodySteps is a composite: an ordered list of references to other
	// tasks (optionally glob patterns, optionally filter excludes) and/or
	// inline commands.
	BodySteps
)

// Step is one raw element of a composite task body, exactly as written in
// the manifest. Whether it is an inline command or a task reference (and,
// if a reference, whether it is an include or an exclude filter) cannot be
// decided until resolution time, when the full task name table is known —
// see the resolver's classifyStep and spec.md §9's "exact match wins" rule.
type Step struct {
	Raw string
}

// Task is the canonical, normalized representation of a manifest task,
// regardless of which of the three source shapes (string, list, record)
// it was declared with.
type Task struct {
	Name string
	Help string

	Cwd     string
	Env     map[string]string
	EnvFile string

	KeepGoing bool
	Verbatim  bool
	Disabled  bool

	Kind    BodyKind
	Command string // set when Kind == BodyCommand; display form, space-joined
	Steps   []Step // set when Kind == BodySteps

	// Argv holds the original argv elements of a list-form cmd, preserved
	// so the executor can spawn them directly instead of re-splitting
	// Command on whitespace (which would corrupt any element containing a
	// space). Set only when Kind == BodyCommand && !AllowShell.
	Argv []string

	AllowShell bool
}

// Manifest is the fully loaded, normalized, but not-yet-resolved project
// manifest.
type Manifest struct {
	Path string // absolute path to the source file
	Root string // directory containing Path

	Tasks map[string]*Task

	// Members holds workspace fan-out directories (already glob-expanded,
	// in declaration order), or nil if the manifest declares none.
	Members []string

	dialect string // for diagnostics only
}
