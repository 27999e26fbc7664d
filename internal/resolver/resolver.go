package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/runsheet/runsheet/internal/argstring"
	"github.com/runsheet/runsheet/internal/manifest"
	"github.com/runsheet/runsheet/internal/runerr"
)

// Resolve converts (taskName, args) plus the bound manifest into a Plan.
// It is a pure function of its inputs: the same manifest, task name, and
// argument vector always produce the same Plan.
func (r *Resolver) Resolve(taskName string, args []string) (*Plan, error) {
	task, ok := r.m.Tasks[taskName]
	if !ok {
		return nil, &runerr.Resolution{Kind: "UnknownTask", Msg: taskName}
	}

	baseEnv := map[string]string{}
	baseCwd := r.m.Root

	steps, err := r.expandTask(task, args, []string{taskName}, baseEnv, baseCwd)
	if err != nil {
		return nil, err
	}

	return &Plan{Steps: steps}, nil
}

// expandTask dispatches on task's body and returns the flat Step list it
// contributes to the plan. parentEnv and parentCwd are the environment and
// working directory inherited from whatever is expanding this task (the
// top-level invocation, or an enclosing composite).
func (r *Resolver) expandTask(task *manifest.Task, args []string, stack []string, parentEnv map[string]string, parentCwd string) ([]Step, error) {
	env, err := mergeTaskEnv(r.m.Root, parentEnv, task)
	if err != nil {
		return nil, err
	}
	cwd := parentCwd
	if task.Cwd != "" {
		cwd = resolveCwd(r.m.Root, task.Cwd)
	}

	switch task.Kind {
	case manifest.BodyCommand:
		step, err := buildCommandStep(task, args, env, cwd)
		if err != nil {
			return nil, err
		}
		return []Step{step}, nil

	case manifest.BodySteps:
		return r.expandComposite(task, stack, env, cwd)

	default:
		return nil, fmt.Errorf("task %q: unrecognized body kind", task.Name)
	}
}

// group is one entry of the composite accumulator: either a named
// reference's already-expanded sub-steps, or a single inline command step.
type group struct {
	name  string // "" for an inline step
	steps []Step
}

func (r *Resolver) expandComposite(task *manifest.Task, stack []string, env map[string]string, cwd string) ([]Step, error) {
	var acc []group
	index := map[string]int{}
	removed := map[string]bool{}
	anyIncludeMatched := false
	var emptyPattern string

	for _, raw := range task.Steps {
		kind, text := classifyStep(raw.Raw, r.m.Tasks)

		if kind == stepInline {
			acc = append(acc, group{steps: []Step{{
				TaskName:   task.Name,
				Command:    text,
				AllowShell: true,
				Cwd:        cwd,
				Env:        env,
				KeepGoing:  task.KeepGoing,
			}}})
			continue
		}

		names, err := matchNames(text, r.m.Tasks)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 && emptyPattern == "" {
			emptyPattern = text
		}

		if kind == stepInclude {
			for _, name := range names {
				anyIncludeMatched = true
				if _, ok := index[name]; ok || removed[name] {
					continue // first-inclusion order already fixed
				}
				if err := pushCycleCheck(stack, name); err != nil {
					return nil, err
				}
				sub, err := r.expandTask(r.m.Tasks[name], nil, append(stack, name), env, cwd)
				if err != nil {
					return nil, err
				}
				index[name] = len(acc)
				acc = append(acc, group{name: name, steps: sub})
			}
		} else {
			for _, name := range names {
				if i, ok := index[name]; ok {
					acc[i].steps = nil
					removed[name] = true
				}
			}
		}
	}

	if !anyIncludeMatched && emptyPattern != "" {
		return nil, &runerr.Resolution{Kind: "PatternMatchedNothing", Msg: emptyPattern}
	}

	var out []Step
	for _, g := range acc {
		out = append(out, g.steps...)
	}
	return out, nil
}

// pushCycleCheck fails with CyclicTask if name is already on stack.
func pushCycleCheck(stack []string, name string) error {
	for _, s := range stack {
		if s == name {
			return &runerr.Resolution{Kind: "CyclicTask", Msg: strings.Join(append(stack, name), " -> ")}
		}
	}
	return nil
}

type stepKind int

const (
	stepInclude stepKind = iota
	stepExclude
	stepInline
)

// classifyStep decides whether a raw composite element is a task reference
// (bare name or glob pattern, optionally marked + include or -/! exclude)
// or an inline command taken verbatim.
//
// Exact match against the task table always wins over metacharacter
// sniffing: a step whose marker-stripped text is literally a task name is
// always a reference, even if that name happens to also look like a glob
// pattern or contain shell metacharacters. Failing that, if the
// marker-stripped text contains glob metacharacters it is treated as a
// pattern reference. Otherwise the step is an inline command, and the
// ORIGINAL unstripped text is used as the command — a leading "-" or "!"
// that doesn't mark a real reference is just part of the command.
func classifyStep(raw string, tasks map[string]*manifest.Task) (stepKind, string) {
	kind := stepInclude
	stripped := raw
	switch {
	case strings.HasPrefix(raw, "+"):
		stripped = raw[1:]
	case strings.HasPrefix(raw, "-"):
		kind = stepExclude
		stripped = raw[1:]
	case strings.HasPrefix(raw, "!"):
		kind = stepExclude
		stripped = raw[1:]
	}

	if _, ok := tasks[stripped]; ok {
		return kind, stripped
	}
	if isGlobPattern(stripped) {
		return kind, stripped
	}
	return stepInline, raw
}

func isGlobPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// matchNames returns every task name matching text: text itself if it's an
// exact name, or every name filepath.Match accepts if text is a pattern.
// Names are returned in sorted order so pattern expansion is deterministic.
func matchNames(text string, tasks map[string]*manifest.Task) ([]string, error) {
	if _, ok := tasks[text]; ok {
		return []string{text}, nil
	}

	all := make([]string, 0, len(tasks))
	for name := range tasks {
		all = append(all, name)
	}
	sort.Strings(all)

	var out []string
	for _, name := range all {
		matched, err := filepath.Match(text, name)
		if err != nil {
			return nil, &runerr.Resolution{Kind: "ManifestParse", Msg: fmt.Sprintf("invalid pattern %q: %v", text, err)}
		}
		if matched {
			out = append(out, name)
		}
	}
	return out, nil
}

// buildCommandStep interpolates task's command template against args and
// decides whether unused args should be appended, per the argument
// forwarding rule: a template containing any positional placeholder or
// $@/$* is never auto-appended to; verbatim tasks skip interpolation
// entirely. A list-form cmd (task.Argv set, AllowShell false) is handled
// by buildArgvStep instead, since it must stay argv elements end to end —
// never round-tripped through a joined string — per spec.md §4.3/§4.5.
func buildCommandStep(task *manifest.Task, args []string, env map[string]string, cwd string) (Step, error) {
	if !task.AllowShell && task.Argv != nil {
		return buildArgvStep(task, args, env, cwd)
	}

	text := task.Command

	if !task.Verbatim {
		res, err := argstring.Interpolate(task.Command, args)
		if err != nil {
			return Step{}, &runerr.Resolution{Kind: "BadPlaceholder", Msg: err.Error()}
		}
		text = res.Text
		if !argstring.HasPlaceholder(task.Command) {
			text = argstring.AppendUnused(text, args, res)
		}
	}

	return Step{
		TaskName:   task.Name,
		Command:    text,
		AllowShell: task.AllowShell,
		Cwd:        cwd,
		Env:        env,
		KeepGoing:  task.KeepGoing,
	}, nil
}

// buildArgvStep interpolates each argv element independently — rather than
// joining the template into one string, substituting, and re-splitting on
// whitespace, which would corrupt any element containing a space (e.g.
// cmd = ["git", "commit", "-m", "my message"]). Auto-append of unused args
// is suppressed if any element referenced a positional placeholder or
// $@/$*, mirroring buildCommandStep's rule but appending as additional
// argv elements instead of joined text.
func buildArgvStep(task *manifest.Task, args []string, env map[string]string, cwd string) (Step, error) {
	argv := task.Argv

	if !task.Verbatim {
		used := map[int]bool{}
		all := false
		hasPlaceholder := false

		out := make([]string, len(task.Argv))
		for i, elem := range task.Argv {
			res, err := argstring.Interpolate(elem, args)
			if err != nil {
				return Step{}, &runerr.Resolution{Kind: "BadPlaceholder", Msg: err.Error()}
			}
			out[i] = res.Text
			for idx := range res.Used {
				used[idx] = true
			}
			if res.All {
				all = true
			}
			if argstring.HasPlaceholder(elem) {
				hasPlaceholder = true
			}
		}

		if !hasPlaceholder && !all {
			for i, a := range args {
				if !used[i+1] {
					out = append(out, a)
				}
			}
		}
		argv = out
	}

	return Step{
		TaskName:   task.Name,
		Command:    strings.Join(argv, " "),
		Argv:       argv,
		AllowShell: false,
		Cwd:        cwd,
		Env:        env,
		KeepGoing:  task.KeepGoing,
	}, nil
}

// mergeTaskEnv folds task's own env (and env_file, beneath env) over
// parentEnv, later keys winning, per spec.md §4.4's composite env rule and
// §3's env_file precedence.
func mergeTaskEnv(root string, parentEnv map[string]string, task *manifest.Task) (map[string]string, error) {
	out := make(map[string]string, len(parentEnv)+len(task.Env))
	for k, v := range parentEnv {
		out[k] = v
	}

	if task.EnvFile != "" {
		path := task.EnvFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		fileEnv, err := loadEnvFile(path)
		if err != nil {
			return nil, &runerr.Resolution{Kind: "ManifestParse", Msg: err.Error()}
		}
		for k, v := range fileEnv {
			out[k] = v
		}
	}

	for k, v := range task.Env {
		out[k] = v
	}
	return out, nil
}

func loadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	out := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

func resolveCwd(root, cwd string) string {
	if filepath.IsAbs(cwd) {
		return cwd
	}
	return filepath.Join(root, cwd)
}
