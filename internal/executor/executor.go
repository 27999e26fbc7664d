// Package executor runs a resolver.Plan: spawning each step's command,
// layering environment and cwd, honoring keep_going and dry-run, and
// forwarding interrupt signals to the live child's process group.
//
// Exactly one child process is alive at any moment — there is no worker
// pool and no plan-level parallelism.
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/runsheet/runsheet/internal/manifest"
	"github.com/runsheet/runsheet/internal/resolver"
	"github.com/runsheet/runsheet/internal/runerr"
)

// Options configures a Run.
type Options struct {
	// DryRun, when true, renders each step instead of spawning it.
	DryRun bool
	// Overrides is applied on top of every step's own env, taking
	// precedence over everything (the -e / --env-file CLI flags).
	Overrides map[string]string
	// Stdout and Stderr receive dry-run rendering and the executor's own
	// diagnostic lines; a nil value defaults to os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// StepResult records one step's outcome, consumed by the trace writer.
type StepResult struct {
	Step     resolver.Step
	ExitCode int
	Skipped  bool // true under dry-run
	Duration time.Duration
}

// Run executes plan's steps in order, returning the aggregate exit code
// (spec.md §4.5): 0 if every step succeeded, otherwise the first failing
// step's code — unless that step's KeepGoing is set, in which case
// execution continues and the aggregate becomes the last non-zero exit
// code observed (0 if no step failed).
func Run(ctx context.Context, plan *resolver.Plan, opts Options) ([]StepResult, int, error) {
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	errOut := opts.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}

	results := make([]StepResult, 0, len(plan.Steps))
	aggregate := 0

	for _, step := range plan.Steps {
		if opts.DryRun {
			renderDryRun(out, step)
			results = append(results, StepResult{Step: step, Skipped: true})
			continue
		}

		stepStart := time.Now()
		code, err := runStep(ctx, step, opts.Overrides, errOut)
		results = append(results, StepResult{Step: step, ExitCode: code, Duration: time.Since(stepStart)})

		if err != nil {
			if _, ok := err.(*runerr.Signal); ok {
				return results, 130, err
			}
			return results, code, err
		}

		if code != 0 {
			aggregate = code
			if !step.KeepGoing {
				return results, code, &runerr.ChildFailure{Code: code}
			}
		}
	}

	return results, aggregate, nil
}

// runStep spawns one step's command, waits for it, and forwards SIGINT/
// SIGTERM from ctx's cancellation to the child's process group.
func runStep(ctx context.Context, step resolver.Step, overrides map[string]string, errOut io.Writer) (int, error) {
	shell, flag := shellCommand()

	var cmd *exec.Cmd
	if step.AllowShell {
		cmd = exec.Command(shell, flag, step.Command)
	} else {
		// Argv form: spawn the elements exactly as resolved — never
		// re-split step.Command on whitespace, which would corrupt any
		// element that itself contains a space (spec.md §4.5).
		if len(step.Argv) == 0 {
			return 0, nil
		}
		cmd = exec.Command(step.Argv[0], step.Argv[1:]...)
	}

	cmd.Dir = step.Cwd
	cmd.Env = layerEnv(step.Env, overrides)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	setProcAttrs(cmd)

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start %q: %w", step.Command, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		forwardSignal(cmd)
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
		return 130, &runerr.Signal{}

	case err := <-done:
		if err == nil {
			return 0, nil
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		fmt.Fprintf(errOut, "runsheet: %v\n", err)
		return 1, nil
	}
}

// layerEnv computes process_env ⊕ step.Env ⊕ overrides (spec.md §8's env
// layering invariant, extended with the CLI's -e/--env-file overrides,
// which always win).
func layerEnv(stepEnv, overrides map[string]string) []string {
	merged := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	for k, v := range stepEnv {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

// shellCommand picks the shell and its command-string flag per spec.md §6:
// $SHELL if set, else /bin/sh on POSIX or cmd.exe on Windows; -c on POSIX,
// /c on Windows.
func shellCommand() (shell, flag string) {
	if runtime.GOOS == "windows" {
		if s := os.Getenv("SHELL"); s != "" {
			return s, "/c"
		}
		return "cmd.exe", "/c"
	}
	if s := os.Getenv("SHELL"); s != "" {
		return s, "-c"
	}
	return "/bin/sh", "-c"
}

func renderDryRun(out io.Writer, step resolver.Step) {
	fmt.Fprintf(out, "# %s\n", step.TaskName)
	fmt.Fprintf(out, "  cwd: %s\n", step.Cwd)
	if len(step.Env) > 0 {
		keys := make([]string, 0, len(step.Env))
		for k := range step.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(out, "  env: %s\n", strings.Join(sortedEnvPairs(step.Env, keys), " "))
	}
	fmt.Fprintf(out, "  run: %s\n", step.Command)
}

func sortedEnvPairs(env map[string]string, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + "=" + env[k]
	}
	return out
}

// RunInvocation repeats the requested task's resolution and execution once
// per workspace member directory, in declaration order (spec.md §4.5
// "Workspace members": "repeat the top-level invocation in each member").
// A manifest with no members runs once, against its own root. This is why
// the member loop lives here rather than in the resolver: each repetition
// is a fresh resolve against a different root, not a rewrite of one plan.
func RunInvocation(ctx context.Context, m *manifest.Manifest, taskName string, args []string, opts Options) ([]StepResult, int, error) {
	dirs := m.Members
	if len(dirs) == 0 {
		dirs = []string{m.Root}
	}

	task := m.Tasks[taskName]
	var all []StepResult
	aggregate := 0

	for _, dir := range dirs {
		member := *m
		member.Root = dir
		plan, err := resolver.New(&member).Resolve(taskName, args)
		if err != nil {
			return all, 2, err
		}

		results, code, err := Run(ctx, plan, opts)
		all = append(all, results...)
		if code != 0 {
			aggregate = code
		}
		if err != nil {
			if _, ok := err.(*runerr.ChildFailure); ok && task != nil && task.KeepGoing {
				continue
			}
			return all, code, err
		}
	}
	return all, aggregate, nil
}
