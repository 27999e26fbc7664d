// Package cli implements the runsheet command-line adapter: flag parsing,
// the colon-separated task-invocation grammar, --list/--dry-run rendering,
// and wiring into the manifest/resolver/executor/trace core.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/runsheet/runsheet/internal/executor"
	"github.com/runsheet/runsheet/internal/manifest"
	"github.com/runsheet/runsheet/internal/resolver"
	"github.com/runsheet/runsheet/internal/runerr"
	"github.com/runsheet/runsheet/internal/trace"
)

// version is set at build time via -ldflags, mirroring the teacher's
// main.go version variable.
var version = "dev"

// NewRootCommand builds the cobra root command. Flag parsing is disabled
// on it — every flag spec.md §6 names, plus the task invocations that
// follow, are handled by extractFlags/scanInvocations instead, because
// cobra's own parser cannot tell a "-e" override from a composite
// exclude-marker buried in a forwarded task argument.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:                "runsheet [flags] [--] TASK [args...] [: TASK [args...]]...",
		Short:              "Resolve and run project tasks from a manifest",
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args)
		},
	}
	return root
}

// Execute runs the CLI and returns a process exit code (spec.md §6 exit
// codes).
func Execute(args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return reportAndExit(err)
	}
	return 0
}

func reportAndExit(err error) int {
	if coder, ok := err.(runerr.ExitCoder); ok {
		if coder.ExitCode() != 0 {
			fmt.Fprintf(os.Stderr, "runsheet: %v\n", err)
		}
		return coder.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "runsheet: %v\n", err)
	return 1
}

func run(args []string) error {
	flags, err := extractFlags(args)
	if err != nil {
		return &runerr.Usage{Msg: err.Error()}
	}

	if flags.Help {
		printHelp()
		return nil
	}
	if flags.Version {
		fmt.Println(version)
		return nil
	}

	if flags.Cwd != "" {
		if err := os.Chdir(flags.Cwd); err != nil {
			return &runerr.Usage{Msg: fmt.Sprintf("--cwd %s: %v", flags.Cwd, err)}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return &runerr.Usage{Msg: err.Error()}
	}

	m, err := manifest.Load(manifest.DefaultFS(), wd, flags.File)
	if err != nil {
		return err
	}

	overrides := flags.Env
	if flags.EnvFile != "" {
		overrides, err = loadEnvFileOverrides(flags.EnvFile, flags.Env)
		if err != nil {
			return &runerr.Usage{Msg: err.Error()}
		}
	}

	if flags.List {
		return runList(m, flags.Format)
	}

	invocations, err := scanInvocations(flags.Tokens)
	if err != nil {
		return &runerr.Usage{Msg: err.Error()}
	}
	if len(invocations) == 0 {
		return &runerr.Usage{Msg: "no task given; see --help"}
	}

	for _, inv := range invocations {
		if err := runOne(m, inv, flags, overrides); err != nil {
			return err
		}
	}
	return nil
}

func runOne(m *manifest.Manifest, inv Invocation, flags *invocationFlags, overrides map[string]string) error {
	task, ok := m.Tasks[inv.Name]
	if !ok {
		return &runerr.Resolution{Kind: "UnknownTask", Msg: inv.Name}
	}
	if task.Disabled {
		return &runerr.Usage{Msg: fmt.Sprintf("task %q is disabled", inv.Name)}
	}

	if flags.DryRun {
		return runDryRun(m, inv, flags.Format, overrides)
	}

	start := time.Now()
	ctx, cancel := signalContext()
	defer cancel()

	opts := executor.Options{Overrides: overrides}
	results, code, err := executor.RunInvocation(ctx, m, inv.Name, inv.Args, opts)

	trace.Best(trace.New(inv.Name, inv.Args, false, start, results, code), m.Root)

	if err != nil {
		if coder, ok := err.(runerr.ExitCoder); ok {
			return coder
		}
		return &runerr.ChildFailure{Code: code}
	}
	if code != 0 {
		return &runerr.ChildFailure{Code: code}
	}
	return nil
}

func runDryRun(m *manifest.Manifest, inv Invocation, format string, overrides map[string]string) error {
	start := time.Now()
	plan, err := resolver.New(m).Resolve(inv.Name, inv.Args)
	if err != nil {
		return err
	}

	steps := make([]stepRender, 0, len(plan.Steps))
	results := make([]executor.StepResult, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		// Render the env an actual run would use: step env with the
		// -e/--env-file overrides layered on top, same precedence as
		// executor.layerEnv applies at run time.
		env := make(map[string]string, len(s.Env)+len(overrides))
		for k, v := range s.Env {
			env[k] = v
		}
		for k, v := range overrides {
			env[k] = v
		}
		steps = append(steps, stepRender{TaskName: s.TaskName, Command: s.Command, Cwd: s.Cwd, Env: env})
		results = append(results, executor.StepResult{Step: s, Skipped: true})
	}

	// Every top-level invocation produces a Trace, dry-run or real
	// (SPEC_FULL.md §4.5).
	trace.Best(trace.New(inv.Name, inv.Args, true, start, results, 0), m.Root)

	if format == "text" {
		printDryRunText(steps)
		return nil
	}
	return renderStructured(format, steps)
}

func runList(m *manifest.Manifest, format string) error {
	names := make([]string, 0, len(m.Tasks))
	for name := range m.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]taskListEntry, 0, len(names))
	for _, name := range names {
		t := m.Tasks[name]
		if t.Disabled {
			continue
		}
		entries = append(entries, taskListEntry{Name: name, Help: t.Help})
	}

	if format == "text" {
		printListText(entries)
		return nil
	}
	return renderStructured(format, entries)
}

func printHelp() {
	fmt.Println(`runsheet - resolve and run project tasks from a manifest

Usage:
  runsheet [flags] [--] TASK [args...] [: TASK [args...]]...

Flags:
  -f, --file <path>       explicit manifest path (bypass discovery)
      --cwd <path>        change into this directory before discovery/execution
  -l, --list              print each task name and help line; exit 0
  -n, --dry-run           resolve and print the plan; do not spawn processes
  -e KEY=VALUE            environment override applied to every step (repeatable)
      --env-file <path>   load KEY=VALUE pairs and apply as above
      --format <fmt>      text (default), json, or yaml — for --list/--dry-run
  -h, --help              show this help
      --version           show version
  --                       end of runsheet flags; everything after is task invocations`)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
