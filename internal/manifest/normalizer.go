package manifest

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// recognizedKeys is the closed set of structured-record keys TaskNormalizer
// accepts. Anything else is rejected as UnknownTaskKey, including the
// rejected keep-going spelling "allow_fail" (spec.md §9 open question,
// resolved in favor of "keep_going" — see SPEC_FULL.md §4.3).
var recognizedKeys = map[string]bool{
	"help":       true,
	"cwd":        true,
	"env":        true,
	"env_file":   true,
	"keep_going": true,
	"verbatim":   true,
	"shell":      true,
	"cmd":        true,
	"composite":  true,
}

// rawTaskRecord is the mapstructure decode target for the structured-record
// task shape.
type rawTaskRecord struct {
	Help      string            `mapstructure:"help"`
	Cwd       string            `mapstructure:"cwd"`
	Env       map[string]string `mapstructure:"env"`
	EnvFile   string            `mapstructure:"env_file"`
	KeepGoing bool              `mapstructure:"keep_going"`
	Verbatim  bool              `mapstructure:"verbatim"`
	Shell     any               `mapstructure:"shell"`
	Cmd       any               `mapstructure:"cmd"`
	Composite []any             `mapstructure:"composite"`
}

// unknownTaskKeyError and friends are translated into *runerr.Manifest by
// loadFile in loader.go, using normalizeErrKind below; they carry the task
// name so the message is actionable.
type unknownTaskKeyError struct {
	task, key string
}

func (e *unknownTaskKeyError) Error() string {
	return fmt.Sprintf("task %q: unknown key %q", e.task, e.key)
}

type ambiguousBodyError struct{ task string }

func (e *ambiguousBodyError) Error() string {
	return fmt.Sprintf("task %q: exactly one of shell, cmd, composite must be set", e.task)
}

type emptyBodyError struct{ task string }

func (e *emptyBodyError) Error() string {
	return fmt.Sprintf("task %q: one of shell, cmd, composite is required", e.task)
}

// normalizeErrKind classifies an error returned by normalizeTasks into the
// runerr.Manifest.Kind it should be reported as.
func normalizeErrKind(err error) string {
	switch err.(type) {
	case *unknownTaskKeyError:
		return "UnknownTaskKey"
	case *ambiguousBodyError:
		return "AmbiguousTaskBody"
	case *emptyBodyError:
		return "EmptyTaskBody"
	default:
		return "ManifestParse"
	}
}

// normalizeTasks folds every raw task entry into the canonical Task shape
// (spec.md §4.3). allShell forces Compat mode: every entry must be a
// string and becomes Command(string) with AllowShell=true; any other shape
// is an error.
func normalizeTasks(raw map[string]any, allShell bool) (map[string]*Task, error) {
	out := make(map[string]*Task, len(raw))
	for name, value := range raw {
		if strings.ContainsAny(name, " \t\n") || name == "" {
			return nil, fmt.Errorf("task name %q is empty or contains whitespace", name)
		}

		var task *Task
		var err error
		if allShell {
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("task %q: compat mode requires a string command", name)
			}
			task = &Task{Name: name, Kind: BodyCommand, Command: s, AllowShell: true}
		} else {
			task, err = normalizeOne(name, value)
		}
		if err != nil {
			return nil, err
		}
		out[name] = task
	}
	return out, nil
}

func normalizeOne(name string, value any) (*Task, error) {
	switch v := value.(type) {
	case string:
		return &Task{Name: name, Kind: BodyCommand, Command: v, AllowShell: true}, nil

	case []any:
		steps, err := stepsFromList(v)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		return &Task{Name: name, Kind: BodySteps, Steps: steps}, nil

	case map[string]any:
		return normalizeRecord(name, v)

	default:
		return nil, fmt.Errorf("task %q: unrecognized task shape %T", name, value)
	}
}

// normalizeRecord handles the structured-record task shape.
func normalizeRecord(name string, m map[string]any) (*Task, error) {
	for key := range m {
		if !recognizedKeys[key] {
			return nil, &unknownTaskKeyError{task: name, key: key}
		}
	}

	var rec rawTaskRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &rec})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("task %q: %w", name, err)
	}

	bodyKeys := 0
	if _, ok := m["shell"]; ok {
		bodyKeys++
	}
	if _, ok := m["cmd"]; ok {
		bodyKeys++
	}
	if _, ok := m["composite"]; ok {
		bodyKeys++
	}
	if bodyKeys == 0 {
		return nil, &emptyBodyError{task: name}
	}
	if bodyKeys > 1 {
		return nil, &ambiguousBodyError{task: name}
	}

	task := &Task{
		Name:      name,
		Help:      rec.Help,
		Cwd:       rec.Cwd,
		Env:       rec.Env,
		EnvFile:   rec.EnvFile,
		KeepGoing: rec.KeepGoing,
		Verbatim:  rec.Verbatim,
	}

	switch {
	case rec.Shell != nil:
		s, ok := rec.Shell.(string)
		if !ok {
			return nil, fmt.Errorf("task %q: shell must be a string", name)
		}
		task.Kind = BodyCommand
		task.Command = s
		task.AllowShell = true

	case rec.Cmd != nil:
		task.Kind = BodyCommand
		switch c := rec.Cmd.(type) {
		case string:
			task.Command = c
			task.AllowShell = true
		case []any:
			parts := make([]string, 0, len(c))
			for _, p := range c {
				s, ok := p.(string)
				if !ok {
					return nil, fmt.Errorf("task %q: cmd list elements must be strings", name)
				}
				parts = append(parts, s)
			}
			// Command is the space-joined form for display only (--list,
			// --dry-run, trace output); Argv is what actually gets exec'd —
			// see resolver.buildArgvStep.
			task.Command = strings.Join(parts, " ")
			task.Argv = parts
			task.AllowShell = false
		default:
			return nil, fmt.Errorf("task %q: cmd must be a string or list of strings", name)
		}

	case rec.Composite != nil:
		steps, err := stepsFromList(rec.Composite)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", name, err)
		}
		task.Kind = BodySteps
		task.Steps = steps
	}

	return task, nil
}

// stepsFromList turns a raw composite element list into canonical Steps.
// Each element's classification (inline command vs. reference) happens
// later, at resolution time, against the full task name table — see
// resolver.classifyStep — because normalization handles one task at a time
// without knowing its sibling tasks. Both the list form and the structured
// composite key come through here. We only record the raw text, with any
// include/exclude marker still in it.
func stepsFromList(list []any) ([]Step, error) {
	steps := make([]Step, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("composite element %v must be a string", item)
		}
		steps = append(steps, Step{Raw: s})
	}
	return steps, nil
}
