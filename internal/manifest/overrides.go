package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// overridesFileName is the optional sibling file a workspace member can
// use to disable tasks or composites inherited from a shared manifest
// without editing the shared file (SPEC_FULL.md §3).
const overridesFileName = ".runsheet.overrides.toml"

// overridesDoc mirrors the on-disk shape:
//
//	[tasks]
//	"ts-*" = { disabled = true }
//
//	[workflows]
//	"release-*" = { disabled = true }
//
// [tasks] and [workflows] share one pattern-matching namespace (both are
// just manifest.Task entries under the hood), but [workflows] only ever
// matches composite (BodySteps) tasks — a pattern there can't silently
// disable a plain command task that happens to share its name shape.
type overridesDoc struct {
	Tasks map[string]struct {
		Disabled bool `toml:"disabled"`
	} `toml:"tasks"`
	Workflows map[string]struct {
		Disabled bool `toml:"disabled"`
	} `toml:"workflows"`
}

// applyOverridesFile loads overridesFileName from m.Root, if present, and
// applies it in place. A missing file is not an error.
func applyOverridesFile(fs FileSystem, m *Manifest) error {
	path := filepath.Join(m.Root, overridesFileName)
	if !fs.Exists(path) {
		return nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read overrides file %s: %w", path, err)
	}

	var doc overridesDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse overrides file %s: %w", path, err)
	}

	for pattern, override := range doc.Tasks {
		if !override.Disabled {
			continue
		}
		if err := disableMatching(m, path, pattern, func(*Task) bool { return true }); err != nil {
			return err
		}
	}

	for pattern, override := range doc.Workflows {
		if !override.Disabled {
			continue
		}
		if err := disableMatching(m, path, pattern, func(t *Task) bool { return t.Kind == BodySteps }); err != nil {
			return err
		}
	}

	return nil
}

// disableMatching sets Disabled on every task in m.Tasks whose name
// matches pattern and satisfies eligible.
func disableMatching(m *Manifest, path, pattern string, eligible func(*Task) bool) error {
	for name, task := range m.Tasks {
		if !eligible(task) {
			continue
		}
		matched, err := filepath.Match(pattern, name)
		if err != nil {
			return fmt.Errorf("overrides file %s: invalid pattern %q: %w", path, pattern, err)
		}
		if matched {
			task.Disabled = true
		}
	}
	return nil
}
