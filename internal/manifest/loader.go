package manifest

import (
	"path/filepath"

	"github.com/runsheet/runsheet/internal/runerr"
)

// Load discovers and parses a project manifest.
//
// If explicitPath is non-empty, it is used directly (no walk); its dialect
// is chosen from its file name as parseDialect describes. Otherwise the
// walk starts at startDir and proceeds upward through parent directories,
// accepting the first file at any level whose name matches one of the
// three dialect descriptors (§4.2), tried in order: project.toml,
// runsheet.toml, package.json, and which has a tasks table.
func Load(fs FileSystem, startDir, explicitPath string) (*Manifest, error) {
	if explicitPath != "" {
		m, err := loadFile(fs, explicitPath)
		if err == errNoTasks {
			abs, absErr := filepath.Abs(explicitPath)
			if absErr != nil {
				abs = explicitPath
			}
			return nil, &runerr.Manifest{Kind: "NoTasks", Path: abs, Err: errNoTasks}
		}
		return m, err
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, &runerr.Manifest{Kind: "ManifestNotFound", Path: startDir, Err: err}
	}

	noTasksPath := ""
	for {
		for _, name := range dialectNames {
			candidate := filepath.Join(dir, name)
			if !fs.Exists(candidate) {
				continue
			}
			m, err := loadFile(fs, candidate)
			if err == errNoTasks {
				if noTasksPath == "" {
					noTasksPath = candidate
				}
				continue
			}
			return m, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}

	if noTasksPath != "" {
		return nil, &runerr.Manifest{Kind: "NoTasks", Path: noTasksPath, Err: errNoTasks}
	}
	return nil, &runerr.Manifest{Kind: "ManifestNotFound", Path: startDir, Err: errNoCandidate}
}

func loadFile(fs FileSystem, path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &runerr.Manifest{Kind: "ManifestNotFound", Path: path, Err: err}
	}

	data, err := fs.ReadFile(abs)
	if err != nil {
		return nil, &runerr.Manifest{Kind: "ManifestNotFound", Path: abs, Err: err}
	}

	fileName := filepath.Base(abs)
	raw, matched, err := parseDialect(fileName, data)
	if !matched {
		return nil, &runerr.Manifest{Kind: "ManifestNotFound", Path: abs, Err: errUnsupportedDialect}
	}
	if err == errNoTasks {
		return nil, errNoTasks
	}
	if err != nil {
		return nil, &runerr.Manifest{Kind: "ManifestParse", Path: abs, Err: err}
	}

	root := filepath.Dir(abs)
	tasks, err := normalizeTasks(raw.tasks, raw.allShell)
	if err != nil {
		return nil, &runerr.Manifest{Kind: normalizeErrKind(err), Path: abs, Err: err}
	}
	if len(tasks) == 0 {
		return nil, &runerr.Manifest{Kind: "NoTasks", Path: abs, Err: errEmptyTasks}
	}

	members, err := expandMembers(root, raw.members)
	if err != nil {
		return nil, &runerr.Manifest{Kind: "ManifestParse", Path: abs, Err: err}
	}

	m := &Manifest{
		Path:    abs,
		Root:    root,
		Tasks:   tasks,
		Members: members,
		dialect: fileName,
	}

	if err := applyOverridesFile(fs, m); err != nil {
		return nil, &runerr.Manifest{Kind: "ManifestParse", Path: abs, Err: err}
	}

	return m, nil
}

// expandMembers turns workspace member glob patterns into concrete
// directories, relative to root, preserving first-match order and
// deduplicating, mirroring the teacher's import-glob expansion.
func expandMembers(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var out []string
	seen := map[string]bool{}
	for _, pattern := range patterns {
		p := pattern
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
		}
	}
	return out, nil
}
