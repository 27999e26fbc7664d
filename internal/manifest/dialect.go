package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// toolName is the namespace under which the top-of-tree dialect nests its
// tasks table: [tool.runsheet.tasks].
const toolName = "runsheet"

// dialectNames are the files ManifestLoader looks for, in order, at every
// directory level of the discovery walk (§4.2).
var dialectNames = []string{"project.toml", "runsheet.toml", "package.json"}

// rawDoc is what a dialect parser extracts from a manifest file before
// normalization: the tasks table (still in raw map[string]any/[]any shape)
// and, if present, the workspace member glob list.
type rawDoc struct {
	tasks      map[string]any
	members    []string
	allShell   bool // compat mode: every entry is Command(string), allow_shell=true
	sourceFile string
}

// parseDialect dispatches to the parser for fileName. It returns
// (nil, false, nil) if fileName is neither one of the three recognized
// dialect file names nor some other *.toml or *.json name.
//
// During the discovery walk, fileName is always exactly one of
// dialectNames. For an explicit --file path the name is whatever the
// caller gave; an exact match still wins (project.toml is always
// top-of-tree), but any other *.toml is treated as dialect 2 and any other
// *.json is treated as dialect 3, so "--file tasks.toml" works without the
// file being named exactly "runsheet.toml".
func parseDialect(fileName string, data []byte) (*rawDoc, bool, error) {
	switch {
	case fileName == "project.toml":
		doc, err := parseTopOfTree(data)
		return doc, true, err
	case fileName == "runsheet.toml":
		doc, err := parseStandalone(data)
		return doc, true, err
	case fileName == "package.json":
		doc, err := parseCompat(data)
		return doc, true, err
	case strings.HasSuffix(fileName, ".toml"):
		doc, err := parseStandalone(data)
		return doc, true, err
	case strings.HasSuffix(fileName, ".json"):
		doc, err := parseCompat(data)
		return doc, true, err
	default:
		return nil, false, nil
	}
}

// parseTopOfTree handles dialect 1: a structured project manifest
// containing a [tool.runsheet.tasks] table.
func parseTopOfTree(data []byte) (*rawDoc, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}

	tool, _ := doc["tool"].(map[string]any)
	if tool == nil {
		return nil, errNoTasks
	}
	section, _ := tool[toolName].(map[string]any)
	if section == nil {
		return nil, errNoTasks
	}
	tasks, _ := section["tasks"].(map[string]any)
	if tasks == nil {
		return nil, errNoTasks
	}

	members := toStringSlice(section["members"])
	return &rawDoc{tasks: tasks, members: members}, nil
}

// parseStandalone handles dialect 2: a dedicated runsheet.toml with a
// top-level [tasks] table.
func parseStandalone(data []byte) (*rawDoc, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}

	tasks, _ := doc["tasks"].(map[string]any)
	if tasks == nil {
		return nil, errNoTasks
	}

	members := toStringSlice(doc["members"])
	return &rawDoc{tasks: tasks, members: members}, nil
}

// parseCompat handles dialect 3: a package manifest's top-level "scripts"
// table. Every entry becomes Command(string) with allow_shell=true
// (normalizeTasks rejects an entry that is not a string), per spec.md §4.2
// Compat mode.
func parseCompat(data []byte) (*rawDoc, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}

	scripts, _ := doc["scripts"].(map[string]any)
	if scripts == nil {
		return nil, errNoTasks
	}

	return &rawDoc{tasks: scripts, allShell: true}, nil
}

func toStringSlice(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
