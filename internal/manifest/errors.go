package manifest

import "errors"

// errNoTasks is returned internally by a dialect parser when the file
// matches the dialect's name but doesn't actually contain a tasks table.
// The discovery walk treats this the same as "file doesn't match this
// dialect" and keeps trying; ManifestLoader only surfaces NoTasks if no
// candidate file anywhere in the walk has a usable tasks table.
var errNoTasks = errors.New("no tasks table")

// errNoCandidate is surfaced when the discovery walk reaches the
// filesystem root without finding any matching dialect file.
var errNoCandidate = errors.New("no project.toml, runsheet.toml, or package.json found in this directory or any parent")

// errUnsupportedDialect is surfaced when an explicit --file path's name is
// none of the three recognized dialect file names and ends in neither
// .toml nor .json.
var errUnsupportedDialect = errors.New("file name is not one of project.toml, runsheet.toml, package.json")

// errEmptyTasks is surfaced when a matched manifest file's tasks table is
// present but has zero entries.
var errEmptyTasks = errors.New("tasks table is empty")
