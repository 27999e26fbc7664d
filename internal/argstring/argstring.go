// Package argstring implements the shell-style positional placeholder
// grammar used by task command templates: $1, ${2:-default}, $@, $*, $$.
//
// The grammar is small enough that a hand-written scanner is clearer and
// less error-prone than a regex substitution pass, particularly for the
// ${N:-default} form where the default text itself may contain spaces and
// further '$' signs, copied literally; it ends at the first '}'.
package argstring

import (
	"fmt"
	"strconv"
	"strings"
)

// BadPlaceholder is returned when a template contains '$' followed by a
// form the scanner does not recognize.
type BadPlaceholder struct {
	Template string
	Pos      int
}

func (e *BadPlaceholder) Error() string {
	return fmt.Sprintf("bad placeholder at offset %d in %q", e.Pos, e.Template)
}

// Result is the outcome of interpolating a template against an argument
// vector.
type Result struct {
	Text string
	// Used holds the 1-based indices of positional arguments consumed by
	// $N or ${N:-default} placeholders. It never includes indices implied
	// by $@ or $*.
	Used map[int]bool
	// All reports whether $@ or $* appeared anywhere in the template; when
	// true, no argument is ever appended automatically by the caller.
	All bool
}

// Interpolate scans template and substitutes placeholders using args
// (1-indexed positionally: args[0] is $1). A literally empty template
// interpolates to the space-joined argument vector.
func Interpolate(template string, args []string) (Result, error) {
	if template == "" {
		return Result{Text: strings.Join(args, " "), Used: map[int]bool{}}, nil
	}

	var b strings.Builder
	used := map[int]bool{}
	all := false

	runes := []rune(template)
	n := len(runes)
	for i := 0; i < n; i++ {
		c := runes[i]
		if c != '$' {
			b.WriteRune(c)
			continue
		}

		// c == '$'; look at what follows.
		if i+1 >= n {
			return Result{}, &BadPlaceholder{Template: template, Pos: i}
		}
		next := runes[i+1]

		switch {
		case next == '$':
			b.WriteByte('$')
			i++

		case next == '@' || next == '*':
			b.WriteString(strings.Join(args, " "))
			all = true
			i++

		case next >= '0' && next <= '9':
			j := i + 1
			for j < n && runes[j] >= '0' && runes[j] <= '9' {
				j++
			}
			idx, err := strconv.Atoi(string(runes[i+1 : j]))
			if err != nil || idx == 0 {
				return Result{}, &BadPlaceholder{Template: template, Pos: i}
			}
			if idx <= len(args) {
				b.WriteString(args[idx-1])
				used[idx] = true
			}
			i = j - 1

		case next == '{':
			close := strings.IndexRune(string(runes[i+2:]), '}')
			if close < 0 {
				return Result{}, &BadPlaceholder{Template: template, Pos: i}
			}
			body := string(runes[i+2 : i+2+close])
			idx, def, ok := parseBracedBody(body)
			if !ok {
				return Result{}, &BadPlaceholder{Template: template, Pos: i}
			}
			used[idx] = true
			if idx <= len(args) && args[idx-1] != "" {
				b.WriteString(args[idx-1])
			} else {
				b.WriteString(def)
			}
			i = i + 2 + close

		default:
			return Result{}, &BadPlaceholder{Template: template, Pos: i}
		}
	}

	return Result{Text: b.String(), Used: used, All: all}, nil
}

// parseBracedBody parses the contents of ${...}: either a bare "N" or
// "N:-default". ok is false if body isn't of that shape.
func parseBracedBody(body string) (idx int, def string, ok bool) {
	colon := strings.Index(body, ":-")
	numPart := body
	if colon >= 0 {
		numPart = body[:colon]
		def = body[colon+2:]
	}
	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, def, true
}

// AppendUnused joins any args whose 1-based index was not recorded in used
// onto the end of text, space separated, in their original order. It is a
// no-op when all is true (the template already referenced $@ or $*).
func AppendUnused(text string, args []string, res Result) string {
	if res.All {
		return text
	}
	var rest []string
	for i, a := range args {
		if !res.Used[i+1] {
			rest = append(rest, a)
		}
	}
	if len(rest) == 0 {
		return text
	}
	if text == "" {
		return strings.Join(rest, " ")
	}
	return text + " " + strings.Join(rest, " ")
}

// HasPlaceholder reports whether template references any positional
// placeholder ($N, ${N:-...}) or $@/$* — used by the resolver to decide
// whether automatic argument forwarding should be suppressed.
func HasPlaceholder(template string) bool {
	runes := []rune(template)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '$' || i+1 >= len(runes) {
			continue
		}
		next := runes[i+1]
		switch {
		case next == '$':
			i++ // escaped literal '$', skip both runes
		case next == '@' || next == '*' || next == '{' || (next >= '0' && next <= '9'):
			return true
		}
	}
	return false
}
