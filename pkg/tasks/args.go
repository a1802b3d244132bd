package tasks

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Args is an ordered argument list handed to a command unchanged. Catalog
// files may write it as a list or as one command-line string, which is split
// with SplitArgs.
type Args []string

// UnmarshalYAML accepts a sequence or a scalar.
func (a *Args) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*a = list
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*a = nil
			return nil
		}
		*a = SplitArgs(value.Value)
	default:
		return fmt.Errorf("line %d: arguments must be a string or a list", value.Line)
	}
	return nil
}

// UnmarshalJSON accepts an array of strings or a single string.
func (a *Args) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("arguments must be a string or a list: %w", err)
	}
	*a = SplitArgs(s)
	return nil
}

// String renders the list as a command line, quoting arguments with spaces.
func (a Args) String() string {
	parts := make([]string, len(a))
	for i, arg := range a {
		if arg == "" || strings.ContainsAny(arg, " \t") {
			arg = `"` + arg + `"`
		}
		parts[i] = arg
	}
	return strings.Join(parts, " ")
}

// SplitArgs splits an argument string on whitespace. Double-quoted runs
// are kept together and the quotes removed, so `/D="C:\Program Files"`
// stays one argument.
func SplitArgs(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case (r == ' ' || r == '\t') && !inQuote:
			if started {
				out = append(out, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		out = append(out, cur.String())
	}
	return out
}
