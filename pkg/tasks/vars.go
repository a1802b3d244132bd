package tasks

import (
	"os"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`%([A-Za-z0-9_()]+)%`)

// Variables holds custom %NAME% substitutions loaded from the variables file.
type Variables map[string]string

// Expand replaces %NAME% placeholders. Environment variables are consulted
// first, then the custom table. Unknown placeholders are left untouched.
func (v Variables) Expand(s string) string {
	return v.expand(s, os.LookupEnv)
}

func (v Variables) expand(s string, lookupEnv func(string) (string, bool)) string {
	if s == "" {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1 : len(m)-1]
		if val, ok := lookupEnv(name); ok {
			return val
		}
		if val, ok := v[name]; ok {
			return val
		}
		return m
	})
}

// Merge returns a new table with other layered over v.
func (v Variables) Merge(other Variables) Variables {
	out := make(Variables, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}
