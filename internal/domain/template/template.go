// Package template implements the placeholder engine used by prompts, rules
// and templates: variable extraction, structural validation and rendering.
//
// A placeholder is an opening brace, zero or more characters other than a
// closing brace, and a closing brace. Matching is single-level: no escaping
// convention exists, so nested or stray braces are reported by Validate
// rather than interpreted.
package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([^}]*)\}`)

var (
	// ErrUnbalancedPlaceholders is matched by *UnbalancedError.
	ErrUnbalancedPlaceholders = errors.New("unbalanced placeholders")
	// ErrMissingVariable is matched by *MissingVariableError.
	ErrMissingVariable = errors.New("missing variable")
)

// UnbalancedError reports differing counts of opening and closing braces.
type UnbalancedError struct {
	Open  int
	Close int
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("unbalanced placeholders: %d '{' vs %d '}'", e.Open, e.Close)
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalancedPlaceholders }

// MissingVariableError reports placeholders with no supplied value.
// Name is the first missing variable in content order.
type MissingVariableError struct {
	Name    string
	Missing []string
}

func (e *MissingVariableError) Error() string {
	if len(e.Missing) > 1 {
		return fmt.Sprintf("missing variable %q (and %d more)", e.Name, len(e.Missing)-1)
	}
	return fmt.Sprintf("missing variable %q", e.Name)
}

func (e *MissingVariableError) Unwrap() error { return ErrMissingVariable }

// Document is template content together with its derived variable list.
// Variables are never stored; they are recomputed from Content on each call.
type Document struct {
	Content string `json:"content"`
}

// Variables returns the placeholder names of the document.
func (d Document) Variables() []string {
	return ExtractVariables(d.Content)
}

// ExtractVariables returns the unique placeholder names in content, in
// first-occurrence order. "{}" yields the empty name.
func ExtractVariables(content string) []string {
	matches := placeholderRe.FindAllStringSubmatch(content, -1)
	vars := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		vars = append(vars, name)
	}
	return vars
}

// Render substitutes every placeholder with its value. All placeholders must
// have a value; otherwise a *MissingVariableError lists the absent names.
func Render(content string, values map[string]string) (string, error) {
	var missing []string
	for _, name := range ExtractVariables(content) {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", &MissingVariableError{Name: missing[0], Missing: missing}
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(content, -1) {
		b.WriteString(content[last:loc[0]])
		b.WriteString(values[content[loc[2]:loc[3]]])
		last = loc[1]
	}
	b.WriteString(content[last:])
	return b.String(), nil
}
