package template

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the content length (in runes) below which a
// content_too_short advisory is raised.
const DefaultMinLength = 20

// Issue codes reported by Validate.
const (
	CodeUnbalanced        = "unbalanced_placeholders"
	CodeTooShort          = "content_too_short"
	CodeMissingHeading    = "missing_heading"
	CodeEmptyPlaceholder  = "empty_placeholder"
	CodeNestedPlaceholder = "nested_placeholder"
)

// Issue is a single validation finding.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result separates hard failures, which must block a save or render, from
// advisories, which are shown to the caller but never block.
type Result struct {
	Failures   []Issue  `json:"failures"`
	Advisories []Issue  `json:"advisories"`
	Variables  []string `json:"variables"`

	unbalanced *UnbalancedError
}

// OK reports whether the content has no hard failures.
func (r *Result) OK() bool { return len(r.Failures) == 0 }

// Err returns the hard failure as an error, or nil.
func (r *Result) Err() error {
	if r.unbalanced != nil {
		return r.unbalanced
	}
	return nil
}

// Validator checks template content. The zero value uses DefaultMinLength.
type Validator struct {
	MinLength int
}

// Validate checks content with the default Validator.
func Validate(content string) Result {
	return Validator{}.Validate(content)
}

// Validate checks brace balance (hard failure) and content quality
// (advisories).
func (v Validator) Validate(content string) Result {
	res := Result{
		Failures:   []Issue{},
		Advisories: []Issue{},
		Variables:  ExtractVariables(content),
	}

	open := strings.Count(content, "{")
	closing := strings.Count(content, "}")
	if open != closing {
		res.unbalanced = &UnbalancedError{Open: open, Close: closing}
		res.Failures = append(res.Failures, Issue{Code: CodeUnbalanced, Message: res.unbalanced.Error()})
	}

	minLen := v.MinLength
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(content)); n < minLen {
		res.Advisories = append(res.Advisories, Issue{
			Code:    CodeTooShort,
			Message: fmt.Sprintf("content is %d characters, recommended minimum is %d", n, minLen),
		})
	}

	if !hasHeading(content) {
		res.Advisories = append(res.Advisories, Issue{
			Code:    CodeMissingHeading,
			Message: "content has no heading (a line starting with '#')",
		})
	}

	for _, name := range res.Variables {
		switch {
		case name == "":
			res.Advisories = append(res.Advisories, Issue{
				Code:    CodeEmptyPlaceholder,
				Message: "content contains an empty placeholder '{}'",
			})
		case strings.Contains(name, "{"):
			res.Advisories = append(res.Advisories, Issue{
				Code:    CodeNestedPlaceholder,
				Message: fmt.Sprintf("placeholder %q contains a nested '{'", name),
			})
		}
	}

	return res
}

func hasHeading(content string) bool {
	for line := range strings.Lines(content) {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "#") {
			return true
		}
	}
	return false
}
