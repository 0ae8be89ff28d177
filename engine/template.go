package engine

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches a brace-delimited identifier of the form
// {[A-Za-z_][A-Za-z0-9_]*} per spec §4.1. The grammar intentionally has no
// support for literal braces or format specifiers.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// bracePattern matches any single brace; applied after valid placeholders
// are stripped, it finds braces that are not part of a placeholder, which
// lets ValidateTemplate reject malformed templates at
// construction time the way spec §9 allows ("implementations MAY reject
// templates containing unpaired braces").
var bracePattern = regexp.MustCompile(`[{}]`)

// RequiredVars extracts the placeholder identifiers from template, in the
// order they appear. Identifiers may repeat; each occurrence is reported
// (spec §4.1: "order of placeholders is preserved").
func RequiredVars(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	vars := make([]string, 0, len(matches))
	for _, m := range matches {
		vars = append(vars, m[1])
	}
	return vars
}

// UniqueRequiredVars returns RequiredVars with duplicates collapsed,
// preserving first-seen order. This is the set used for readiness checks.
func UniqueRequiredVars(template string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range RequiredVars(template) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ValidateTemplate rejects templates with unpaired or malformed braces. Well
// formed placeholders are removed first; anything left over is a bare '{'
// or '}' that cannot be part of a valid substitution.
func ValidateTemplate(template string) error {
	stripped := placeholderPattern.ReplaceAllString(template, "")
	if bracePattern.MatchString(stripped) {
		return &ValidationError{
			Kind:   ValidationMalformedTemplate,
			Detail: fmt.Sprintf("template contains an unpaired brace: %q", template),
		}
	}
	return nil
}

// Render substitutes every placeholder in template with its value from ctx,
// using fmt.Sprint on whatever value the context holds (spec §3: "Context
// ... opaque to the scheduler; typically text"). The first placeholder with
// no entry in ctx yields a MissingVariableError naming it (spec §4.1).
func Render(template string, ctx *ValueContext) (string, error) {
	var missing *MissingVariableError
	result := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		if missing != nil {
			return match
		}
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := ctx.Get(name)
		if !ok {
			missing = &MissingVariableError{Variable: name}
			return match
		}
		return fmt.Sprint(value)
	})
	if missing != nil {
		return "", missing
	}
	return result, nil
}

// RenderMap is like Render but substitutes from a plain map, used where a
// ValueContext is not yet constructed (e.g. validating a standalone
// template against a literal context).
func RenderMap(template string, ctx map[string]any) (string, error) {
	return Render(template, NewValueContext(ctx))
}
