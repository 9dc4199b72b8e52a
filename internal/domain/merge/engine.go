// Package merge renders printable documents by substituting {{token}} placeholders.
//
// Rendering is a single left-to-right pass over the original template text. Every
// placeholder is replaced by its context value, or deleted when the context does not
// know the token. Substituted values are never scanned again, so data that happens to
// contain "{{...}}" cannot expand further.
package merge

import "regexp"

// placeholderPattern matches {{name}} where name holds no braces. An unterminated "{{"
// or a nested "{{a {{b}}" prefix is left as literal text.
var placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Result is the output of RenderWithReport
type Result struct {
	Output string

	// Unresolved lists placeholder names the context did not define, in order of first
	// appearance and without duplicates. Their placeholders were removed from Output.
	Unresolved []string
}

// Render substitutes every placeholder in body with its value from ctx and deletes
// placeholders ctx does not define. It never fails.
func Render(body string, ctx Context) string {
	return RenderWithReport(body, ctx).Output
}

// RenderWithReport is Render that also reports which placeholders were dropped
func RenderWithReport(body string, ctx Context) Result {
	var unresolved []string
	seen := make(map[string]bool)

	output := placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := ctx[name]; ok {
			return value
		}
		if !seen[name] {
			seen[name] = true
			unresolved = append(unresolved, name)
		}
		return ""
	})

	return Result{Output: output, Unresolved: unresolved}
}

// Placeholders lists the distinct token names body references, in order of first appearance
func Placeholders(body string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(body, -1)
	names := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
