package render

import "strings"

// Render substitutes every {{name}} token in pattern whose name is present in
// vars. Tokens with no matching variable stay verbatim. No recursion, no
// conditionals, no escaping; callers own content safety.
func Render(pattern string, vars map[string]string) string {
	result := pattern
	for k, v := range vars {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

// Placeholders returns the distinct placeholder names in pattern, in order of
// first appearance. Used to cross-check declared template variables at save
// time.
func Placeholders(pattern string) []string {
	var names []string
	seen := map[string]bool{}

	rest := pattern
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start+2:], "}}")
		if end < 0 {
			break
		}
		name := rest[start+2 : start+2+end]
		rest = rest[start+2+end+2:]

		if name == "" || strings.Contains(name, "{") {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
