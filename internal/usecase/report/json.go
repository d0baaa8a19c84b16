package report

import "strings"

// ExtractJSON pulls the most plausible JSON object out of free-form model
// output. Tries, in order: a ```json fence, a plain ``` fence whose body
// opens with "{", the span from the first "{" to the last "}". Input without
// any JSON-looking content is returned unchanged.
func ExtractJSON(content string) string {
	if start := strings.Index(content, "```json"); start >= 0 {
		rest := content[start+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	if start := strings.Index(content, "```"); start >= 0 {
		rest := content[start+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			inner := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(inner, "{") {
				return inner
			}
		}
	}

	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}

	return content
}
