package genai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedPattern matches a reply that is exactly one markdown code fence
var fencedPattern = regexp.MustCompile("(?s)^```(?:json|JSON)?[ \\t]*\\n?(.*?)\\n?[ \\t]*```$")

// ExtractJSON returns model text as a JSON document, or "" when it is not one.
// Valid JSON is returned untouched. The only repair is unwrapping a reply
// that consists of a single code fence around valid JSON. Prose around the
// document or trailing commas are not repaired.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if json.Valid([]byte(text)) {
		return text
	}
	m := fencedPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	inner := strings.TrimSpace(m[1])
	if !json.Valid([]byte(inner)) {
		return ""
	}
	return inner
}
