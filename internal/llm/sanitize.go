package llm

import (
	"fmt"
	"strings"
)

// ExtractJSONContent strips markdown code fences and surrounding prose from a
// model reply, returning the JSON object text. Models occasionally wrap the
// object in ```json fences or add a leading sentence despite instructions.
func ExtractJSONContent(content string) (string, error) {
	s := strings.TrimSpace(content)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in model reply (%d chars)", len(content))
	}
	return s[start : end+1], nil
}
