package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const DefaultOutputField = "code"

var (
	errEmptyOutput = errors.New("model returned empty output")
	fencePattern   = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)```")
	moduleLine     = regexp.MustCompile(`^\s*(import|const|let|function|export|class)\b`)
)

const zeroWidth = "\u200b\u200c\u200d\u2060\ufeff"

// ExtractSource reads the code field out of the model's JSON object and
// normalizes it.
func ExtractSource(raw, field string) (string, error) {
	if field == "" {
		field = DefaultOutputField
	}
	text := strings.Trim(strings.TrimSpace(raw), zeroWidth+" \t\r\n")
	if text == "" {
		return "", errEmptyOutput
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonFragment(text)), &payload); err != nil {
		return "", fmt.Errorf("model output is not a JSON object: %w", err)
	}
	value, ok := payload[field]
	if !ok {
		return "", fmt.Errorf("model output has no %q field", field)
	}
	var code string
	if err := json.Unmarshal(value, &code); err != nil {
		return "", fmt.Errorf("model output field %q is not a string", field)
	}
	code = NormalizeCode(code)
	if code == "" {
		return "", fmt.Errorf("model output field %q is empty", field)
	}
	return code, nil
}

// NormalizeCode strips a fenced block, or prose before the first module-level
// statement.
func NormalizeCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	lines := strings.Split(trimmed, "\n")
	for i, line := range lines {
		if moduleLine.MatchString(line) {
			return strings.TrimSpace(strings.Join(lines[i:], "\n"))
		}
	}
	return trimmed
}

func jsonFragment(text string) string {
	text = trimCodeFence(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
