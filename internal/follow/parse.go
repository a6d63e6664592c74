package follow

import (
	"encoding/json"
	"strings"
)

// Message turns one log line into display text. JSON lines yield their
// @message field; JSON without one is dropped (ok is false). Other lines
// pass through. In raw mode every non-empty line passes through untouched.
// Empty lines are always dropped.
func Message(line string, raw bool) (text string, ok bool) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return "", false
	}
	if raw {
		return line, true
	}
	if strings.HasPrefix(line, "{") {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &doc); err == nil {
			var msg string
			if v, found := doc["@message"]; found && json.Unmarshal(v, &msg) == nil && msg != "" {
				return msg, true
			}
			return "", false
		}
	}
	return line, true
}

// splitComplete returns the complete lines in chunk and how many bytes they
// span. The trailing partial line is left for the next poll unless flush
// is set.
func splitComplete(chunk string, flush bool) ([]string, int) {
	end := strings.LastIndexByte(chunk, '\n') + 1
	if flush {
		end = len(chunk)
	}
	if end == 0 {
		return nil, 0
	}
	body := strings.TrimSuffix(chunk[:end], "\n")
	return strings.Split(body, "\n"), end
}
