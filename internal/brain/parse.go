package brain

import (
	"encoding/json"
	"strings"

	"creditdesk/internal/domain"
)

// toolEnvelope is the strict JSON shape the model must use to request a tool.
type toolEnvelope struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// ParseToolRequest attempts to read a model reply as a structured tool-call
// request. Anything that is not a single JSON object with a "tool" string and
// an "arguments" object is treated as prose and reported as not-a-request.
func ParseToolRequest(reply string) (domain.ToolCallRequest, bool) {
	txt := strings.TrimSpace(reply)
	if !looksStructured(txt) {
		return domain.ToolCallRequest{}, false
	}

	var env toolEnvelope
	if err := json.Unmarshal([]byte(txt), &env); err != nil {
		return domain.ToolCallRequest{}, false
	}
	if env.Tool == "" || len(env.Arguments) == 0 {
		return domain.ToolCallRequest{}, false
	}

	// Arguments must be a JSON object, not a scalar or array.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(env.Arguments, &obj); err != nil {
		return domain.ToolCallRequest{}, false
	}

	return domain.ToolCallRequest{
		Tool:   env.Tool,
		Args:   env.Arguments,
		Origin: domain.OriginModel,
	}, true
}

// looksStructured reports whether a trimmed reply is shaped like a JSON
// object. Used both by the parser and by the prose-enforcement check: a
// summary that comes back brace-wrapped is not usable prose.
func looksStructured(trimmed string) bool {
	return strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
}
