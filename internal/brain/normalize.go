package brain

import (
	"context"
	"fmt"
	"strings"

	"creditdesk/internal/domain"
)

// summarize turns a ToolCallResult into the final prose answer. Two bounded
// attempts: the normal summary re-prompt, then the strict prose-enforcement
// re-prompt. If the model still cannot produce usable prose, a deterministic
// template built from the result payload guarantees an answer.
func (b *Brain) summarize(ctx context.Context, result domain.ToolCallResult) string {
	reply := strings.TrimSpace(b.generate(ctx, buildSummaryPrompt(b.registry.Definitions(), result, false)))

	if !usableProse(reply) {
		b.log().Info("unusable summary, prose-enforcement retry",
			"tool", result.Request.Tool,
			"empty", reply == "",
		)
		reply = strings.TrimSpace(b.generate(ctx, buildSummaryPrompt(b.registry.Definitions(), result, true)))
	}

	if !usableProse(reply) {
		b.log().Warn("model could not summarize, using template fallback", "tool", result.Request.Tool)
		reply = templateSummary(result)
	}
	return reply
}

// usableProse reports whether a model reply can serve as a final answer:
// non-empty and not shaped like another structured tool request.
func usableProse(trimmed string) bool {
	return trimmed != "" && !looksStructured(trimmed)
}

// templateSummary builds a final answer directly from the tool result,
// without the model. Last line of defense: always non-empty.
func templateSummary(result domain.ToolCallResult) string {
	if !result.Ok {
		return fmt.Sprintf("I couldn't complete the %s request: %s",
			result.Request.Tool, result.FailReason)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is the result of %s:\n\n%s", result.Request.Tool, result.Data)
	if result.PartialWarning != "" {
		fmt.Fprintf(&sb, "\n\nNote: %s", result.PartialWarning)
	}
	return sb.String()
}
