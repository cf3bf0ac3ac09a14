package brain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"creditdesk/internal/domain"
)

// systemPrompt frames the assistant role and the two legal response modes.
// The tool catalog is appended at prompt-build time so the instructions never
// drift from what is actually registered.
const systemPrompt = `You are a commercial credit analyst / credit operations assistant.

You have exactly two legal response modes:

MODE 1: FINAL ANSWER
- Plain English only. No JSON, no markdown fences.
- Use this mode only when the conversation so far already contains everything
  needed to answer. Never claim to have read a file, pipeline data, or task
  records unless a tool result is present in the conversation.
- When doing math, show each step.

MODE 2: TOOL REQUEST
- Use this mode when you still need information or are about to take an
  action the user explicitly approved.
- Respond with STRICT JSON ONLY, exactly this shape, no extra words:
  {"tool": "TOOL_NAME", "arguments": { ... }}

Rules:
- If the user references a file by name (like memo.txt), request read_file.
  Never guess a filename; ask for it instead.
- If the user asks about tasks (open tasks, blocked tasks, who is assigned),
  request get_tasks with the appropriate filters.
- Never invent borrower data, pipeline status, or memo contents.
- Never silently create tasks or assign work: operational actions require
  explicit human confirmation, which the system enforces for you.`

// buildDecisionPrompt assembles the model prompt for the decision step:
// system framing, the tool catalog, prior exchange history, and the user's
// message, closed with the next-action instruction.
func buildDecisionPrompt(catalog []domain.ToolDefinition, history []domain.Message, userText string) string {
	var sb strings.Builder

	sb.WriteString("[System]\n")
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(formatCatalog(catalog))
	sb.WriteString("[End System]\n\n")

	for _, msg := range history {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", msg.Role, msg.Content)
	}

	fmt.Fprintf(&sb, "[%s]\n%s\n\n", domain.RoleUser, userText)

	sb.WriteString("Decide what to do NEXT:\n")
	sb.WriteString("- If you already have enough information, reply in MODE 1 (plain English).\n")
	sb.WriteString("- If you still need information or must take an approved action, reply in MODE 2 (strict JSON tool request).\n")

	return sb.String()
}

// buildSummaryPrompt assembles the re-prompt sent after a tool call. strict
// is the prose-enforcement retry: the instruction explicitly forbids further
// tool requests and demands plain language.
func buildSummaryPrompt(catalog []domain.ToolDefinition, result domain.ToolCallResult, strict bool) string {
	var sb strings.Builder

	sb.WriteString("[System]\n")
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(formatCatalog(catalog))
	sb.WriteString("[End System]\n\n")

	fmt.Fprintf(&sb, "The tool call just completed.\nTool name: %s\nTool arguments: %s\n",
		result.Request.Tool, string(result.Request.Args))

	if result.Ok {
		fmt.Fprintf(&sb, "Tool returned the following data (verbatim):\n\n%s\n\n", result.Data)
		if result.PartialWarning != "" {
			fmt.Fprintf(&sb, "Warning attached to the result: %s\n\n", result.PartialWarning)
		}
	} else {
		fmt.Fprintf(&sb, "The tool call FAILED. Reason:\n\n%s\n\n", result.FailReason)
	}

	if strict {
		sb.WriteString("Restate the above tool result in plain English for the user. ")
		sb.WriteString("Do NOT request another tool. Do NOT output JSON. Plain prose only.\n")
	} else {
		sb.WriteString("Now provide your FINAL ANSWER in plain English (no JSON). ")
		sb.WriteString("Summarize the result clearly; if it failed, explain what could not be done.\n")
	}

	return sb.String()
}

// formatCatalog renders the registered tools (name, side-effect class,
// description, input schema) for the system prompt.
func formatCatalog(catalog []domain.ToolDefinition) string {
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, def := range catalog {
		fmt.Fprintf(&sb, "- %s (%s): %s\n  input schema: %s\n",
			def.Name, def.Kind, def.Description, compactJSON(def.InputSchema))
	}
	return sb.String()
}

// compactJSON collapses a schema to one line for the prompt; invalid JSON is
// passed through untouched.
func compactJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(b)
}

// confirmationQuestion renders the interim answer that asks the user to
// approve a parked write action.
func confirmationQuestion(req domain.ToolCallRequest) string {
	var args map[string]any
	detail := string(req.Args)
	if err := json.Unmarshal(req.Args, &args); err == nil && len(args) > 0 {
		keys := make([]string, 0, len(args))
		for k := range args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s %v", k, args[k]))
		}
		detail = strings.Join(parts, ", ")
	}
	return fmt.Sprintf(
		"Before I proceed, please confirm: %s (%s). Reply \"yes\" to go ahead or \"no\" to cancel.",
		req.Tool, detail,
	)
}
