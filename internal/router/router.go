package router

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"creditdesk/internal/domain"
)

// Rule maps prompt keywords to a fixed tool call. Rules are deterministic:
// when any keyword appears in the prompt (case-insensitive), the tool is
// invoked with the preset arguments and the model is never consulted for the
// decision. Rules may only target read-class tools.
type Rule struct {
	Keywords []string          `yaml:"keywords"`
	Tool     string            `yaml:"tool"`
	Args     map[string]string `yaml:"args,omitempty"`
}

// Router inspects raw user prompts for intents that must bypass model-driven
// tool selection. The canonical case: pipeline/queue questions always resolve
// to the task store, regardless of model behaviour.
type Router struct {
	rules []Rule
}

// DefaultRules returns the built-in override rules: pipeline/queue questions
// become a get_tasks query with the status filter defaulting to "open".
func DefaultRules() []Rule {
	return []Rule{
		{
			Keywords: []string{"pipeline", "queue"},
			Tool:     "get_tasks",
			Args:     map[string]string{"status": domain.StatusOpen},
		},
	}
}

// New returns a Router with the given rules. Nil or empty rules fall back to
// the defaults.
func New(rules []Rule) *Router {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Router{rules: rules}
}

// LoadRules reads override rules from a YAML file. An unreadable or empty
// file is an error; the caller decides whether to fall back to defaults.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router rules load: %w", err)
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("router rules parse: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("router rules: no rules in %s", path)
	}
	for _, r := range doc.Rules {
		if r.Tool == "" || len(r.Keywords) == 0 {
			return nil, fmt.Errorf("router rules: rule needs a tool and at least one keyword")
		}
	}
	return doc.Rules, nil
}

// Classify inspects the prompt and returns an override tool call when a rule
// matches. The returned request has Origin set to OriginOverride.
func (r *Router) Classify(promptText string) (domain.ToolCallRequest, bool) {
	lower := strings.ToLower(promptText)

	for _, rule := range r.rules {
		if !matchesAny(lower, rule.Keywords) {
			continue
		}

		args := make(map[string]string, len(rule.Args))
		for k, v := range rule.Args {
			args[k] = v
		}

		// A status named in the prompt beats the rule's default filter
		// ("show me blocked deals in the pipeline" must not query open).
		if rule.Tool == "get_tasks" {
			if status, ok := statusInPrompt(lower); ok {
				args["status"] = status
			}
		}

		raw, err := json.Marshal(args)
		if err != nil {
			continue
		}
		return domain.ToolCallRequest{
			Tool:   rule.Tool,
			Args:   raw,
			Origin: domain.OriginOverride,
		}, true
	}
	return domain.ToolCallRequest{}, false
}

func matchesAny(lowerPrompt string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowerPrompt, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// statusInPrompt detects an explicitly named task status. "open" is checked
// last so that "reopen the blocked queue" resolves to blocked, not open.
func statusInPrompt(lowerPrompt string) (string, bool) {
	switch {
	case strings.Contains(lowerPrompt, "blocked"):
		return domain.StatusBlocked, true
	case strings.Contains(lowerPrompt, "done"), strings.Contains(lowerPrompt, "completed"):
		return domain.StatusDone, true
	case strings.Contains(lowerPrompt, "in progress"), strings.Contains(lowerPrompt, "in_progress"):
		return domain.StatusInProgress, true
	case strings.Contains(lowerPrompt, "open"):
		return domain.StatusOpen, true
	}
	return "", false
}
