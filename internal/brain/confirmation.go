package brain

import "strings"

// ConfirmationDecision classifies a user reply while a write action is
// pending confirmation.
type ConfirmationDecision int

const (
	// ConfirmOther: the reply is neither an approval nor a refusal — the
	// user moved on. The pending action is cancelled and the reply is
	// processed as a fresh prompt.
	ConfirmOther ConfirmationDecision = iota
	ConfirmYes
	ConfirmNo
)

var affirmatives = map[string]struct{}{
	"yes": {}, "y": {}, "yes please": {}, "yep": {}, "yeah": {},
	"confirm": {}, "confirmed": {}, "go ahead": {}, "do it": {},
	"proceed": {}, "approve": {}, "approved": {}, "ok": {}, "okay": {}, "sure": {},
}

var negatives = map[string]struct{}{
	"no": {}, "n": {}, "nope": {}, "cancel": {}, "stop": {},
	"decline": {}, "declined": {}, "abort": {}, "don't": {}, "do not": {},
	"never mind": {}, "nevermind": {},
}

// classifyConfirmation decides whether a reply confirms or declines the
// pending action. Matching is deterministic: exact (normalized) phrases, plus
// a "yes, ..."/"no, ..." prefix form. Everything else is ConfirmOther.
func classifyConfirmation(text string) ConfirmationDecision {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.TrimRight(norm, ".!?")
	norm = strings.TrimSpace(norm)

	if _, ok := affirmatives[norm]; ok {
		return ConfirmYes
	}
	if _, ok := negatives[norm]; ok {
		return ConfirmNo
	}
	if strings.HasPrefix(norm, "yes,") || strings.HasPrefix(norm, "yes ") {
		return ConfirmYes
	}
	if strings.HasPrefix(norm, "no,") || strings.HasPrefix(norm, "no ") {
		return ConfirmNo
	}
	return ConfirmOther
}
