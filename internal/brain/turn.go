package brain

import (
	"context"

	"creditdesk/internal/confirm"
	"creditdesk/internal/domain"
)

// DefaultSessionID is used when a turn arrives without a session ID.
const DefaultSessionID = "default"

// Canned answers for the turn paths that do not go through the model.
const (
	// genericUnableAnswer is the floor: returned when the model yields
	// nothing even after the cold-start retry.
	genericUnableAnswer = "I wasn't able to produce an answer for that request. Please try rephrasing."

	declinedAnswer = "Understood — I have not performed that action."

	gateUnavailableAnswer = "I can't safely stage that action right now because the confirmation store is unavailable. Nothing has been performed."
)

// RunTurn processes one user turn to completion and always returns a
// non-empty final answer; every fault along the way is normalized into
// answer text. The sequence is strictly ordered:
//
//	pending-confirmation resolution → intent override → model decision →
//	[confirmation gate] → tool dispatch → summary
//
// Turns for the same session must be serialized by the caller (see
// session.Manager); RunTurn itself holds no cross-turn state outside the
// pending store.
func (b *Brain) RunTurn(ctx context.Context, sessionID, userText string, history []domain.Message) string {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	turn := &domain.ConversationTurn{SessionID: sessionID, UserText: userText}

	// A pending write action spans two turns: this turn may be the
	// confirm/decline reply.
	if answer, done := b.resolvePending(ctx, turn); done {
		return b.finish(turn, answer)
	}

	// Deterministic override: business-critical intents route straight to
	// the canonical read tool, regardless of model behaviour.
	if req, ok := b.router.Classify(userText); ok {
		if b.isReadTool(req.Tool) {
			result := b.dispatch(ctx, turn, req)
			return b.finish(turn, b.summarize(ctx, result))
		}
		// Overrides must never trigger a write; a misconfigured rule is
		// ignored rather than honored.
		b.log().Warn("ignoring override to non-read tool", "tool", req.Tool)
	}

	// Model decision step (includes the cold-start retry).
	reply := b.decide(ctx, history, userText)
	if reply == "" {
		return b.finish(turn, genericUnableAnswer)
	}

	req, isToolRequest := ParseToolRequest(reply)
	if !isToolRequest {
		// Direct answer: the model's prose is the final answer verbatim.
		return b.finish(turn, reply)
	}

	// Confirmation gate: write-class requests are parked, and the turn ends
	// with an interim question. The next user turn resolves it.
	if b.isWriteTool(req.Tool) {
		action := confirm.NewPendingAction(sessionID, req)
		if err := b.pending.Put(ctx, action); err != nil {
			b.log().Error("failed to stage pending action", "tool", req.Tool, "error", err)
			return b.finish(turn, gateUnavailableAnswer)
		}
		b.log().Info("write action pending confirmation", "tool", req.Tool, "fingerprint", action.Fingerprint)
		return b.finish(turn, confirmationQuestion(req))
	}

	// Read tools — and unknown or malformed requests, which the dispatcher
	// synthesizes into a failure result so the user still gets an
	// explanation rather than a dropped turn.
	result := b.dispatch(ctx, turn, req)
	return b.finish(turn, b.summarize(ctx, result))
}

// resolvePending handles the second half of the confirmation gate. Returns
// (answer, true) when this turn fully resolved into an answer, or (_, false)
// when the turn should proceed as a fresh prompt. Policy for a reply that is
// neither yes nor no: the pending action is cancelled (most recent intent
// wins) and the reply is processed normally.
func (b *Brain) resolvePending(ctx context.Context, turn *domain.ConversationTurn) (string, bool) {
	pending, ok, err := b.pending.Get(ctx, turn.SessionID)
	if err != nil {
		b.log().Error("pending lookup failed", "session", turn.SessionID, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	switch classifyConfirmation(turn.UserText) {
	case ConfirmYes:
		if err := b.pending.Delete(ctx, turn.SessionID); err != nil {
			// If the pending row cannot be cleared, do not execute: a
			// replayed confirmation must never fire the write twice.
			b.log().Error("pending delete failed, refusing to execute", "error", err)
			return gateUnavailableAnswer, true
		}
		b.log().Info("write action confirmed", "tool", pending.Tool, "fingerprint", pending.Fingerprint)
		req := domain.ToolCallRequest{Tool: pending.Tool, Args: pending.Args, Origin: domain.OriginModel}
		result := b.dispatch(ctx, turn, req)
		return b.summarize(ctx, result), true

	case ConfirmNo:
		if err := b.pending.Delete(ctx, turn.SessionID); err != nil {
			b.log().Error("pending delete failed", "error", err)
		}
		b.log().Info("write action declined", "tool", pending.Tool)
		return declinedAnswer, true

	default:
		if err := b.pending.Delete(ctx, turn.SessionID); err != nil {
			b.log().Error("pending delete failed", "error", err)
		}
		b.log().Info("pending action cancelled by new prompt", "tool", pending.Tool)
		return "", false
	}
}

// dispatch invokes the tool and records the result on the turn.
func (b *Brain) dispatch(ctx context.Context, turn *domain.ConversationTurn, req domain.ToolCallRequest) domain.ToolCallResult {
	result := b.dispatcher.Dispatch(ctx, req)
	turn.Calls = append(turn.Calls, result)
	if result.Ok {
		b.log().Info("tool call succeeded", "tool", req.Tool, "origin", req.Origin, "partial", result.PartialWarning != "")
	} else {
		b.log().Warn("tool call failed", "tool", req.Tool, "origin", req.Origin, "reason", result.FailReason)
	}
	return result
}

// finish seals the turn with its answer. The answer is never empty: callers
// pass either model prose, a summary (template-backed), or a canned message.
func (b *Brain) finish(turn *domain.ConversationTurn, answer string) string {
	if answer == "" {
		answer = genericUnableAnswer
	}
	turn.Answer = answer
	b.log().Debug("turn complete", "session", turn.SessionID, "tool_calls", len(turn.Calls))
	return answer
}

func (b *Brain) isReadTool(name string) bool {
	tool, err := b.registry.Get(name)
	return err == nil && tool.Kind() == domain.ToolKindRead
}

func (b *Brain) isWriteTool(name string) bool {
	tool, err := b.registry.Get(name)
	return err == nil && tool.Kind() == domain.ToolKindWrite
}
