package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"creditdesk/internal/domain"
)

// DebtYieldInput holds the two figures of the debt-yield calculation.
type DebtYieldInput struct {
	NOI        float64 `json:"noi"`
	LoanAmount float64 `json:"loan_amount"`
}

// DebtYieldTool computes debt yield = NOI / loan amount, shown as a
// percentage with each step spelled out so the analyst can verify the math.
type DebtYieldTool struct{}

// NewDebtYieldTool returns a debt_yield tool.
func NewDebtYieldTool() *DebtYieldTool { return &DebtYieldTool{} }

func (t *DebtYieldTool) Name() string { return "debt_yield" }

func (t *DebtYieldTool) Description() string {
	return "Calculate debt yield from NOI and loan amount, with a step-by-step explanation"
}

func (t *DebtYieldTool) Kind() domain.ToolKind { return domain.ToolKindRead }

func (t *DebtYieldTool) Definition() string {
	return GenerateSchema(DebtYieldInput{})
}

// Call performs the division. A zero loan amount is a failure, never a crash
// or an infinity silently surfaced as success.
func (t *DebtYieldTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var input DebtYieldInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("debt_yield: parse input: %w", err)
	}

	if input.LoanAmount == 0 {
		return nil, fmt.Errorf("debt_yield: loan amount must not be zero")
	}

	ratio := input.NOI / input.LoanAmount
	explanation := fmt.Sprintf(
		"Debt Yield Calculation:\n"+
			"NOI = %.2f\n"+
			"Loan Amount = %.2f\n"+
			"Debt Yield = NOI / Loan Amount * 100\n"+
			"           = %.2f / %.2f * 100\n"+
			"           = %.2f%%\n",
		input.NOI, input.LoanAmount, input.NOI, input.LoanAmount, ratio*100,
	)
	return &domain.ToolResult{
		Data:     explanation,
		Metadata: map[string]string{"ratio": fmt.Sprintf("%.6f", ratio)},
	}, nil
}

var _ SchemaTool = (*DebtYieldTool)(nil)
