package committee

import (
	"context"

	"github.com/google/uuid"

	"github.com/bistai/committee-trader/internal/observ"
)

// Seed is the externally supplied input for one committee run.
type Seed struct {
	Symbol  string
	Signals Signals
}

// Committee runs the investment committee over one symbol: a fixed linear
// pipeline Technical -> Fundamental -> Risk -> Arbitration. There is no
// branching and no stage skipping; the risk gate fails closed rather than
// aborting, so arbitration always sees three votes.
type Committee struct {
	technical   TechnicalAnalyst
	fundamental FundamentalAnalyst
	risk        RiskGate
	head        HeadTrader
}

func New(technical TechnicalAnalyst, fundamental FundamentalAnalyst, gate RiskGate) *Committee {
	return &Committee{
		technical:   technical,
		fundamental: fundamental,
		risk:        gate,
	}
}

// Run executes exactly four stage transforms over a fresh State and returns
// it populated. Each stage writes only its own vote/reasoning slot; re-running
// the same seed produces the same votes and final decision (run ids differ).
func (c *Committee) Run(ctx context.Context, seed Seed) State {
	st := State{
		RunID:   uuid.NewString(),
		Symbol:  seed.Symbol,
		Signals: seed.Signals,
	}

	stages := []struct {
		name string
		run  func(context.Context, *State)
	}{
		{"technical", func(_ context.Context, st *State) {
			st.Votes.Technical, st.Reasoning.Technical = c.technical.Evaluate(st.Signals)
		}},
		{"fundamental", func(_ context.Context, st *State) {
			st.Votes.Fundamental, st.Reasoning.Fundamental = c.fundamental.Evaluate(st.Signals)
		}},
		{"risk", func(ctx context.Context, st *State) {
			st.Votes.Risk, st.Reasoning.Risk = c.risk.Evaluate(ctx, st.Symbol)
		}},
		{"arbitration", func(_ context.Context, st *State) {
			st.Final = c.head.Arbitrate(st.Votes)
		}},
	}

	for _, stage := range stages {
		stage.run(ctx, &st)
		observ.Log("committee_stage", map[string]any{
			"run_id": st.RunID,
			"symbol": st.Symbol,
			"stage":  stage.name,
		})
	}

	observ.IncCounter("committee_runs_total", map[string]string{"decision": string(st.Final)})
	observ.Log("committee_decision", map[string]any{
		"run_id":      st.RunID,
		"symbol":      st.Symbol,
		"technical":   string(st.Votes.Technical),
		"fundamental": string(st.Votes.Fundamental),
		"risk":        string(st.Votes.Risk),
		"final":       string(st.Final),
	})

	return st
}
