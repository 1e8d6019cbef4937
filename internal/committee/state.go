package committee

// Vote is one stage's verdict. Analyst stages emit BUY/SELL/NEUTRAL, the
// risk gate emits APPROVE/REJECT.
type Vote string

const (
	VoteBuy     Vote = "BUY"
	VoteSell    Vote = "SELL"
	VoteNeutral Vote = "NEUTRAL"
	VoteApprove Vote = "APPROVE"
	VoteReject  Vote = "REJECT"
)

// Decision is the head trader's final call.
type Decision string

const (
	DecisionStrongBuy        Decision = "STRONG BUY"
	DecisionBuy              Decision = "BUY"
	DecisionSell             Decision = "SELL"
	DecisionHold             Decision = "HOLD"
	DecisionHoldRiskRejected Decision = "HOLD-RISK-REJECTED"
)

// MacroInflation is the macro indicator key the fundamental analyst reads.
const MacroInflation = "inflation"

// Signals are the already-resolved collaborator inputs for one committee
// run. The Has* flags distinguish a genuine zero from an unavailable signal;
// stages substitute a neutral default and note the absence rather than
// failing the pipeline.
type Signals struct {
	ProbabilityUp float64            `json:"probability_up"` // [0,1] chance of an upward move
	HasForecast   bool               `json:"has_forecast"`
	Sentiment     float64            `json:"sentiment"` // [-1,1]
	HasSentiment  bool               `json:"has_sentiment"`
	Macro         map[string]float64 `json:"macro,omitempty"`
}

// Votes holds one slot per stage. Each slot is written exactly once, by its
// own stage; the layout makes cross-stage overwrites impossible by
// construction.
type Votes struct {
	Technical   Vote `json:"technical"`
	Fundamental Vote `json:"fundamental"`
	Risk        Vote `json:"risk"`
}

// Reasoning mirrors Votes with the human-readable rationale per stage.
type Reasoning struct {
	Technical   string `json:"technical"`
	Fundamental string `json:"fundamental"`
	Risk        string `json:"risk"`
}

// State is the record threaded through one committee run. It is created
// fresh per run, owned exclusively by the orchestrator while the pipeline
// executes, and discarded once the result is read.
type State struct {
	RunID     string    `json:"run_id"`
	Symbol    string    `json:"symbol"`
	Signals   Signals   `json:"signals"`
	Votes     Votes     `json:"votes"`
	Reasoning Reasoning `json:"reasoning"`
	Final     Decision  `json:"final_decision"`
}
