package committee

import "fmt"

// TechnicalAnalyst maps the forecast collaborator's probability of an upward
// move into a vote: BUY above Upper, SELL below Lower, NEUTRAL in between.
// Pure and deterministic given its thresholds.
type TechnicalAnalyst struct {
	Upper float64
	Lower float64
}

// NewTechnicalAnalyst applies the default 0.60/0.40 thresholds for zero
// values.
func NewTechnicalAnalyst(upper, lower float64) TechnicalAnalyst {
	if upper == 0 {
		upper = 0.60
	}
	if lower == 0 {
		lower = 0.40
	}
	return TechnicalAnalyst{Upper: upper, Lower: lower}
}

func (a TechnicalAnalyst) Evaluate(sig Signals) (Vote, string) {
	p := sig.ProbabilityUp
	missing := !sig.HasForecast
	if missing {
		p = 0.5
	}

	var vote Vote
	switch {
	case p > a.Upper:
		vote = VoteBuy
	case p < a.Lower:
		vote = VoteSell
	default:
		vote = VoteNeutral
	}

	if missing {
		return vote, fmt.Sprintf("no forecast available; assuming a %.2f upward probability and voting %s", p, vote)
	}
	return vote, fmt.Sprintf("model puts the probability of an upward move at %.2f (buy above %.2f, sell below %.2f); voting %s", p, a.Upper, a.Lower, vote)
}
