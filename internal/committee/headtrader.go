package committee

// HeadTrader synthesizes the three votes into the final call via a fixed,
// priority-ordered decision table. A risk REJECT overrides everything else.
// Note the deliberate asymmetry: a technical SELL goes through regardless of
// the fundamental vote, while a BUY needs fundamental support to upgrade.
type HeadTrader struct{}

func (HeadTrader) Arbitrate(v Votes) Decision {
	if v.Risk == VoteReject {
		return DecisionHoldRiskRejected
	}

	switch {
	case v.Technical == VoteBuy && v.Fundamental == VoteBuy:
		return DecisionStrongBuy
	case v.Technical == VoteBuy && v.Fundamental == VoteNeutral:
		return DecisionBuy
	case v.Technical == VoteSell:
		return DecisionSell
	default:
		return DecisionHold
	}
}
