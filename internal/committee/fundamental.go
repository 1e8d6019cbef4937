package committee

import "fmt"

// FundamentalAnalyst votes on news sentiment: BUY above BuyThreshold, SELL
// below SellThreshold, NEUTRAL in between. Inflation above InflationCaution
// adds a cautionary clause to a BUY rationale but never changes the vote —
// macro context is advisory only.
type FundamentalAnalyst struct {
	BuyThreshold     float64
	SellThreshold    float64
	InflationCaution float64
}

// NewFundamentalAnalyst applies the default 0.5/-0.5 sentiment thresholds
// and 50% inflation caution level for zero values.
func NewFundamentalAnalyst(buy, sell, inflationCaution float64) FundamentalAnalyst {
	if buy == 0 {
		buy = 0.5
	}
	if sell == 0 {
		sell = -0.5
	}
	if inflationCaution == 0 {
		inflationCaution = 50
	}
	return FundamentalAnalyst{BuyThreshold: buy, SellThreshold: sell, InflationCaution: inflationCaution}
}

func (a FundamentalAnalyst) Evaluate(sig Signals) (Vote, string) {
	s := sig.Sentiment
	missing := !sig.HasSentiment
	if missing {
		s = 0
	}

	var vote Vote
	var reason string
	switch {
	case s > a.BuyThreshold:
		vote = VoteBuy
		reason = fmt.Sprintf("news flow is strongly positive (sentiment %.2f); voting BUY", s)
	case s < a.SellThreshold:
		vote = VoteSell
		reason = fmt.Sprintf("news flow is under negative pressure (sentiment %.2f); voting SELL", s)
	default:
		vote = VoteNeutral
		reason = fmt.Sprintf("news flow is flat or mixed (sentiment %.2f); voting NEUTRAL", s)
	}
	if missing {
		reason = "no sentiment available; treating news flow as neutral and voting NEUTRAL"
	}

	if vote == VoteBuy {
		if inflation := sig.Macro[MacroInflation]; inflation > a.InflationCaution {
			reason += fmt.Sprintf("; note that inflation at %.1f%% may suppress real returns", inflation)
		}
	}

	return vote, reason
}
