package committee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadTrader_DecisionTable(t *testing.T) {
	ht := HeadTrader{}

	cases := []struct {
		name        string
		technical   Vote
		fundamental Vote
		want        Decision
	}{
		{"buy_buy", VoteBuy, VoteBuy, DecisionStrongBuy},
		{"buy_neutral", VoteBuy, VoteNeutral, DecisionBuy},
		{"buy_sell", VoteBuy, VoteSell, DecisionHold},
		{"sell_buy", VoteSell, VoteBuy, DecisionSell},
		{"sell_neutral", VoteSell, VoteNeutral, DecisionSell},
		{"sell_sell", VoteSell, VoteSell, DecisionSell},
		{"neutral_buy", VoteNeutral, VoteBuy, DecisionHold},
		{"neutral_neutral", VoteNeutral, VoteNeutral, DecisionHold},
		{"neutral_sell", VoteNeutral, VoteSell, DecisionHold},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ht.Arbitrate(Votes{
				Technical:   tc.technical,
				Fundamental: tc.fundamental,
				Risk:        VoteApprove,
			})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHeadTrader_RiskRejectOverridesEverything(t *testing.T) {
	ht := HeadTrader{}
	analystVotes := []Vote{VoteBuy, VoteSell, VoteNeutral}

	for _, tech := range analystVotes {
		for _, fund := range analystVotes {
			got := ht.Arbitrate(Votes{Technical: tech, Fundamental: fund, Risk: VoteReject})
			assert.Equal(t, DecisionHoldRiskRejected, got,
				"technical=%s fundamental=%s", tech, fund)
		}
	}
}

func TestHeadTrader_SellNotGatedByFundamental(t *testing.T) {
	// The table is asymmetric by design: SELL passes on the technical vote
	// alone, while BUY upgrades depend on the fundamental vote.
	ht := HeadTrader{}

	got := ht.Arbitrate(Votes{Technical: VoteSell, Fundamental: VoteBuy, Risk: VoteApprove})
	assert.Equal(t, DecisionSell, got)
}
