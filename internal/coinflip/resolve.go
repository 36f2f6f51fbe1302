package coinflip

import "coinflip/backend/internal/models"

// DrawOutcome maps one toss to a coin face.
func DrawOutcome(c Coin) models.Side {
	if c.Toss() {
		return models.SideHeads
	}
	return models.SideTails
}

// ResolveWinner applies the side-preference policy for a drawn face:
//  1. nobody declared a side: tie-break draw between the parties;
//  2. the host's side came up: host wins;
//  3. the joiner's side came up: joiner wins;
//  4. otherwise: tie-break draw.
//
// The tie-break coin must be independent of the coin that produced outcome.
func ResolveWinner(host, joiner models.Stake, outcome models.Side, tieBreak Coin) (winnerID, loserID string) {
	switch {
	case !host.HasSide() && !joiner.HasSide():
		return tieBreakWinner(host, joiner, tieBreak)
	case host.Side == outcome:
		return host.UserID, joiner.UserID
	case joiner.Side == outcome:
		return joiner.UserID, host.UserID
	default:
		return tieBreakWinner(host, joiner, tieBreak)
	}
}

func tieBreakWinner(host, joiner models.Stake, tieBreak Coin) (string, string) {
	if tieBreak.Toss() {
		return host.UserID, joiner.UserID
	}
	return joiner.UserID, host.UserID
}

// TransferSet is every host item followed by every joiner item, each in submitted order.
func TransferSet(host, joiner models.Stake) []string {
	items := make([]string, 0, len(host.Items)+len(joiner.Items))
	items = append(items, host.Items...)
	return append(items, joiner.Items...)
}

// ToleranceRange returns the closed interval of joiner values accepted against hostValue.
func ToleranceRange(hostValue, tolerance float64) (lower, upper float64) {
	return hostValue * (1 - tolerance), hostValue * (1 + tolerance)
}
