// internal/game/bridge/scoring.go
package bridge

import "github.com/jason-s-yu/trickhouse/internal/game"

// Score applies non-vulnerable duplicate scoring to a played contract. It returns the
// points earned by the declaring side and by the defenders; one of them is always zero.
func Score(c game.Contract, tricksTaken int) (declarer, defenders int) {
	need := 6 + c.Bid.Level
	mult := 1
	if c.Redoubled {
		mult = 4
	} else if c.Doubled {
		mult = 2
	}

	if tricksTaken < need {
		return 0, undertricks(need-tricksTaken, mult)
	}

	per := trickValue(c.Bid.Strain)
	contractPts := 0
	for i := 1; i <= c.Bid.Level; i++ {
		if i == 1 && c.Bid.Strain == game.StrainNoTrump {
			contractPts += 40
		} else {
			contractPts += per
		}
	}
	contractPts *= mult

	score := contractPts
	if contractPts >= 100 {
		score += 300
	} else {
		score += 50
	}
	switch c.Bid.Level {
	case 6:
		score += 500
	case 7:
		score += 1000
	}
	switch mult {
	case 2:
		score += 50
	case 4:
		score += 100
	}

	over := tricksTaken - need
	switch mult {
	case 1:
		score += over * per
	case 2:
		score += over * 100
	case 4:
		score += over * 200
	}
	return score, 0
}

func trickValue(s game.Strain) int {
	switch s {
	case game.StrainClubs, game.StrainDiamonds:
		return 20
	}
	return 30
}

// undertricks is the defenders' penalty for going down n tricks, not vulnerable.
func undertricks(n, mult int) int {
	if mult == 1 {
		return 50 * n
	}
	pts := 0
	for i := 1; i <= n; i++ {
		switch {
		case i == 1:
			pts += 100
		case i <= 3:
			pts += 200
		default:
			pts += 300
		}
	}
	if mult == 4 {
		pts *= 2
	}
	return pts
}
