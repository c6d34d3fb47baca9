package ledger

import "math/big"

// DisputeUpheld evaluates the appeal arbitration threshold as a pure
// function of the current Appeal and Event records:
//
//	disagreeCount/participants < (disagreeTrust/totalTrust) * (disagreeVolume/losingPool)
//
// where losingPool is the total pot minus the winning option's vault.
// The comparison is done by exact cross-multiplication,
//
//	disagreeCount * totalTrust * losingPool < disagreeTrust * disagreeVolume * participants
//
// so the result is deterministic and free of floating point. Higher
// combined trust-and-volume weighting of dissent, relative to raw
// headcount, upholds the dispute.
//
// Degenerate events (no participants, no trust, or an empty losing pool)
// never uphold a dispute: with a zero denominator the ratio form is
// undefined and forfeiture must not trigger.
func DisputeUpheld(a *Appeal, e *Event, winningVault int64) bool {
	losingPool := e.TotalAmount - winningVault
	if e.ParticipationCount <= 0 || e.TotalTrust <= 0 || losingPool <= 0 {
		return false
	}

	lhs := new(big.Int).Mul(big.NewInt(a.DisagreeCount), big.NewInt(e.TotalTrust))
	lhs.Mul(lhs, big.NewInt(losingPool))

	rhs := new(big.Int).Mul(big.NewInt(a.DisagreeTrustLvl), big.NewInt(a.DisagreeVolume))
	rhs.Mul(rhs, big.NewInt(e.ParticipationCount))

	return lhs.Cmp(rhs) < 0
}
