package ledger

import "math/big"

// Fixed-point arithmetic for fund and trust movements. All intermediate
// products are taken over big.Int so 64-bit overflow cannot corrupt a
// balance; results that do not fit back into int64 fail with ErrOverflow.
// Division floors unless the function name says otherwise — rounding
// direction always favors the pot over the claimant.

// AddChecked returns a+b or ErrOverflow.
func AddChecked(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, NewError(ErrOverflow, "balance addition overflows")
	}
	return sum, nil
}

// SubChecked returns a-b, failing with the given code if the result would
// be negative. Balances and counters never go below zero.
func SubChecked(a, b int64, code Code) (int64, error) {
	if b > a {
		return 0, NewError(code, "balance underflow")
	}
	return a - b, nil
}

// MulDiv returns a*b/div rounded toward zero, exact over big.Int.
// All inputs must be non-negative; div must be positive.
func MulDiv(a, b, div int64) (int64, error) {
	if div <= 0 {
		return 0, NewError(ErrOverflow, "division by non-positive value")
	}
	out := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	out.Quo(out, big.NewInt(div))
	if !out.IsInt64() {
		return 0, NewError(ErrOverflow, "pro-rata product exceeds 64 bits")
	}
	return out.Int64(), nil
}

// MulDivCeil returns a*b/div rounded up, exact over big.Int.
func MulDivCeil(a, b, div int64) (int64, error) {
	if div <= 0 {
		return 0, NewError(ErrOverflow, "division by non-positive value")
	}
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	quo, rem := new(big.Int).QuoRem(num, big.NewInt(div), new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if !quo.IsInt64() {
		return 0, NewError(ErrOverflow, "pro-rata product exceeds 64 bits")
	}
	return quo.Int64(), nil
}

// TrustReward converts an amount of base units involved in a settlement
// into a trust delta: amount / UnitScale * multiplier, floored.
func TrustReward(amount, multiplier int64) (int64, error) {
	return MulDiv(amount, multiplier, UnitScale)
}

// UnlockForTrust converts a trust amount into the collateral it can
// unlock: trust * UnitScale / multiplier, floored.
func UnlockForTrust(trust, multiplier int64) (int64, error) {
	return MulDiv(trust, UnitScale, multiplier)
}

// BurnForUnlock recomputes the trust actually burned for an unlocked
// amount, rounding up so a burn can never mint collateral.
func BurnForUnlock(unlock, multiplier int64) (int64, error) {
	return MulDivCeil(unlock, multiplier, UnitScale)
}
