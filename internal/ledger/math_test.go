package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddChecked(t *testing.T) {
	sum, err := AddChecked(2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sum)

	_, err = AddChecked(math.MaxInt64, 1)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrOverflow))
}

func TestSubChecked(t *testing.T) {
	diff, err := SubChecked(5, 5, ErrInsufficientStake)
	require.NoError(t, err)
	assert.Equal(t, int64(0), diff)

	_, err = SubChecked(4, 5, ErrInsufficientStake)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrInsufficientStake))
}

func TestMulDivFloors(t *testing.T) {
	// 7*3/2 = 10.5 floors to 10.
	got, err := MulDiv(7, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)
}

func TestMulDivLargeIntermediate(t *testing.T) {
	// The intermediate product overflows int64 but the quotient fits.
	got, err := MulDiv(math.MaxInt64, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64/2), got)
}

func TestMulDivOverflowResult(t *testing.T) {
	_, err := MulDiv(math.MaxInt64, 3, 1)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrOverflow))
}

func TestMulDivCeil(t *testing.T) {
	got, err := MulDivCeil(7, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got)

	// Exact division does not round up.
	got, err = MulDivCeil(6, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got)
}

func TestTrustConversionRoundTrip(t *testing.T) {
	const multiplier = int64(10)

	// One coin at multiplier 10 earns 10 trust.
	reward, err := TrustReward(UnitScale, multiplier)
	require.NoError(t, err)
	assert.Equal(t, int64(10), reward)

	// Ten trust unlocks the coin back.
	unlock, err := UnlockForTrust(reward, multiplier)
	require.NoError(t, err)
	assert.Equal(t, UnitScale, unlock)

	// Burning for a partial unlock rounds the trust cost up, so the
	// round trip can never mint collateral.
	burned, err := BurnForUnlock(UnitScale/3, multiplier)
	require.NoError(t, err)
	regained, err := UnlockForTrust(burned, multiplier)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, regained, UnitScale/3)
}

func TestTrustRewardFloorsSmallAmounts(t *testing.T) {
	// Sub-coin settlements earn no trust.
	reward, err := TrustReward(UnitScale/10-1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reward)
}
