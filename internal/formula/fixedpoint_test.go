package formula

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func TestFlatRewards(t *testing.T) {
	ctx := context.Background()
	fp := NewFixedPoint()

	tests := []struct {
		name     string
		total    string
		elapsed  string
		duration string
		want     string
		wantErr  error
	}{
		{name: "half duration pays half", total: "1000", elapsed: "432000", duration: "864000", want: "500"},
		{name: "nothing elapsed", total: "1000", elapsed: "0", duration: "864000", want: "0"},
		{name: "full duration", total: "1000", elapsed: "864000", duration: "864000", want: "1000"},
		{name: "rounds down", total: "1000000000000000000", elapsed: "1", duration: "3", want: "333333333333333333"},
		{name: "512-bit intermediate", total: "115792089237316195423570985008687907853269984665640564039457584007913129639935", elapsed: "1", duration: "2", want: "57896044618658097711785492504343953926634992332820282019728792003956564819967"},
		{name: "zero duration", total: "1000", elapsed: "1", duration: "0", wantErr: ErrZeroValue},
		{name: "elapsed beyond duration", total: "1000", elapsed: "864001", duration: "864000", wantErr: ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fp.FlatRewards(ctx, u(tt.total), u(tt.elapsed), u(tt.duration))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Dec())
		})
	}
}

func TestExpDecayRewards(t *testing.T) {
	ctx := context.Background()
	fp := NewFixedPoint()
	const halfLife = "604800"

	t.Run("one half-life pays half and never more", func(t *testing.T) {
		for _, total := range []string{"1000", "1000000000000000000", "999999999999999999999999999"} {
			got, err := fp.ExpDecayRewards(ctx, u(total), u(halfLife), u(halfLife))
			require.NoError(t, err)

			half := dec(total).Div(dec("2"))
			err = AlmostEqual(FromUint256(got).N, half, ToleranceSpec{MaxAbsoluteError: bound("1"), Relation: RelationLTE})
			assert.NoError(t, err, "total %s", total)
		}
	})

	t.Run("whole half-lives", func(t *testing.T) {
		cases := map[string]string{"1209600": "750", "1814400": "875"}
		for elapsed, want := range cases {
			got, err := fp.ExpDecayRewards(ctx, u("1000"), u(elapsed), u(halfLife))
			require.NoError(t, err)
			assert.Equal(t, want, got.Dec())
		}
	})

	t.Run("fractional half-lives", func(t *testing.T) {
		got, err := fp.ExpDecayRewards(ctx, u("1000000000000000000"), u("302400"), u(halfLife))
		require.NoError(t, err)
		assert.Equal(t, "292893218813452475", got.Dec())

		got, err = fp.ExpDecayRewards(ctx, u("1000000000000000000"), u("151200"), u(halfLife))
		require.NoError(t, err)
		assert.Equal(t, "159103584746285456", got.Dec())
	})

	t.Run("127 half-lives is the last representable period", func(t *testing.T) {
		got, err := fp.ExpDecayRewards(ctx, u("1000000000000000000000000000"), u("76809600"), u(halfLife))
		require.NoError(t, err)
		assert.Equal(t, "999999999999999999999999999", got.Dec())

		_, err = fp.ExpDecayRewards(ctx, u("1000000000000000000"), u("77414400"), u(halfLife))
		assert.ErrorIs(t, err, ErrOverflow)
	})

	t.Run("zero half-life", func(t *testing.T) {
		_, err := fp.ExpDecayRewards(ctx, u("1000"), u("1"), u("0"))
		assert.ErrorIs(t, err, ErrZeroValue)
	})
}

func TestPow2IsLowerBound(t *testing.T) {
	// 2^(1/2) in Q127 is 240615969168004511545033772477625056927.11...
	got, err := pow2(u("1"), u("2"))
	require.NoError(t, err)
	assert.True(t, got.Cmp(u("240615969168004511545033772477625056928")) < 0)
	assert.True(t, got.Cmp(u("240615969168004511545033772477625056800")) > 0)

	got, err = pow2(u("3"), u("1"))
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Lsh(one, 3).Dec(), got.Dec())
}

func TestWeightedAverage(t *testing.T) {
	ctx := context.Background()
	fp := NewFixedPoint()

	t.Run("exact for small components", func(t *testing.T) {
		got, err := fp.WeightedAverage(ctx, NewFraction256(1, 2), NewFraction256(1, 3), 1, 1)
		require.NoError(t, err)
		assert.NoError(t, AlmostEqualFraction(FromFraction256(got), Ratio(dec("5"), dec("12")), ToleranceSpec{}))
	})

	t.Run("reduces large components", func(t *testing.T) {
		x := Fraction256{N: new(uint256.Int).Lsh(uint256.NewInt(1), 120), D: u("2503155504993241601315571986085849")}
		got, err := fp.WeightedAverage(ctx, x, NewFraction256(1, 1), 1, 1)
		require.NoError(t, err)
		assert.False(t, got.N.Gt(new(uint256.Int).Lsh(uint256.NewInt(1), 200)))

		want := Ratio(dec("1329230498940420866145408375852330425"), dec("5006311009986483202631143972171698"))
		assert.NoError(t, AlmostEqualFraction(FromFraction256(got), want, DefaultTolerances().For("weightedAverage", "average")))
	})

	t.Run("zero denominator", func(t *testing.T) {
		_, err := fp.WeightedAverage(ctx, NewFraction256(1, 0), NewFraction256(1, 1), 1, 1)
		assert.ErrorIs(t, err, ErrZeroValue)
	})

	t.Run("zero total weight", func(t *testing.T) {
		_, err := fp.WeightedAverage(ctx, NewFraction256(1, 1), NewFraction256(1, 1), 0, 0)
		assert.ErrorIs(t, err, ErrZeroValue)
	})
}

func TestIsInRange(t *testing.T) {
	ctx := context.Background()
	fp := NewFixedPoint()

	tests := []struct {
		name   string
		offset Fraction256
		dev    uint32
		want   bool
	}{
		{name: "equal with no deviation", offset: NewFraction256(1, 1), dev: 0, want: true},
		{name: "upper edge", offset: NewFraction256(1_010_000, 1_000_000), dev: 10_000, want: true},
		{name: "beyond upper edge", offset: NewFraction256(1_010_001, 1_000_000), dev: 10_000, want: false},
		{name: "lower edge", offset: NewFraction256(990_000, 1_000_000), dev: 10_000, want: true},
		{name: "beyond lower edge", offset: NewFraction256(989_999, 1_000_000), dev: 10_000, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fp.IsInRange(ctx, NewFraction256(1, 1), tt.offset, tt.dev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := fp.IsInRange(ctx, NewFraction256(1, 1), NewFraction256(1, 1), PPM+1)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func withdrawal(a, b, c, e, w, p string, n uint32, x string) WithdrawalInputs {
	return WithdrawalInputs{
		TknTradingLiquidity: u(a),
		TknVaultBalance:     u(b),
		TknExcessBalance:    u(c),
		TknStakedBalance:    u(e),
		ProtectionBalance:   u(w),
		BntTradingLiquidity: u(p),
		WithdrawalFeePPM:    n,
		TknAmount:           u(x),
	}
}

func TestWithdrawalAmounts(t *testing.T) {
	ctx := context.Background()
	fp := NewFixedPoint()
	const token = "000000000000000000"

	t.Run("surplus", func(t *testing.T) {
		in := withdrawal("1000"+token, "1000"+token, "0", "1000"+token, "0", "2000"+token, 2500, "10"+token)
		require.True(t, in.IsSurplus())

		got, err := fp.WithdrawalAmountsSurplus(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "9975000000000000000", got.TknFromVault.Dec())
		assert.Equal(t, "0", got.BntToMint.Dec())
		assert.Equal(t, "0", got.TknFromProtection.Dec())
		assert.Equal(t, "9975000000000000000", got.TknLiquidityDelta.Dec())
		assert.Equal(t, "19950000000000000000", got.BntLiquidityDelta.Dec())
		assert.Equal(t, "25000000000000000", got.WithdrawalFee.Dec())
	})

	t.Run("deficit without protection mints BNT", func(t *testing.T) {
		in := withdrawal("1000"+token, "600"+token, "100"+token, "1000"+token, "0", "2000"+token, 2500, "10"+token)
		require.False(t, in.IsSurplus())

		got, err := fp.WithdrawalAmountsDeficit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "6982500000000000000", got.TknFromVault.Dec())
		assert.Equal(t, "5985000000000000000", got.BntToMint.Dec())
		assert.Equal(t, "0", got.TknFromProtection.Dec())
		assert.Equal(t, "9975000000000000000", got.TknLiquidityDelta.Dec())
		assert.Equal(t, "19950000000000000000", got.BntLiquidityDelta.Dec())
	})

	t.Run("deficit covered by protection", func(t *testing.T) {
		in := withdrawal("1000"+token, "600"+token, "100"+token, "1000"+token, "1000000000000000000000000000000", "2000"+token, 2500, "10"+token)

		got, err := fp.WithdrawalAmountsDeficit(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "2992500000000000000", got.TknFromProtection.Dec())
		assert.Equal(t, "0", got.BntToMint.Dec())
	})

	t.Run("both entry points return numbers for a deficit row", func(t *testing.T) {
		in := withdrawal("1000"+token, "600"+token, "100"+token, "1000"+token, "0", "2000"+token, 2500, "10"+token)

		surplus, err := fp.WithdrawalAmountsSurplus(ctx, in)
		require.NoError(t, err)
		deficit, err := fp.WithdrawalAmountsDeficit(ctx, in)
		require.NoError(t, err)
		assert.NotEqual(t, surplus.TknFromVault.Dec(), deficit.TknFromVault.Dec())
	})

	t.Run("reverts", func(t *testing.T) {
		_, err := fp.WithdrawalAmountsDeficit(ctx, withdrawal("0", "0", "0", "1000", "0", "1", 0, "1"))
		assert.ErrorIs(t, err, ErrZeroValue)

		_, err = fp.WithdrawalAmountsSurplus(ctx, withdrawal("1", "1000", "0", "1000", "0", "1", PPM+1, "1"))
		assert.ErrorIs(t, err, ErrInvalidParam)

		_, err = fp.WithdrawalAmountsSurplus(ctx, withdrawal("1", "1000", "0", "1000", "0", "1", 0, "1001"))
		assert.ErrorIs(t, err, ErrInvalidParam)
	})
}
