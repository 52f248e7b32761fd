package formula

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Parameter grids. Expected values come from the reference evaluator.

const (
	hour = 3600
	day  = 24 * hour
	week = 7 * day
	year = 365 * day
)

func num(x int64) Value {
	return Scalar(decimal.NewFromInt(x))
}

func bigNum(x *big.Int) Value {
	return Scalar(decimal.NewFromBigInt(x, 0))
}

// tokens returns x * 10^18
func tokens(x int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(x), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func flatRewardsSweep() []Values {
	totals := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(1000),
		tokens(1),
		tokens(123456789),
		pow2Big(128),
	}
	durations := []int64{1, hour, 10 * day, year}

	var grid []Values
	for _, total := range totals {
		for _, d := range durations {
			for _, elapsed := range []int64{0, 1, d / 3, d / 2, d - 1, d} {
				grid = append(grid, Values{
					"totalRewards": bigNum(total),
					"elapsed":      num(elapsed),
					"duration":     num(d),
				})
			}
		}
	}
	return grid
}

func expDecayRewardsSweep() []Values {
	totals := []*big.Int{
		big.NewInt(1),
		big.NewInt(1000),
		tokens(1),
		tokens(1_000_000_000),
	}
	halfLives := []int64{1, hour, week, year}

	var grid []Values
	for _, total := range totals {
		for _, h := range halfLives {
			elapsed := []int64{0, 1, h / 4, h / 2, h, 2 * h, 5*h + 1, 37 * h, 128*h - 1}
			for _, t := range elapsed {
				grid = append(grid, Values{
					"totalRewards": bigNum(total),
					"elapsed":      num(t),
					"halfLife":     num(h),
				})
			}
		}
	}
	return grid
}

type ratio struct {
	n, d *big.Int
}

func weightedAverageSweep() []Values {
	three70 := new(big.Int).Exp(big.NewInt(3), big.NewInt(70), nil)
	rates := []ratio{
		{big.NewInt(1), big.NewInt(1)},
		{big.NewInt(2), big.NewInt(3)},
		{tokens(1), big.NewInt(3_000_000)},
		{new(big.Int).Add(pow2Big(96), big.NewInt(1)), new(big.Int).Sub(pow2Big(95), big.NewInt(3))},
		{pow2Big(120), three70},
		{big.NewInt(7), new(big.Int).Add(pow2Big(100), big.NewInt(9))},
	}
	weights := []int64{0, 1, 3, 1_000_000}

	var grid []Values
	for _, x := range rates {
		for _, y := range rates {
			for _, wx := range weights {
				for _, wy := range weights {
					if wx+wy == 0 {
						continue
					}
					grid = append(grid, Values{
						"xn": bigNum(x.n), "xd": bigNum(x.d),
						"yn": bigNum(y.n), "yd": bigNum(y.d),
						"wx": num(wx), "wy": num(wy),
					})
				}
			}
		}
	}
	return grid
}

// isInRangeSweep probes each deviation at and just beyond its limits.
// Components stay below 2^96 so the boolean is never affected by reduction.
func isInRangeSweep() []Values {
	bases := []ratio{
		{big.NewInt(1), big.NewInt(1)},
		{big.NewInt(3), big.NewInt(7)},
		{tokens(1), big.NewInt(2_500_000_000)},
		{new(big.Int).SetUint64(^uint64(0)), big.NewInt(12345)},
	}
	deviations := []int64{0, 1, 500, 10_000, PPM}

	var grid []Values
	for _, base := range bases {
		for _, dev := range deviations {
			for _, delta := range []int64{-dev - 1, -dev, 0, dev, dev + 1} {
				if PPM+delta <= 0 {
					continue
				}
				offsetN := new(big.Int).Mul(base.n, big.NewInt(PPM+delta))
				offsetD := new(big.Int).Mul(base.d, big.NewInt(PPM))
				grid = append(grid, Values{
					"baseN":        bigNum(base.n),
					"baseD":        bigNum(base.d),
					"offsetN":      bigNum(offsetN),
					"offsetD":      bigNum(offsetD),
					"maxDeviation": num(dev),
				})
			}
		}
	}
	return grid
}

// withdrawalAmountsSweep covers both branches. The protection balance is either empty or
// large enough to cover any shortfall.
func withdrawalAmountsSweep() []Values {
	type balances struct{ b, c, e *big.Int }
	staked := tokens(1000)
	pools := []balances{
		{tokens(1000), big.NewInt(0), staked},
		{tokens(1200), tokens(5), staked},
		{tokens(600), tokens(100), staked},
		{big.NewInt(0), big.NewInt(0), staked},
	}
	liquidity := []*big.Int{tokens(1), tokens(3000)}
	protection := []*big.Int{big.NewInt(0), new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)}
	bntLiquidity := []*big.Int{tokens(2), tokens(7_000_000)}
	fees := []int64{0, 2500, PPM}

	var grid []Values
	for _, a := range liquidity {
		for _, pool := range pools {
			for _, w := range protection {
				for _, p := range bntLiquidity {
					for _, n := range fees {
						for _, x := range []*big.Int{big.NewInt(1), tokens(1), pool.e} {
							grid = append(grid, Values{
								"a": bigNum(a), "b": bigNum(pool.b), "c": bigNum(pool.c), "e": bigNum(pool.e),
								"w": bigNum(w), "p": bigNum(p), "n": num(n), "x": bigNum(x),
							})
						}
					}
				}
			}
		}
	}
	return grid
}
