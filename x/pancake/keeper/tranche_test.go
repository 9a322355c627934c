package keeper

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func e18(v int64) math.Int { return ether.MulRaw(v) }

// milli returns v/1000 at 18 decimals
func milli(v int64) math.Int { return ether.MulRaw(v).QuoRaw(1_000) }

func capitalOf(t *testing.T, tr Tranche) math.Int {
	t.Helper()
	capital, err := tr.Capital()
	require.NoError(t, err)
	return capital
}

func TestReprice(t *testing.T) {
	tests := []struct {
		name       string
		senior     Tranche
		junior     Tranche
		gain       math.Int
		bps        int64
		wantSenior math.Int
		wantJunior math.Int
	}{
		{
			name:       "ten percent rally",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: e18(1)},
			gain:       e18(20),
			bps:        10,
			wantSenior: milli(1_001),
			wantJunior: milli(1_199),
		},
		{
			name:       "flat market pays senior from junior",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: e18(1)},
			gain:       math.ZeroInt(),
			bps:        10,
			wantSenior: milli(1_001),
			wantJunior: milli(999),
		},
		{
			name:       "loss absorbed by junior",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: e18(1)},
			gain:       e18(-50),
			bps:        10,
			wantSenior: milli(1_001),
			wantJunior: milli(499),
		},
		{
			name:       "junior exactly covers coupon",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: e18(1)},
			gain:       milli(-99_900),
			bps:        10,
			wantSenior: milli(1_001),
			wantJunior: math.ZeroInt(),
		},
		{
			name:       "junior wiped senior keeps remainder",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: e18(1)},
			gain:       e18(-150),
			bps:        10,
			wantSenior: milli(500),
			wantJunior: math.ZeroInt(),
		},
		{
			name:       "total loss floors at zero",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: e18(1)},
			gain:       e18(-300),
			bps:        10,
			wantSenior: math.ZeroInt(),
			wantJunior: math.ZeroInt(),
		},
		{
			name:       "wiped junior leaves gain to senior",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(100), Price: math.ZeroInt()},
			gain:       e18(10),
			bps:        10,
			wantSenior: milli(1_100),
			wantJunior: math.ZeroInt(),
		},
		{
			name:       "empty senior leaves gain to junior",
			senior:     Tranche{Supply: math.ZeroInt(), Price: e18(1)},
			junior:     Tranche{Supply: e18(50), Price: e18(1)},
			gain:       e18(5),
			bps:        10,
			wantSenior: e18(1),
			wantJunior: milli(1_100),
		},
		{
			name:       "both empty",
			senior:     Tranche{Supply: math.ZeroInt(), Price: e18(1)},
			junior:     Tranche{Supply: math.ZeroInt(), Price: e18(1)},
			gain:       e18(5),
			bps:        10,
			wantSenior: e18(1),
			wantJunior: e18(1),
		},
		{
			name:       "zero coupon",
			senior:     Tranche{Supply: e18(100), Price: e18(1)},
			junior:     Tranche{Supply: e18(300), Price: e18(1)},
			gain:       e18(30),
			bps:        0,
			wantSenior: e18(1),
			wantJunior: milli(1_100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			senior, junior, err := Reprice(tt.senior, tt.junior, tt.gain, tt.bps)
			require.NoError(t, err)
			require.Equal(t, tt.wantSenior.String(), senior.String(), "senior")
			require.Equal(t, tt.wantJunior.String(), junior.String(), "junior")
		})
	}
}

func TestRepriceConservesCapital(t *testing.T) {
	senior := Tranche{Supply: e18(137), Price: milli(1_013)}
	junior := Tranche{Supply: e18(59), Price: milli(877)}
	before := capitalOf(t, senior).Add(capitalOf(t, junior))

	for _, gain := range []math.Int{e18(12), e18(-7), math.ZeroInt(), milli(333)} {
		sp, jp, err := Reprice(senior, junior, gain, 25)
		require.NoError(t, err)
		after := capitalOf(t, Tranche{Supply: senior.Supply, Price: sp}).
			Add(capitalOf(t, Tranche{Supply: junior.Supply, Price: jp}))

		// Truncation only ever loses value, and at most a few base units
		expected := before.Add(gain)
		require.True(t, after.LTE(expected), "gain %s", gain)
		require.True(t, expected.Sub(after).LT(math.NewInt(1_000)), "gain %s", gain)
	}
}

func TestRepriceOverflow(t *testing.T) {
	huge := math.NewIntWithDecimal(1, 70)

	tests := []struct {
		name   string
		senior Tranche
		junior Tranche
		gain   math.Int
	}{
		{
			name:   "capital out of range",
			senior: Tranche{Supply: huge, Price: huge},
			junior: Tranche{Supply: e18(100), Price: e18(1)},
			gain:   e18(1),
		},
		{
			name:   "gain out of range",
			senior: Tranche{Supply: e18(100), Price: e18(1)},
			junior: Tranche{Supply: e18(100), Price: e18(1)},
			gain:   math.NewIntWithDecimal(1, 76).MulRaw(11),
		},
		{
			name:   "junior price out of range",
			senior: Tranche{Supply: math.NewIntWithDecimal(1, 58), Price: e18(1)},
			junior: Tranche{Supply: e18(1), Price: e18(1)},
			gain:   math.NewIntWithDecimal(1, 76),
		},
		{
			name:   "repriced capital out of range",
			senior: Tranche{Supply: math.NewIntWithDecimal(1, 76), Price: math.OneInt()},
			junior: Tranche{Supply: math.ZeroInt(), Price: e18(1)},
			gain:   math.NewIntWithDecimal(1, 76),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, _, err := Reprice(tt.senior, tt.junior, tt.gain, 10)
				require.ErrorIs(t, err, math.ErrIntOverflow)
			})
		})
	}
}
