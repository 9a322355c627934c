package types

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"
)

func testAddr(b byte) string {
	return sdk.AccAddress([]byte{b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b, b}).String()
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"senior", TierSenior, false},
		{"Buttermilk", TierSenior, false},
		{"BUTTR", TierSenior, false},
		{"junior", TierJunior, false},
		{"chocolate-chip", TierJunior, false},
		{" choco ", TierJunior, false},
		{"mezzanine", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrInvalidTier, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got)
	}
}

func TestParseAsset(t *testing.T) {
	a, err := ParseAsset("eth")
	require.NoError(t, err)
	require.Equal(t, AssetEth, a)
	require.Equal(t, DenomEth, a.Denom())

	a, err = ParseAsset("DAI")
	require.NoError(t, err)
	require.Equal(t, DenomDai, a.Denom())

	_, err = ParseAsset("usdc")
	require.ErrorIs(t, err, ErrInvalidAsset)
}

func TestMetadataFor(t *testing.T) {
	senior := MetadataFor(TierSenior)
	require.Equal(t, "Buttermilk Pancake", senior.Name)
	require.Equal(t, "BUTTR", senior.Symbol)
	require.Equal(t, uint8(18), senior.Decimals)

	junior := MetadataFor(TierJunior)
	require.Equal(t, "Chocolate Chip Pancake", junior.Name)
	require.Equal(t, "CHOCO", junior.Symbol)
	require.Equal(t, uint8(18), junior.Decimals)
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams(testAddr(1))
	require.NoError(t, p.Validate())

	bad := p
	bad.Operator = "nobody"
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = p
	bad.LockupSeconds = -1
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = p
	bad.SeniorTargetBps = 10_001
	require.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}

func TestPoolPhase(t *testing.T) {
	pool := NewPool(100)
	now := time.Unix(1_000, 0)
	require.Equal(t, PhaseDeposit, pool.Phase(now))
	require.False(t, pool.LockupElapsed(now))

	pool.Started = true
	pool.StartTime = 1_000
	pool.DepositsEnabled = false
	require.Equal(t, PhaseLocked, pool.Phase(now.Add(99*time.Second)))
	require.Equal(t, PhaseUnlocking, pool.Phase(now.Add(100*time.Second)))
	require.Equal(t, int64(1_100), pool.UnlockTime().Unix())

	pool.WithdrawalsEnabled = true
	require.Equal(t, PhaseWithdraw, pool.Phase(now))
}

func TestPoolKickedOffAtEpoch(t *testing.T) {
	pool := NewPool(100)
	require.False(t, pool.KickedOff())

	pool.Started = true
	pool.DepositsEnabled = false
	require.True(t, pool.KickedOff())
	require.Equal(t, PhaseLocked, pool.Phase(time.Unix(99, 0)))
	require.True(t, pool.LockupElapsed(time.Unix(100, 0)))
	require.Equal(t, int64(100), pool.UnlockTime().Unix())
}

func TestPoolLastRate(t *testing.T) {
	pool := NewPool(0)
	pool.SetLastRate(AssetEth, math.NewInt(200_00000000))
	pool.SetLastRate(AssetDai, math.NewInt(1_00000000))
	require.Equal(t, "20000000000", pool.LastRate(AssetEth).String())
	require.Equal(t, "100000000", pool.LastRate(AssetDai).String())
}

func TestMsgValidateBasic(t *testing.T) {
	alice := testAddr(1)
	bob := testAddr(2)

	tests := []struct {
		name    string
		msg     interface{ ValidateBasic() error }
		wantErr error
	}{
		{"deposit ok", MsgDeposit{Depositor: alice, Tier: "senior", Asset: "ETH", Amount: "1000"}, nil},
		{"deposit zero", MsgDeposit{Depositor: alice, Tier: "senior", Asset: "ETH", Amount: "0"}, ErrInvalidAmount},
		{"deposit negative", MsgDeposit{Depositor: alice, Tier: "junior", Asset: "DAI", Amount: "-5"}, ErrInvalidAmount},
		{"deposit bad tier", MsgDeposit{Depositor: alice, Tier: "x", Asset: "DAI", Amount: "5"}, ErrInvalidTier},
		{"deposit bad asset", MsgDeposit{Depositor: alice, Tier: "junior", Asset: "BTC", Amount: "5"}, ErrInvalidAsset},
		{"withdraw ok", MsgWithdraw{Holder: bob, Tier: "junior", Amount: "7"}, nil},
		{"withdraw garbage", MsgWithdraw{Holder: bob, Tier: "junior", Amount: "1e18"}, ErrInvalidAmount},
		{"transfer ok", MsgTransfer{From: alice, To: bob, Tier: "senior", Amount: "0"}, nil},
		{"approve ok", MsgApprove{Owner: alice, Spender: bob, Tier: "senior", Amount: "10"}, nil},
		{"transfer from ok", MsgTransferFrom{Spender: bob, From: alice, To: bob, Tier: "junior", Amount: "1"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.ValidateBasic()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	require.Error(t, MsgKickoff{Operator: "bogus"}.ValidateBasic())
	require.NoError(t, MsgUpdate{Caller: bob}.ValidateBasic())
	require.NoError(t, MsgEnableWithdrawals{Operator: alice}.ValidateBasic())
}
