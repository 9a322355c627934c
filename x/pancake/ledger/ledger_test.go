package ledger

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/pancake/x/pancake/types"
)

var (
	owner = sdk.AccAddress([]byte("pool________________"))
	alice = sdk.AccAddress([]byte("alice_______________"))
	bob   = sdk.AccAddress([]byte("bob_________________"))
	carol = sdk.AccAddress([]byte("carol_______________"))
)

func setupLedgers(t *testing.T) (*Ledger, *Ledger, sdk.Context) {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{}, false, log.NewNopLogger())

	senior := New(storeKey, types.TierSenior)
	junior := New(storeKey, types.TierJunior)
	require.NoError(t, senior.Init(ctx, owner))
	require.NoError(t, junior.Init(ctx, owner))
	return senior, junior, ctx
}

func TestInitMetadata(t *testing.T) {
	senior, junior, ctx := setupLedgers(t)

	meta := senior.Metadata(ctx)
	require.Equal(t, "Buttermilk Pancake", meta.Name)
	require.Equal(t, "BUTTR", meta.Symbol)
	require.Equal(t, uint8(18), meta.Decimals)
	require.Equal(t, senior.Address().String(), meta.Address)
	require.Equal(t, owner.String(), meta.Owner)

	require.Equal(t, "CHOCO", junior.Metadata(ctx).Symbol)
	require.NotEqual(t, senior.Address(), junior.Address())
	require.True(t, senior.TotalSupply(ctx).IsZero())

	require.ErrorIs(t, senior.Init(ctx, owner), types.ErrPoolExists)
}

func TestMintBurnOwnerOnly(t *testing.T) {
	senior, _, ctx := setupLedgers(t)

	err := senior.Mint(ctx, alice, alice, math.NewInt(100))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	require.NoError(t, senior.Mint(ctx, owner, alice, math.NewInt(100)))
	require.Equal(t, math.NewInt(100), senior.BalanceOf(ctx, alice))
	require.Equal(t, math.NewInt(100), senior.TotalSupply(ctx))

	err = senior.Burn(ctx, alice, alice, math.NewInt(10))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	err = senior.Burn(ctx, owner, alice, math.NewInt(101))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)

	require.NoError(t, senior.Burn(ctx, owner, alice, math.NewInt(100)))
	require.True(t, senior.BalanceOf(ctx, alice).IsZero())
	require.True(t, senior.TotalSupply(ctx).IsZero())

	// The emptied holder is still listed
	holders := senior.Holders(ctx, 0)
	require.Len(t, holders, 1)
	require.Equal(t, alice.String(), holders[0].Address)
}

func TestMintEmitsTransfer(t *testing.T) {
	senior, _, ctx := setupLedgers(t)
	ctx = ctx.WithEventManager(sdk.NewEventManager())

	require.NoError(t, senior.Mint(ctx, owner, bob, math.NewInt(5)))

	events := ctx.EventManager().Events()
	require.Len(t, events, 1)
	require.Equal(t, types.EventTypeTransfer, events[0].Type)

	attrs := map[string]string{}
	for _, a := range events[0].Attributes {
		attrs[a.Key] = a.Value
	}
	require.Equal(t, "", attrs[types.AttributeKeyFrom])
	require.Equal(t, bob.String(), attrs[types.AttributeKeyTo])
	require.Equal(t, "5", attrs[types.AttributeKeyAmount])
	require.Equal(t, "BUTTR", attrs[types.AttributeKeySymbol])
}

func TestTransfer(t *testing.T) {
	_, junior, ctx := setupLedgers(t)
	require.NoError(t, junior.Mint(ctx, owner, alice, math.NewInt(50)))

	require.NoError(t, junior.Transfer(ctx, alice, bob, math.NewInt(20)))
	require.Equal(t, math.NewInt(30), junior.BalanceOf(ctx, alice))
	require.Equal(t, math.NewInt(20), junior.BalanceOf(ctx, bob))
	require.Equal(t, math.NewInt(50), junior.TotalSupply(ctx))

	err := junior.Transfer(ctx, bob, alice, math.NewInt(21))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)

	err = junior.Transfer(ctx, bob, alice, math.NewInt(-1))
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestApproveTransferFrom(t *testing.T) {
	senior, _, ctx := setupLedgers(t)
	require.NoError(t, senior.Mint(ctx, owner, alice, math.NewInt(100)))

	err := senior.TransferFrom(ctx, bob, alice, carol, math.NewInt(1))
	require.ErrorIs(t, err, types.ErrInsufficientAllowance)

	require.NoError(t, senior.Approve(ctx, alice, bob, math.NewInt(60)))
	require.Equal(t, math.NewInt(60), senior.Allowance(ctx, alice, bob))
	require.True(t, senior.Allowance(ctx, bob, alice).IsZero())

	require.NoError(t, senior.TransferFrom(ctx, bob, alice, carol, math.NewInt(40)))
	require.Equal(t, math.NewInt(20), senior.Allowance(ctx, alice, bob))
	require.Equal(t, math.NewInt(60), senior.BalanceOf(ctx, alice))
	require.Equal(t, math.NewInt(40), senior.BalanceOf(ctx, carol))

	err = senior.TransferFrom(ctx, bob, alice, carol, math.NewInt(21))
	require.ErrorIs(t, err, types.ErrInsufficientAllowance)
}

func TestTransferFromInsufficientBalanceKeepsAllowance(t *testing.T) {
	senior, _, ctx := setupLedgers(t)
	require.NoError(t, senior.Mint(ctx, owner, alice, math.NewInt(10)))
	require.NoError(t, senior.Approve(ctx, alice, bob, math.NewInt(100)))

	err := senior.TransferFrom(ctx, bob, alice, carol, math.NewInt(11))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
	require.Equal(t, math.NewInt(100), senior.Allowance(ctx, alice, bob))
}

func TestLedgersAreIsolated(t *testing.T) {
	senior, junior, ctx := setupLedgers(t)
	require.NoError(t, senior.Mint(ctx, owner, alice, math.NewInt(7)))

	require.True(t, junior.BalanceOf(ctx, alice).IsZero())
	require.True(t, junior.TotalSupply(ctx).IsZero())
	require.Empty(t, junior.Holders(ctx, 0))
}

func TestHoldersOrdering(t *testing.T) {
	senior, _, ctx := setupLedgers(t)
	require.NoError(t, senior.Mint(ctx, owner, alice, math.NewInt(10)))
	require.NoError(t, senior.Mint(ctx, owner, bob, math.NewInt(30)))
	require.NoError(t, senior.Mint(ctx, owner, carol, math.NewInt(20)))

	holders := senior.Holders(ctx, 0)
	require.Len(t, holders, 3)
	require.Equal(t, bob.String(), holders[0].Address)
	require.Equal(t, carol.String(), holders[1].Address)
	require.Equal(t, alice.String(), holders[2].Address)

	top := senior.Holders(ctx, 2)
	require.Len(t, top, 2)
	require.Equal(t, math.NewInt(30), top[0].Balance)

	// Balances always sum to supply
	sum := math.ZeroInt()
	for _, h := range holders {
		sum = sum.Add(h.Balance)
	}
	require.Equal(t, senior.TotalSupply(ctx), sum)
}

func TestSupplyMatchesHolders(t *testing.T) {
	senior, _, ctx := setupLedgers(t)
	require.NoError(t, senior.Approve(ctx, alice, carol, math.NewInt(25)))

	steps := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"mint alice", func() error { return senior.Mint(ctx, owner, alice, math.NewInt(100)) }, nil},
		{"mint bob", func() error { return senior.Mint(ctx, owner, bob, math.NewInt(40)) }, nil},
		{"transfer", func() error { return senior.Transfer(ctx, alice, bob, math.NewInt(30)) }, nil},
		{"self transfer", func() error { return senior.Transfer(ctx, bob, bob, math.NewInt(70)) }, nil},
		{"transfer from", func() error { return senior.TransferFrom(ctx, carol, alice, carol, math.NewInt(25)) }, nil},
		{"burn", func() error { return senior.Burn(ctx, owner, bob, math.NewInt(50)) }, nil},
		{"burn too much", func() error { return senior.Burn(ctx, owner, carol, math.NewInt(26)) }, types.ErrInsufficientBalance},
		{"burn all", func() error { return senior.Burn(ctx, owner, alice, math.NewInt(45)) }, nil},
	}

	for _, step := range steps {
		err := step.run()
		if step.wantErr != nil {
			require.ErrorIs(t, err, step.wantErr, step.name)
		} else {
			require.NoError(t, err, step.name)
		}

		sum := math.ZeroInt()
		for _, h := range senior.Holders(ctx, 0) {
			sum = sum.Add(h.Balance)
		}
		require.Equal(t, senior.TotalSupply(ctx).String(), sum.String(), step.name)
	}

	require.Equal(t, "45", senior.TotalSupply(ctx).String())
	require.True(t, senior.BalanceOf(ctx, alice).IsZero())
	require.Equal(t, math.NewInt(20), senior.BalanceOf(ctx, bob))
	require.Equal(t, math.NewInt(25), senior.BalanceOf(ctx, carol))
}

func TestMintRejectsSupplyOverflow(t *testing.T) {
	senior, _, ctx := setupLedgers(t)
	huge := math.NewIntWithDecimal(6, 76)
	require.NoError(t, senior.Mint(ctx, owner, alice, huge))

	err := senior.Mint(ctx, owner, bob, huge)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
	require.True(t, senior.BalanceOf(ctx, bob).IsZero())
	require.Equal(t, huge.String(), senior.TotalSupply(ctx).String())
}
