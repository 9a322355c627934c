package ledger

import (
	"bytes"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/btree"

	"github.com/openalpha/pancake/x/pancake/types"
)

const holdersBtreeDegree = 16

// holdingItem orders holdings by balance, ties broken by address
type holdingItem struct {
	holder  sdk.AccAddress
	balance math.Int
}

// Less implements btree.Item
func (a *holdingItem) Less(b btree.Item) bool {
	other := b.(*holdingItem)
	if !a.balance.Equal(other.balance) {
		return a.balance.LT(other.balance)
	}
	return bytes.Compare(a.holder, other.holder) > 0
}

// Holders returns up to limit holders ordered by balance, largest first.
// A limit of zero or less returns every holder including zero balances.
func (l *Ledger) Holders(ctx sdk.Context, limit int) []types.Holding {
	store := l.store(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, balancePrefix)
	defer iterator.Close()

	tree := btree.New(holdersBtreeDegree)
	for ; iterator.Valid(); iterator.Next() {
		holder := sdk.AccAddress(bytes.Clone(iterator.Key()[len(balancePrefix):]))
		tree.ReplaceOrInsert(&holdingItem{holder: holder, balance: unmarshalInt(iterator.Value())})
	}

	holdings := make([]types.Holding, 0, tree.Len())
	tree.Descend(func(item btree.Item) bool {
		h := item.(*holdingItem)
		holdings = append(holdings, types.Holding{Address: h.holder.String(), Balance: h.balance})
		return limit <= 0 || len(holdings) < limit
	})
	return holdings
}
