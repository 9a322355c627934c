package api

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/api/websocket"
	"github.com/openalpha/pancake/app"
	"github.com/openalpha/pancake/x/pancake/types"
)

// accountAttributes are the event attributes that name an affected account
var accountAttributes = map[string]bool{
	types.AttributeKeyFrom:      true,
	types.AttributeKeyTo:        true,
	types.AttributeKeyOwner:     true,
	types.AttributeKeySpender:   true,
	types.AttributeKeyDepositor: true,
	types.AttributeKeyHolder:    true,
	types.AttributeKeyCaller:    true,
}

// Publish fans a committed operation out to the WebSocket channels
func (s *Server) Publish(res app.Result) {
	s.hub.BroadcastToChannel(websocket.ChannelEvents, "events", map[string]interface{}{
		"op":     res.Op,
		"height": res.Height,
		"time":   res.Time.Unix(),
		"events": res.Events,
	})

	if res.Pool != nil {
		s.hub.BroadcastToChannel(websocket.ChannelPool, "pool", res.Pool)
		s.hub.BroadcastToChannel(websocket.ChannelTier+string(types.TierSenior), "tier", res.Pool.Senior)
		s.hub.BroadcastToChannel(websocket.ChannelTier+string(types.TierJunior), "tier", res.Pool.Junior)
	}

	for _, addr := range affectedAccounts(res.Events) {
		channel := websocket.ChannelAccount + addr.String()
		if s.hub.GetChannelClientCount(channel) == 0 {
			continue
		}
		var balance *types.AccountBalance
		err := s.app.Query(func(ctx sdk.Context) error {
			var err error
			balance, err = s.app.PancakeKeeper.Balance(ctx, addr)
			return err
		})
		if err != nil {
			continue
		}
		s.hub.BroadcastToChannel(channel, "account", balance)
	}
}

// affectedAccounts lists each account named by the events once, in order
func affectedAccounts(events sdk.Events) []sdk.AccAddress {
	seen := make(map[string]bool)
	var addrs []sdk.AccAddress
	for _, ev := range events {
		for _, attr := range ev.Attributes {
			if !accountAttributes[attr.Key] || seen[attr.Value] {
				continue
			}
			addr, err := sdk.AccAddressFromBech32(attr.Value)
			if err != nil {
				continue
			}
			seen[attr.Value] = true
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
