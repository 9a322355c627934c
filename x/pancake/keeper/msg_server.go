package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/pancake/x/pancake/types"
)

// MsgServer defines the pancake MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	depositor, _ := sdk.AccAddressFromBech32(msg.Depositor)
	tier, _ := types.ParseTier(msg.Tier)
	asset, _ := types.ParseAsset(msg.Asset)
	amount, _ := types.ParseAmount(msg.Amount)

	receipt, err := m.keeper.Deposit(ctx, depositor, tier, asset, amount)
	if err != nil {
		return nil, err
	}

	return &types.MsgDepositResponse{
		Minted: receipt.Minted.String(),
		Rate:   receipt.Rate.String(),
	}, nil
}

// Kickoff handles MsgKickoff
func (m *MsgServer) Kickoff(ctx context.Context, msg *types.MsgKickoff) (*types.MsgKickoffResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	operator, _ := sdk.AccAddressFromBech32(msg.Operator)

	result, err := m.keeper.Kickoff(ctx, operator)
	if err != nil {
		return nil, err
	}

	return &types.MsgKickoffResponse{
		StartTime:    result.StartTime,
		DaiConverted: result.DaiConverted.String(),
		EthReceived:  result.EthReceived.String(),
		EthReserve:   result.EthReserve.String(),
	}, nil
}

// Update handles MsgUpdate
func (m *MsgServer) Update(ctx context.Context, msg *types.MsgUpdate) (*types.MsgUpdateResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	result, err := m.keeper.Update(ctx)
	if err != nil {
		return nil, err
	}

	return &types.MsgUpdateResponse{
		Repriced:    result.Repriced,
		Gain:        result.Gain.String(),
		SeniorPrice: result.SeniorPrice.String(),
		JuniorPrice: result.JuniorPrice.String(),
		EthRate:     result.EthRate.String(),
	}, nil
}

// EnableWithdrawals handles MsgEnableWithdrawals
func (m *MsgServer) EnableWithdrawals(ctx context.Context, msg *types.MsgEnableWithdrawals) (*types.MsgEnableWithdrawalsResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	operator, _ := sdk.AccAddressFromBech32(msg.Operator)

	if err := m.keeper.EnableWithdrawals(ctx, operator); err != nil {
		return nil, err
	}
	return &types.MsgEnableWithdrawalsResponse{}, nil
}

// Withdraw handles MsgWithdraw
func (m *MsgServer) Withdraw(ctx context.Context, msg *types.MsgWithdraw) (*types.MsgWithdrawResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	holder, _ := sdk.AccAddressFromBech32(msg.Holder)
	tier, _ := types.ParseTier(msg.Tier)
	amount, _ := types.ParseAmount(msg.Amount)

	receipt, err := m.keeper.Withdraw(ctx, holder, tier, amount)
	if err != nil {
		return nil, err
	}
	return &types.MsgWithdrawResponse{Payout: receipt.Payout.String()}, nil
}

// Transfer handles MsgTransfer
func (m *MsgServer) Transfer(ctx context.Context, msg *types.MsgTransfer) (*types.MsgTransferResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	from, _ := sdk.AccAddressFromBech32(msg.From)
	to, _ := sdk.AccAddressFromBech32(msg.To)
	tier, amount := mustTierAmount(msg.Tier, msg.Amount)

	if err := m.keeper.Transfer(ctx, tier, from, to, amount); err != nil {
		return nil, err
	}
	return &types.MsgTransferResponse{}, nil
}

// Approve handles MsgApprove
func (m *MsgServer) Approve(ctx context.Context, msg *types.MsgApprove) (*types.MsgApproveResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	owner, _ := sdk.AccAddressFromBech32(msg.Owner)
	spender, _ := sdk.AccAddressFromBech32(msg.Spender)
	tier, amount := mustTierAmount(msg.Tier, msg.Amount)

	if err := m.keeper.Approve(ctx, tier, owner, spender, amount); err != nil {
		return nil, err
	}
	return &types.MsgApproveResponse{}, nil
}

// TransferFrom handles MsgTransferFrom
func (m *MsgServer) TransferFrom(ctx context.Context, msg *types.MsgTransferFrom) (*types.MsgTransferFromResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	spender, _ := sdk.AccAddressFromBech32(msg.Spender)
	from, _ := sdk.AccAddressFromBech32(msg.From)
	to, _ := sdk.AccAddressFromBech32(msg.To)
	tier, amount := mustTierAmount(msg.Tier, msg.Amount)

	if err := m.keeper.TransferFrom(ctx, tier, spender, from, to, amount); err != nil {
		return nil, err
	}
	return &types.MsgTransferFromResponse{}, nil
}

// mustTierAmount parses fields already checked by ValidateBasic
func mustTierAmount(tierStr, amountStr string) (types.Tier, math.Int) {
	tier, _ := types.ParseTier(tierStr)
	amount, _ := types.ParseAmount(amountStr)
	return tier, amount
}
