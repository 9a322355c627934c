package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgDeposit           = "deposit"
	TypeMsgKickoff           = "kickoff"
	TypeMsgUpdate            = "update"
	TypeMsgEnableWithdrawals = "enable_withdrawals"
	TypeMsgWithdraw          = "withdraw"
	TypeMsgTransfer          = "transfer"
	TypeMsgApprove           = "approve"
	TypeMsgTransferFrom      = "transfer_from"
)

// ParseAmount parses a non-negative integer amount in base units
func ParseAmount(s string) (math.Int, error) {
	amount, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, ErrInvalidAmount.Wrapf("cannot parse %q", s)
	}
	if amount.IsNegative() {
		return math.Int{}, ErrInvalidAmount.Wrapf("negative amount %s", s)
	}
	return amount, nil
}

func validatePositive(s string) error {
	amount, err := ParseAmount(s)
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrInvalidAmount.Wrap("amount must be positive")
	}
	return nil
}

func mustSigner(addr string) []sdk.AccAddress {
	acc, _ := sdk.AccAddressFromBech32(addr)
	return []sdk.AccAddress{acc}
}

// MsgDeposit deposits ETH or DAI into a tier
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	Tier      string `json:"tier"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgDeposit) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgDeposit) Type() string { return TypeMsgDeposit }

// ValidateBasic implements sdk.Msg
func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	if _, err := ParseTier(msg.Tier); err != nil {
		return err
	}
	if _, err := ParseAsset(msg.Asset); err != nil {
		return err
	}
	return validatePositive(msg.Amount)
}

// GetSigners implements sdk.Msg
func (msg MsgDeposit) GetSigners() []sdk.AccAddress { return mustSigner(msg.Depositor) }

// ProtoMessage implements proto.Message
func (*MsgDeposit) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgDeposit) Reset() { *msg = MsgDeposit{} }

// String implements proto.Message
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, Tier: %s, Asset: %s, Amount: %s}", msg.Depositor, msg.Tier, msg.Asset, msg.Amount)
}

// MsgDepositResponse defines the Deposit response
type MsgDepositResponse struct {
	Minted string `json:"minted"`
	Rate   string `json:"rate"`
}

// MsgKickoff closes deposits and converts DAI holdings to ETH
type MsgKickoff struct {
	Operator string `json:"operator"`
}

// Route implements sdk.Msg
func (msg MsgKickoff) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgKickoff) Type() string { return TypeMsgKickoff }

// ValidateBasic implements sdk.Msg
func (msg MsgKickoff) ValidateBasic() error {
	_, err := sdk.AccAddressFromBech32(msg.Operator)
	return err
}

// GetSigners implements sdk.Msg
func (msg MsgKickoff) GetSigners() []sdk.AccAddress { return mustSigner(msg.Operator) }

// ProtoMessage implements proto.Message
func (*MsgKickoff) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgKickoff) Reset() { *msg = MsgKickoff{} }

// String implements proto.Message
func (msg MsgKickoff) String() string {
	return fmt.Sprintf("MsgKickoff{Operator: %s}", msg.Operator)
}

// MsgKickoffResponse defines the Kickoff response
type MsgKickoffResponse struct {
	StartTime    int64  `json:"start_time"`
	DaiConverted string `json:"dai_converted"`
	EthReceived  string `json:"eth_received"`
	EthReserve   string `json:"eth_reserve"`
}

// MsgUpdate reprices the tiers. Anyone may send it.
type MsgUpdate struct {
	Caller string `json:"caller"`
}

// Route implements sdk.Msg
func (msg MsgUpdate) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgUpdate) Type() string { return TypeMsgUpdate }

// ValidateBasic implements sdk.Msg
func (msg MsgUpdate) ValidateBasic() error {
	_, err := sdk.AccAddressFromBech32(msg.Caller)
	return err
}

// GetSigners implements sdk.Msg
func (msg MsgUpdate) GetSigners() []sdk.AccAddress { return mustSigner(msg.Caller) }

// ProtoMessage implements proto.Message
func (*MsgUpdate) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgUpdate) Reset() { *msg = MsgUpdate{} }

// String implements proto.Message
func (msg MsgUpdate) String() string {
	return fmt.Sprintf("MsgUpdate{Caller: %s}", msg.Caller)
}

// MsgUpdateResponse defines the Update response
type MsgUpdateResponse struct {
	Repriced    bool   `json:"repriced"`
	Gain        string `json:"gain"`
	SeniorPrice string `json:"senior_price"`
	JuniorPrice string `json:"junior_price"`
	EthRate     string `json:"eth_rate"`
}

// MsgEnableWithdrawals opens withdrawals once the lockup has elapsed
type MsgEnableWithdrawals struct {
	Operator string `json:"operator"`
}

// Route implements sdk.Msg
func (msg MsgEnableWithdrawals) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgEnableWithdrawals) Type() string { return TypeMsgEnableWithdrawals }

// ValidateBasic implements sdk.Msg
func (msg MsgEnableWithdrawals) ValidateBasic() error {
	_, err := sdk.AccAddressFromBech32(msg.Operator)
	return err
}

// GetSigners implements sdk.Msg
func (msg MsgEnableWithdrawals) GetSigners() []sdk.AccAddress { return mustSigner(msg.Operator) }

// ProtoMessage implements proto.Message
func (*MsgEnableWithdrawals) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgEnableWithdrawals) Reset() { *msg = MsgEnableWithdrawals{} }

// String implements proto.Message
func (msg MsgEnableWithdrawals) String() string {
	return fmt.Sprintf("MsgEnableWithdrawals{Operator: %s}", msg.Operator)
}

// MsgEnableWithdrawalsResponse defines the EnableWithdrawals response
type MsgEnableWithdrawalsResponse struct{}

// MsgWithdraw redeems tier tokens for ETH
type MsgWithdraw struct {
	Holder string `json:"holder"`
	Tier   string `json:"tier"`
	Amount string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgWithdraw) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgWithdraw) Type() string { return TypeMsgWithdraw }

// ValidateBasic implements sdk.Msg
func (msg MsgWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Holder); err != nil {
		return err
	}
	if _, err := ParseTier(msg.Tier); err != nil {
		return err
	}
	return validatePositive(msg.Amount)
}

// GetSigners implements sdk.Msg
func (msg MsgWithdraw) GetSigners() []sdk.AccAddress { return mustSigner(msg.Holder) }

// ProtoMessage implements proto.Message
func (*MsgWithdraw) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgWithdraw) Reset() { *msg = MsgWithdraw{} }

// String implements proto.Message
func (msg MsgWithdraw) String() string {
	return fmt.Sprintf("MsgWithdraw{Holder: %s, Tier: %s, Amount: %s}", msg.Holder, msg.Tier, msg.Amount)
}

// MsgWithdrawResponse defines the Withdraw response
type MsgWithdrawResponse struct {
	Payout string `json:"payout"`
}

// MsgTransfer moves tier tokens between holders
type MsgTransfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Tier   string `json:"tier"`
	Amount string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgTransfer) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgTransfer) Type() string { return TypeMsgTransfer }

// ValidateBasic implements sdk.Msg
func (msg MsgTransfer) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.From); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.To); err != nil {
		return err
	}
	if _, err := ParseTier(msg.Tier); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

// GetSigners implements sdk.Msg
func (msg MsgTransfer) GetSigners() []sdk.AccAddress { return mustSigner(msg.From) }

// ProtoMessage implements proto.Message
func (*MsgTransfer) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgTransfer) Reset() { *msg = MsgTransfer{} }

// String implements proto.Message
func (msg MsgTransfer) String() string {
	return fmt.Sprintf("MsgTransfer{From: %s, To: %s, Tier: %s, Amount: %s}", msg.From, msg.To, msg.Tier, msg.Amount)
}

// MsgTransferResponse defines the Transfer response
type MsgTransferResponse struct{}

// MsgApprove sets a spender allowance on a tier ledger
type MsgApprove struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Tier    string `json:"tier"`
	Amount  string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgApprove) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgApprove) Type() string { return TypeMsgApprove }

// ValidateBasic implements sdk.Msg
func (msg MsgApprove) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.Spender); err != nil {
		return err
	}
	if _, err := ParseTier(msg.Tier); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

// GetSigners implements sdk.Msg
func (msg MsgApprove) GetSigners() []sdk.AccAddress { return mustSigner(msg.Owner) }

// ProtoMessage implements proto.Message
func (*MsgApprove) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgApprove) Reset() { *msg = MsgApprove{} }

// String implements proto.Message
func (msg MsgApprove) String() string {
	return fmt.Sprintf("MsgApprove{Owner: %s, Spender: %s, Tier: %s, Amount: %s}", msg.Owner, msg.Spender, msg.Tier, msg.Amount)
}

// MsgApproveResponse defines the Approve response
type MsgApproveResponse struct{}

// MsgTransferFrom moves tier tokens using an allowance
type MsgTransferFrom struct {
	Spender string `json:"spender"`
	From    string `json:"from"`
	To      string `json:"to"`
	Tier    string `json:"tier"`
	Amount  string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgTransferFrom) Route() string { return RouterKey }

// Type implements sdk.Msg
func (msg MsgTransferFrom) Type() string { return TypeMsgTransferFrom }

// ValidateBasic implements sdk.Msg
func (msg MsgTransferFrom) ValidateBasic() error {
	for _, addr := range []string{msg.Spender, msg.From, msg.To} {
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return err
		}
	}
	if _, err := ParseTier(msg.Tier); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

// GetSigners implements sdk.Msg
func (msg MsgTransferFrom) GetSigners() []sdk.AccAddress { return mustSigner(msg.Spender) }

// ProtoMessage implements proto.Message
func (*MsgTransferFrom) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgTransferFrom) Reset() { *msg = MsgTransferFrom{} }

// String implements proto.Message
func (msg MsgTransferFrom) String() string {
	return fmt.Sprintf("MsgTransferFrom{Spender: %s, From: %s, To: %s, Tier: %s, Amount: %s}", msg.Spender, msg.From, msg.To, msg.Tier, msg.Amount)
}

// MsgTransferFromResponse defines the TransferFrom response
type MsgTransferFromResponse struct{}
