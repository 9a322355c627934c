package types

// Event types
const (
	EventTypeButtermilkDeployed    = "buttermilk_deployed"
	EventTypeChocolateChipDeployed = "chocolate_chip_deployed"
	EventTypeTransfer              = "transfer"
	EventTypeApproval              = "approval"
	EventTypeDeposit               = "deposit"
	EventTypeKickoff               = "kickoff"
	EventTypeUpdate                = "update"
	EventTypeWithdrawalsEnabled    = "withdrawals_enabled"
	EventTypeWithdraw              = "withdraw"
)

// Event attribute keys
const (
	AttributeKeyContractAddress = "contract_address"
	AttributeKeyTier            = "tier"
	AttributeKeySymbol          = "symbol"
	AttributeKeyFrom            = "from"
	AttributeKeyTo              = "to"
	AttributeKeyOwner           = "owner"
	AttributeKeySpender         = "spender"
	AttributeKeyAmount          = "amount"
	AttributeKeyDepositor       = "depositor"
	AttributeKeyAsset           = "asset"
	AttributeKeyRate            = "rate"
	AttributeKeyMinted          = "minted"
	AttributeKeyCaller          = "caller"
	AttributeKeyStartTime       = "start_time"
	AttributeKeyDaiConverted    = "dai_converted"
	AttributeKeyEthReceived     = "eth_received"
	AttributeKeyEthReserve      = "eth_reserve"
	AttributeKeyRepriced        = "repriced"
	AttributeKeyGain            = "gain"
	AttributeKeySeniorPrice     = "senior_price"
	AttributeKeyJuniorPrice     = "junior_price"
	AttributeKeyHolder          = "holder"
	AttributeKeyPayout          = "payout"
)
