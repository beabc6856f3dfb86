package market

import (
	"encoding/json"

	"github.com/lunapunks/punkmarket/domain"
)

type InstantiateMsg struct {
	// Contract is the address of the NFT collection contract
	Contract        string `json:"contract" validate:"required"`
	StakingContract string `json:"staking_contract"`
	LaunchOwner     string `json:"launch_owner" validate:"required"`
	// RoyaltyFee in basis points, 1000 = 10%
	RoyaltyFee     uint32 `json:"royalty_fee"`
	RoyaltyWallet  string `json:"royalty_wallet" validate:"required"`
	PlatformWallet string `json:"platform_wallet" validate:"required"`
	// PlatformFee in basis points, defaults to 100 (1%) when omitted
	PlatformFee *uint32 `json:"platform_fee,omitempty"`
}

type MigrateMsg struct{}

// ExecuteMsg is the tagged union of marketplace commands. Exactly one variant
// must be set; the json form is {"<snake_case_variant>": {...}}.
type ExecuteMsg struct {
	Release          *ReleaseMsg          `json:"release,omitempty"`
	BidAddNft        *BidAddNftMsg        `json:"bid_add_nft,omitempty"`
	BidWithdrawNft   *BidWithdrawNftMsg   `json:"bid_withdraw_nft,omitempty"`
	BidAcceptNft     *BidAcceptNftMsg     `json:"bid_accept_nft,omitempty"`
	AskAddNft        *AskAddNftMsg        `json:"ask_add_nft,omitempty"`
	AskWithdrawNft   *AskWithdrawNftMsg   `json:"ask_withdraw_nft,omitempty"`
	AskAcceptNft     *AskAcceptNftMsg     `json:"ask_accept_nft,omitempty"`
	SetRoyaltyWallet *SetRoyaltyWalletMsg `json:"set_royalty_wallet,omitempty"`
	SetRoyaltyFee    *SetRoyaltyFeeMsg    `json:"set_royalty_fee,omitempty"`
	SetContract      *SetContractMsg      `json:"set_contract,omitempty"`
}

type ReleaseMsg struct {
	ReleaseFunds domain.Coins `json:"release_funds"`
}

type BidAddNftMsg struct {
	TokenId domain.TokenId `json:"token_id"`
	Expires *Expiration    `json:"expires,omitempty"`
}

type BidWithdrawNftMsg struct {
	TokenId domain.TokenId `json:"token_id"`
}

type BidAcceptNftMsg struct {
	TokenId       domain.TokenId `json:"token_id"`
	BidderAddress string         `json:"bidder_address"`
}

type AskAddNftMsg struct {
	TokenId  domain.TokenId `json:"token_id"`
	AskFunds domain.Coins   `json:"ask_funds"`
	Expires  *Expiration    `json:"expires,omitempty"`
}

type AskWithdrawNftMsg struct {
	TokenId domain.TokenId `json:"token_id"`
}

type AskAcceptNftMsg struct {
	TokenId domain.TokenId `json:"token_id"`
}

type SetRoyaltyWalletMsg struct {
	RoyaltyWallet string `json:"royalty_wallet"`
}

type SetRoyaltyFeeMsg struct {
	RoyaltyFee uint32 `json:"royalty_fee"`
}

type SetContractMsg struct {
	Contract string `json:"contract"`
}

// QueryMsg is the tagged union of marketplace queries
type QueryMsg struct {
	RoyaltyInfo        *RoyaltyInfoQuery        `json:"royalty_info,omitempty"`
	NftMarketInfo      *NftMarketInfoQuery      `json:"nft_market_info,omitempty"`
	AllNftBidsInfo     *AllNftBidsInfoQuery     `json:"all_nft_bids_info,omitempty"`
	AllNftAsksInfo     *AllNftAsksInfoQuery     `json:"all_nft_asks_info,omitempty"`
	AllNftAsksSortInfo *AllNftAsksSortInfoQuery `json:"all_nft_asks_sort_info,omitempty"`
}

type RoyaltyInfoQuery struct{}

type NftMarketInfoQuery struct {
	TokenId domain.TokenId `json:"token_id"`
	// unset or false filters out expired bids and asks
	IncludeExpired *bool `json:"include_expired,omitempty"`
}

type AllNftBidsInfoQuery struct {
	Bidder         string          `json:"bidder"`
	IncludeExpired *bool           `json:"include_expired,omitempty"`
	StartAfter     *domain.TokenId `json:"start_after,omitempty"`
	Skip           *uint32         `json:"skip,omitempty"`
	Limit          *uint32         `json:"limit,omitempty"`
}

type AllNftAsksInfoQuery struct {
	IncludeExpired *bool           `json:"include_expired,omitempty"`
	StartAfter     *domain.TokenId `json:"start_after,omitempty"`
	Skip           *uint32         `json:"skip,omitempty"`
	Limit          *uint32         `json:"limit,omitempty"`
}

type AllNftAsksSortInfoQuery struct {
	// 1 for ascending price, -1 for descending, defaults to ascending
	Ascending      *int32  `json:"ascending,omitempty"`
	IncludeExpired *bool   `json:"include_expired,omitempty"`
	StartAfter     *string `json:"start_after,omitempty"`
	Skip           *uint32 `json:"skip,omitempty"`
	Limit          *uint32 `json:"limit,omitempty"`
}

// query responses

type RoyaltyInfoResponse struct {
	RoyaltyFee    uint32 `json:"royalty_fee"`
	RoyaltyWallet string `json:"royalty_wallet"`
}

// TokenMarketInfo is the query projection of a token record
type TokenMarketInfo struct {
	TokenId domain.TokenId `json:"token_id"`
	Ask     *BagOfCoins    `json:"ask"`
	Bids    []BagOfCoins   `json:"bids"`
	// DisplayPrice is the human form of the ask amount, present on ask projections
	DisplayPrice *string `json:"display_price,omitempty"`
}

type NftMarketInfoResponse struct {
	Token TokenMarketInfo `json:"token"`
}

type BidderBidsResponse struct {
	Tokens []Token `json:"tokens"`
}

type AllNftMarketInfoResponse struct {
	Tokens     []TokenMarketInfo `json:"tokens"`
	StartAfter *domain.TokenId   `json:"start_after"`
	Limit      *uint32           `json:"limit"`
	Count      *string           `json:"count"`
	IsBids     *bool             `json:"is_bids"`
	IsAsk      *bool             `json:"is_ask"`
}

type AllNftPriceMapResponse struct {
	Tokens     []TokenMarketInfo `json:"tokens"`
	StartAfter *string           `json:"start_after"`
	Limit      string            `json:"limit"`
	Skip       string            `json:"skip"`
	Count      *string           `json:"count"`
	IsBids     bool              `json:"is_bids"`
	IsAsk      bool              `json:"is_ask"`
}

// outbound instructions

// BankSendMsg orders the host to pay coins from the contract's balance
type BankSendMsg struct {
	ToAddress domain.Address `json:"to_address"`
	Amount    domain.Coins   `json:"amount"`
}

// WasmExecuteMsg orders the host to invoke another contract
type WasmExecuteMsg struct {
	Contract domain.Address  `json:"contract"`
	Msg      json.RawMessage `json:"msg"`
	Funds    domain.Coins    `json:"funds"`
}

// Msg is one outbound instruction queued for the host. Instructions are not
// executed by the handler; the host runs them after the handler returns, and
// rolls the whole invocation back if any of them fails.
type Msg struct {
	Bank *BankSendMsg    `json:"bank,omitempty"`
	Wasm *WasmExecuteMsg `json:"wasm,omitempty"`
}

func NewBankSendMsg(to domain.Address, amount domain.Coins) Msg {
	return Msg{Bank: &BankSendMsg{ToAddress: to, Amount: amount}}
}

func NewWasmExecuteMsg(contract domain.Address, payload json.RawMessage) Msg {
	return Msg{Wasm: &WasmExecuteMsg{Contract: contract, Msg: payload, Funds: domain.Coins{}}}
}

// Attribute is one emitted event key/value pair
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response carries a successful invocation's emitted attributes and queued
// instructions back to the host.
type Response struct {
	Attributes []Attribute `json:"attributes"`
	Messages   []Msg       `json:"messages"`
}

func NewResponse() *Response {
	return &Response{Attributes: []Attribute{}, Messages: []Msg{}}
}

func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Response) AddMessage(msg Msg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

func (r *Response) AddMessages(msgs []Msg) *Response {
	r.Messages = append(r.Messages, msgs...)
	return r
}
