package market

import (
	"github.com/lunapunks/punkmarket/domain"
)

// BagOfCoins is a single party's locked payment or ask price
type BagOfCoins struct {
	Owner   domain.Address `json:"owner" bson:"owner"`
	Bag     domain.Coins   `json:"bag" bson:"bag"`
	Expires Expiration     `json:"expires" bson:"expires"`
}

// Token is the per-NFT marketplace record. A missing record behaves as the
// zero value: no ask, no bids. An all-empty record is a legitimate inert state.
type Token struct {
	TokenId domain.TokenId `json:"token_id" bson:"tokenId"`
	Ask     *BagOfCoins    `json:"ask" bson:"ask"`
	Bids    []BagOfCoins   `json:"bids" bson:"bids"`
}

func NewToken(tokenId domain.TokenId) *Token {
	return &Token{
		TokenId: tokenId,
		Ask:     nil,
		Bids:    []BagOfCoins{},
	}
}

// BidBy returns the position and bid of the given bidder, or (-1, nil).
// At most one bid per bidder may exist, so a linear scan suffices.
func (t *Token) BidBy(bidder domain.Address) (int, *BagOfCoins) {
	for pos := range t.Bids {
		if t.Bids[pos].Owner.Equals(bidder) {
			return pos, &t.Bids[pos]
		}
	}
	return -1, nil
}

// RemoveBidAt drops the bid at pos, preserving order of the rest
func (t *Token) RemoveBidAt(pos int) {
	t.Bids = append(t.Bids[:pos], t.Bids[pos+1:]...)
}

// Bidders returns the set of addresses holding a bid on the token
func (t *Token) Bidders() []domain.Address {
	res := make([]domain.Address, 0, len(t.Bids))
	for _, bid := range t.Bids {
		res = append(res, bid.Owner)
	}
	return res
}

// Config is the contract-wide configuration singleton, created once at
// instantiation and mutated only by the authorized setters.
type Config struct {
	// Contract is the collaborating NFT collection contract
	Contract        domain.Address `json:"contract" bson:"contract"`
	StakingContract domain.Address `json:"staking_contract" bson:"stakingContract"`
	LaunchOwner     domain.Address `json:"launch_owner" bson:"launchOwner"`
	Owner           domain.Address `json:"owner" bson:"owner"`
	// RoyaltyFee is in basis points, denominator 10000
	RoyaltyFee    uint32         `json:"royalty_fee" bson:"royaltyFee"`
	RoyaltyWallet domain.Address `json:"royalty_wallet" bson:"royaltyWallet"`
	// PlatformFee is in basis points, denominator 10000
	PlatformFee    uint32         `json:"platform_fee" bson:"platformFee"`
	PlatformWallet domain.Address `json:"platform_wallet" bson:"platformWallet"`
}

// VersionInfo is the cw2-style version tag checked on migration
type VersionInfo struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

// MessageInfo identifies the submitting actor and the funds attached to the call
type MessageInfo struct {
	Sender domain.Address `json:"sender"`
	Funds  domain.Coins   `json:"funds"`
}
