package nft

import (
	"encoding/json"
	"strconv"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/market"
)

// Approval mirrors the collection contract's approval entries
type Approval struct {
	Spender domain.Address    `json:"spender"`
	Expires market.Expiration `json:"expires"`
}

type OwnerOfResponse struct {
	Owner     domain.Address `json:"owner"`
	Approvals []Approval     `json:"approvals"`
}

// Oracle answers ownership reads against the collection contract. It is
// consulted fresh at every authorization; ownership can change between ask
// creation and acceptance, so results are never cached.
type Oracle interface {
	OwnerOf(c ctx.Ctx, contract domain.Address, tokenId domain.TokenId, includeExpired bool) (*OwnerOfResponse, error)
}

type TransferNftMsg struct {
	TokenId   string `json:"token_id"`
	Recipient string `json:"recipient"`
}

type executeMsg struct {
	TransferNft *TransferNftMsg `json:"transfer_nft,omitempty"`
}

// TransferNftPayload builds the execute payload moving tokenId to recipient,
// in the collection contract's wire form.
func TransferNftPayload(tokenId domain.TokenId, recipient domain.Address) (json.RawMessage, error) {
	return json.Marshal(executeMsg{TransferNft: &TransferNftMsg{
		TokenId:   strconv.FormatUint(uint64(tokenId), 10),
		Recipient: string(recipient),
	}})
}

type ownerOfQuery struct {
	TokenId        string `json:"token_id"`
	IncludeExpired *bool  `json:"include_expired,omitempty"`
}

type queryMsg struct {
	OwnerOf *ownerOfQuery `json:"owner_of,omitempty"`
}

// OwnerOfPayload builds the owner_of query payload
func OwnerOfPayload(tokenId domain.TokenId, includeExpired bool) (json.RawMessage, error) {
	return json.Marshal(queryMsg{OwnerOf: &ownerOfQuery{
		TokenId:        strconv.FormatUint(uint64(tokenId), 10),
		IncludeExpired: &includeExpired,
	}})
}
