package domain

import (
	"strings"
)

type SortDir int8

const (
	SortDirAsc  SortDir = 1
	SortDirDesc SortDir = -1
)

// TokenId is the collection-local numeric id of one NFT
type TokenId uint32

// Address is a bech32 account or contract address
type Address string

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) Equals(address Address) bool {
	return a.ToLower() == address.ToLower()
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

// Denom is a native coin denomination, e.g. uluna
type Denom string

type BlockHeight uint64

type TxHash string
