package market

import (
	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/domain"
)

type FindOptions struct {
	// StartAfter is an exclusive lower bound on token id
	StartAfter *domain.TokenId
	// StartAfterPrice is an exclusive lower bound on ask amount (price index scans)
	StartAfterPrice *string
	Offset          *int
	Limit           *int
	SortDir         *domain.SortDir
}

type FindOptionsFunc func(*FindOptions) error

func GetFindOptions(opts ...FindOptionsFunc) (FindOptions, error) {
	res := FindOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithStartAfter(tokenId domain.TokenId) FindOptionsFunc {
	return func(options *FindOptions) error {
		options.StartAfter = &tokenId
		return nil
	}
}

func WithStartAfterPrice(amount string) FindOptionsFunc {
	return func(options *FindOptions) error {
		options.StartAfterPrice = &amount
		return nil
	}
}

func WithOffset(offset int) FindOptionsFunc {
	return func(options *FindOptions) error {
		options.Offset = &offset
		return nil
	}
}

func WithLimit(limit int) FindOptionsFunc {
	return func(options *FindOptions) error {
		options.Limit = &limit
		return nil
	}
}

func WithSortDir(dir domain.SortDir) FindOptionsFunc {
	return func(options *FindOptions) error {
		options.SortDir = &dir
		return nil
	}
}

// Repo owns the marketplace ledger: the primary token map, the price-sorted
// index and the bidder index. The three maps are one logical resource; every
// mutation reconciles all of them in a single atomic step, and callers never
// see the raw maps independently.
type Repo interface {
	GetConfig(c ctx.Ctx) (*Config, error)
	SaveConfig(c ctx.Ctx, cfg *Config) error

	GetVersion(c ctx.Ctx) (*VersionInfo, error)
	SaveVersion(c ctx.Ctx, version *VersionInfo) error

	// GetToken returns domain.ErrNotFound when no record exists; a missing
	// record behaves as a zero-value Token at the caller
	GetToken(c ctx.Ctx, tokenId domain.TokenId) (*Token, error)
	// SaveToken persists the record and reconciles both secondary indexes
	// against the previously stored record in the same transaction
	SaveToken(c ctx.Ctx, token *Token) error

	// FindTokens walks the primary map in token-id order
	FindTokens(c ctx.Ctx, opts ...FindOptionsFunc) ([]*Token, error)
	// FindTokensByPrice walks the price index in ask-amount order, skipping
	// tokens without an active ask
	FindTokensByPrice(c ctx.Ctx, opts ...FindOptionsFunc) ([]*Token, error)
	// FindBidderTokens walks the bidder index for one address
	FindBidderTokens(c ctx.Ctx, bidder domain.Address, opts ...FindOptionsFunc) ([]*Token, error)

	CountTokens(c ctx.Ctx) (int, error)
	CountTokensWithAsk(c ctx.Ctx) (int, error)
}
