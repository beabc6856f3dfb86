package usecase

import (
	"strconv"

	"golang.org/x/xerrors"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/pricefmt"
	"github.com/lunapunks/punkmarket/base/ptr"
	"github.com/lunapunks/punkmarket/base/validator"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/market"
)

func calcLimit(request *uint32) int {
	limit := uint32(defaultLimit)
	if request != nil {
		limit = *request
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return int(limit)
}

// calcSkip is page-based: skip pages of the effective limit
func calcSkip(request *uint32, limit int) int {
	if request == nil {
		return 0
	}
	return int(*request) * limit
}

func (im *impl) Query(c ctx.Ctx, env market.Env, msg *market.QueryMsg) (interface{}, error) {
	switch {
	case msg.RoyaltyInfo != nil:
		return im.royaltyInfo(c)
	case msg.NftMarketInfo != nil:
		q := msg.NftMarketInfo
		return im.nftMarketInfo(c, env, q.TokenId, boolValue(q.IncludeExpired))
	case msg.AllNftBidsInfo != nil:
		q := msg.AllNftBidsInfo
		return im.allNftBidsInfo(c, env, q.Bidder, boolValue(q.IncludeExpired), q.StartAfter, q.Skip, q.Limit)
	case msg.AllNftAsksInfo != nil:
		q := msg.AllNftAsksInfo
		return im.allNftAsksInfo(c, env, boolValue(q.IncludeExpired), q.StartAfter, q.Skip, q.Limit)
	case msg.AllNftAsksSortInfo != nil:
		q := msg.AllNftAsksSortInfo
		return im.allNftAsksSortInfo(c, env, q.Ascending, boolValue(q.IncludeExpired), q.StartAfter, q.Skip, q.Limit)
	}
	return nil, xerrors.Errorf("unknown query variant: %w", domain.ErrBadParamInput)
}

func boolValue(v *bool) bool {
	return v != nil && *v
}

func (im *impl) royaltyInfo(c ctx.Ctx) (*market.RoyaltyInfoResponse, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	return &market.RoyaltyInfoResponse{
		RoyaltyFee:    cfg.RoyaltyFee,
		RoyaltyWallet: string(cfg.RoyaltyWallet),
	}, nil
}

// projectToken filters a record by expiration and decorates the ask with its
// display price
func projectToken(token *market.Token, env market.Env, includeExpired, withBids bool) market.TokenMarketInfo {
	info := market.TokenMarketInfo{
		TokenId: token.TokenId,
		Bids:    []market.BagOfCoins{},
	}
	if withBids {
		for _, bid := range token.Bids {
			if includeExpired || !bid.Expires.IsExpired(env) {
				info.Bids = append(info.Bids, bid)
			}
		}
	}
	if token.Ask != nil && (includeExpired || !token.Ask.Expires.IsExpired(env)) {
		ask := *token.Ask
		info.Ask = &ask
		if display, err := pricefmt.FormatAskPrice(ask.Bag); err == nil && display != "" {
			info.DisplayPrice = ptr.String(display)
		}
	}
	return info
}

func (im *impl) nftMarketInfo(c ctx.Ctx, env market.Env, tokenId domain.TokenId, includeExpired bool) (*market.NftMarketInfoResponse, error) {
	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}
	return &market.NftMarketInfoResponse{
		Token: projectToken(token, env, includeExpired, true),
	}, nil
}

func (im *impl) allNftBidsInfo(c ctx.Ctx, env market.Env, bidder string, includeExpired bool, startAfter *domain.TokenId, skip, limit *uint32) (*market.BidderBidsResponse, error) {
	if !validator.IsValidAddress(bidder) {
		return nil, xerrors.Errorf("bidder %q: %w", bidder, domain.ErrInvalidAddress)
	}

	limitN := calcLimit(limit)
	opts := []market.FindOptionsFunc{
		market.WithOffset(calcSkip(skip, limitN)),
		market.WithLimit(limitN),
	}
	if startAfter != nil {
		opts = append(opts, market.WithStartAfter(*startAfter))
	}

	tokens, err := im.marketRepo.FindBidderTokens(c, domain.Address(bidder), opts...)
	if err != nil {
		return nil, err
	}

	res := &market.BidderBidsResponse{Tokens: []market.Token{}}
	for _, token := range tokens {
		res.Tokens = append(res.Tokens, *token)
	}
	return res, nil
}

func (im *impl) allNftAsksInfo(c ctx.Ctx, env market.Env, includeExpired bool, startAfter *domain.TokenId, skip, limit *uint32) (*market.AllNftMarketInfoResponse, error) {
	limitN := calcLimit(limit)
	opts := []market.FindOptionsFunc{
		market.WithOffset(calcSkip(skip, limitN)),
		market.WithLimit(limitN),
	}
	if startAfter != nil {
		opts = append(opts, market.WithStartAfter(*startAfter))
	}

	tokens, err := im.marketRepo.FindTokens(c, opts...)
	if err != nil {
		return nil, err
	}
	count, err := im.marketRepo.CountTokens(c)
	if err != nil {
		return nil, err
	}

	infos := []market.TokenMarketInfo{}
	for _, token := range tokens {
		// ask-only projection, bids omitted
		infos = append(infos, projectToken(token, env, includeExpired, false))
	}
	return &market.AllNftMarketInfoResponse{
		Tokens:     infos,
		StartAfter: startAfter,
		Limit:      limit,
		Count:      ptr.String(strconv.Itoa(count)),
		IsAsk:      ptr.Bool(true),
		IsBids:     nil,
	}, nil
}

func (im *impl) allNftAsksSortInfo(c ctx.Ctx, env market.Env, ascending *int32, includeExpired bool, startAfter *string, skip, limit *uint32) (*market.AllNftPriceMapResponse, error) {
	limitN := calcLimit(limit)
	skipN := calcSkip(skip, limitN)

	dir := domain.SortDirAsc
	if ascending != nil && *ascending != 1 {
		dir = domain.SortDirDesc
	}

	opts := []market.FindOptionsFunc{
		market.WithOffset(skipN),
		market.WithLimit(limitN),
		market.WithSortDir(dir),
	}
	if startAfter != nil {
		opts = append(opts, market.WithStartAfterPrice(*startAfter))
	}

	tokens, err := im.marketRepo.FindTokensByPrice(c, opts...)
	if err != nil {
		return nil, err
	}
	count, err := im.marketRepo.CountTokensWithAsk(c)
	if err != nil {
		return nil, err
	}

	infos := []market.TokenMarketInfo{}
	for _, token := range tokens {
		infos = append(infos, projectToken(token, env, includeExpired, true))
	}
	return &market.AllNftPriceMapResponse{
		Tokens:     infos,
		StartAfter: startAfter,
		Limit:      strconv.Itoa(limitN),
		Skip:       strconv.Itoa(skipN),
		Count:      ptr.String(strconv.Itoa(count)),
		IsAsk:      true,
		IsBids:     false,
	}, nil
}
