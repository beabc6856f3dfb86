package usecase

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/log"
	"github.com/lunapunks/punkmarket/base/metrics"
	"github.com/lunapunks/punkmarket/base/validator"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/bank"
	"github.com/lunapunks/punkmarket/domain/market"
	"github.com/lunapunks/punkmarket/domain/nft"
)

// version info for migration
const (
	contractName    = "lunapunks-market"
	contractVersion = "1.2.0"
)

const (
	defaultPlatformFee = 100 // 1%
	feeDenominator     = 10000

	defaultLimit = 10
	maxLimit     = 30
)

var timeNow = time.Now

type MarketUseCaseCfg struct {
	MarketRepo market.Repo
	// ActivityRepo is optional; events are journaled best-effort
	ActivityRepo market.ActivityRepo
	Oracle       nft.Oracle
	Bank         bank.Querier
	// ContractAddress is the engine's own account, swept by Release
	ContractAddress domain.Address
}

type impl struct {
	marketRepo      market.Repo
	activityRepo    market.ActivityRepo
	oracle          nft.Oracle
	bank            bank.Querier
	contractAddress domain.Address
	met             metrics.Service
}

func New(cfg *MarketUseCaseCfg) market.UseCase {
	return &impl{
		marketRepo:      cfg.MarketRepo,
		activityRepo:    cfg.ActivityRepo,
		oracle:          cfg.Oracle,
		bank:            cfg.Bank,
		contractAddress: cfg.ContractAddress,
		met:             metrics.New("market"),
	}
}

func (im *impl) Instantiate(c ctx.Ctx, env market.Env, info market.MessageInfo, msg *market.InstantiateMsg) (*market.Response, error) {
	platformFee := uint32(defaultPlatformFee)
	if msg.PlatformFee != nil {
		platformFee = *msg.PlatformFee
	}
	// widen before adding, the two rates together can exceed uint32
	if uint64(platformFee)+uint64(msg.RoyaltyFee) > feeDenominator {
		return nil, xerrors.Errorf("fee rates exceed denominator: %w", domain.ErrBadParamInput)
	}

	for _, addr := range []string{msg.Contract, msg.LaunchOwner, msg.RoyaltyWallet, msg.PlatformWallet} {
		if !validator.IsValidAddress(addr) {
			return nil, xerrors.Errorf("address %q: %w", addr, domain.ErrInvalidAddress)
		}
	}

	cfg := &market.Config{
		Contract:        domain.Address(msg.Contract),
		StakingContract: domain.Address(msg.StakingContract),
		LaunchOwner:     domain.Address(msg.LaunchOwner),
		Owner:           info.Sender,
		RoyaltyFee:      msg.RoyaltyFee,
		RoyaltyWallet:   domain.Address(msg.RoyaltyWallet),
		PlatformFee:     platformFee,
		PlatformWallet:  domain.Address(msg.PlatformWallet),
	}
	if err := im.marketRepo.SaveVersion(c, &market.VersionInfo{Contract: contractName, Version: contractVersion}); err != nil {
		return nil, err
	}
	if err := im.marketRepo.SaveConfig(c, cfg); err != nil {
		return nil, err
	}

	return market.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("owner", string(info.Sender)), nil
}

func (im *impl) Execute(c ctx.Ctx, env market.Env, info market.MessageInfo, msg *market.ExecuteMsg) (*market.Response, error) {
	action, handler := im.route(env, info, msg)
	if handler == nil {
		return nil, xerrors.Errorf("unknown execute variant: %w", domain.ErrBadParamInput)
	}

	defer im.met.BumpTime("execute.time", "action", action).End()

	res, err := handler(c)
	if err != nil {
		im.met.BumpSum("execute.err", 1, "action", action)
		return nil, err
	}
	im.met.BumpSum("execute", 1, "action", action)
	return res, nil
}

func (im *impl) route(env market.Env, info market.MessageInfo, msg *market.ExecuteMsg) (string, func(ctx.Ctx) (*market.Response, error)) {
	switch {
	case msg.Release != nil:
		return "release", func(c ctx.Ctx) (*market.Response, error) {
			return im.release(c, info, msg.Release.ReleaseFunds)
		}
	case msg.BidAddNft != nil:
		return "bid_add_nft", func(c ctx.Ctx) (*market.Response, error) {
			return im.bidAddNft(c, env, info, msg.BidAddNft.TokenId, msg.BidAddNft.Expires)
		}
	case msg.BidWithdrawNft != nil:
		return "bid_withdraw_nft", func(c ctx.Ctx) (*market.Response, error) {
			return im.bidWithdrawNft(c, info, msg.BidWithdrawNft.TokenId)
		}
	case msg.BidAcceptNft != nil:
		return "bid_accept_nft", func(c ctx.Ctx) (*market.Response, error) {
			return im.bidAcceptNft(c, env, info, msg.BidAcceptNft.TokenId, msg.BidAcceptNft.BidderAddress)
		}
	case msg.AskAddNft != nil:
		return "ask_add_nft", func(c ctx.Ctx) (*market.Response, error) {
			return im.askAddNft(c, env, info, msg.AskAddNft.TokenId, msg.AskAddNft.AskFunds, msg.AskAddNft.Expires)
		}
	case msg.AskWithdrawNft != nil:
		return "ask_withdraw_nft", func(c ctx.Ctx) (*market.Response, error) {
			return im.askWithdrawNft(c, info, msg.AskWithdrawNft.TokenId)
		}
	case msg.AskAcceptNft != nil:
		return "ask_accept_nft", func(c ctx.Ctx) (*market.Response, error) {
			return im.askAcceptNft(c, env, info, msg.AskAcceptNft.TokenId)
		}
	case msg.SetRoyaltyWallet != nil:
		return "set_royalty_wallet", func(c ctx.Ctx) (*market.Response, error) {
			return im.setRoyaltyWallet(c, info, msg.SetRoyaltyWallet.RoyaltyWallet)
		}
	case msg.SetRoyaltyFee != nil:
		return "set_royalty_fee", func(c ctx.Ctx) (*market.Response, error) {
			return im.setRoyaltyFee(c, info, msg.SetRoyaltyFee.RoyaltyFee)
		}
	case msg.SetContract != nil:
		return "set_contract", func(c ctx.Ctx) (*market.Response, error) {
			return im.setContract(c, info, msg.SetContract.Contract)
		}
	}
	return "", nil
}

func (im *impl) Migrate(c ctx.Ctx, env market.Env, msg *market.MigrateMsg) (*market.Response, error) {
	version, err := im.marketRepo.GetVersion(c)
	if err != nil {
		return nil, err
	}
	if version.Contract != contractName {
		return nil, xerrors.Errorf("previous contract %s: %w", version.Contract, domain.ErrCannotMigrate)
	}
	if err := im.marketRepo.SaveVersion(c, &market.VersionInfo{Contract: contractName, Version: contractVersion}); err != nil {
		return nil, err
	}
	return market.NewResponse(), nil
}

// getOrDefaultToken loads the record, a missing record behaves as the zero value
func (im *impl) getOrDefaultToken(c ctx.Ctx, tokenId domain.TokenId) (*market.Token, error) {
	token, err := im.marketRepo.GetToken(c, tokenId)
	if err == domain.ErrNotFound {
		return market.NewToken(tokenId), nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// checkCanSend re-reads ownership from the collection contract and compares
// it to the claimed owner. Always consulted fresh; ownership can change
// between ask creation and acceptance. On mismatch returns ErrUnknownAsk in
// ask context, ErrUnauthorized otherwise.
func (im *impl) checkCanSend(c ctx.Ctx, cfg *market.Config, tokenId domain.TokenId, includeExpired bool, claimed domain.Address, isAsk bool) (*nft.OwnerOfResponse, error) {
	reply, err := im.oracle.OwnerOf(c, cfg.Contract, tokenId, includeExpired)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "tokenId": tokenId}).Error("owner_of query failed")
		return nil, xerrors.Errorf("owner_of query: %w", err)
	}
	if !reply.Owner.Equals(claimed) {
		if isAsk {
			return nil, domain.ErrUnknownAsk
		}
		return nil, domain.ErrUnauthorized
	}
	return reply, nil
}

func (im *impl) checkOwner(cfg *market.Config, sender domain.Address) error {
	if sender.Equals(cfg.LaunchOwner) || sender.Equals(cfg.Owner) {
		return nil
	}
	return domain.ErrUnauthorized
}

func (im *impl) bidAddNft(c ctx.Ctx, env market.Env, info market.MessageInfo, tokenId domain.TokenId, expires *market.Expiration) (*market.Response, error) {
	expiration := market.Never()
	if expires != nil {
		expiration = *expires
	}
	if expiration.IsExpired(env) {
		return nil, domain.ErrExpired
	}

	funds, err := info.Funds.Normalize()
	if err != nil {
		return nil, err
	}
	if funds.IsEmpty() {
		return nil, domain.ErrUnfunded
	}

	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}

	res := market.NewResponse().
		AddAttribute("action", "bid_add_nft").
		AddAttribute("bidder", string(info.Sender)).
		AddAttribute("token_id", strconv.FormatUint(uint64(tokenId), 10))

	// a new bid replaces the sender's previous one; the prior escrow is
	// refunded in full, bids never stack
	if pos, prior := token.BidBy(info.Sender); prior != nil {
		refund := prior.Bag.Clone()
		token.RemoveBidAt(pos)
		res.AddMessage(market.NewBankSendMsg(info.Sender, refund))
	}

	token.Bids = append(token.Bids, market.BagOfCoins{
		Owner:   info.Sender,
		Bag:     funds,
		Expires: expiration,
	})
	if err := im.marketRepo.SaveToken(c, token); err != nil {
		return nil, err
	}

	im.journal(c, "bid_add_nft", tokenId, info.Sender, funds)
	return res, nil
}

func (im *impl) bidWithdrawNft(c ctx.Ctx, info market.MessageInfo, tokenId domain.TokenId) (*market.Response, error) {
	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}

	pos, bid := token.BidBy(info.Sender)
	if bid == nil {
		return nil, domain.ErrUnknownAddress
	}
	escrow := bid.Bag.Clone()
	token.RemoveBidAt(pos)

	if err := im.marketRepo.SaveToken(c, token); err != nil {
		return nil, err
	}

	im.journal(c, "bid_withdraw_nft", tokenId, info.Sender, escrow)
	return market.NewResponse().
		AddAttribute("action", "bid_withdraw_nft").
		AddAttribute("bidder", string(info.Sender)).
		AddAttribute("token_id", strconv.FormatUint(uint64(tokenId), 10)).
		AddMessage(market.NewBankSendMsg(info.Sender, escrow)), nil
}

func (im *impl) bidAcceptNft(c ctx.Ctx, env market.Env, info market.MessageInfo, tokenId domain.TokenId, bidderAddress string) (*market.Response, error) {
	if !validator.IsValidAddress(bidderAddress) {
		return nil, xerrors.Errorf("bidder %q: %w", bidderAddress, domain.ErrInvalidAddress)
	}
	bidder := domain.Address(bidderAddress)

	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}

	// only the current holder of the NFT may accept
	ownerReply, err := im.checkCanSend(c, cfg, tokenId, false, info.Sender, false)
	if err != nil {
		return nil, err
	}

	pos, bid := token.BidBy(bidder)
	if bid == nil {
		return nil, domain.ErrUnknownAddress
	}
	if bid.Expires.IsExpired(env) {
		return nil, domain.ErrExpired
	}
	bag := bid.Bag.Clone()
	token.RemoveBidAt(pos)

	// the sale satisfies and cancels any standing ask
	token.Ask = nil

	if err := im.marketRepo.SaveToken(c, token); err != nil {
		return nil, err
	}

	msgs, err := im.settlementMsgs(c, cfg, bag, ownerReply.Owner)
	if err != nil {
		return nil, err
	}

	transfer, err := nft.TransferNftPayload(tokenId, bidder)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, market.NewWasmExecuteMsg(cfg.Contract, transfer))

	im.journal(c, "bid_accept_nft", tokenId, info.Sender, bag)
	return market.NewResponse().
		AddAttribute("action", "bid_accept_nft").
		AddAttribute("winning_bid", string(bidder)).
		AddAttribute("token_id", strconv.FormatUint(uint64(tokenId), 10)).
		AddMessages(msgs), nil
}

func (im *impl) askAddNft(c ctx.Ctx, env market.Env, info market.MessageInfo, tokenId domain.TokenId, askFunds domain.Coins, expires *market.Expiration) (*market.Response, error) {
	expiration := market.Never()
	if expires != nil {
		expiration = *expires
	}
	if expiration.IsExpired(env) {
		return nil, domain.ErrExpired
	}

	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	if _, err := im.checkCanSend(c, cfg, tokenId, false, info.Sender, false); err != nil {
		return nil, err
	}

	bag, err := askFunds.Normalize()
	if err != nil {
		return nil, err
	}

	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}
	// unconditional replacement; the price index row follows in the same save
	token.Ask = &market.BagOfCoins{
		Owner:   info.Sender,
		Bag:     bag,
		Expires: expiration,
	}
	if err := im.marketRepo.SaveToken(c, token); err != nil {
		return nil, err
	}

	im.journal(c, "ask_add_nft", tokenId, info.Sender, bag)
	return market.NewResponse().
		AddAttribute("action", "ask_add_nft").
		AddAttribute("asker", string(info.Sender)).
		AddAttribute("token_id", strconv.FormatUint(uint64(tokenId), 10)), nil
}

func (im *impl) askWithdrawNft(c ctx.Ctx, info market.MessageInfo, tokenId domain.TokenId) (*market.Response, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	if _, err := im.checkCanSend(c, cfg, tokenId, false, info.Sender, false); err != nil {
		return nil, err
	}

	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}
	token.Ask = nil
	if err := im.marketRepo.SaveToken(c, token); err != nil {
		return nil, err
	}

	im.journal(c, "ask_withdraw_nft", tokenId, info.Sender, nil)
	return market.NewResponse().
		AddAttribute("action", "ask_withdraw_nft").
		AddAttribute("asker", string(info.Sender)).
		AddAttribute("token_id", strconv.FormatUint(uint64(tokenId), 10)), nil
}

func (im *impl) askAcceptNft(c ctx.Ctx, env market.Env, info market.MessageInfo, tokenId domain.TokenId) (*market.Response, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	token, err := im.getOrDefaultToken(c, tokenId)
	if err != nil {
		return nil, err
	}

	if token.Ask == nil {
		return nil, domain.ErrUnknownAddress
	}
	ask := *token.Ask
	if ask.Expires.IsExpired(env) {
		return nil, domain.ErrExpired
	}

	// the buyer must cover the ask, denomination by denomination
	buyerFunds, err := info.Funds.Normalize()
	if err != nil {
		return nil, err
	}
	for _, coin := range ask.Bag {
		ok, err := buyerFunds.Has(coin)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrUnfunded
		}
	}

	// the ask is only honored while its stated owner still holds the NFT;
	// a transfer out from under it voids the ask
	ownerReply, err := im.checkCanSend(c, cfg, tokenId, false, ask.Owner, true)
	if err != nil {
		return nil, err
	}

	token.Ask = nil
	if err := im.marketRepo.SaveToken(c, token); err != nil {
		return nil, err
	}

	msgs, err := im.settlementMsgs(c, cfg, ask.Bag, ownerReply.Owner)
	if err != nil {
		return nil, err
	}

	// excess attached beyond the ask price goes back to the buyer
	refund, err := buyerFunds.Sub(ask.Bag)
	if err != nil {
		return nil, err
	}
	if !refund.IsEmpty() {
		msgs = append(msgs, market.NewBankSendMsg(info.Sender, refund))
	}

	transfer, err := nft.TransferNftPayload(tokenId, info.Sender)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, market.NewWasmExecuteMsg(cfg.Contract, transfer))

	im.journal(c, "ask_accept_nft", tokenId, info.Sender, ask.Bag)
	return market.NewResponse().
		AddAttribute("action", "ask_accept_nft").
		AddAttribute("buyer", string(info.Sender)).
		AddAttribute("token_id", strconv.FormatUint(uint64(tokenId), 10)).
		AddMessages(msgs), nil
}

// settlementMsgs queues the three-way split of a bag: earnings to the NFT's
// current owner, fee to the platform wallet, royalty to the royalty wallet.
// Empty sends are never queued.
func (im *impl) settlementMsgs(c ctx.Ctx, cfg *market.Config, bag domain.Coins, owner domain.Address) ([]market.Msg, error) {
	split, err := market.SplitBag(bag, cfg.PlatformFee, cfg.RoyaltyFee)
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to split settlement bag")
		return nil, err
	}

	msgs := []market.Msg{}
	if len(split.Earnings) > 0 {
		msgs = append(msgs, market.NewBankSendMsg(owner, split.Earnings))
	}
	if len(split.Fee) > 0 {
		msgs = append(msgs, market.NewBankSendMsg(cfg.PlatformWallet, split.Fee))
	}
	if len(split.Royalty) > 0 {
		msgs = append(msgs, market.NewBankSendMsg(cfg.RoyaltyWallet, split.Royalty))
	}
	return msgs, nil
}

func (im *impl) release(c ctx.Ctx, info market.MessageInfo, releaseFunds domain.Coins) (*market.Response, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	if err := im.checkOwner(cfg, info.Sender); err != nil {
		return nil, err
	}

	balance := releaseFunds
	if len(balance) == 0 {
		balance, err = im.bank.AllBalances(c, im.contractAddress)
		if err != nil {
			c.WithFields(log.Fields{"err": err}).Error("failed to query contract balance")
			return nil, xerrors.Errorf("query balances: %w", err)
		}
	}

	return market.NewResponse().
		AddAttribute("action", "release").
		AddMessage(market.NewBankSendMsg(cfg.Owner, balance)), nil
}

func (im *impl) setRoyaltyWallet(c ctx.Ctx, info market.MessageInfo, royaltyWallet string) (*market.Response, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	if err := im.checkOwner(cfg, info.Sender); err != nil {
		return nil, err
	}
	if !validator.IsValidAddress(royaltyWallet) {
		return nil, xerrors.Errorf("wallet %q: %w", royaltyWallet, domain.ErrInvalidAddress)
	}

	cfg.RoyaltyWallet = domain.Address(royaltyWallet)
	if err := im.marketRepo.SaveConfig(c, cfg); err != nil {
		return nil, err
	}

	return market.NewResponse().
		AddAttribute("value", royaltyWallet).
		AddAttribute("method", "set_royalty_address"), nil
}

func (im *impl) setRoyaltyFee(c ctx.Ctx, info market.MessageInfo, royaltyFee uint32) (*market.Response, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	if err := im.checkOwner(cfg, info.Sender); err != nil {
		return nil, err
	}
	// keep the settlement conservation invariant provable; widen before
	// adding, the two rates together can exceed uint32
	if uint64(cfg.PlatformFee)+uint64(royaltyFee) > feeDenominator {
		return nil, xerrors.Errorf("fee rates exceed denominator: %w", domain.ErrBadParamInput)
	}

	cfg.RoyaltyFee = royaltyFee
	if err := im.marketRepo.SaveConfig(c, cfg); err != nil {
		return nil, err
	}

	return market.NewResponse().
		AddAttribute("value", strconv.FormatUint(uint64(royaltyFee), 10)).
		AddAttribute("method", "set_royalty_fee"), nil
}

func (im *impl) setContract(c ctx.Ctx, info market.MessageInfo, contract string) (*market.Response, error) {
	cfg, err := im.marketRepo.GetConfig(c)
	if err != nil {
		return nil, err
	}
	if err := im.checkOwner(cfg, info.Sender); err != nil {
		return nil, err
	}
	if !validator.IsValidAddress(contract) {
		return nil, xerrors.Errorf("contract %q: %w", contract, domain.ErrInvalidAddress)
	}

	cfg.Contract = domain.Address(contract)
	if err := im.marketRepo.SaveConfig(c, cfg); err != nil {
		return nil, err
	}

	return market.NewResponse().AddAttribute("method", "set_contract"), nil
}

// journal records the event off-ledger, best-effort; a journal failure never
// fails a committed command
func (im *impl) journal(c ctx.Ctx, action string, tokenId domain.TokenId, actor domain.Address, amount domain.Coins) {
	if im.activityRepo == nil {
		return
	}
	if err := im.activityRepo.Insert(c, &market.Activity{
		Id:      uuid.NewString(),
		Action:  action,
		TokenId: tokenId,
		Actor:   actor,
		Amount:  amount,
		Time:    timeNow(),
	}); err != nil {
		c.WithFields(log.Fields{"err": err, "action": action}).Warn("failed to journal activity")
	}
}
