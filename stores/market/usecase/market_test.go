package usecase

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	bCtx "github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/domain"
	mBank "github.com/lunapunks/punkmarket/domain/bank/mocks"
	"github.com/lunapunks/punkmarket/domain/market"
	"github.com/lunapunks/punkmarket/domain/nft"
	mNft "github.com/lunapunks/punkmarket/domain/nft/mocks"
	"github.com/lunapunks/punkmarket/stores/market/repository"
)

const (
	contractAddr   = "terra1nftcollection"
	marketAddr     = "terra1marketcontract"
	launchOwner    = "terra1launchowner"
	royaltyWallet  = "terra1royaltywallet"
	platformWallet = "terra1platformwallet"
	seller         = "terra1seller"
	buyer          = "terra1buyer"
	bidder         = "terra1bidder"
	otherBidder    = "terra1otherbidder"
)

type marketUseCaseSuite struct {
	suite.Suite

	db     *badger.DB
	repo   market.Repo
	oracle *mNft.Oracle
	bank   *mBank.Querier
	uc     market.UseCase
}

func TestMarketUseCaseSuite(t *testing.T) {
	suite.Run(t, new(marketUseCaseSuite))
}

func (s *marketUseCaseSuite) SetupTest() {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	s.Require().NoError(err)
	s.db = db
	s.repo = repository.NewMarketRepo(db, "uluna")
	s.oracle = &mNft.Oracle{}
	s.bank = &mBank.Querier{}
	s.uc = New(&MarketUseCaseCfg{
		MarketRepo:      s.repo,
		Oracle:          s.oracle,
		Bank:            s.bank,
		ContractAddress: marketAddr,
	})
}

func (s *marketUseCaseSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *marketUseCaseSuite) env() market.Env {
	return market.Env{Height: 150, Time: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *marketUseCaseSuite) instantiate() {
	ctx := bCtx.Background()
	_, err := s.uc.Instantiate(ctx, s.env(), market.MessageInfo{Sender: launchOwner}, &market.InstantiateMsg{
		Contract:       contractAddr,
		LaunchOwner:    launchOwner,
		RoyaltyFee:     250,
		RoyaltyWallet:  royaltyWallet,
		PlatformWallet: platformWallet,
	})
	s.Require().NoError(err)
}

func (s *marketUseCaseSuite) ownerIs(owner domain.Address) {
	s.oracle.On("OwnerOf", mock.Anything, domain.Address(contractAddr), mock.Anything, false).
		Return(&nft.OwnerOfResponse{Owner: owner}, nil)
}

func (s *marketUseCaseSuite) execute(sender domain.Address, funds domain.Coins, msg *market.ExecuteMsg) (*market.Response, error) {
	return s.uc.Execute(bCtx.Background(), s.env(), market.MessageInfo{Sender: sender, Funds: funds}, msg)
}

func coins(amount uint64) domain.Coins {
	return domain.Coins{domain.NewCoin(amount, "uluna")}
}

func (s *marketUseCaseSuite) TestInstantiate() {
	s.instantiate()

	cfg, err := s.repo.GetConfig(bCtx.Background())
	s.Require().NoError(err)
	s.Equal(domain.Address(contractAddr), cfg.Contract)
	s.Equal(domain.Address(launchOwner), cfg.Owner)
	s.Equal(uint32(250), cfg.RoyaltyFee)
	// platform fee defaults when omitted
	s.Equal(uint32(100), cfg.PlatformFee)

	version, err := s.repo.GetVersion(bCtx.Background())
	s.Require().NoError(err)
	s.Equal("lunapunks-market", version.Contract)
}

func (s *marketUseCaseSuite) TestInstantiateRejectsBadInput() {
	ctx := bCtx.Background()

	_, err := s.uc.Instantiate(ctx, s.env(), market.MessageInfo{Sender: launchOwner}, &market.InstantiateMsg{
		Contract:       "not-an-address",
		LaunchOwner:    launchOwner,
		RoyaltyWallet:  royaltyWallet,
		PlatformWallet: platformWallet,
	})
	s.ErrorIs(err, domain.ErrInvalidAddress)

	// fee rates must leave the seller a non-negative remainder
	_, err = s.uc.Instantiate(ctx, s.env(), market.MessageInfo{Sender: launchOwner}, &market.InstantiateMsg{
		Contract:       contractAddr,
		LaunchOwner:    launchOwner,
		RoyaltyFee:     9950,
		RoyaltyWallet:  royaltyWallet,
		PlatformWallet: platformWallet,
	})
	s.ErrorIs(err, domain.ErrBadParamInput)

	// a rate near the uint32 ceiling must not wrap past the guard
	_, err = s.uc.Instantiate(ctx, s.env(), market.MessageInfo{Sender: launchOwner}, &market.InstantiateMsg{
		Contract:       contractAddr,
		LaunchOwner:    launchOwner,
		RoyaltyFee:     4294967295,
		RoyaltyWallet:  royaltyWallet,
		PlatformWallet: platformWallet,
	})
	s.ErrorIs(err, domain.ErrBadParamInput)
}

func (s *marketUseCaseSuite) TestMigrate() {
	s.instantiate()

	_, err := s.uc.Migrate(bCtx.Background(), s.env(), &market.MigrateMsg{})
	s.NoError(err)

	s.Require().NoError(s.repo.SaveVersion(bCtx.Background(), &market.VersionInfo{Contract: "some-other-contract", Version: "0.1.0"}))
	_, err = s.uc.Migrate(bCtx.Background(), s.env(), &market.MigrateMsg{})
	s.ErrorIs(err, domain.ErrCannotMigrate)
}

func (s *marketUseCaseSuite) TestBidAddNft() {
	s.instantiate()

	res, err := s.execute(bidder, coins(100), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)
	s.Empty(res.Messages)

	token, err := s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	_, bid := token.BidBy(bidder)
	s.Require().NotNil(bid)
	s.Equal(coins(100), bid.Bag)
}

func (s *marketUseCaseSuite) TestBidAddNftReplacesPriorBid() {
	s.instantiate()

	_, err := s.execute(bidder, coins(100), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)

	// the second bid refunds the first escrow in full, bids never stack
	res, err := s.execute(bidder, coins(250), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)
	s.Require().Len(res.Messages, 1)
	s.Equal(domain.Address(bidder), res.Messages[0].Bank.ToAddress)
	s.Equal(coins(100), res.Messages[0].Bank.Amount)

	token, err := s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	s.Require().Len(token.Bids, 1)
	s.Equal(coins(250), token.Bids[0].Bag)
}

func (s *marketUseCaseSuite) TestBidAddNftRejections() {
	s.instantiate()

	_, err := s.execute(bidder, nil, &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.ErrorIs(err, domain.ErrUnfunded)

	expired := market.AtHeight(100)
	_, err = s.execute(bidder, coins(100), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7, Expires: &expired},
	})
	s.ErrorIs(err, domain.ErrExpired)
}

func (s *marketUseCaseSuite) TestBidWithdrawNft() {
	s.instantiate()

	_, err := s.execute(bidder, coins(100), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)

	res, err := s.execute(bidder, nil, &market.ExecuteMsg{
		BidWithdrawNft: &market.BidWithdrawNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)
	s.Require().Len(res.Messages, 1)
	s.Equal(domain.Address(bidder), res.Messages[0].Bank.ToAddress)
	s.Equal(coins(100), res.Messages[0].Bank.Amount)

	// the escrow is gone, a second withdraw has nothing to return
	_, err = s.execute(bidder, nil, &market.ExecuteMsg{
		BidWithdrawNft: &market.BidWithdrawNftMsg{TokenId: 7},
	})
	s.ErrorIs(err, domain.ErrUnknownAddress)
}

func (s *marketUseCaseSuite) TestBidAcceptNft() {
	s.instantiate()
	s.ownerIs(seller)

	_, err := s.execute(bidder, coins(1000000), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)

	res, err := s.execute(seller, nil, &market.ExecuteMsg{
		BidAcceptNft: &market.BidAcceptNftMsg{TokenId: 7, BidderAddress: bidder},
	})
	s.Require().NoError(err)

	// 1% platform and 2.5% royalty, remainder to the owner, then the transfer
	s.Require().Len(res.Messages, 4)
	s.Equal(domain.Address(seller), res.Messages[0].Bank.ToAddress)
	s.Equal(coins(965000), res.Messages[0].Bank.Amount)
	s.Equal(domain.Address(platformWallet), res.Messages[1].Bank.ToAddress)
	s.Equal(coins(10000), res.Messages[1].Bank.Amount)
	s.Equal(domain.Address(royaltyWallet), res.Messages[2].Bank.ToAddress)
	s.Equal(coins(25000), res.Messages[2].Bank.Amount)
	s.Require().NotNil(res.Messages[3].Wasm)
	s.Equal(domain.Address(contractAddr), res.Messages[3].Wasm.Contract)
	s.JSONEq(`{"transfer_nft":{"token_id":"7","recipient":"terra1bidder"}}`, string(res.Messages[3].Wasm.Msg))

	token, err := s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	s.Empty(token.Bids)
	s.Nil(token.Ask)
}

func (s *marketUseCaseSuite) TestBidAcceptNftRejections() {
	s.instantiate()
	s.ownerIs(seller)

	_, err := s.execute(bidder, coins(100), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)

	_, err = s.execute(seller, nil, &market.ExecuteMsg{
		BidAcceptNft: &market.BidAcceptNftMsg{TokenId: 7, BidderAddress: "nope"},
	})
	s.ErrorIs(err, domain.ErrInvalidAddress)

	// only the current holder may accept
	_, err = s.execute(otherBidder, nil, &market.ExecuteMsg{
		BidAcceptNft: &market.BidAcceptNftMsg{TokenId: 7, BidderAddress: bidder},
	})
	s.ErrorIs(err, domain.ErrUnauthorized)

	_, err = s.execute(seller, nil, &market.ExecuteMsg{
		BidAcceptNft: &market.BidAcceptNftMsg{TokenId: 7, BidderAddress: otherBidder},
	})
	s.ErrorIs(err, domain.ErrUnknownAddress)
}

func (s *marketUseCaseSuite) TestBidAcceptNftExpiredBid() {
	s.instantiate()
	s.ownerIs(seller)

	expires := market.AtHeight(200)
	_, err := s.execute(bidder, coins(100), &market.ExecuteMsg{
		BidAddNft: &market.BidAddNftMsg{TokenId: 7, Expires: &expires},
	})
	s.Require().NoError(err)

	// past the bid's height bound the escrow can no longer be claimed
	_, err = s.uc.Execute(bCtx.Background(), market.Env{Height: 200}, market.MessageInfo{Sender: seller}, &market.ExecuteMsg{
		BidAcceptNft: &market.BidAcceptNftMsg{TokenId: 7, BidderAddress: bidder},
	})
	s.ErrorIs(err, domain.ErrExpired)
}

func (s *marketUseCaseSuite) TestAskAddNft() {
	s.instantiate()
	s.ownerIs(seller)

	_, err := s.execute(seller, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(1000000)},
	})
	s.Require().NoError(err)

	token, err := s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	s.Require().NotNil(token.Ask)
	s.Equal(domain.Address(seller), token.Ask.Owner)
	s.Equal(coins(1000000), token.Ask.Bag)

	// a new ask replaces the old one unconditionally
	_, err = s.execute(seller, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(500000)},
	})
	s.Require().NoError(err)
	token, err = s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	s.Equal(coins(500000), token.Ask.Bag)
}

func (s *marketUseCaseSuite) TestAskAddNftRejectsNonOwner() {
	s.instantiate()
	s.ownerIs(seller)

	_, err := s.execute(buyer, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(1000000)},
	})
	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *marketUseCaseSuite) TestAskWithdrawNft() {
	s.instantiate()
	s.ownerIs(seller)

	_, err := s.execute(seller, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(1000000)},
	})
	s.Require().NoError(err)

	_, err = s.execute(seller, nil, &market.ExecuteMsg{
		AskWithdrawNft: &market.AskWithdrawNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)

	token, err := s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	s.Nil(token.Ask)
}

func (s *marketUseCaseSuite) TestAskAcceptNft() {
	s.instantiate()
	s.ownerIs(seller)

	_, err := s.execute(seller, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(1000000)},
	})
	s.Require().NoError(err)

	// overpay; the excess comes back to the buyer
	res, err := s.execute(buyer, coins(1200000), &market.ExecuteMsg{
		AskAcceptNft: &market.AskAcceptNftMsg{TokenId: 7},
	})
	s.Require().NoError(err)

	s.Require().Len(res.Messages, 5)
	s.Equal(domain.Address(seller), res.Messages[0].Bank.ToAddress)
	s.Equal(coins(965000), res.Messages[0].Bank.Amount)
	s.Equal(domain.Address(platformWallet), res.Messages[1].Bank.ToAddress)
	s.Equal(coins(10000), res.Messages[1].Bank.Amount)
	s.Equal(domain.Address(royaltyWallet), res.Messages[2].Bank.ToAddress)
	s.Equal(coins(25000), res.Messages[2].Bank.Amount)
	s.Equal(domain.Address(buyer), res.Messages[3].Bank.ToAddress)
	s.Equal(coins(200000), res.Messages[3].Bank.Amount)
	s.Require().NotNil(res.Messages[4].Wasm)
	s.JSONEq(`{"transfer_nft":{"token_id":"7","recipient":"terra1buyer"}}`, string(res.Messages[4].Wasm.Msg))

	token, err := s.repo.GetToken(bCtx.Background(), 7)
	s.Require().NoError(err)
	s.Nil(token.Ask)
}

func (s *marketUseCaseSuite) TestAskAcceptNftRejections() {
	s.instantiate()

	// no standing ask
	_, err := s.execute(buyer, coins(1000000), &market.ExecuteMsg{
		AskAcceptNft: &market.AskAcceptNftMsg{TokenId: 7},
	})
	s.ErrorIs(err, domain.ErrUnknownAddress)

	s.ownerIs(seller)
	_, err = s.execute(seller, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(1000000)},
	})
	s.Require().NoError(err)

	_, err = s.execute(buyer, coins(999999), &market.ExecuteMsg{
		AskAcceptNft: &market.AskAcceptNftMsg{TokenId: 7},
	})
	s.ErrorIs(err, domain.ErrUnfunded)
}

func (s *marketUseCaseSuite) TestAskAcceptNftExpiredAsk() {
	s.instantiate()
	s.ownerIs(seller)

	expires := market.AtHeight(200)
	_, err := s.execute(seller, nil, &market.ExecuteMsg{
		AskAddNft: &market.AskAddNftMsg{TokenId: 7, AskFunds: coins(1000000), Expires: &expires},
	})
	s.Require().NoError(err)

	_, err = s.uc.Execute(bCtx.Background(), market.Env{Height: 200}, market.MessageInfo{Sender: buyer, Funds: coins(1000000)}, &market.ExecuteMsg{
		AskAcceptNft: &market.AskAcceptNftMsg{TokenId: 7},
	})
	s.ErrorIs(err, domain.ErrExpired)
}

func (s *marketUseCaseSuite) TestAskAcceptNftStaleOwner() {
	s.instantiate()

	token := market.NewToken(7)
	token.Ask = &market.BagOfCoins{Owner: seller, Bag: coins(1000000), Expires: market.Never()}
	s.Require().NoError(s.repo.SaveToken(bCtx.Background(), token))

	// the NFT moved after the ask was placed; the ask is void
	s.ownerIs(otherBidder)
	_, err := s.execute(buyer, coins(1000000), &market.ExecuteMsg{
		AskAcceptNft: &market.AskAcceptNftMsg{TokenId: 7},
	})
	s.ErrorIs(err, domain.ErrUnknownAsk)
}

func (s *marketUseCaseSuite) TestRelease() {
	s.instantiate()

	_, err := s.execute(buyer, nil, &market.ExecuteMsg{
		Release: &market.ReleaseMsg{ReleaseFunds: coins(100)},
	})
	s.ErrorIs(err, domain.ErrUnauthorized)

	res, err := s.execute(launchOwner, nil, &market.ExecuteMsg{
		Release: &market.ReleaseMsg{ReleaseFunds: coins(100)},
	})
	s.Require().NoError(err)
	s.Require().Len(res.Messages, 1)
	s.Equal(domain.Address(launchOwner), res.Messages[0].Bank.ToAddress)
	s.Equal(coins(100), res.Messages[0].Bank.Amount)
}

func (s *marketUseCaseSuite) TestReleaseSweepsContractBalance() {
	s.instantiate()
	s.bank.On("AllBalances", mock.Anything, domain.Address(marketAddr)).Return(coins(4200), nil)

	res, err := s.execute(launchOwner, nil, &market.ExecuteMsg{
		Release: &market.ReleaseMsg{},
	})
	s.Require().NoError(err)
	s.Require().Len(res.Messages, 1)
	s.Equal(coins(4200), res.Messages[0].Bank.Amount)
}

func (s *marketUseCaseSuite) TestSetters() {
	s.instantiate()
	ctx := bCtx.Background()

	_, err := s.execute(buyer, nil, &market.ExecuteMsg{
		SetRoyaltyFee: &market.SetRoyaltyFeeMsg{RoyaltyFee: 500},
	})
	s.ErrorIs(err, domain.ErrUnauthorized)

	_, err = s.execute(launchOwner, nil, &market.ExecuteMsg{
		SetRoyaltyFee: &market.SetRoyaltyFeeMsg{RoyaltyFee: 9950},
	})
	s.ErrorIs(err, domain.ErrBadParamInput)

	// must not wrap past the guard when the sum exceeds uint32
	_, err = s.execute(launchOwner, nil, &market.ExecuteMsg{
		SetRoyaltyFee: &market.SetRoyaltyFeeMsg{RoyaltyFee: 4294967295},
	})
	s.ErrorIs(err, domain.ErrBadParamInput)

	_, err = s.execute(launchOwner, nil, &market.ExecuteMsg{
		SetRoyaltyFee: &market.SetRoyaltyFeeMsg{RoyaltyFee: 500},
	})
	s.Require().NoError(err)

	_, err = s.execute(launchOwner, nil, &market.ExecuteMsg{
		SetRoyaltyWallet: &market.SetRoyaltyWalletMsg{RoyaltyWallet: "nope"},
	})
	s.ErrorIs(err, domain.ErrInvalidAddress)

	_, err = s.execute(launchOwner, nil, &market.ExecuteMsg{
		SetRoyaltyWallet: &market.SetRoyaltyWalletMsg{RoyaltyWallet: "terra1newroyalty"},
	})
	s.Require().NoError(err)

	_, err = s.execute(launchOwner, nil, &market.ExecuteMsg{
		SetContract: &market.SetContractMsg{Contract: "terra1newcollection"},
	})
	s.Require().NoError(err)

	cfg, err := s.repo.GetConfig(ctx)
	s.Require().NoError(err)
	s.Equal(uint32(500), cfg.RoyaltyFee)
	s.Equal(domain.Address("terra1newroyalty"), cfg.RoyaltyWallet)
	s.Equal(domain.Address("terra1newcollection"), cfg.Contract)
}

func (s *marketUseCaseSuite) TestExecuteUnknownVariant() {
	s.instantiate()

	_, err := s.execute(buyer, nil, &market.ExecuteMsg{})
	s.ErrorIs(err, domain.ErrBadParamInput)
}
