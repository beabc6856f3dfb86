package market

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/lunapunks/punkmarket/domain"
)

const feeDenominator = 10000

// Split is the three-way settlement of a bag of coins. For every denomination
// of the original bag, Earnings + Fee + Royalty reconcile exactly against it;
// no value is created or destroyed. Zero-amount entries are omitted so a
// zero-value transfer is never emitted.
type Split struct {
	Earnings domain.Coins
	Fee      domain.Coins
	Royalty  domain.Coins
}

// SplitBag divides each denomination of bag by the basis-point rates:
// fee = floor(amount*platformFee/10000), royalty = floor(amount*royaltyFee/10000),
// earnings = amount - fee - royalty.
func SplitBag(bag domain.Coins, platformFee, royaltyFee uint32) (*Split, error) {
	base := big.NewInt(feeDenominator)
	platform := new(big.Int).SetUint64(uint64(platformFee))
	royalty := new(big.Int).SetUint64(uint64(royaltyFee))

	res := &Split{
		Earnings: domain.Coins{},
		Fee:      domain.Coins{},
		Royalty:  domain.Coins{},
	}
	for _, coin := range bag {
		amount, err := coin.AmountBigInt()
		if err != nil {
			return nil, err
		}

		platformAmount := new(big.Int).Mul(amount, platform)
		platformAmount.Div(platformAmount, base)
		royaltyAmount := new(big.Int).Mul(amount, royalty)
		royaltyAmount.Div(royaltyAmount, base)
		earnings := new(big.Int).Sub(amount, platformAmount)
		earnings.Sub(earnings, royaltyAmount)
		if earnings.Sign() < 0 {
			// fee rates are validated to sum below the denominator, so a
			// negative remainder is an accounting bug, not a user error
			return nil, xerrors.Errorf("settlement underflow for %s: %w", coin.Denom, domain.ErrInvalidNumberFormat)
		}

		if platformAmount.Sign() > 0 {
			res.Fee = append(res.Fee, domain.NewCoinFromBigInt(platformAmount, coin.Denom))
		}
		if royaltyAmount.Sign() > 0 {
			res.Royalty = append(res.Royalty, domain.NewCoinFromBigInt(royaltyAmount, coin.Denom))
		}
		if earnings.Sign() > 0 {
			res.Earnings = append(res.Earnings, domain.NewCoinFromBigInt(earnings, coin.Denom))
		}
	}
	return res, nil
}
