package pricefmt

import (
	"github.com/shopspring/decimal"

	"github.com/lunapunks/punkmarket/domain"
)

// native denominations carry six decimals (uluna -> luna)
const nativeExponent = 6

// FormatCoin renders a base-unit amount as its display form, e.g.
// 1500000 uluna -> "1.5".
func FormatCoin(coin domain.Coin) (string, error) {
	amount, err := coin.AmountBigInt()
	if err != nil {
		return "", err
	}
	d := decimal.NewFromBigInt(amount, -nativeExponent)
	return d.String(), nil
}

// FormatAskPrice renders the first entry of an ask bag for display, empty
// when the bag carries no value.
func FormatAskPrice(bag domain.Coins) (string, error) {
	for _, coin := range bag {
		if coin.IsZero() {
			continue
		}
		return FormatCoin(coin)
	}
	return "", nil
}
