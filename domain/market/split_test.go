package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lunapunks/punkmarket/domain"
)

func TestSplitBag(t *testing.T) {
	// 1% platform, 2.5% royalty over 1,000,000
	split, err := SplitBag(domain.Coins{domain.NewCoin(1000000, "uluna")}, 100, 250)
	assert.NoError(t, err)
	assert.Equal(t, domain.Coins{domain.NewCoin(10000, "uluna")}, split.Fee)
	assert.Equal(t, domain.Coins{domain.NewCoin(25000, "uluna")}, split.Royalty)
	assert.Equal(t, domain.Coins{domain.NewCoin(965000, "uluna")}, split.Earnings)
}

func TestSplitBagRoundsDown(t *testing.T) {
	// floors favor the seller: 33 * 1% = 0.33 -> 0
	split, err := SplitBag(domain.Coins{domain.NewCoin(33, "uluna")}, 100, 250)
	assert.NoError(t, err)
	assert.Empty(t, split.Fee)
	assert.Empty(t, split.Royalty)
	assert.Equal(t, domain.Coins{domain.NewCoin(33, "uluna")}, split.Earnings)
}

func TestSplitBagMultiDenom(t *testing.T) {
	split, err := SplitBag(domain.Coins{
		domain.NewCoin(10000, "uluna"),
		domain.NewCoin(20000, "uusd"),
	}, 500, 0)
	assert.NoError(t, err)
	assert.Equal(t, domain.Coins{
		domain.NewCoin(500, "uluna"),
		domain.NewCoin(1000, "uusd"),
	}, split.Fee)
	assert.Empty(t, split.Royalty)
	assert.Equal(t, domain.Coins{
		domain.NewCoin(9500, "uluna"),
		domain.NewCoin(19000, "uusd"),
	}, split.Earnings)
}

func TestSplitBagConservation(t *testing.T) {
	bag := domain.Coins{domain.NewCoin(999999937, "uluna")}
	split, err := SplitBag(bag, 123, 4567)
	assert.NoError(t, err)

	total, err := append(append(split.Earnings.Clone(), split.Fee...), split.Royalty...).AmountOf("uluna")
	assert.NoError(t, err)
	want, err := bag.AmountOf("uluna")
	assert.NoError(t, err)
	assert.Zero(t, total.Cmp(want))
}
