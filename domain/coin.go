package domain

import (
	"math/big"
	"sort"

	"golang.org/x/xerrors"
)

var (
	bigZero = big.NewInt(0)
	// amounts are bounded by the host's 128-bit unsigned numeric type
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Coin is one denomination entry of a payment. Amount is a base-10 string so
// the json form round-trips 128-bit values losslessly.
type Coin struct {
	Denom  Denom  `json:"denom" bson:"denom"`
	Amount string `json:"amount" bson:"amount"`
}

func NewCoin(amount uint64, denom Denom) Coin {
	return Coin{Denom: denom, Amount: new(big.Int).SetUint64(amount).String()}
}

func NewCoinFromBigInt(amount *big.Int, denom Denom) Coin {
	return Coin{Denom: denom, Amount: amount.String()}
}

// AmountBigInt parses the amount, rejecting negatives and values beyond u128
func (c Coin) AmountBigInt() (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.Amount, 10)
	if !ok {
		return nil, xerrors.Errorf("parse coin amount %q: %w", c.Amount, ErrInvalidNumberFormat)
	}
	if v.Sign() < 0 || v.Cmp(maxUint128) > 0 {
		return nil, xerrors.Errorf("coin amount %q out of range: %w", c.Amount, ErrInvalidNumberFormat)
	}
	return v, nil
}

func (c Coin) IsZero() bool {
	v, err := c.AmountBigInt()
	return err == nil && v.Sign() == 0
}

// Coins is a bag of coins, at most one entry per denom once normalized
type Coins []Coin

// Normalize merges duplicate denoms, drops zero entries and sorts by denom.
// Mirrors how the chain host canonicalizes native balances.
func (cs Coins) Normalize() (Coins, error) {
	totals := map[Denom]*big.Int{}
	for _, c := range cs {
		v, err := c.AmountBigInt()
		if err != nil {
			return nil, err
		}
		if cur, ok := totals[c.Denom]; ok {
			sum := new(big.Int).Add(cur, v)
			if sum.Cmp(maxUint128) > 0 {
				return nil, xerrors.Errorf("coin amount overflow for %s: %w", c.Denom, ErrInvalidNumberFormat)
			}
			totals[c.Denom] = sum
		} else {
			totals[c.Denom] = v
		}
	}
	res := Coins{}
	for denom, v := range totals {
		if v.Sign() == 0 {
			continue
		}
		res = append(res, NewCoinFromBigInt(v, denom))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Denom < res[j].Denom })
	return res, nil
}

// AmountOf returns the held amount of denom, zero when absent
func (cs Coins) AmountOf(denom Denom) (*big.Int, error) {
	total := new(big.Int)
	for _, c := range cs {
		if c.Denom != denom {
			continue
		}
		v, err := c.AmountBigInt()
		if err != nil {
			return nil, err
		}
		total.Add(total, v)
	}
	return total, nil
}

// Has reports whether the bag covers the given coin, denomination by denomination
func (cs Coins) Has(c Coin) (bool, error) {
	need, err := c.AmountBigInt()
	if err != nil {
		return false, err
	}
	have, err := cs.AmountOf(c.Denom)
	if err != nil {
		return false, err
	}
	return have.Cmp(need) >= 0, nil
}

// Sub subtracts other from cs and returns the normalized remainder. The caller
// must have verified coverage; a negative result is an error, never silently
// truncated.
func (cs Coins) Sub(other Coins) (Coins, error) {
	remainder, err := cs.Normalize()
	if err != nil {
		return nil, err
	}
	sub, err := other.Normalize()
	if err != nil {
		return nil, err
	}
	totals := map[Denom]*big.Int{}
	order := []Denom{}
	for _, c := range remainder {
		v, _ := c.AmountBigInt()
		totals[c.Denom] = v
		order = append(order, c.Denom)
	}
	for _, c := range sub {
		v, _ := c.AmountBigInt()
		cur, ok := totals[c.Denom]
		if !ok || cur.Cmp(v) < 0 {
			return nil, xerrors.Errorf("insufficient %s: %w", c.Denom, ErrUnfunded)
		}
		totals[c.Denom] = new(big.Int).Sub(cur, v)
	}
	res := Coins{}
	for _, denom := range order {
		if totals[denom].Sign() == 0 {
			continue
		}
		res = append(res, NewCoinFromBigInt(totals[denom], denom))
	}
	return res, nil
}

// IsEmpty reports whether the bag carries no value at all
func (cs Coins) IsEmpty() bool {
	for _, c := range cs {
		if !c.IsZero() {
			return false
		}
	}
	return true
}

func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	copy(res, cs)
	return res
}
