package repository

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math/big"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/xerrors"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/log"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/market"
)

var (
	keyConfig  = []byte("config")
	keyVersion = []byte("version")

	prefixToken  = []byte("token/")
	prefixAskIdx = []byte("askidx/")
	prefixBid    = []byte("bid/")
)

type marketRepo struct {
	db *badger.DB
	// priceDenom is the denomination the price index orders by
	priceDenom domain.Denom
}

// NewMarketRepo builds the ledger repository over one badger instance. The
// primary token map, the price index and the bidder index live in the same
// keyspace and every mutation touches all three inside one transaction.
func NewMarketRepo(db *badger.DB, priceDenom domain.Denom) market.Repo {
	return &marketRepo{db: db, priceDenom: priceDenom}
}

func tokenKey(tokenId domain.TokenId) []byte {
	key := make([]byte, len(prefixToken)+4)
	copy(key, prefixToken)
	binary.BigEndian.PutUint32(key[len(prefixToken):], uint32(tokenId))
	return key
}

func bidderKey(bidder domain.Address, tokenId domain.TokenId) []byte {
	key := make([]byte, 0, len(prefixBid)+len(bidder)+5)
	key = append(key, prefixBid...)
	key = append(key, []byte(bidder)...)
	key = append(key, '/')
	var id [4]byte
	binary.BigEndian.PutUint32(id[:], uint32(tokenId))
	return append(key, id[:]...)
}

func bidderPrefix(bidder domain.Address) []byte {
	key := make([]byte, 0, len(prefixBid)+len(bidder)+1)
	key = append(key, prefixBid...)
	key = append(key, []byte(bidder)...)
	return append(key, '/')
}

// askAmount derives the price-index amount of a record: the ask's priceDenom
// amount, or zero when the token carries no ask. The zero row is the "no ask"
// sentinel; price-sorted reads filter it out.
func (r *marketRepo) askAmount(token *market.Token) (*big.Int, error) {
	if token.Ask == nil {
		return new(big.Int), nil
	}
	return token.Ask.Bag.AmountOf(r.priceDenom)
}

// priceIdxKey is askidx/<amount be16><token_id be4>; embedding the token id
// keeps the key unique when two tokens share an ask price
func (r *marketRepo) priceIdxKey(amount *big.Int, tokenId domain.TokenId) []byte {
	key := make([]byte, len(prefixAskIdx)+20)
	copy(key, prefixAskIdx)
	amount.FillBytes(key[len(prefixAskIdx) : len(prefixAskIdx)+16])
	binary.BigEndian.PutUint32(key[len(prefixAskIdx)+16:], uint32(tokenId))
	return key
}

func getJson(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return domain.ErrNotFound
	}
	if err != nil {
		return xerrors.Errorf("badger get: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJson(txn *badger.Txn, key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return xerrors.Errorf("marshal ledger value: %w", err)
	}
	return txn.Set(key, raw)
}

func (r *marketRepo) GetConfig(c ctx.Ctx) (*market.Config, error) {
	cfg := &market.Config{}
	err := r.db.View(func(txn *badger.Txn) error {
		return getJson(txn, keyConfig, cfg)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *marketRepo) SaveConfig(c ctx.Ctx, cfg *market.Config) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJson(txn, keyConfig, cfg)
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to save config")
		return err
	}
	return nil
}

func (r *marketRepo) GetVersion(c ctx.Ctx) (*market.VersionInfo, error) {
	version := &market.VersionInfo{}
	err := r.db.View(func(txn *badger.Txn) error {
		return getJson(txn, keyVersion, version)
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (r *marketRepo) SaveVersion(c ctx.Ctx, version *market.VersionInfo) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJson(txn, keyVersion, version)
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to save version")
		return err
	}
	return nil
}

func (r *marketRepo) GetToken(c ctx.Ctx, tokenId domain.TokenId) (*market.Token, error) {
	token := &market.Token{}
	err := r.db.View(func(txn *badger.Txn) error {
		return getJson(txn, tokenKey(tokenId), token)
	})
	if err == domain.ErrNotFound {
		return nil, err
	}
	if err != nil {
		c.WithFields(log.Fields{"err": err, "tokenId": tokenId}).Error("failed to get token")
		return nil, err
	}
	return token, nil
}

func (r *marketRepo) SaveToken(c ctx.Ctx, token *market.Token) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old := &market.Token{}
		hasOld := true
		if err := getJson(txn, tokenKey(token.TokenId), old); err == domain.ErrNotFound {
			hasOld = false
		} else if err != nil {
			return err
		}

		if err := setJson(txn, tokenKey(token.TokenId), token); err != nil {
			return err
		}

		// the index key embeds the price, so an ask change is remove+insert
		newAmount, err := r.askAmount(token)
		if err != nil {
			return err
		}
		newIdxKey := r.priceIdxKey(newAmount, token.TokenId)
		if hasOld {
			oldAmount, err := r.askAmount(old)
			if err != nil {
				return err
			}
			oldIdxKey := r.priceIdxKey(oldAmount, old.TokenId)
			if !bytes.Equal(oldIdxKey, newIdxKey) {
				if err := txn.Delete(oldIdxKey); err != nil {
					return xerrors.Errorf("drop stale price index row: %w", err)
				}
			}
		}
		if err := setJson(txn, newIdxKey, token); err != nil {
			return err
		}

		// bidder index rows live exactly as long as the matching bid
		current := map[domain.Address]bool{}
		for _, bidder := range token.Bidders() {
			current[bidder] = true
			if err := setJson(txn, bidderKey(bidder, token.TokenId), token); err != nil {
				return err
			}
		}
		if hasOld {
			for _, bidder := range old.Bidders() {
				if current[bidder] {
					continue
				}
				if err := txn.Delete(bidderKey(bidder, old.TokenId)); err != nil {
					return xerrors.Errorf("drop stale bidder index row: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err, "tokenId": token.TokenId}).Error("failed to save token")
		return err
	}
	return nil
}

func (r *marketRepo) FindTokens(c ctx.Ctx, opts ...market.FindOptionsFunc) ([]*market.Token, error) {
	options, err := market.GetFindOptions(opts...)
	if err != nil {
		return nil, err
	}

	seek := tokenKey(0)
	if options.StartAfter != nil {
		seek = tokenKey(*options.StartAfter)
	}

	res := []*market.Token{}
	err = r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefixToken})
		defer it.Close()

		taken, skipped := 0, 0
		for it.Seek(seek); it.Valid(); it.Next() {
			// the start bound is exclusive
			if bytes.Equal(it.Item().Key(), seek) {
				continue
			}
			if options.Offset != nil && skipped < *options.Offset {
				skipped++
				continue
			}
			if options.Limit != nil && taken >= *options.Limit {
				break
			}
			token := &market.Token{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, token)
			}); err != nil {
				return err
			}
			res = append(res, token)
			taken++
		}
		return nil
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to find tokens")
		return nil, err
	}
	return res, nil
}

func (r *marketRepo) FindTokensByPrice(c ctx.Ctx, opts ...market.FindOptionsFunc) ([]*market.Token, error) {
	options, err := market.GetFindOptions(opts...)
	if err != nil {
		return nil, err
	}

	descending := options.SortDir != nil && *options.SortDir == domain.SortDirDesc

	// the price bound is exclusive of (amount, token 0), matching the primary
	// pagination contract: entries with the same amount but a higher token id
	// are still visited
	bound := r.priceIdxKey(new(big.Int), 0)
	if options.StartAfterPrice != nil {
		amount, ok := new(big.Int).SetString(*options.StartAfterPrice, 10)
		if !ok {
			return nil, xerrors.Errorf("parse price bound %q: %w", *options.StartAfterPrice, domain.ErrInvalidNumberFormat)
		}
		bound = r.priceIdxKey(amount, 0)
	}

	res := []*market.Token{}
	err = r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefixAskIdx, Reverse: descending})
		defer it.Close()

		seek := bound
		if descending {
			// position past the highest key under the prefix
			seek = append(append([]byte{}, prefixAskIdx...), bytes.Repeat([]byte{0xff}, 21)...)
		}

		taken, skipped := 0, 0
		for it.Seek(seek); it.Valid(); it.Next() {
			key := it.Item().Key()
			if descending {
				if bytes.Compare(key, bound) <= 0 {
					break
				}
			} else if bytes.Equal(key, bound) {
				continue
			}
			token := &market.Token{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, token)
			}); err != nil {
				return err
			}
			// sentinel rows carry no ask
			if token.Ask == nil {
				continue
			}
			if options.Offset != nil && skipped < *options.Offset {
				skipped++
				continue
			}
			if options.Limit != nil && taken >= *options.Limit {
				break
			}
			res = append(res, token)
			taken++
		}
		return nil
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to find tokens by price")
		return nil, err
	}
	return res, nil
}

func (r *marketRepo) FindBidderTokens(c ctx.Ctx, bidder domain.Address, opts ...market.FindOptionsFunc) ([]*market.Token, error) {
	options, err := market.GetFindOptions(opts...)
	if err != nil {
		return nil, err
	}

	var startAfter domain.TokenId
	if options.StartAfter != nil {
		startAfter = *options.StartAfter
	}
	seek := bidderKey(bidder, startAfter)

	res := []*market.Token{}
	err = r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: bidderPrefix(bidder)})
		defer it.Close()

		taken, skipped := 0, 0
		for it.Seek(seek); it.Valid(); it.Next() {
			if bytes.Equal(it.Item().Key(), seek) {
				continue
			}
			if options.Offset != nil && skipped < *options.Offset {
				skipped++
				continue
			}
			if options.Limit != nil && taken >= *options.Limit {
				break
			}
			token := &market.Token{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, token)
			}); err != nil {
				return err
			}
			res = append(res, token)
			taken++
		}
		return nil
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err, "bidder": bidder}).Error("failed to find bidder tokens")
		return nil, err
	}
	return res, nil
}

func (r *marketRepo) CountTokens(c ctx.Ctx) (int, error) {
	return r.countTokens(c, false)
}

func (r *marketRepo) CountTokensWithAsk(c ctx.Ctx) (int, error) {
	return r.countTokens(c, true)
}

func (r *marketRepo) countTokens(c ctx.Ctx, withAskOnly bool) (int, error) {
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.IteratorOptions{Prefix: prefixToken}
		opts.PrefetchValues = withAskOnly
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if !withAskOnly {
				count++
				continue
			}
			token := &market.Token{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, token)
			}); err != nil {
				return err
			}
			if token.Ask != nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("failed to count tokens")
		return 0, err
	}
	return count, nil
}
