package market

import (
	"time"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/domain"
)

// Activity is one journaled marketplace event, mirroring the attribute pairs
// a successful command emits. The journal is off-ledger observability; it is
// written after the ledger commit and never participates in it.
type Activity struct {
	Id      string         `json:"id" bson:"id"`
	Action  string         `json:"action" bson:"action"`
	TokenId domain.TokenId `json:"tokenId" bson:"tokenId"`
	Actor   domain.Address `json:"actor" bson:"actor"`
	Amount  domain.Coins   `json:"amount,omitempty" bson:"amount,omitempty"`
	Time    time.Time      `json:"time" bson:"time"`
}

type ActivityFindAllOptions struct {
	Action  *string
	TokenId *domain.TokenId
	Actor   *domain.Address
	Offset  *int32
	Limit   *int32
}

type ActivityFindAllOptionsFunc func(*ActivityFindAllOptions) error

func GetActivityFindAllOptions(opts ...ActivityFindAllOptionsFunc) (ActivityFindAllOptions, error) {
	res := ActivityFindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func ActivityWithAction(action string) ActivityFindAllOptionsFunc {
	return func(options *ActivityFindAllOptions) error {
		options.Action = &action
		return nil
	}
}

func ActivityWithTokenId(tokenId domain.TokenId) ActivityFindAllOptionsFunc {
	return func(options *ActivityFindAllOptions) error {
		options.TokenId = &tokenId
		return nil
	}
}

func ActivityWithActor(actor domain.Address) ActivityFindAllOptionsFunc {
	return func(options *ActivityFindAllOptions) error {
		options.Actor = &actor
		return nil
	}
}

func ActivityWithPagination(offset, limit int32) ActivityFindAllOptionsFunc {
	return func(options *ActivityFindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

// ActivityRepo journals marketplace events
type ActivityRepo interface {
	Insert(c ctx.Ctx, activity *Activity) error
	FindAll(c ctx.Ctx, opts ...ActivityFindAllOptionsFunc) ([]*Activity, error)
}
