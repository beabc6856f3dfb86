package bank

import (
	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/domain"
)

// Querier reads native balances from the host. Used by Release to sweep the
// contract's own balance when no explicit subset is supplied.
type Querier interface {
	AllBalances(c ctx.Ctx, address domain.Address) (domain.Coins, error)
}
