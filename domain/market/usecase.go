package market

import (
	"github.com/lunapunks/punkmarket/base/ctx"
)

// UseCase is the marketplace escrow engine's entry-point surface. Execution is
// strictly sequential and transactional: an invocation either applies all of
// its ledger mutations and queues all of its outbound instructions, or fails
// and applies none of them.
type UseCase interface {
	Instantiate(c ctx.Ctx, env Env, info MessageInfo, msg *InstantiateMsg) (*Response, error)
	Execute(c ctx.Ctx, env Env, info MessageInfo, msg *ExecuteMsg) (*Response, error)
	Query(c ctx.Ctx, env Env, msg *QueryMsg) (interface{}, error)
	Migrate(c ctx.Ctx, env Env, msg *MigrateMsg) (*Response, error)
}
