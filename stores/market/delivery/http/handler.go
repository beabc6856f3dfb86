package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	bCtx "github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/delivery"
	"github.com/lunapunks/punkmarket/base/ptr"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/market"
)

type handler struct {
	marketUC     market.UseCase
	activityRepo market.ActivityRepo
}

// New registers the marketplace endpoints: the host-facing execute/query
// entry points plus convenience reads over the query surface. The activity
// feed is only exposed when a journal is wired.
func New(e *echo.Echo, marketUC market.UseCase, activityRepo market.ActivityRepo) {
	h := &handler{marketUC, activityRepo}

	g := e.Group("/market")
	g.POST("/execute", h.execute)
	g.POST("/query", h.query)

	g.GET("/royalty", h.getRoyaltyInfo)
	g.GET("/tokens/:tokenId", h.getNftMarketInfo)
	g.GET("/bidders/:bidder/bids", h.getAllNftBidsInfo)
	g.GET("/asks", h.getAllNftAsksInfo)
	g.GET("/asks/sorted", h.getAllNftAsksSortInfo)
	if activityRepo != nil {
		g.GET("/activities", h.getActivities)
	}
}

// envPayload is the block context the invoking host supplies; time falls back
// to the wall clock for direct calls
type envPayload struct {
	Height uint64     `json:"height"`
	Time   *time.Time `json:"time"`
}

func (p *envPayload) toEnv() market.Env {
	env := market.Env{Height: p.Height, Time: time.Now()}
	if p.Time != nil {
		env.Time = *p.Time
	}
	return env
}

type executeRequest struct {
	Sender string            `json:"sender" validate:"required"`
	Funds  domain.Coins      `json:"funds"`
	Env    envPayload        `json:"env"`
	Msg    market.ExecuteMsg `json:"msg"`
}

func (h *handler) execute(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	req := &executeRequest{}
	if err := _ctx.Bind(req); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, domain.ErrBadParamInput)
	}
	if err := _ctx.Validate(req); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	info := market.MessageInfo{
		Sender: domain.Address(req.Sender),
		Funds:  req.Funds,
	}
	res, err := h.marketUC.Execute(ctx, req.Env.toEnv(), info, &req.Msg)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

type queryRequest struct {
	Env envPayload      `json:"env"`
	Msg market.QueryMsg `json:"msg"`
}

func (h *handler) query(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	req := &queryRequest{}
	if err := _ctx.Bind(req); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, domain.ErrBadParamInput)
	}

	res, err := h.marketUC.Query(ctx, req.Env.toEnv(), &req.Msg)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getRoyaltyInfo(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	res, err := h.marketUC.Query(ctx, currentEnv(_ctx), &market.QueryMsg{
		RoyaltyInfo: &market.RoyaltyInfoQuery{},
	})
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getNftMarketInfo(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	tokenId, err := parseTokenId(_ctx.Param("tokenId"))
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	res, err := h.marketUC.Query(ctx, currentEnv(_ctx), &market.QueryMsg{
		NftMarketInfo: &market.NftMarketInfoQuery{
			TokenId:        tokenId,
			IncludeExpired: parseBoolQuery(_ctx, "includeExpired"),
		},
	})
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getAllNftBidsInfo(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	q := &market.AllNftBidsInfoQuery{
		Bidder:         _ctx.Param("bidder"),
		IncludeExpired: parseBoolQuery(_ctx, "includeExpired"),
		Skip:           parseUint32Query(_ctx, "skip"),
		Limit:          parseUint32Query(_ctx, "limit"),
	}
	if v := parseUint32Query(_ctx, "startAfter"); v != nil {
		q.StartAfter = (*domain.TokenId)(v)
	}

	res, err := h.marketUC.Query(ctx, currentEnv(_ctx), &market.QueryMsg{AllNftBidsInfo: q})
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getAllNftAsksInfo(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	q := &market.AllNftAsksInfoQuery{
		IncludeExpired: parseBoolQuery(_ctx, "includeExpired"),
		Skip:           parseUint32Query(_ctx, "skip"),
		Limit:          parseUint32Query(_ctx, "limit"),
	}
	if v := parseUint32Query(_ctx, "startAfter"); v != nil {
		q.StartAfter = (*domain.TokenId)(v)
	}

	res, err := h.marketUC.Query(ctx, currentEnv(_ctx), &market.QueryMsg{AllNftAsksInfo: q})
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getAllNftAsksSortInfo(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	q := &market.AllNftAsksSortInfoQuery{
		IncludeExpired: parseBoolQuery(_ctx, "includeExpired"),
		Skip:           parseUint32Query(_ctx, "skip"),
		Limit:          parseUint32Query(_ctx, "limit"),
	}
	if v := _ctx.QueryParam("ascending"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, domain.ErrBadParamInput)
		}
		q.Ascending = ptr.Int32(int32(parsed))
	}
	if v := _ctx.QueryParam("startAfter"); v != "" {
		q.StartAfter = ptr.String(v)
	}

	res, err := h.marketUC.Query(ctx, currentEnv(_ctx), &market.QueryMsg{AllNftAsksSortInfo: q})
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func (h *handler) getActivities(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)

	opts := []market.ActivityFindAllOptionsFunc{}
	if v := _ctx.QueryParam("action"); v != "" {
		opts = append(opts, market.ActivityWithAction(v))
	}
	if v := parseUint32Query(_ctx, "tokenId"); v != nil {
		opts = append(opts, market.ActivityWithTokenId(domain.TokenId(*v)))
	}
	if v := _ctx.QueryParam("actor"); v != "" {
		opts = append(opts, market.ActivityWithActor(domain.Address(v)))
	}

	offset := int32(0)
	limit := int32(30)
	if v := parseUint32Query(_ctx, "offset"); v != nil {
		offset = int32(*v)
	}
	if v := parseUint32Query(_ctx, "limit"); v != nil {
		limit = int32(*v)
	}
	opts = append(opts, market.ActivityWithPagination(offset, limit))

	res, err := h.activityRepo.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

func currentEnv(_ctx echo.Context) market.Env {
	env := market.Env{Time: time.Now()}
	if v := parseUint32Query(_ctx, "height"); v != nil {
		env.Height = uint64(*v)
	}
	return env
}

func parseTokenId(raw string) (domain.TokenId, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return domain.TokenId(v), nil
}

func parseBoolQuery(_ctx echo.Context, name string) *bool {
	if v := _ctx.QueryParam(name); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err == nil {
			return ptr.Bool(parsed)
		}
	}
	return nil
}

func parseUint32Query(_ctx echo.Context, name string) *uint32 {
	if v := _ctx.QueryParam(name); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err == nil {
			return ptr.Uint32(uint32(parsed))
		}
	}
	return nil
}
