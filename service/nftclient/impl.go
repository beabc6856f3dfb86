package nftclient

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	bCtx "github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/log"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/bank"
	"github.com/lunapunks/punkmarket/domain/nft"
)

// Client reads chain state through a LCD node. It serves both the ownership
// oracle and the bank querier.
type Client interface {
	nft.Oracle
	bank.Querier
}

func NewClient(cfg *ClientCfg) Client {
	return &client{
		client:  cfg.HttpClient,
		timeout: cfg.Timeout,
		lcdUrl:  cfg.LcdUrl,
	}
}

type client struct {
	client  http.Client
	timeout time.Duration
	lcdUrl  string
}

type smartQueryResp struct {
	Data json.RawMessage `json:"data"`
}

func (c *client) OwnerOf(ctx bCtx.Ctx, contract domain.Address, tokenId domain.TokenId, includeExpired bool) (*nft.OwnerOfResponse, error) {
	payload, err := nft.OwnerOfPayload(tokenId, includeExpired)
	if err != nil {
		ctx.WithField("err", err).Error("nft.OwnerOfPayload failed")
		return nil, err
	}
	url := fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s",
		c.lcdUrl, contract, base64.StdEncoding.EncodeToString(payload))
	data, err := c.get(ctx, url)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("c.get failed")
		return nil, err
	}
	wrapper := &smartQueryResp{}
	if err := json.Unmarshal(data, wrapper); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	resp := &nft.OwnerOfResponse{}
	if err := json.Unmarshal(wrapper.Data, resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	return resp, nil
}

type allBalancesResp struct {
	Balances []domain.Coin `json:"balances"`
}

func (c *client) AllBalances(ctx bCtx.Ctx, address domain.Address) (domain.Coins, error) {
	url := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s", c.lcdUrl, address)
	data, err := c.get(ctx, url)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("c.get failed")
		return nil, err
	}
	resp := &allBalancesResp{}
	if err := json.Unmarshal(data, resp); err != nil {
		ctx.WithField("err", err).Error("json.Unmarshal failed")
		return nil, err
	}
	return domain.Coins(resp.Balances), nil
}

func (c *client) get(ctx bCtx.Ctx, url string) ([]byte, error) {
	ctx, cancel := bCtx.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("NewRequestWithContext failed")
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("client.Do failed")
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ctx.WithFields(log.Fields{
			"url":        url,
			"statusCode": resp.StatusCode,
		}).Error("resp.StatusCode != 200")
		return nil, ErrStatusCodeNotOk
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ctx.WithFields(log.Fields{
			"url": url,
			"err": err,
		}).Error("failed to read body")
		return nil, err
	}
	return body, nil
}
