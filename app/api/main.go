package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/lunapunks/punkmarket/base/ctx"
	"github.com/lunapunks/punkmarket/base/database/mongoclient"
	"github.com/lunapunks/punkmarket/base/log"
	bValidator "github.com/lunapunks/punkmarket/base/validator"
	"github.com/lunapunks/punkmarket/domain"
	"github.com/lunapunks/punkmarket/domain/market"
	mmiddleware "github.com/lunapunks/punkmarket/middleware"
	"github.com/lunapunks/punkmarket/service/nftclient"
	market_delivery "github.com/lunapunks/punkmarket/stores/market/delivery/http"
	market_repository "github.com/lunapunks/punkmarket/stores/market/repository"
	market_usecase "github.com/lunapunks/punkmarket/stores/market/usecase"
)

func init() {
	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	// init ledger
	context.Info("init ledger")
	ledgerPath := viper.GetString("ledger.path")
	db, err := badger.Open(badger.DefaultOptions(ledgerPath))
	if err != nil {
		context.WithFields(log.Fields{"path": ledgerPath, "err": err}).Panic("fail to open ledger")
	}
	defer db.Close()

	priceDenom := domain.Denom(viper.GetString("market.priceDenom"))
	marketRepo := market_repository.NewMarketRepo(db, priceDenom)

	// activity journal is optional
	var journal market.ActivityRepo
	if uri := viper.GetString("mongo.uri"); uri != "" {
		context.Info("init mongo")
		authDBName := viper.GetString("mongo.authDBName")
		dbName := viper.GetString("mongo.dbName")
		enableSSL := viper.GetBool("mongo.enableSSL")
		mongoClient := mongoclient.MustConnectMongoClient(uri, authDBName, dbName, enableSSL, true, 2)
		journal = market_repository.NewActivityRepo(mongoClient.Db())
	}

	// init chain client
	httpTimeout := viper.GetDuration("http.timeout")
	chainClient := nftclient.NewClient(&nftclient.ClientCfg{
		HttpClient: http.Client{},
		Timeout:    httpTimeout,
		LcdUrl:     viper.GetString("chain.lcdUrl"),
	})

	marketUC := market_usecase.New(&market_usecase.MarketUseCaseCfg{
		MarketRepo:      marketRepo,
		ActivityRepo:    journal,
		Oracle:          chainClient,
		Bank:            chainClient,
		ContractAddress: domain.Address(viper.GetString("market.contractAddress")),
	})

	market_delivery.New(e, marketUC, journal)

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	shutdownCtx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
