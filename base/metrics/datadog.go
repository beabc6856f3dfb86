package metrics

import (
	"fmt"
	"sync"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/spf13/viper"

	"github.com/lunapunks/punkmarket/base/log"
)

const (
	// ddRate is the rate to pass metrics to datadog agent. 1 means always
	ddRate = 1
	// buffer 10 counters before sending to statsd
	bufferMetrics = 10

	ddPort = 8125
)

var (
	initOnce = sync.Once{}

	ddClient statsCli = &noopCli{}
)

func initDDClient() {
	host := viper.GetString("datadog_host")
	if host == "" {
		log.Log().Info("datadog host unset, metrics disabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", host, ddPort)
	log.Log().WithField("addr", addr).Info("connecting to datadog agent")
	cli, err := statsd.NewBuffered(addr, bufferMetrics)
	if err != nil {
		log.Log().WithField("err", err).Warn("failed to init datadog client")
		return
	}
	ddClient = cli
}

func client() statsCli {
	initOnce.Do(initDDClient)
	return ddClient
}

// statsCli is the subset of statsd.Client the package relies on
type statsCli interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	TimeInMilliseconds(name string, value float64, tags []string, rate float64) error
}

type noopCli struct{}

func (n *noopCli) Gauge(string, float64, []string, float64) error              { return nil }
func (n *noopCli) Count(string, int64, []string, float64) error                { return nil }
func (n *noopCli) Histogram(string, float64, []string, float64) error          { return nil }
func (n *noopCli) TimeInMilliseconds(string, float64, []string, float64) error { return nil }
