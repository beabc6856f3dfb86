/*Package metrics wraps datadog-go to faciliate metric recording
Following are naming convention of metric:
- Internal process time: *.time
- External latency: *.latency
- Error: *.err
- Warning: *.warn
*/
package metrics

import (
	"strings"
	"time"

	"github.com/lunapunks/punkmarket/base/env"
)

const (
	// TagValueNA is used for tags whose values are not available.
	TagValueNA = "n/a"
)

// Ender provides interface for BumpTime
type Ender interface {
	End()
}

// Service provides interface for metrics
type Service interface {
	BumpAvg(key string, val float64, tags ...string)
	BumpSum(key string, val float64, tags ...string)
	BumpHistogram(key string, val float64, tags ...string)

	BumpTime(key string, tags ...string) Ender
}

type impl struct {
	prefix string
	tags   []string
}

// New creates a metric client with package name as prefix
func New(pkgName string) Service {
	tags := []string{
		"env:" + orNA(env.EnvName()),
		"app:" + orNA(env.AppName()),
	}
	return &impl{
		prefix: pkgName + ".",
		tags:   tags,
	}
}

func orNA(v string) string {
	if v == "" {
		return TagValueNA
	}
	return v
}

func (im *impl) BumpAvg(key string, val float64, tags ...string) {
	client().Gauge(im.prefix+key, val, im.mergeTags(tags), ddRate)
}

func (im *impl) BumpSum(key string, val float64, tags ...string) {
	client().Count(im.prefix+key, int64(val), im.mergeTags(tags), ddRate)
}

func (im *impl) BumpHistogram(key string, val float64, tags ...string) {
	client().Histogram(im.prefix+key, val, im.mergeTags(tags), ddRate)
}

type timeEnder struct {
	im    *impl
	key   string
	tags  []string
	start time.Time
}

func (e *timeEnder) End() {
	elapsed := time.Since(e.start)
	client().TimeInMilliseconds(e.im.prefix+e.key, float64(elapsed.Milliseconds()), e.im.mergeTags(e.tags), ddRate)
}

func (im *impl) BumpTime(key string, tags ...string) Ender {
	return &timeEnder{im: im, key: key, tags: tags, start: time.Now()}
}

// mergeTags joins the client tags with per-call "key", "value" pairs
func (im *impl) mergeTags(kvs []string) []string {
	tags := append([]string{}, im.tags...)
	for i := 0; i+1 < len(kvs); i += 2 {
		k := strings.TrimSpace(kvs[i])
		v := kvs[i+1]
		if v == "" {
			v = TagValueNA
		}
		tags = append(tags, k+":"+v)
	}
	return tags
}
