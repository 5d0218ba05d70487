package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"structkit/pkg/flyweight"
	"structkit/pkg/proxy"
)

// FlyweightObserver counts lookups on one flyweight factory. Keys are not
// used as labels.
type FlyweightObserver[K comparable] struct {
	hits, misses, failed prometheus.Counter
}

var _ flyweight.Observer[string] = (*FlyweightObserver[string])(nil)

// NewFlyweightObserver returns an observer labelled with factory.
func NewFlyweightObserver[K comparable](m *Metrics, factory string) *FlyweightObserver[K] {
	return &FlyweightObserver[K]{
		hits:   m.flyweightLookups.WithLabelValues(factory, "hit"),
		misses: m.flyweightLookups.WithLabelValues(factory, "miss"),
		failed: m.flyweightLookups.WithLabelValues(factory, "failed"),
	}
}

func (o *FlyweightObserver[K]) Hit(K)           { o.hits.Inc() }
func (o *FlyweightObserver[K]) Miss(K)          { o.misses.Inc() }
func (o *FlyweightObserver[K]) Failed(K, error) { o.failed.Inc() }

// ProxyObserver records construction attempts of one lazy proxy.
type ProxyObserver struct {
	ok, failed prometheus.Counter
	took       prometheus.Observer
}

var _ proxy.Observer = (*ProxyObserver)(nil)

// NewProxyObserver returns an observer labelled with name.
func NewProxyObserver(m *Metrics, name string) *ProxyObserver {
	return &ProxyObserver{
		ok:     m.proxyBuilds.WithLabelValues(name, "success"),
		failed: m.proxyBuilds.WithLabelValues(name, "error"),
		took:   m.proxyBuildTime.WithLabelValues(name),
	}
}

func (o *ProxyObserver) Constructed(took time.Duration) {
	o.ok.Inc()
	o.took.Observe(took.Seconds())
}

func (o *ProxyObserver) ConstructionFailed(error) { o.failed.Inc() }
