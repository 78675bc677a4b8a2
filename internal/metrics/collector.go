// Package metrics exposes a Prometheus Collector over LSNP's client
// state: known peers, sent/received message counts, bytes transferred,
// and active game sessions. Grounded on runZeroInc-sockstats's
// pkg/exporter.TCPInfoCollector — a Collector that, on every scrape,
// walks a small set of live suppliers under a mutex rather than
// maintaining its own counters, so Collect is always consistent with
// the component it's reporting on.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Suppliers are the live value sources Collect reads on every scrape.
// Each is a cheap, already-synchronized accessor on one of the state
// singletons (internal/clientstate, internal/filestate, internal/game).
type Suppliers struct {
	PeersKnown       func() int
	MessagesSent     func() int
	MessagesReceived func() int
	BytesSent        func() int64
	BytesReceived    func() int64
	ActiveGames      func() int
}

type desc struct {
	d       *prometheus.Desc
	valueFn func(Suppliers) float64
	valType prometheus.ValueType
}

// Collector implements prometheus.Collector over a Suppliers set,
// mirroring TCPInfoCollector's Describe/Collect shape: Describe ranges
// over a fixed slice of descriptions, Collect ranges over the same
// slice calling each entry's supplier under a lock.
type Collector struct {
	mu   sync.Mutex
	sup  Suppliers
	defs []desc
}

// New returns a Collector reading from sup on every scrape.
func New(sup Suppliers) *Collector {
	c := &Collector{sup: sup}
	c.defs = []desc{
		{
			d:       prometheus.NewDesc("lsnp_peers_known", "Number of peers currently known to this client.", nil, nil),
			valType: prometheus.GaugeValue,
			valueFn: func(s Suppliers) float64 { return float64(call(s.PeersKnown)) },
		},
		{
			d:       prometheus.NewDesc("lsnp_messages_sent_total", "Messages recorded in the sent-message store.", nil, nil),
			valType: prometheus.GaugeValue,
			valueFn: func(s Suppliers) float64 { return float64(call(s.MessagesSent)) },
		},
		{
			d:       prometheus.NewDesc("lsnp_messages_received_total", "Messages recorded in the received-message store.", nil, nil),
			valType: prometheus.GaugeValue,
			valueFn: func(s Suppliers) float64 { return float64(call(s.MessagesReceived)) },
		},
		{
			d:       prometheus.NewDesc("lsnp_file_bytes_sent", "Bytes transmitted across completed and in-flight FILE_CHUNK sends.", nil, nil),
			valType: prometheus.GaugeValue,
			valueFn: func(s Suppliers) float64 { return float64(call64(s.BytesSent)) },
		},
		{
			d:       prometheus.NewDesc("lsnp_file_bytes_received", "Bytes received across completed and in-flight file transfers.", nil, nil),
			valType: prometheus.GaugeValue,
			valueFn: func(s Suppliers) float64 { return float64(call64(s.BytesReceived)) },
		},
		{
			d:       prometheus.NewDesc("lsnp_active_games", "Tic-tac-toe games not yet in a terminal state.", nil, nil),
			valType: prometheus.GaugeValue,
			valueFn: func(s Suppliers) float64 { return float64(call(s.ActiveGames)) },
		},
	}
	return c
}

func call(f func() int) int {
	if f == nil {
		return 0
	}
	return f()
}

func call64(f func() int64) int64 {
	if f == nil {
		return 0
	}
	return f()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.defs {
		ch <- d.d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range c.defs {
		ch <- prometheus.MustNewConstMetric(d.d, d.valType, d.valueFn(c.sup))
	}
}

var _ prometheus.Collector = (*Collector)(nil)
