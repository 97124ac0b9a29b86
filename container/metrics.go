package container

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values of the direction label.
const (
	directionWrite = "write"
	directionRead  = "read"
)

// Metrics holds container counters, labelled by direction and codec.
type Metrics struct {
	blocksTotal    *prometheus.CounterVec
	recordsTotal   *prometheus.CounterVec
	bytesTotal     *prometheus.CounterVec
	rawBytesTotal  *prometheus.CounterVec
	syncMismatches *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		blocksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "container_blocks_total",
				Help:      "Total number of container blocks written or read",
			},
			[]string{"direction", "codec"},
		),
		recordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "container_records_total",
				Help:      "Total number of records written to or decoded from container blocks",
			},
			[]string{"direction", "codec"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "container_block_bytes_total",
				Help:      "Total size of block payloads as stored, after compression",
			},
			[]string{"direction", "codec"},
		),
		rawBytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "container_block_raw_bytes_total",
				Help:      "Total size of block payloads before compression",
			},
			[]string{"direction", "codec"},
		),
		syncMismatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "container_sync_mismatches_total",
				Help:      "Total number of blocks whose trailing sync marker did not match the header",
			},
			[]string{"codec"},
		),
		decodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "container_decode_errors_total",
				Help:      "Total number of records that failed to decode",
			},
			[]string{"codec"},
		),
	}
}

func (m *Metrics) block(direction, codec string, records int64, stored, raw int) {
	if m == nil {
		return
	}
	m.blocksTotal.WithLabelValues(direction, codec).Inc()
	m.bytesTotal.WithLabelValues(direction, codec).Add(float64(stored))
	m.rawBytesTotal.WithLabelValues(direction, codec).Add(float64(raw))
	if direction == directionWrite {
		m.recordsTotal.WithLabelValues(direction, codec).Add(float64(records))
	}
}

func (m *Metrics) recordRead(codec string) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(directionRead, codec).Inc()
}

func (m *Metrics) syncMismatch(codec string) {
	if m == nil {
		return
	}
	m.syncMismatches.WithLabelValues(codec).Inc()
}

func (m *Metrics) decodeError(codec string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(codec).Inc()
}
