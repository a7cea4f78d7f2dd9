package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dshills/textcore/internal/engine/history"
)

// Metrics counts document activity. One Metrics may be shared by many
// documents.
type Metrics struct {
	edits        *prometheus.CounterVec
	editedBytes  *prometheus.CounterVec
	undos        prometheus.Counter
	redos        prometheus.Counter
	transactions *prometheus.CounterVec
	parses       *prometheus.HistogramVec
}

// NewMetrics creates the document metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		edits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "textcore",
			Name:      "edits_total",
			Help:      "Low-level edits applied to documents.",
		}, []string{"op"}),
		editedBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "textcore",
			Name:      "edited_bytes_total",
			Help:      "Bytes inserted or removed by edits.",
		}, []string{"op"}),
		undos: f.NewCounter(prometheus.CounterOpts{
			Namespace: "textcore",
			Name:      "undo_total",
			Help:      "Transactions undone.",
		}),
		redos: f.NewCounter(prometheus.CounterOpts{
			Namespace: "textcore",
			Name:      "redo_total",
			Help:      "Transactions redone.",
		}),
		transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "textcore",
			Name:      "transactions_total",
			Help:      "Transactions closed, by outcome.",
		}, []string{"outcome"}),
		parses: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "textcore",
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing documents.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"language", "status"}),
	}
}

func (m *Metrics) edit(e history.Edit) {
	if m == nil {
		return
	}
	op := e.Op.String()
	m.edits.WithLabelValues(op).Inc()
	m.editedBytes.WithLabelValues(op).Add(float64(len(e.Text)))
}

func (m *Metrics) undo() {
	if m != nil {
		m.undos.Inc()
	}
}

func (m *Metrics) redo() {
	if m != nil {
		m.redos.Inc()
	}
}

func (m *Metrics) transaction(outcome string) {
	if m != nil {
		m.transactions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) parse(language string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.parses.WithLabelValues(language, status).Observe(d.Seconds())
}
