package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tastystream"

// States lists every channel state reported by StateChanged.
var States = []string{
	"disconnected",
	"transport_connected",
	"setup_acknowledged",
	"authorized",
	"channel_open",
	"failed",
}

// Collector holds the feed and poller metrics.
type Collector struct {
	messagesSent  *prometheus.CounterVec
	rowsDecoded   *prometheus.CounterVec
	framesDecoded *prometheus.CounterVec
	framesSkipped *prometheus.CounterVec
	channelState  *prometheus.GaugeVec
	inboxDepth    prometheus.Gauge
	inboxCapacity prometheus.Gauge
	pollDuration  prometheus.Histogram
	pollRows      prometheus.Counter
	pollErrors    prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_sent_total",
			Help:      "Control messages sent to the feed, by message type",
		}, []string{"type"}),
		rowsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "rows_decoded_total",
			Help:      "Data rows decoded from feed frames, by event type",
		}, []string{"event_type"}),
		framesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_decoded_total",
			Help:      "Data frames decoded, by event type",
		}, []string{"event_type"}),
		framesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "frames_skipped_total",
			Help:      "Incoming messages skipped while polling, by reason",
		}, []string{"reason"}),
		channelState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "channel_state",
			Help:      "1 for the current channel state, 0 otherwise",
		}, []string{"state"}),
		inboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "inbox_depth",
			Help:      "Frames queued in the receive inbox at the start of the last poll",
		}),
		inboxCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "inbox_capacity",
			Help:      "Current capacity of the receive inbox",
		}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of poll cycles",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		pollRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "rows_total",
			Help:      "Rows handed to the data handler",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "errors_total",
			Help:      "Poll cycles that returned an error",
		}),
	}

	reg.MustRegister(
		c.messagesSent,
		c.rowsDecoded,
		c.framesDecoded,
		c.framesSkipped,
		c.channelState,
		c.inboxDepth,
		c.inboxCapacity,
		c.pollDuration,
		c.pollRows,
		c.pollErrors,
	)

	for _, s := range States {
		c.channelState.WithLabelValues(s).Set(0)
	}
	c.channelState.WithLabelValues("disconnected").Set(1)

	return c
}

func (c *Collector) MessageSent(msgType string) {
	if c == nil {
		return
	}
	c.messagesSent.WithLabelValues(msgType).Inc()
}

func (c *Collector) FrameDecoded(eventType string, rows int) {
	if c == nil {
		return
	}
	c.framesDecoded.WithLabelValues(eventType).Inc()
	c.rowsDecoded.WithLabelValues(eventType).Add(float64(rows))
}

func (c *Collector) FrameSkipped(reason string) {
	if c == nil {
		return
	}
	c.framesSkipped.WithLabelValues(reason).Inc()
}

// StateChanged marks state as current.
func (c *Collector) StateChanged(state string) {
	if c == nil {
		return
	}
	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		c.channelState.WithLabelValues(s).Set(v)
	}
}

func (c *Collector) InboxDepth(queued, capacity int) {
	if c == nil {
		return
	}
	c.inboxDepth.Set(float64(queued))
	c.inboxCapacity.Set(float64(capacity))
}

// PollCycle records one poll cycle.
func (c *Collector) PollCycle(duration time.Duration, rows int, err error) {
	if c == nil {
		return
	}
	c.pollDuration.Observe(duration.Seconds())
	c.pollRows.Add(float64(rows))
	if err != nil {
		c.pollErrors.Inc()
	}
}
