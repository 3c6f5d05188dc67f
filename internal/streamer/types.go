package streamer

import (
	"time"
)

// State is the channel state of a Client.
type State int

const (
	Disconnected State = iota
	TransportConnected
	SetupAcknowledged
	Authorized
	ChannelOpen
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case TransportConnected:
		return "transport_connected"
	case SetupAcknowledged:
		return "setup_acknowledged"
	case Authorized:
		return "authorized"
	case ChannelOpen:
		return "channel_open"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	DefaultVersion             = "0.1-DXF-JS-0.3.0"
	DefaultKeepaliveTimeout    = 60
	DefaultAggregationPeriod   = 10
	DefaultMaxSubscriptionSize = 500
	DefaultSubscribeRate       = 5.0
	DefaultSubscribeBurst      = 1

	feedChannel  = 1
	feedService  = "FEED"
	feedContract = "AUTO"
	dataFormat   = "COMPACT"
	authorized   = "AUTHORIZED"
)

// Config configures a Client.
type Config struct {
	URL                 string        // Feed WebSocket URL
	Version             string        // Version string sent in SETUP
	KeepaliveTimeout    int           // Seconds, sent as keepaliveTimeout and acceptKeepaliveTimeout
	AggregationPeriod   float64       // Seconds, sent as acceptAggregationPeriod
	MaxSubscriptionSize int           // Symbols per FEED_SUBSCRIPTION message
	SubscribeRate       float64       // Subscription messages per second; <= 0 disables pacing
	SubscribeBurst      int           // Token bucket burst
	WriteTimeout        time.Duration // Transport write deadline
	HandshakeTimeout    time.Duration // Transport opening handshake limit
	BufferSize          int           // Initial transport inbox capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Version:             DefaultVersion,
		KeepaliveTimeout:    DefaultKeepaliveTimeout,
		AggregationPeriod:   DefaultAggregationPeriod,
		MaxSubscriptionSize: DefaultMaxSubscriptionSize,
		SubscribeRate:       DefaultSubscribeRate,
		SubscribeBurst:      DefaultSubscribeBurst,
		WriteTimeout:        5 * time.Second,
		HandshakeTimeout:    10 * time.Second,
		BufferSize:          1024,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.KeepaliveTimeout <= 0 {
		c.KeepaliveTimeout = d.KeepaliveTimeout
	}
	if c.AggregationPeriod <= 0 {
		c.AggregationPeriod = d.AggregationPeriod
	}
	if c.MaxSubscriptionSize <= 0 {
		c.MaxSubscriptionSize = d.MaxSubscriptionSize
	}
	if c.SubscribeBurst <= 0 {
		c.SubscribeBurst = d.SubscribeBurst
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
}

// DefaultFields lists the fields requested for well-known event types when
// Subscribe is called without an explicit field list.
var DefaultFields = map[string][]string{
	"Quote":       {"eventSymbol", "bidPrice", "askPrice", "bidSize", "askSize"},
	"Trade":       {"eventSymbol", "price", "size", "dayVolume"},
	"Greeks":      {"eventSymbol", "volatility", "delta", "gamma", "theta", "rho", "vega"},
	"Summary":     {"eventSymbol", "openInterest", "dayOpenPrice", "dayHighPrice", "dayLowPrice", "prevDayClosePrice"},
	"Profile":     {"eventSymbol", "description", "tradingStatus"},
	"TimeAndSale": {"eventSymbol", "time", "price", "size", "aggressorSide"},
	"Candle":      {"eventSymbol", "time", "open", "high", "low", "close", "volume"},
}

// Subscription is the set of symbols subscribed for one event type.
type Subscription struct {
	EventType string
	Fields    []string
	Symbols   []string
}

// -----------------------------------------------------------------------------
// Control messages
// -----------------------------------------------------------------------------

const (
	msgSetup            = "SETUP"
	msgAuth             = "AUTH"
	msgAuthState        = "AUTH_STATE"
	msgChannelRequest   = "CHANNEL_REQUEST"
	msgChannelOpened    = "CHANNEL_OPENED"
	msgFeedSetup        = "FEED_SETUP"
	msgFeedSubscription = "FEED_SUBSCRIPTION"
	msgKeepalive        = "KEEPALIVE"
	msgError            = "ERROR"
)

type setupMessage struct {
	Type                   string `json:"type"`
	Channel                int    `json:"channel"`
	KeepaliveTimeout       int    `json:"keepaliveTimeout"`
	AcceptKeepaliveTimeout int    `json:"acceptKeepaliveTimeout"`
	Version                string `json:"version"`
}

type authMessage struct {
	Type    string `json:"type"`
	Channel int    `json:"channel"`
	Token   string `json:"token"`
}

type channelParameters struct {
	Contract string `json:"contract"`
}

type channelRequest struct {
	Type       string            `json:"type"`
	Channel    int               `json:"channel"`
	Service    string            `json:"service"`
	Parameters channelParameters `json:"parameters"`
}

type feedSetup struct {
	Type                    string              `json:"type"`
	Channel                 int                 `json:"channel"`
	AcceptAggregationPeriod float64             `json:"acceptAggregationPeriod"`
	AcceptDataFormat        string              `json:"acceptDataFormat"`
	AcceptEventFields       map[string][]string `json:"acceptEventFields"`
}

type subscriptionEntry struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type feedSubscription struct {
	Type    string              `json:"type"`
	Channel int                 `json:"channel"`
	Add     []subscriptionEntry `json:"add,omitempty"`
	Remove  []subscriptionEntry `json:"remove,omitempty"`
}

type keepalive struct {
	Type    string `json:"type"`
	Channel int    `json:"channel"`
}

// reply is the subset of incoming control messages the handshake inspects.
type reply struct {
	Type    string `json:"type"`
	Channel int    `json:"channel"`
	State   string `json:"state"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
