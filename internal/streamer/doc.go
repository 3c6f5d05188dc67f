// Package streamer implements the feed protocol client.
//
// A Client drives one channel over one transport:
//
//	Disconnected -> TransportConnected -> SetupAcknowledged -> Authorized -> ChannelOpen
//
// with Failed reachable from every handshake step. Once the channel is open,
// Subscribe declares a field list per event type (FEED_SETUP, once) and adds
// symbols in batches of at most MaxSubscriptionSize, paced by a token bucket.
// Poll drains every queued frame without blocking, demultiplexes compact
// data frames through the schema registry, and sends one KEEPALIVE.
//
// The client starts no goroutines and every public method is serialised by a
// single mutex. Reconnection is left to the caller; Connect and Close are
// idempotent so retry can be layered outside.
package streamer
