// Package feed keeps a streamer.Client connected and subscribed.
//
// The protocol client never retries. Manager sits outside it: it connects
// with exponential backoff, replays the configured subscriptions after every
// connect, and closes the client when a poll reports a dead transport so the
// next poll reconnects. Manager satisfies poller.Source.
package feed
