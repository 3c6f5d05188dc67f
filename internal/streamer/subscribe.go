package streamer

import (
	"context"
	"fmt"
	"slices"
)

// Subscribe adds symbols for eventType. The first Subscribe for an event type
// sends FEED_SETUP with fields (or DefaultFields when fields is empty); the
// field list is then fixed until Close. Symbols are sent in batches of at most
// MaxSubscriptionSize, each preceded by a wait on the pacer.
func (c *Client) Subscribe(ctx context.Context, eventType string, fields []string, symbols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ChannelOpen {
		return ErrNotConnected
	}

	if !c.schemas.Has(eventType) {
		if len(fields) == 0 {
			fields = DefaultFields[eventType]
		}
		if len(fields) == 0 {
			return fmt.Errorf("%s: %w", eventType, ErrNoFields)
		}
		if err := c.send(feedSetup{
			Type:                    msgFeedSetup,
			Channel:                 c.channelID,
			AcceptAggregationPeriod: c.cfg.AggregationPeriod,
			AcceptDataFormat:        dataFormat,
			AcceptEventFields:       map[string][]string{eventType: fields},
		}); err != nil {
			return fmt.Errorf("feed setup %s: %w", eventType, err)
		}
		c.schemas.Negotiate(eventType, fields)
		c.logger.Debug("feed setup sent", "event_type", eventType, "fields", fields)
	} else if len(fields) > 0 {
		if negotiated, _ := c.schemas.Fields(eventType); !slices.Equal(negotiated, fields) {
			c.logger.Warn("field list already negotiated, ignoring new fields",
				"event_type", eventType,
				"negotiated", negotiated,
			)
		}
	}

	batches, err := c.sendBatches(ctx, eventType, symbols, false)
	if err != nil {
		return err
	}

	c.logger.Info("subscribed",
		"event_type", eventType,
		"symbols", len(symbols),
		"batches", batches,
	)
	return nil
}

// Unsubscribe removes symbols for eventType using the same batching as Subscribe.
func (c *Client) Unsubscribe(ctx context.Context, eventType string, symbols []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ChannelOpen {
		return ErrNotConnected
	}

	batches, err := c.sendBatches(ctx, eventType, symbols, true)
	if err != nil {
		return err
	}

	c.logger.Info("unsubscribed",
		"event_type", eventType,
		"symbols", len(symbols),
		"batches", batches,
	)
	return nil
}

// sendBatches writes FEED_SUBSCRIPTION messages and updates the subscription
// set per batch. Must be called with mu held.
func (c *Client) sendBatches(ctx context.Context, eventType string, symbols []string, remove bool) (int, error) {
	batches := 0
	for chunk := range slices.Chunk(symbols, c.cfg.MaxSubscriptionSize) {
		if err := c.pacer.Wait(ctx); err != nil {
			return batches, fmt.Errorf("subscription pacing: %w", err)
		}

		entries := make([]subscriptionEntry, len(chunk))
		for i, s := range chunk {
			entries[i] = subscriptionEntry{Type: eventType, Symbol: s}
		}
		msg := feedSubscription{Type: msgFeedSubscription, Channel: c.channelID}
		if remove {
			msg.Remove = entries
		} else {
			msg.Add = entries
		}
		if err := c.send(msg); err != nil {
			return batches, fmt.Errorf("feed subscription %s batch %d: %w", eventType, batches+1, err)
		}
		batches++

		set := c.subs[eventType]
		if set == nil {
			set = make(map[string]struct{})
			c.subs[eventType] = set
		}
		for _, s := range chunk {
			if remove {
				delete(set, s)
			} else {
				set[s] = struct{}{}
			}
		}
		if remove && len(set) == 0 {
			delete(c.subs, eventType)
		}
	}
	return batches, nil
}
