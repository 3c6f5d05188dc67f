package streamer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/rickgao/tastystream/internal/connection"
)

// Skip reasons reported to the Recorder.
const (
	skipUndecodable = "undecodable"
	skipControl     = "control"
	skipMalformed   = "malformed"
)

// Poll drains every queued frame without blocking and returns the decoded
// rows keyed by event type, then sends one KEEPALIVE. Noise on the channel is
// skipped. Frames for event types never declared with FEED_SETUP produce a
// *MissingSchemaError, returned together with the data that did decode.
func (c *Client) Poll(ctx context.Context) (map[string]*SubscriptionData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ChannelOpen || c.conn == nil {
		return nil, ErrNotConnected
	}

	st := c.conn.Stats()
	c.recorder.InboxDepth(st.Count, st.Capacity)

	out := make(map[string]*SubscriptionData)
	missing := make(map[string]struct{})

	for {
		msg, err := c.conn.Receive(ctx, connection.NoWait)
		if errors.Is(err, connection.ErrNoMessage) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("poll: %w", err)
		}
		c.decodeMessage(msg.Data, out, missing)
	}

	if err := c.send(keepalive{Type: msgKeepalive, Channel: 0}); err != nil {
		return out, fmt.Errorf("keepalive: %w", err)
	}

	if len(missing) > 0 {
		types := make([]string, 0, len(missing))
		for t := range missing {
			types = append(types, t)
		}
		sort.Strings(types)
		return out, &MissingSchemaError{EventTypes: types}
	}
	return out, nil
}

// frame is any incoming message; data frames carry a "data" array of
// alternating event type and flat values.
type frame struct {
	Type string            `json:"type"`
	Data []json.RawMessage `json:"data"`
}

func (c *Client) decodeMessage(raw []byte, out map[string]*SubscriptionData, missing map[string]struct{}) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.skip(skipUndecodable, "error", err)
		return
	}
	if f.Data == nil {
		if f.Type == msgError {
			c.logger.Warn("feed error message", "message", string(raw))
		}
		c.skip(skipControl, "type", f.Type)
		return
	}
	if len(f.Data)%2 != 0 {
		c.skip(skipMalformed, "detail", "odd data length")
		return
	}

	for i := 0; i < len(f.Data); i += 2 {
		eventType, ok := c.eventType(f.Data[i])
		if !ok {
			c.skip(skipMalformed, "detail", "event type")
			continue
		}

		var values []Value
		if err := json.Unmarshal(f.Data[i+1], &values); err != nil {
			c.skip(skipMalformed, "event_type", eventType, "error", err)
			continue
		}

		fields, ok := c.schemas.Fields(eventType)
		if !ok {
			missing[eventType] = struct{}{}
			continue
		}
		if len(fields) == 0 || len(values)%len(fields) != 0 {
			c.skip(skipMalformed, "event_type", eventType, "values", len(values), "fields", len(fields))
			continue
		}

		sd := out[eventType]
		if sd == nil {
			sd = &SubscriptionData{EventType: eventType, Fields: fields}
			out[eventType] = sd
		}
		sd.Values = append(sd.Values, values...)
		c.recorder.FrameDecoded(eventType, len(values)/len(fields))
	}
}

// eventType reads the head of a data pair: either "Quote" or the header form
// ["Quote", ["eventSymbol", ...]], which declares the field list.
func (c *Client) eventType(head json.RawMessage) (string, bool) {
	var name string
	if err := json.Unmarshal(head, &name); err == nil {
		return name, name != ""
	}

	var header []json.RawMessage
	if err := json.Unmarshal(head, &header); err != nil || len(header) != 2 {
		return "", false
	}
	var fields []string
	if err := json.Unmarshal(header[0], &name); err != nil || name == "" {
		return "", false
	}
	if err := json.Unmarshal(header[1], &fields); err != nil || len(fields) == 0 {
		return "", false
	}

	if !c.schemas.Negotiate(name, fields) {
		if negotiated, _ := c.schemas.Fields(name); !slices.Equal(negotiated, fields) {
			c.logger.Warn("header field list differs from negotiated schema", "event_type", name)
			return "", false
		}
	}
	return name, true
}

func (c *Client) skip(reason string, args ...any) {
	c.recorder.FrameSkipped(reason)
	c.logger.Debug("skipping frame", append([]any{"reason", reason}, args...)...)
}
