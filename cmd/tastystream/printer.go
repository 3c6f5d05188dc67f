package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/rickgao/tastystream/internal/poller"
	"github.com/rickgao/tastystream/internal/streamer"
)

// printer writes one JSON object per row.
type printer struct {
	mu         sync.Mutex
	enc        *json.Encoder
	priceField string
	logger     *slog.Logger
}

func newPrinter(w io.Writer, priceField string, logger *slog.Logger) poller.Handler {
	return &printer{enc: json.NewEncoder(w), priceField: priceField, logger: logger}
}

type priceLine struct {
	EventType string         `json:"event_type"`
	Price     streamer.Price `json:"price"`
}

func (p *printer) HandleData(data map[string]*streamer.SubscriptionData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]string, 0, len(data))
	for t := range data {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		d := data[t]
		if p.priceField != "" {
			if err := p.printPrices(t, d); err != nil {
				return err
			}
			continue
		}
		for i := 0; i < d.Rows(); i++ {
			row := make(map[string]any, len(d.Fields)+1)
			row["event_type"] = t
			for j, v := range d.Row(i) {
				if v.IsAbsent() {
					row[d.Fields[j]] = nil
				} else {
					row[d.Fields[j]] = v
				}
			}
			if err := p.enc.Encode(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *printer) printPrices(eventType string, d *streamer.SubscriptionData) error {
	prices, err := d.Prices(p.priceField)
	if err != nil {
		p.logger.Debug("no price column", "event_type", eventType, "error", err)
		return nil
	}
	for _, pr := range prices {
		if err := p.enc.Encode(priceLine{EventType: eventType, Price: pr}); err != nil {
			return err
		}
	}
	return nil
}
