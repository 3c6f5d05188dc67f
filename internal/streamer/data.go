package streamer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rickgao/tastystream/internal/decimal"
	"github.com/rickgao/tastystream/internal/schema"
)

// Value is one raw feed value. The string "NaN" (and null) mean absent.
type Value json.RawMessage

var nanLiteral = []byte(`"NaN"`)

// IsAbsent reports whether the feed sent no value.
func (v Value) IsAbsent() bool {
	t := bytes.TrimSpace(v)
	return len(t) == 0 || bytes.Equal(t, nanLiteral) || bytes.Equal(t, []byte("null"))
}

func (v Value) isString() bool {
	t := bytes.TrimSpace(v)
	return len(t) > 0 && t[0] == '"'
}

// String returns the value text, unquoted when the feed sent a JSON string.
func (v Value) String() string {
	if v.isString() {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(bytes.TrimSpace(v))
}

// Decimal decodes the value exactly. ok is false when the value is absent.
func (v Value) Decimal() (d decimal.Decimal, ok bool, err error) {
	if v.IsAbsent() {
		return decimal.Zero, false, nil
	}
	d, err = decimal.Parse(v.String())
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// Float64 decodes the value as a float. ok is false when the value is absent
// or not numeric.
func (v Value) Float64() (float64, bool) {
	if v.IsAbsent() {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MarshalJSON returns the raw value unchanged.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

// UnmarshalJSON keeps a copy of the raw value.
func (v *Value) UnmarshalJSON(data []byte) error {
	if v == nil {
		return errors.New("streamer.Value: UnmarshalJSON on nil pointer")
	}
	*v = append((*v)[0:0], data...)
	return nil
}

// SubscriptionData holds the rows received for one event type in one Poll.
// Values is flat: row i occupies Values[i*len(Fields) : (i+1)*len(Fields)].
type SubscriptionData struct {
	EventType string
	Fields    []string
	Values    []Value
}

// Rows returns the number of complete rows.
func (d *SubscriptionData) Rows() int {
	if len(d.Fields) == 0 {
		return 0
	}
	return len(d.Values) / len(d.Fields)
}

// FieldIndex returns the column position of name.
func (d *SubscriptionData) FieldIndex(name string) (int, error) {
	for i, f := range d.Fields {
		if f == name {
			return i, nil
		}
	}
	return 0, &schema.NotFoundError{EventType: d.EventType, Field: name, Err: schema.ErrUnknownField}
}

// Row returns row i, or nil when out of range.
func (d *SubscriptionData) Row(i int) []Value {
	n := len(d.Fields)
	if i < 0 || i >= d.Rows() {
		return nil
	}
	return d.Values[i*n : (i+1)*n]
}

// Column returns every row's value for field name.
func (d *SubscriptionData) Column(name string) ([]Value, error) {
	idx, err := d.FieldIndex(name)
	if err != nil {
		return nil, err
	}
	rows := d.Rows()
	out := make([]Value, rows)
	for i := 0; i < rows; i++ {
		out[i] = d.Values[i*len(d.Fields)+idx]
	}
	return out, nil
}

// Price is a symbol with a decoded price.
type Price struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Prices pairs eventSymbol with priceField for every row. Absent prices are
// skipped. Prices with more fractional digits than the decimal scale are
// rounded to it.
func (d *SubscriptionData) Prices(priceField string) ([]Price, error) {
	symIdx, err := d.FieldIndex("eventSymbol")
	if err != nil {
		return nil, err
	}
	priceIdx, err := d.FieldIndex(priceField)
	if err != nil {
		return nil, err
	}

	var out []Price
	for i := 0; i < d.Rows(); i++ {
		row := d.Row(i)
		v := row[priceIdx]
		if v.IsAbsent() {
			continue
		}
		p, ok, err := v.Decimal()
		if err != nil {
			f, fok := v.Float64()
			if !fok {
				return nil, err
			}
			if p, ok = decimal.NewFromFloat(f); !ok {
				continue
			}
		}
		if !ok {
			continue
		}
		out = append(out, Price{Symbol: row[symIdx].String(), Price: p})
	}
	return out, nil
}
