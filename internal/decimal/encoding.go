package decimal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	sdec "github.com/shopspring/decimal"
)

// MarshalJSON encodes the canonical string form, e.g. "17.5".
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a JSON string ("1,234.5") or a JSON integer (1234).
// The API reports quantities both ways depending on the endpoint.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode decimal string: %w", err)
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	n, ok := new(big.Int).SetString(string(data), 10)
	if !ok {
		return &ParseError{Input: string(data), Part: "integer", Value: string(data)}
	}
	*d = Decimal{v: sdec.NewFromBigInt(n, 0)}
	return nil
}

// MarshalText implements encoding.TextMarshaler (used by yaml and map keys).
func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Decimal) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
