package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Option Type
// -----------------------------------------------------------------------------

// OptionType is the right an option contract carries.
type OptionType int

const (
	Call OptionType = iota + 1
	Put
)

// ParseOptionType decodes the single feed character 'C' or 'P'.
func ParseOptionType(c byte) (OptionType, error) {
	switch c {
	case 'C':
		return Call, nil
	case 'P':
		return Put, nil
	default:
		return 0, fmt.Errorf("unknown option type %q", c)
	}
}

// String returns "C" or "P".
func (t OptionType) String() string {
	switch t {
	case Call:
		return "C"
	case Put:
		return "P"
	default:
		return "?"
	}
}

// Name returns "Call" or "Put".
func (t OptionType) Name() string {
	switch t {
	case Call:
		return "Call"
	case Put:
		return "Put"
	default:
		return "Unknown"
	}
}

func (t OptionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Name())
}

func (t *OptionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Call", "C":
		*t = Call
	case "Put", "P":
		*t = Put
	default:
		return fmt.Errorf("unknown option type %q", s)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Expiration Date
// -----------------------------------------------------------------------------

// DateLayout is the text form of an ExpirationDate.
const DateLayout = "2006-01-02"

// ExpirationDate is a calendar date with no time component.
type ExpirationDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewExpirationDate builds a date; it does not normalise out-of-range days.
func NewExpirationDate(year int, month time.Month, day int) ExpirationDate {
	return ExpirationDate{Year: year, Month: month, Day: day}
}

// ParseExpirationDate decodes s using layout (e.g. DateLayout or "060102").
func ParseExpirationDate(layout, s string) (ExpirationDate, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return ExpirationDate{}, err
	}
	return ExpirationDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Time returns midnight UTC of the date.
func (d ExpirationDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (d ExpirationDate) IsZero() bool {
	return d == ExpirationDate{}
}

// Before reports whether d is strictly earlier than o.
func (d ExpirationDate) Before(o ExpirationDate) bool {
	return d.Time().Before(o.Time())
}

func (d ExpirationDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d ExpirationDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *ExpirationDate) UnmarshalText(text []byte) error {
	parsed, err := ParseExpirationDate(DateLayout, string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
