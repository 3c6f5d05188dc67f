package decimal

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	sdec "github.com/shopspring/decimal"
)

// Scale is the number of fractional digits a parsed Decimal may carry.
const Scale = 4

var scaleFactor = big.NewInt(10000)

// ErrInvalid is wrapped by every ParseError.
var ErrInvalid = errors.New("invalid decimal")

// ParseError reports the part of the input that could not be decoded.
type ParseError struct {
	Input string // Full input as given to Parse
	Part  string // "integer", "fraction" or "scale"
	Value string // Offending substring
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse decimal %q: invalid %s %q", e.Input, e.Part, e.Value)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalid
}

// Decimal is an immutable exact amount. The zero value is 0.
type Decimal struct {
	v sdec.Decimal
}

// Zero is the zero amount.
var Zero = Decimal{}

// Parse decodes strings such as "12,345.4321", "-9.12" or "40".
func Parse(s string) (Decimal, error) {
	cleaned := strings.ReplaceAll(s, ",", "")
	intPart, fracPart, point := strings.Cut(cleaned, ".")

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return Decimal{}, &ParseError{Input: s, Part: "integer", Value: intPart}
	}

	if point && (len(fracPart) > Scale || !isDigits(fracPart)) {
		return Decimal{}, &ParseError{Input: s, Part: "fraction", Value: fracPart}
	}
	frac, _ := strconv.ParseInt((fracPart + "0000")[:Scale], 10, 64)

	num := new(big.Int).Abs(whole)
	num.Mul(num, scaleFactor)
	num.Add(num, big.NewInt(frac))
	if strings.HasPrefix(cleaned, "-") {
		num.Neg(num)
	}

	return Decimal{v: sdec.NewFromBigInt(num, -Scale)}, nil
}

// MustParse is Parse for constants; it panics on malformed input.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewFromInt returns the integral amount n.
func NewFromInt(n int64) Decimal {
	return Decimal{v: sdec.NewFromInt(n)}
}

// NewFromFloat rounds f half-even to Scale fractional digits. It reports
// false for NaN and infinities.
func NewFromFloat(f float64) (Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{}, false
	}
	return Decimal{v: sdec.NewFromFloat(f).RoundBank(Scale)}, true
}

// New returns unscaled / 10^scale. Scale must be between 0 and Scale.
func New(unscaled int64, scale int32) (Decimal, error) {
	if scale < 0 || scale > Scale {
		return Decimal{}, &ParseError{
			Input: strconv.FormatInt(unscaled, 10),
			Part:  "scale",
			Value: strconv.Itoa(int(scale)),
		}
	}
	return Decimal{v: sdec.New(unscaled, -scale)}, nil
}

// String renders the canonical form: "-9.12", "17.5", "40".
func (d Decimal) String() string {
	abs := d.v.Abs()
	whole := abs.Truncate(0)
	frac := abs.Sub(whole).Shift(Scale).IntPart()

	var b strings.Builder
	if d.v.Sign() < 0 {
		b.WriteByte('-')
	}
	b.WriteString(whole.BigInt().String())
	if digits := strings.TrimRight(fmt.Sprintf("%04d", frac), "0"); digits != "" {
		b.WriteByte('.')
		b.WriteString(digits)
	}
	return b.String()
}

// Rat returns the exact value as a rational in lowest terms.
func (d Decimal) Rat() *big.Rat {
	return d.v.Rat()
}

// Float64 returns the nearest float and whether the conversion was exact.
func (d Decimal) Float64() (float64, bool) {
	return d.v.Float64()
}

func (d Decimal) Abs() Decimal            { return Decimal{v: d.v.Abs()} }
func (d Decimal) Neg() Decimal            { return Decimal{v: d.v.Neg()} }
func (d Decimal) Add(o Decimal) Decimal   { return Decimal{v: d.v.Add(o.v)} }
func (d Decimal) Sub(o Decimal) Decimal   { return Decimal{v: d.v.Sub(o.v)} }
func (d Decimal) MulInt(n int64) Decimal  { return Decimal{v: d.v.Mul(sdec.NewFromInt(n))} }
func (d Decimal) Cmp(o Decimal) int       { return d.v.Cmp(o.v) }
func (d Decimal) Equal(o Decimal) bool    { return d.v.Equal(o.v) }
func (d Decimal) Sign() int               { return d.v.Sign() }
func (d Decimal) IsZero() bool            { return d.v.IsZero() }
func (d Decimal) IsInteger() bool         { return d.v.IsInteger() }
func (d Decimal) LessThan(o Decimal) bool { return d.v.LessThan(o.v) }

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
