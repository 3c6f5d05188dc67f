package symbol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rickgao/tastystream/internal/decimal"
	"github.com/rickgao/tastystream/internal/model"
)

const (
	dateLen         = 6
	typeOffset      = 6
	strikeOffset    = 7
	equityStrikeLen = 8
	futuresSuffix   = 2
)

// OptionSymbol is a view over a brokerage option identifier.
type OptionSymbol struct {
	raw string
}

// FromString wraps raw without validating it.
func FromString(raw string) OptionSymbol {
	return OptionSymbol{raw: raw}
}

func (s OptionSymbol) String() string {
	return s.raw
}

// IsFuture reports whether the identifier is a futures-option symbol ("./...").
func (s OptionSymbol) IsFuture() bool {
	return len(s.raw) > 1 && s.raw[1] == '/'
}

func (s OptionSymbol) decodeErr(field string, err error) error {
	return &DecodeError{Symbol: s.raw, Field: field, Err: err}
}

// common returns the portion of the identifier that holds the product code and
// the contract token. Futures symbols lead with the futures contract, which is dropped.
func (s OptionSymbol) common() (string, error) {
	if !s.IsFuture() {
		return s.raw, nil
	}
	_, rest, ok := strings.Cut(s.raw, " ")
	rest = strings.TrimLeft(rest, " ")
	if !ok || rest == "" {
		return "", s.decodeErr("option product", nil)
	}
	return rest, nil
}

// contract returns the "<YYMMDD><C|P><strike>" token.
func (s OptionSymbol) contract() (string, error) {
	common, err := s.common()
	if err != nil {
		return "", err
	}
	fields := strings.Fields(common)
	if len(fields) < 2 {
		return "", s.decodeErr("contract", nil)
	}
	return fields[1], nil
}

// Underlying returns the underlying symbol: "IQ" for equity options, "NG" for
// futures options on ./NGZ0. Weekly roots are mapped through the weekly table.
func (s OptionSymbol) Underlying() (string, error) {
	fields := strings.Fields(s.raw)
	if len(fields) == 0 {
		return "", s.decodeErr("underlying", nil)
	}
	first := fields[0]
	if !s.IsFuture() {
		return Weekly(first), nil
	}
	root := strings.TrimPrefix(first, "./")
	if len(root) <= futuresSuffix {
		return "", s.decodeErr("underlying", nil)
	}
	return root[:len(root)-futuresSuffix], nil
}

// FutureRoot returns the futures root with its leading slash, e.g. "/NG".
func (s OptionSymbol) FutureRoot() (string, error) {
	if !s.IsFuture() {
		return "", s.decodeErr("futures root", errors.New("not a futures option symbol"))
	}
	u, err := s.Underlying()
	if err != nil {
		return "", err
	}
	return "/" + u, nil
}

// Exchange resolves the exchange of a futures-option symbol.
func (s OptionSymbol) Exchange() (string, error) {
	root, err := s.FutureRoot()
	if err != nil {
		return "", err
	}
	ex, ok := Exchange(root)
	if !ok {
		return "", &UnresolvedExchangeError{Symbol: s.raw, Root: root}
	}
	return ex, nil
}

// ExpirationDate decodes the YYMMDD field of an equity option symbol.
func (s OptionSymbol) ExpirationDate() (model.ExpirationDate, error) {
	if s.IsFuture() {
		return model.ExpirationDate{}, ErrNoExpiration
	}
	token, err := s.contract()
	if err != nil {
		return model.ExpirationDate{}, err
	}
	if len(token) < dateLen {
		return model.ExpirationDate{}, s.decodeErr("expiration date", nil)
	}
	d, err := model.ParseExpirationDate("060102", token[:dateLen])
	if err != nil {
		return model.ExpirationDate{}, s.decodeErr("expiration date", err)
	}
	return d, nil
}

// OptionType decodes the C/P character following the date field.
func (s OptionSymbol) OptionType() (model.OptionType, error) {
	token, err := s.contract()
	if err != nil {
		return 0, err
	}
	if len(token) <= typeOffset {
		return 0, s.decodeErr("option type", nil)
	}
	t, err := model.ParseOptionType(token[typeOffset])
	if err != nil {
		return 0, s.decodeErr("option type", err)
	}
	return t, nil
}

// StrikePrice decodes the strike exactly.
func (s OptionSymbol) StrikePrice() (decimal.Decimal, error) {
	token, err := s.contract()
	if err != nil {
		return decimal.Zero, err
	}
	if len(token) <= strikeOffset {
		return decimal.Zero, s.decodeErr("strike price", nil)
	}
	raw := token[strikeOffset:]

	var text string
	if s.IsFuture() {
		intPart, frac, _ := strings.Cut(raw, ".")
		if !isDigits(intPart) || (frac != "" && !isDigits(frac)) {
			return decimal.Zero, s.decodeErr("strike price", fmt.Errorf("invalid strike %q", raw))
		}
		text = intPart
		if frac != "" {
			text += "." + frac
		}
	} else {
		if len(raw) != equityStrikeLen || !isDigits(raw) {
			return decimal.Zero, s.decodeErr("strike price", fmt.Errorf("invalid strike %q", raw))
		}
		text = raw[:5] + "." + raw[5:]
	}

	d, err := decimal.Parse(text)
	if err != nil {
		return decimal.Zero, s.decodeErr("strike price", err)
	}
	return d, nil
}

// futuresProduct returns the option product code with its year digit widened
// to two digits, e.g. "LNEZ0" with contract "201124C4.5" gives "LNEZ20".
func (s OptionSymbol) futuresProduct() (string, error) {
	common, err := s.common()
	if err != nil {
		return "", err
	}
	fields := strings.Fields(common)
	if len(fields) < 2 {
		return "", s.decodeErr("contract", nil)
	}
	code, token := fields[0], fields[1]
	if len(code) < 2 {
		return "", s.decodeErr("option product", nil)
	}
	digit := code[len(code)-1]
	if digit < '0' || digit > '9' {
		return "", s.decodeErr("option product", fmt.Errorf("year digit %q", digit))
	}
	if len(token) < 2 || !isDigits(token[:2]) {
		return "", s.decodeErr("expiration year", nil)
	}
	yy, _ := strconv.Atoi(token[:2])
	year := yy - yy%10 + int(digit-'0')
	if year < yy {
		year += 10
	}
	return fmt.Sprintf("%s%02d", code[:len(code)-1], year%100), nil
}

// QuoteSymbol formats the feed quote symbol:
//
//	equity:  .IQ200918P17.5
//	futures: ./LNEZ20C4.5:XNYM
func (s OptionSymbol) QuoteSymbol() (QuoteSymbol, error) {
	optType, err := s.OptionType()
	if err != nil {
		return "", err
	}
	strike, err := s.StrikePrice()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteByte('.')
	if s.IsFuture() {
		product, err := s.futuresProduct()
		if err != nil {
			return "", err
		}
		exchange, err := s.Exchange()
		if err != nil {
			return "", err
		}
		b.WriteByte('/')
		b.WriteString(product)
		b.WriteString(optType.String())
		b.WriteString(strike.String())
		b.WriteByte(':')
		b.WriteString(exchange)
		return QuoteSymbol(b.String()), nil
	}

	underlying, err := s.Underlying()
	if err != nil {
		return "", err
	}
	token, err := s.contract()
	if err != nil {
		return "", err
	}
	if _, err := s.ExpirationDate(); err != nil {
		return "", err
	}
	b.WriteString(underlying)
	b.WriteString(token[:dateLen])
	b.WriteString(optType.String())
	b.WriteString(strike.String())
	return QuoteSymbol(b.String()), nil
}

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

// -----------------------------------------------------------------------------
// Quote Symbol
// -----------------------------------------------------------------------------

// QuoteSymbol is a feed quote symbol such as ".IQ200918P17.5".
type QuoteSymbol string

func (q QuoteSymbol) String() string {
	return string(q)
}

// MatchesUnderlying reports whether q quotes an option on underlying. The
// character after the underlying must be absent or a digit, so ".IQ..." does
// not match "I".
func (q QuoteSymbol) MatchesUnderlying(underlying string) bool {
	body := strings.TrimPrefix(string(q), ".")
	if underlying == "" || !strings.HasPrefix(body, underlying) {
		return false
	}
	rest := body[len(underlying):]
	return rest == "" || (rest[0] >= '0' && rest[0] <= '9')
}

// -----------------------------------------------------------------------------
// Contract
// -----------------------------------------------------------------------------

// Contract is a fully decoded option symbol.
type Contract struct {
	Symbol     string
	Underlying string
	Future     bool
	Root       string               // futures only
	Exchange   string               // futures only
	Expiration model.ExpirationDate // equity only
	Type       model.OptionType
	Strike     decimal.Decimal
	Quote      QuoteSymbol
}

// Parse decodes every field of raw.
func Parse(raw string) (Contract, error) {
	s := FromString(raw)
	c := Contract{Symbol: raw, Future: s.IsFuture()}

	var err error
	if c.Underlying, err = s.Underlying(); err != nil {
		return Contract{}, err
	}
	if c.Future {
		if c.Root, err = s.FutureRoot(); err != nil {
			return Contract{}, err
		}
		if c.Exchange, err = s.Exchange(); err != nil {
			return Contract{}, err
		}
	} else if c.Expiration, err = s.ExpirationDate(); err != nil {
		return Contract{}, err
	}
	if c.Type, err = s.OptionType(); err != nil {
		return Contract{}, err
	}
	if c.Strike, err = s.StrikePrice(); err != nil {
		return Contract{}, err
	}
	if c.Quote, err = s.QuoteSymbol(); err != nil {
		return Contract{}, err
	}
	return c, nil
}
