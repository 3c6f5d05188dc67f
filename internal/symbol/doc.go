// Package symbol decodes brokerage option identifiers and formats feed quote symbols.
//
// Two identifier shapes are supported:
//   - Equity/index options: "IQ    200918P00017500" (OCC layout, strike in thousandths)
//   - Futures options: "./NGZ0 LNEZ0 201124C4.5" (variable-width strike, exchange-suffixed quote symbol)
//
// OptionSymbol is a read-only view; every accessor recomputes from the raw string and
// returns a typed error when a fixed-position field is missing or malformed.
package symbol
