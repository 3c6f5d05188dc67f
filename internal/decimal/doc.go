// Package decimal implements the exact fixed-precision amounts carried by the
// brokerage REST API and the quote feed.
//
// Conventions:
//   - At most 4 fractional digits are accepted when parsing ("0.0001" is the smallest step)
//   - Values are exact rationals over a power-of-ten denominator; no float rounding ever happens
//   - String() is canonical: no trailing fractional zeros, no decimal point for integers
package decimal
