// Package model defines value types shared by the symbol codec, the streamer and the REST layer.
//
// Conventions:
//   - Option types render as the single feed character ("C"/"P") and as "Call"/"Put" in JSON
//   - Expiration dates are calendar dates with no time zone or time of day
//   - Money and strike amounts use internal/decimal, never float64
package model
