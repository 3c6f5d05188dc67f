// Package api provides the brokerage REST client used to obtain streaming credentials.
//
// Endpoints:
//   - POST /sessions: credential login, optional one-time password header
//   - GET /api-quote-tokens: quote streamer token and dxLink URL
//
// Production base URL: https://api.tastyworks.com
//
// Responses share the envelope {"data": ..., "error": {...}, "context": ...}.
// Account numbers in request URLs are masked in every returned error.
package api
