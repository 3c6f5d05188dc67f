// Package poller drives a feed client's Poll on a fixed interval.
//
// The Poller:
//   - Calls Source.Poll immediately on start and then every Interval
//   - Hands non-empty results to a Handler from the same goroutine
//   - Logs and counts poll errors without stopping; a missing-schema error
//     still delivers the data that decoded
package poller
