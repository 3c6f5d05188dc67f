// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - feed channel state and control messages sent
//   - decoded rows and skipped frames per event type
//   - poll cycle latency and errors
//
// Collector satisfies both streamer.Recorder and poller.Recorder. A nil
// *Collector records nothing.
package metrics
