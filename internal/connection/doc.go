// Package connection implements the WebSocket transport under the feed client.
//
// The transport:
//   - Dials one WebSocket per Client and tags it with a uuid for log correlation
//   - Serialises writes and applies a write deadline per frame
//   - Runs a single reader goroutine that fills a growable inbox
//   - Exposes one read operation, Receive, parameterised by how long to wait
//     (NoWait drains, WaitForever blocks until a message or ctx cancellation)
package connection
