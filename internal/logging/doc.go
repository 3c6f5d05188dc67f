// Package logging builds the process *slog.Logger on top of zap.
//
// Production mode writes JSON, development mode writes colored console
// output. Library packages only ever see *slog.Logger.
package logging
