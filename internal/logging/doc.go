// Package logging provides structured logging for revtree.
//
// # Creating a Logger
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stderr",
//	})
//
// NewWriter targets any io.Writer, NewDefault logs text at info level to
// stderr, and NewNop discards everything. Library packages take a Logger in
// their options and default to NewNop.
//
// # Structured Logging
//
// Messages carry key-value pairs:
//
//	logger.Debug("page loaded", "ref", ref.Short(), "bytes", len(data))
//
// Text output keeps pairs in the order given:
//
//	2026-02-18T10:30:00Z [debug] resolver: page loaded ref=3fa1c09e2b7d bytes=1834
//
// # Components
//
// Named tags entries with a component; nesting joins names with a dot.
// WithFields attaches pairs to every entry of the returned logger:
//
//	trxLog := logger.Named("trx").WithFields("trx", id, "revision", rev)
//
// Child loggers share the parent's writer and lock.
package logging
