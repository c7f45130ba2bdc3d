// Package streaming provides a timeout-protected response writer used to
// deliver transcoded video bytes to HTTP clients.
//
// Transcode outputs can be large, and a slow or disconnected client must
// never pin server resources indefinitely. Writer enforces a per-write
// timeout, an overall idle timeout, and cancels immediately when the
// request context reports the client is gone. Data is written in flushed
// chunks so delivery begins before the full output is read.
package streaming
