// Package transcode manages external encoder processes.
//
// A Job buffers an upload into a uniquely named scratch file and owns
// cleanup of both its input and output. A Runner executes the encoder
// with bounded concurrency, captures a bounded tail of stderr for error
// reporting, and optionally applies a size guard: if the encoded output
// is no smaller than the input, the original bytes are served instead.
package transcode
