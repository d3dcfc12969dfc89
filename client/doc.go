// Package client implements the sending side of the file transfer
// protocol.
//
// A Client holds one outbound TCP connection and drives it strictly
// synchronously: each operation sends a single action frame and consumes
// exactly one response from a FIFO queue of parsed frames. File payloads
// are streamed in fixed-size chunks between the start acknowledgement
// and the terminal status.
//
// Transfers can be interrupted from another goroutine through
// CancelTransfer and CancelAll; the send loop reacts at the next chunk
// boundary by emitting the cancel sentinel. SendFiles strings the
// individual operations together into the full batch workflow: connect,
// announce the block size, then declare and stream every entry while
// reporting per-file outcomes.
package client
