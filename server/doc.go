// Package server implements the receiving side of the file transfer
// protocol.
//
// A Server owns one TCP listener and a registry of live sessions. Each
// accepted connection is served by its own goroutine running a session
// state machine with two states: control mode, where inbound bytes are
// parsed into framed actions and executed one per pass in FIFO order,
// and receiving mode, where inbound bytes stream straight into the
// destination file until the declared size is reached or the
// cancellation sentinel arrives.
//
// Session state is owned exclusively by its handler goroutine; the only
// shared structure is the session registry, guarded by the server mutex.
package server
