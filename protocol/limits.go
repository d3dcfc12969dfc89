package protocol

import "fmt"

// Shared size limits and defaults for both endpoints.
const (
	// DefaultPort is the TCP port the server listens on when none is
	// given.
	DefaultPort = 4040

	// DefaultControlBufferSize is the read size used while a session is
	// in control mode.
	DefaultControlBufferSize = 1024

	// DefaultFileBlockSize is the chunk size for file streaming before
	// any negotiation, on both endpoints.
	DefaultFileBlockSize = 1024*64 - 1

	// MaxControlFrameSize caps how many bytes may accumulate without a
	// delimiter before the peer is considered broken. Control frames
	// are small JSON objects; anything near this limit is not a frame.
	MaxControlFrameSize = 1024 * 64
)

// ClampBlockSize resolves a block size negotiation: the requested size is
// honored up to the receiver's maximum.
func ClampBlockSize(requested, max int) int {
	if requested > max {
		return max
	}
	return requested
}

// ValidateBlockSize rejects block sizes that cannot move any data.
func ValidateBlockSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("file block size must be positive, got %d", size)
	}
	return nil
}

// ValidateBufferSize rejects control buffer sizes that cannot hold a
// delimiter byte.
func ValidateBufferSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", size)
	}
	return nil
}
