package protocol

import "bytes"

// Delimiter terminates every control frame and every status response.
// JSON escapes control characters, so 0x17 never occurs raw inside a
// frame body.
const Delimiter byte = 0x17

// CancelByte repeated SentinelSize times forms the cancellation sentinel a
// sender appends to the stream to abort a file transfer in progress.
const (
	CancelByte   byte = 0x18
	SentinelSize      = 4
)

// CancelSentinel is the raw cancellation marker. Treat it as read-only.
var CancelSentinel = []byte{CancelByte, CancelByte, CancelByte, CancelByte}

// Status responses the server sends after handling an action or finishing
// a file transfer. Error responses are free-form text and carry the
// failure description instead of a fixed token.
const (
	StatusOK       = "OK"
	StatusCanceled = "CANCELED"
	StatusError    = "ERROR"
	StatusHashOK   = "HASH_OK"
	StatusHashBad  = "HASH_BAD"
)

// NextFrame splits the first complete frame off buf. It returns the frame
// body without the delimiter, the unconsumed remainder, and whether a
// complete frame was found. The returned slices alias buf.
func NextFrame(buf []byte) (frame, rest []byte, ok bool) {
	i := bytes.IndexByte(buf, Delimiter)
	if i < 0 {
		return nil, buf, false
	}
	return buf[:i], buf[i+1:], true
}

// AppendResponse appends a status response frame, delimiter included, to
// dst and returns the extended slice.
func AppendResponse(dst []byte, status string) []byte {
	dst = append(dst, status...)
	return append(dst, Delimiter)
}

// EndsWithSentinel reports whether buf ends with the full cancellation
// sentinel.
func EndsWithSentinel(buf []byte) bool {
	return bytes.HasSuffix(buf, CancelSentinel)
}

// TrailingCancelBytes returns the length of the run of CancelByte values
// at the end of buf, capped at SentinelSize. A receiver withholds that
// many bytes from disk until the next read resolves whether they belong
// to file content or to a sentinel split across reads.
func TrailingCancelBytes(buf []byte) int {
	n := 0
	for i := len(buf) - 1; i >= 0 && n < SentinelSize; i-- {
		if buf[i] != CancelByte {
			break
		}
		n++
	}
	return n
}
