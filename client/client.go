package client

import (
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/JamesMighty/honeywell-task/protocol"
)

var (
	// ErrNotConnected is reported when an operation requires an open
	// connection and none exists.
	ErrNotConnected = errors.New("client not connected")
	// ErrUnsupportedEncoding rejects any wire text encoding other than
	// UTF-8.
	ErrUnsupportedEncoding = errors.New("only the utf-8 encoding is supported")
)

// drainTimeout bounds the opportunistic read for response frames the OS
// already buffered behind the first one.
const drainTimeout = 5 * time.Millisecond

// Options configures a file transfer client.
type Options struct {
	// BufferSize is the read size for response traffic.
	BufferSize int
	// FileBlockSize is the chunk size offered to the server for file
	// streaming.
	FileBlockSize int
	// Encoding names the wire text encoding. Only "utf-8" is accepted.
	Encoding string
	// Logger receives client logs. Defaults to the standard logrus
	// logger.
	Logger *logrus.Logger
}

// NewOptions creates an Options populated with the default configuration.
func NewOptions() *Options {
	return &Options{
		BufferSize:    protocol.DefaultControlBufferSize,
		FileBlockSize: protocol.DefaultFileBlockSize,
		Encoding:      "utf-8",
	}
}

// Result carries the outcome of one protocol operation: the server's
// response text plus any client-side send or read failure. Every
// operation reports through this same contract so callers can render any
// outcome uniformly.
type Result struct {
	ServerResponse string
	SendErr        error
	ReadErr        error
}

// Err returns the client-side failure recorded in the result, if any.
func (r Result) Err() error {
	if r.SendErr != nil {
		return r.SendErr
	}
	return r.ReadErr
}

func (r Result) String() string {
	var parts []string
	if r.ServerResponse != "" {
		parts = append(parts, "server response: "+r.ServerResponse)
	}
	if r.SendErr != nil {
		parts = append(parts, "client send: "+r.SendErr.Error())
	}
	if r.ReadErr != nil {
		parts = append(parts, "client read: "+r.ReadErr.Error())
	}
	return strings.Join(parts, ", ")
}

// Client drives the file transfer protocol over one outbound TCP
// connection. All protocol calls are strictly synchronous: one action
// out, one response consumed. A Client must be used from a single
// goroutine; only the cancellation flags may be flipped concurrently.
type Client struct {
	conn      net.Conn
	connected bool

	bufferSize int
	blockSize  int
	log        *logrus.Logger

	inbound   []byte
	responses []string

	cancelTransfer atomic.Bool
	cancelAll      atomic.Bool

	onProgress func(*TransferProgress)
}

// New creates a client from the given options.
func New(options *Options) (*Client, error) {
	if options == nil {
		options = NewOptions()
	}

	bufferSize := options.BufferSize
	if bufferSize == 0 {
		bufferSize = protocol.DefaultControlBufferSize
	}
	if err := protocol.ValidateBufferSize(bufferSize); err != nil {
		return nil, err
	}

	blockSize := options.FileBlockSize
	if blockSize == 0 {
		blockSize = protocol.DefaultFileBlockSize
	}
	if err := protocol.ValidateBlockSize(blockSize); err != nil {
		return nil, err
	}

	if enc := options.Encoding; enc != "" && !strings.EqualFold(enc, "utf-8") {
		return nil, ErrUnsupportedEncoding
	}

	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		bufferSize: bufferSize,
		blockSize:  blockSize,
		log:        logger,
	}, nil
}

// Connect dials the server. An already connected client disconnects
// first.
func (c *Client) Connect(host string, port int) error {
	if c.connected {
		c.Close()
	}

	conn, err := net.Dial("tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}

	c.conn = conn
	c.connected = true
	c.inbound = nil
	c.responses = nil

	c.log.WithFields(logrus.Fields{
		"function": "Connect",
		"server":   conn.RemoteAddr().String(),
	}).Info("Connected")
	return nil
}

// Close disconnects from the server.
func (c *Client) Close() error {
	if !c.connected {
		return ErrNotConnected
	}

	err := c.conn.Close()
	c.conn = nil
	c.connected = false

	c.log.Debug("Connection closed")
	return err
}

// Connected reports whether a connection is open.
func (c *Client) Connected() bool {
	return c.connected
}

// OnProgress registers a callback invoked after every sent chunk with the
// current transfer progress.
func (c *Client) OnProgress(cb func(*TransferProgress)) {
	c.onProgress = cb
}

// CancelTransfer requests cancellation of the transfer in progress. Safe
// to call from any goroutine; the send loop honors it at the next chunk
// boundary.
func (c *Client) CancelTransfer() {
	c.cancelTransfer.Store(true)
}

// CancelAll requests cancellation of the transfer in progress and of
// every remaining file in the current batch.
func (c *Client) CancelAll() {
	c.cancelAll.Store(true)
}

// sendAction writes one encoded action frame and blocks until its
// response has been read.
func (c *Client) sendAction(kind protocol.ActionKind, payload interface{}, res *Result) bool {
	c.log.WithFields(logrus.Fields{
		"function": "sendAction",
		"action":   kind.String(),
	}).Info("Sending action")

	frame, err := protocol.EncodeFrame(kind, payload)
	if err != nil {
		res.SendErr = err
		return false
	}
	if _, err := c.conn.Write(frame); err != nil {
		res.SendErr = err
		return false
	}
	return c.readResponses(res)
}

// readResponses blocks until at least one complete response frame has
// been parsed, then switches to deadline-bounded reads to drain whatever
// the server already sent, and finally restores blocking mode.
func (c *Client) readResponses(res *Result) bool {
	buf := make([]byte, c.bufferSize)

	for len(c.responses) == 0 {
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.inbound = append(c.inbound, buf[:n]...)
			c.parseResponses()
		}
		if err != nil {
			res.ReadErr = err
			return false
		}
	}

	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(drainTimeout)); err != nil {
			break
		}
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.inbound = append(c.inbound, buf[:n]...)
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				break
			}
			// EOF and friends end the drain; the failure surfaces on
			// the next blocking read.
			break
		}
	}
	c.conn.SetReadDeadline(time.Time{})

	c.parseResponses()
	return true
}

// parseResponses splits complete frames out of the inbound buffer into
// the FIFO response queue.
func (c *Client) parseResponses() {
	for {
		frame, rest, ok := protocol.NextFrame(c.inbound)
		if !ok {
			return
		}
		resp := string(frame)
		c.inbound = rest
		c.responses = append(c.responses, resp)
		c.log.WithField("response", resp).Info("Server response")
	}
}

// popResponse consumes the oldest outstanding response.
func (c *Client) popResponse() (string, bool) {
	if len(c.responses) == 0 {
		return "", false
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, true
}

// SetFileBlockSize announces the client's configured chunk size to the
// server. The server may clamp it; streaming still uses the client's own
// value for chunking.
func (c *Client) SetFileBlockSize() (Result, bool) {
	var res Result
	if !c.connected {
		res.SendErr = ErrNotConnected
		return res, false
	}

	if !c.sendAction(protocol.ActionSetFileBlockSize, c.blockSize, &res) {
		return res, false
	}
	resp, _ := c.popResponse()
	res.ServerResponse = resp
	return res, resp == protocol.StatusOK
}

// TestConnection round-trips a fixed echo payload and verifies the
// server returned it unchanged.
func (c *Client) TestConnection() (Result, bool) {
	var res Result
	if !c.connected {
		res.SendErr = ErrNotConnected
		return res, false
	}

	const echoMsg = "Hello world"
	if !c.sendAction(protocol.ActionEcho, echoMsg, &res) {
		return res, false
	}
	resp, _ := c.popResponse()
	res.ServerResponse = resp

	expected, err := json.Marshal(echoMsg)
	if err != nil {
		res.SendErr = err
		return res, false
	}
	return res, resp == string(expected)
}

// SetFileInfo declares the next file transfer to the server.
func (c *Client) SetFileInfo(info protocol.FileInfo) (Result, bool) {
	var res Result
	if !c.connected {
		res.SendErr = ErrNotConnected
		return res, false
	}

	if !c.sendAction(protocol.ActionSetMeta, info, &res) {
		return res, false
	}
	resp, _ := c.popResponse()
	res.ServerResponse = resp
	return res, resp == protocol.StatusOK
}

// ClearFileInfo discards the declared file transfer on the server.
func (c *Client) ClearFileInfo() (Result, bool) {
	var res Result
	if !c.connected {
		res.SendErr = ErrNotConnected
		return res, false
	}

	if !c.sendAction(protocol.ActionClearFileInfo, nil, &res) {
		return res, false
	}
	resp, _ := c.popResponse()
	res.ServerResponse = resp
	return res, resp == protocol.StatusOK
}
