package server

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/JamesMighty/honeywell-task/protocol"
)

// Options configures a file transfer server.
type Options struct {
	// Host is the bind address. Empty binds every IPv4 interface.
	Host string
	// Port is the TCP listening port. Zero picks an ephemeral port.
	Port int
	// BufferSize is the read size for control-mode traffic.
	BufferSize int
	// MaxFileBlockSize caps the chunk size a client may negotiate.
	MaxFileBlockSize int
	// RootDir is the directory all destination paths are rooted under.
	RootDir string
	// Logger receives server and session logs. Defaults to the
	// standard logrus logger.
	Logger *logrus.Logger
}

// NewOptions creates an Options populated with the default configuration.
func NewOptions() *Options {
	return &Options{
		Port:             protocol.DefaultPort,
		BufferSize:       protocol.DefaultControlBufferSize,
		MaxFileBlockSize: protocol.DefaultFileBlockSize,
		RootDir:          ".",
	}
}

// Server accepts file transfer connections and runs one session per
// client until closed.
type Server struct {
	listener net.Listener
	log      *logrus.Logger

	bufferSize int
	maxBlock   int
	rootDir    string

	sessions map[uuid.UUID]*session
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

// New binds the listening socket and starts accepting connections.
func New(options *Options) (*Server, error) {
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

	maxBlock := options.MaxFileBlockSize
	if maxBlock == 0 {
		maxBlock = protocol.DefaultFileBlockSize
	}
	if err := protocol.ValidateBlockSize(maxBlock); err != nil {
		return nil, err
	}

	rootDir := options.RootDir
	if rootDir == "" {
		rootDir = "."
	}

	logger := options.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	listener, err := net.Listen("tcp4", net.JoinHostPort(options.Host, strconv.Itoa(options.Port)))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		listener:   listener,
		log:        logger,
		bufferSize: bufferSize,
		maxBlock:   maxBlock,
		rootDir:    rootDir,
		sessions:   make(map[uuid.UUID]*session),
		ctx:        ctx,
		cancel:     cancel,
	}

	logger.WithFields(logrus.Fields{
		"function":       "New",
		"addr":           listener.Addr().String(),
		"root_dir":       rootDir,
		"buffer_size":    bufferSize,
		"max_block_size": maxBlock,
	}).Info("Server listening")

	go srv.acceptConnections()

	return srv, nil
}

// LocalAddr returns the address the server is listening on.
func (s *Server) LocalAddr() net.Addr {
	return s.listener.Addr()
}

// Close shuts the server down: no new connections are accepted and every
// live session is disconnected.
func (s *Server) Close() error {
	s.cancel()

	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.conn.Close()
	}
	s.mu.Unlock()

	return s.listener.Close()
}

// acceptConnections handles incoming connections until the server closes.
func (s *Server) acceptConnections() {
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				if s.ctx.Err() != nil {
					return
				}
				s.log.WithError(err).Warn("Accept failed")
				continue
			}

			go s.handleConnection(conn)
		}
	}
}

// handleConnection runs one session for its whole lifetime.
func (s *Server) handleConnection(conn net.Conn) {
	sess := newSession(conn, s.rootDir, s.bufferSize, s.maxBlock, s.log)

	s.registerSession(sess)
	defer s.unregisterSession(sess.id)

	sess.log.Info("Accepted connection")
	sess.run()
}

// registerSession adds a session to the live set.
func (s *Server) registerSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

// unregisterSession removes a session from the live set.
func (s *Server) unregisterSession(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// SessionCount reports how many sessions are currently connected.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
