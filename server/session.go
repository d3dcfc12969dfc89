package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/JamesMighty/honeywell-task/protocol"
)

var (
	// ErrReceivingFile rejects control actions that conflict with an
	// active file transfer.
	ErrReceivingFile = errors.New("currently receiving file")
	// ErrNoFileInfo rejects START_SEND without a preceding SET_META.
	ErrNoFileInfo = errors.New("no file metadata set")
	// ErrNegativeSize rejects file descriptors with a negative size.
	ErrNegativeSize = errors.New("file size cannot be negative")
	// errShortWrite guards the flush loop against a transport that
	// reports progress without moving bytes.
	errShortWrite = errors.New("connection accepted no bytes")
)

// fileState tracks one active or pending file transfer on a session.
type fileState struct {
	path     string
	hash     string
	size     int64
	received int64
}

// session holds all per-connection state. A session is owned by exactly
// one handler goroutine; nothing here needs locking.
type session struct {
	id   uuid.UUID
	conn net.Conn
	log  *logrus.Entry

	root     string
	readSize int
	maxBlock int

	// blockSize is the negotiated read size while receiving a file.
	blockSize int

	inbound  []byte
	outbound []byte
	queue    []*protocol.Action

	info      *fileState
	file      *os.File
	receiving bool

	// pendingCancel withholds a trailing run of cancel bytes from disk
	// until the next read resolves it as file content or as a sentinel
	// split across reads.
	pendingCancel []byte
}

func newSession(conn net.Conn, root string, readSize, maxBlock int, logger *logrus.Logger) *session {
	id := uuid.New()
	return &session{
		id:        id,
		conn:      conn,
		root:      root,
		readSize:  readSize,
		maxBlock:  maxBlock,
		blockSize: maxBlock,
		log: logger.WithFields(logrus.Fields{
			"session_id":  id.String(),
			"remote_addr": conn.RemoteAddr().String(),
		}),
	}
}

// run drives the session until the peer disconnects or the protocol is
// violated. Queued actions always execute before the next read so a
// pipelined client never waits for its own bytes, one action per pass.
func (s *session) run() {
	defer s.teardown()

	for {
		if len(s.queue) > 0 {
			act := s.queue[0]
			s.queue = s.queue[1:]
			s.execute(act)
			if err := s.flush(); err != nil {
				s.logConnError("write", err)
				return
			}
			continue
		}

		size := s.readSize
		if s.receiving {
			size = s.blockSize
		}
		buf := make([]byte, size)
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.log.WithField("bytes", n).Debug("Received data")

			var perr error
			if s.receiving {
				perr = s.receiveFileBytes(buf[:n])
			} else {
				perr = s.processControlBytes(buf[:n])
			}
			if perr != nil {
				s.log.WithError(perr).Error("Session protocol failure")
				return
			}
			if ferr := s.flush(); ferr != nil {
				s.logConnError("write", ferr)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logConnError("read", err)
			}
			return
		}
	}
}

// processControlBytes appends data to the inbound buffer and parses every
// complete frame out of it. Decoded actions join the FIFO queue; frames
// that fail to decode are dropped and answered out of band with an error
// frame, bypassing the queue.
func (s *session) processControlBytes(data []byte) error {
	s.inbound = append(s.inbound, data...)

	for {
		frame, rest, ok := protocol.NextFrame(s.inbound)
		if !ok {
			break
		}
		s.inbound = rest

		act, err := protocol.DecodeAction(frame)
		if err != nil {
			s.log.WithError(err).Warn("Dropping unparsable frame")
			s.respond(protocol.StatusError + ": " + err.Error())
			continue
		}
		s.queue = append(s.queue, act)
	}

	if len(s.inbound) > protocol.MaxControlFrameSize {
		return fmt.Errorf("control frame exceeds %d bytes without a delimiter", protocol.MaxControlFrameSize)
	}
	return nil
}

// execute performs one action and queues its status response. Failures
// answer with the error text and leave the session open.
func (s *session) execute(act *protocol.Action) {
	log := s.log.WithField("action", act.Kind.String())

	switch act.Kind {
	case protocol.ActionEcho:
		text := string(act.Echo)
		log.Info(text)
		s.respond(text)

	case protocol.ActionSetMeta:
		if err := s.setMeta(act.Meta); err != nil {
			log.WithError(err).Warn("Could not set file info")
			s.respond(err.Error())
			return
		}
		log.WithFields(logrus.Fields{
			"dest_path": s.info.path,
			"size":      s.info.size,
			"hash":      s.info.hash,
		}).Info("File info set")
		s.respond(protocol.StatusOK)

	case protocol.ActionStartSend:
		if err := s.startSend(); err != nil {
			log.WithError(err).Warn("Could not prepare to receive file")
			s.respond(err.Error())
			return
		}
		log.Info("Prepared to receive file")
		s.respond(protocol.StatusOK)
		// An empty file has no stream phase; complete it on the spot
		// so the terminal status still arrives.
		if s.info.size == 0 {
			if err := s.finishTransfer(); err != nil {
				log.WithError(err).Error("Could not finalize empty file")
			}
		}

	case protocol.ActionClearFileInfo:
		if s.receiving {
			err := fmt.Errorf("cannot clear file info: %w", ErrReceivingFile)
			log.Warn(err.Error())
			s.respond(err.Error())
			return
		}
		s.info = nil
		log.Info(protocol.StatusOK)
		s.respond(protocol.StatusOK)

	case protocol.ActionSetFileBlockSize:
		if err := protocol.ValidateBlockSize(act.BlockSize); err != nil {
			log.WithError(err).Warn("Could not set file block size")
			s.respond(err.Error())
			return
		}
		s.blockSize = protocol.ClampBlockSize(act.BlockSize, s.maxBlock)
		log.WithField("block_size", s.blockSize).Info("File block size set")
		s.respond(protocol.StatusOK)
	}
}

// setMeta validates and installs a pending file descriptor. A rejected
// descriptor never leaves partial state behind: on any failure outside an
// active transfer the pending descriptor is cleared entirely.
func (s *session) setMeta(meta protocol.FileInfo) error {
	if s.receiving {
		return fmt.Errorf("cannot set file metadata: %w", ErrReceivingFile)
	}

	dest, err := protocol.ResolveDestPath(s.root, meta.DestPath)
	if err != nil {
		s.info = nil
		return err
	}
	if meta.Size < 0 {
		s.info = nil
		return ErrNegativeSize
	}

	s.info = &fileState{
		path: dest,
		hash: meta.Hash,
		size: meta.Size,
	}
	return nil
}

// startSend activates the pending descriptor and opens the destination
// for exclusive write.
func (s *session) startSend() error {
	if s.receiving {
		return fmt.Errorf("cannot start file transmission: %w", ErrReceivingFile)
	}
	if s.info == nil {
		return ErrNoFileInfo
	}

	if _, err := os.Stat(s.info.path); err == nil {
		return fmt.Errorf("file %q already exists", filepath.Base(s.info.path))
	}
	if err := os.MkdirAll(filepath.Dir(s.info.path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.info.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	s.file = f
	s.receiving = true
	return nil
}

// receiveFileBytes routes raw stream bytes into the open destination
// file. The trailing run of cancel bytes in each chunk is withheld from
// disk so a cancellation sentinel split across reads is still honored;
// once enough bytes arrived to satisfy the declared size, completion
// wins and any leftover cancel bytes fall through to the control buffer.
func (s *session) receiveFileBytes(data []byte) error {
	cat := data
	if len(s.pendingCancel) > 0 {
		cat = append(s.pendingCancel, data...)
		s.pendingCancel = nil
	}

	if protocol.EndsWithSentinel(cat) {
		return s.cancelTransfer()
	}

	remaining := s.info.size - s.info.received
	if int64(len(cat)) >= remaining {
		for _, b := range cat[remaining:] {
			if b != protocol.CancelByte {
				return fmt.Errorf("received bytes beyond declared size %d", s.info.size)
			}
		}
		if err := s.writeFileBytes(cat[:remaining]); err != nil {
			return err
		}
		stray := cat[remaining:]
		if err := s.finishTransfer(); err != nil {
			return err
		}
		s.inbound = append(s.inbound, stray...)
		return nil
	}

	withheld := protocol.TrailingCancelBytes(cat)
	if err := s.writeFileBytes(cat[:len(cat)-withheld]); err != nil {
		return err
	}
	if withheld > 0 {
		s.pendingCancel = append([]byte(nil), cat[len(cat)-withheld:]...)
	}
	return nil
}

func (s *session) writeFileBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if s.info.received == 0 {
		s.log.WithField("dest_path", s.info.path).Info("Starting to receive file")
	}
	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", s.info.path, err)
	}
	s.info.received += int64(len(data))
	return nil
}

// finishTransfer closes out a completed transfer and reports "OK".
func (s *session) finishTransfer() error {
	path := s.info.path
	err := s.file.Close()
	s.file = nil
	s.receiving = false
	s.info = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	s.log.WithField("dest_path", path).Info("File successfully received")
	s.respond(protocol.StatusOK)
	return nil
}

// cancelTransfer aborts the active transfer, removes the partial file and
// reports "CANCELED".
func (s *session) cancelTransfer() error {
	path := s.info.path
	s.file.Close()
	s.file = nil
	s.receiving = false
	s.info = nil
	s.pendingCancel = nil

	s.respond(protocol.StatusCanceled)

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove canceled file: %w", err)
	}
	s.log.WithField("dest_path", path).Warn("File transfer canceled, file removed")
	return nil
}

func (s *session) respond(text string) {
	s.outbound = protocol.AppendResponse(s.outbound, text)
}

// flush writes the outbound buffer out, retrying over partial writes.
// Only bytes the transport actually accepted leave the buffer.
func (s *session) flush() error {
	for len(s.outbound) > 0 {
		n, err := s.conn.Write(s.outbound)
		if n > 0 {
			s.outbound = s.outbound[n:]
		}
		if err != nil {
			return err
		}
		if n <= 0 {
			return errShortWrite
		}
	}
	s.outbound = nil
	return nil
}

func (s *session) teardown() {
	s.log.Info("Closing connection")

	if s.file != nil {
		s.log.WithField("dest_path", s.info.path).Warn("File was still open, closing")
		s.file.Close()
		s.file = nil
	}
	s.conn.Close()
}

func (s *session) logConnError(op string, err error) {
	s.log.WithError(err).WithField("op", op).Error("Connection error")
}
