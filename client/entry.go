package client

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// fileEntrySeparator splits a transfer entry into its source and
// destination halves.
const fileEntrySeparator = " -> "

// FileEntry pairs a local source path with the relative destination path
// the server should store it under.
type FileEntry struct {
	Src  string
	Dest string
}

func (e FileEntry) String() string {
	return e.Src + fileEntrySeparator + e.Dest
}

// ParseFileEntry parses a "src -> dest" transfer entry.
func ParseFileEntry(s string) (FileEntry, error) {
	parts := strings.Split(s, fileEntrySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return FileEntry{}, fmt.Errorf("invalid file entry %q: want \"src%sdest\"", s, fileEntrySeparator)
	}
	return FileEntry{Src: parts[0], Dest: parts[1]}, nil
}

// ParseServerEntry parses a "host:port" server entry.
func ParseServerEntry(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, fmt.Errorf("invalid server entry %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid server entry %q: bad port %q", s, portStr)
	}
	return host, port, nil
}

// FileStatus classifies the outcome of one batch entry.
type FileStatus int

const (
	// FileSent marks a transfer the server acknowledged completely.
	FileSent FileStatus = iota
	// FileFailed marks a transfer that started but did not complete.
	FileFailed
	// FileCanceled marks a transfer interrupted by a cancel request.
	FileCanceled
	// FileSkipped marks an entry rejected before any file bytes were
	// sent.
	FileSkipped
)

func (s FileStatus) String() string {
	switch s {
	case FileSent:
		return "SENT"
	case FileFailed:
		return "FAILED"
	case FileCanceled:
		return "CANCELED"
	case FileSkipped:
		return "SKIPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// FileResult records how one batch entry ended.
type FileResult struct {
	Entry  FileEntry
	Status FileStatus
	Result Result
}

func (r FileResult) String() string {
	if detail := r.Result.String(); detail != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Status, r.Entry, detail)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Entry)
}
