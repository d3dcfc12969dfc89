package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		want    FileEntry
		wantErr bool
	}{
		{
			name:  "simple entry",
			entry: "/home/user/report.pdf -> docs/report.pdf",
			want:  FileEntry{Src: "/home/user/report.pdf", Dest: "docs/report.pdf"},
		},
		{
			name:  "windows style source",
			entry: `C:\data\dump.bin -> backups/dump.bin`,
			want:  FileEntry{Src: `C:\data\dump.bin`, Dest: "backups/dump.bin"},
		},
		{name: "missing separator", entry: "/home/user/report.pdf", wantErr: true},
		{name: "empty source", entry: " -> docs/report.pdf", wantErr: true},
		{name: "empty destination", entry: "/home/user/report.pdf -> ", wantErr: true},
		{name: "doubled separator", entry: "a -> b -> c", wantErr: true},
		{name: "empty string", entry: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFileEntry(tt.entry)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.entry, got.String())
		})
	}
}

func TestParseServerEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{name: "address and port", entry: "127.0.0.1:4040", wantHost: "127.0.0.1", wantPort: 4040},
		{name: "hostname and port", entry: "backup-host:9000", wantHost: "backup-host", wantPort: 9000},
		{name: "missing port", entry: "127.0.0.1", wantErr: true},
		{name: "non-numeric port", entry: "127.0.0.1:http", wantErr: true},
		{name: "port zero", entry: "127.0.0.1:0", wantErr: true},
		{name: "port out of range", entry: "127.0.0.1:70000", wantErr: true},
		{name: "empty string", entry: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := ParseServerEntry(tt.entry)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestFileStatusString(t *testing.T) {
	assert.Equal(t, "SENT", FileSent.String())
	assert.Equal(t, "FAILED", FileFailed.String())
	assert.Equal(t, "CANCELED", FileCanceled.String())
	assert.Equal(t, "SKIPPED", FileSkipped.String())
	assert.Equal(t, "UNKNOWN(42)", FileStatus(42).String())
}

func TestFileResultString(t *testing.T) {
	entry := FileEntry{Src: "/tmp/a.txt", Dest: "in/a.txt"}

	ok := FileResult{Entry: entry, Status: FileSent, Result: Result{ServerResponse: "OK"}}
	assert.Equal(t, "SENT: /tmp/a.txt -> in/a.txt (server response: OK)", ok.String())

	skipped := FileResult{Entry: entry, Status: FileSkipped}
	assert.Equal(t, "SKIPPED: /tmp/a.txt -> in/a.txt", skipped.String())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "", Result{}.String())
	assert.Equal(t, "server response: OK", Result{ServerResponse: "OK"}.String())

	full := Result{
		ServerResponse: "ERROR",
		SendErr:        errors.New("broken pipe"),
		ReadErr:        errors.New("timed out"),
	}
	assert.Equal(t, "server response: ERROR, client send: broken pipe, client read: timed out", full.String())
	assert.EqualError(t, full.Err(), "broken pipe")
}
