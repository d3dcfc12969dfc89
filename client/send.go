package client

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/JamesMighty/honeywell-task/protocol"
)

// SendFile streams the file at srcPath to the server. The transfer must
// already have been declared with SetFileInfo using the same size. A nil
// progress is allowed; otherwise it is updated after every chunk and
// forwarded to the registered progress callback.
//
// The returned flag is true only when the server acknowledged the
// complete file with OK. A cancellation surfaces as CANCELED in the
// result's ServerResponse.
func (c *Client) SendFile(srcPath string, size int64, progress *TransferProgress) (Result, bool) {
	var res Result
	if !c.connected {
		res.SendErr = ErrNotConnected
		return res, false
	}

	f, err := os.Open(srcPath)
	if err != nil {
		res.SendErr = err
		return res, false
	}
	defer f.Close()

	if !c.sendAction(protocol.ActionStartSend, nil, &res) {
		return res, false
	}
	resp, _ := c.popResponse()
	if resp != protocol.StatusOK {
		res.ServerResponse = resp
		return res, false
	}

	if progress != nil {
		progress.FileSize = size
		progress.SizeSent = 0
		progress.StartTime = progress.clock()
	}

	var sent int64
	for sent != size {
		if c.cancelTransfer.Load() || c.cancelAll.Load() {
			c.log.WithFields(logrus.Fields{
				"function": "SendFile",
				"file":     srcPath,
			}).Warning("Canceling file transfer")
			if _, err := c.conn.Write(protocol.CancelSentinel); err != nil {
				res.SendErr = err
				return res, false
			}
			c.cancelTransfer.Store(false)
			break
		}

		chunk := int64(c.blockSize)
		if remaining := size - sent; remaining < chunk {
			chunk = remaining
		}

		n, err := io.CopyN(c.conn, f, chunk)
		sent += n
		if progress != nil {
			progress.SizeSent = sent
			if c.onProgress != nil {
				c.onProgress(progress)
			}
		}
		if err != nil {
			res.SendErr = fmt.Errorf("sending %s: %w", srcPath, err)
			return res, false
		}
	}

	if progress != nil {
		progress.CurrentFileCount++
	}

	if !c.readResponses(&res) {
		return res, false
	}
	resp, _ = c.popResponse()
	res.ServerResponse = resp
	return res, resp == protocol.StatusOK
}

// SendFiles connects to the server and transfers every entry in order.
// The connection is closed when the batch ends. Entries that fail before
// streaming starts are skipped; a failed or canceled transfer does not
// stop the batch, but a pending cancel-all request does. The onFile
// callback, when non-nil, observes each entry's outcome as it happens.
func (c *Client) SendFiles(host string, port int, entries []FileEntry, onFile func(FileResult)) ([]FileResult, error) {
	log := c.log.WithFields(logrus.Fields{
		"function": "SendFiles",
		"server":   net.JoinHostPort(host, strconv.Itoa(port)),
	})

	defer func() {
		c.cancelTransfer.Store(false)
		c.cancelAll.Store(false)
	}()

	if err := c.Connect(host, port); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", net.JoinHostPort(host, strconv.Itoa(port)), err)
	}
	defer c.Close()

	if res, ok := c.SetFileBlockSize(); !ok {
		log.WithField("result", res.String()).Warning("Could not set file block size, continuing with server default")
	}

	progress := NewTransferProgress(len(entries))
	results := make([]FileResult, 0, len(entries))
	report := func(r FileResult) {
		results = append(results, r)
		if onFile != nil {
			onFile(r)
		}
	}

	for _, entry := range entries {
		if c.cancelAll.Load() {
			log.Warning("Canceling all remaining transfers")
			break
		}

		info, err := os.Stat(entry.Src)
		if err != nil {
			log.WithError(err).WithField("file", entry.Src).Error("Cannot stat source file")
			report(FileResult{Entry: entry, Status: FileSkipped, Result: Result{SendErr: err}})
			continue
		}
		if info.IsDir() {
			err := fmt.Errorf("%s is a directory", entry.Src)
			log.WithField("file", entry.Src).Error("Source is a directory")
			report(FileResult{Entry: entry, Status: FileSkipped, Result: Result{SendErr: err}})
			continue
		}

		progress.CurrentFile = entry.Src

		hash, err := FileHash(entry.Src)
		if err != nil {
			log.WithError(err).WithField("file", entry.Src).Error("Cannot hash source file")
			report(FileResult{Entry: entry, Status: FileSkipped, Result: Result{SendErr: err}})
			continue
		}

		res, ok := c.SetFileInfo(protocol.FileInfo{
			DestPath: entry.Dest,
			Hash:     hash,
			Size:     info.Size(),
		})
		if !ok {
			log.WithFields(logrus.Fields{
				"file":   entry.Src,
				"result": res.String(),
			}).Error("Server rejected file metadata")
			report(FileResult{Entry: entry, Status: FileSkipped, Result: res})
			continue
		}

		res, ok = c.SendFile(entry.Src, info.Size(), progress)
		status := FileSent
		switch {
		case res.ServerResponse == protocol.StatusCanceled:
			status = FileCanceled
			log.WithField("file", entry.Src).Warning("File transfer canceled")
		case !ok:
			status = FileFailed
			log.WithFields(logrus.Fields{
				"file":   entry.Src,
				"result": res.String(),
			}).Error("File transfer failed")
		default:
			log.WithFields(logrus.Fields{
				"file": entry.Src,
				"dest": entry.Dest,
			}).Info("File transferred")
		}
		report(FileResult{Entry: entry, Status: status, Result: res})
	}

	return results, nil
}
