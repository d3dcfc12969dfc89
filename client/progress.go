package client

import (
	"fmt"
	"time"
)

// TransferProgress tracks one batch of file transfers for display. One
// instance is shared across a batch; StartTime and the size fields reset
// per file, the counters span the whole batch.
type TransferProgress struct {
	CurrentFile string

	FileSize int64
	SizeSent int64

	StartTime time.Time

	CurrentFileCount int
	FileCount        int

	// now overrides the clock in tests.
	now func() time.Time
}

// NewTransferProgress creates the progress state for a batch of fileCount
// files.
func NewTransferProgress(fileCount int) *TransferProgress {
	return &TransferProgress{FileCount: fileCount}
}

func (p *TransferProgress) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// HumanReadableSize renders a byte count with binary unit prefixes.
func HumanReadableSize(size float64, decimals int) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.*f %s", decimals, size, units[i])
}

// String renders a one-line status: file counters, name, sizes, elapsed
// and projected time, and throughput. Speed and the projection need a
// couple of seconds of samples before they mean anything, so both stay
// "N/A" until more than two seconds have elapsed.
func (p *TransferProgress) String() string {
	elapsed := p.clock().Sub(p.StartTime)

	speedStr := "N/A B/s"
	etaStr := "N/A"
	if elapsed > 2*time.Second {
		speed := float64(p.SizeSent) / elapsed.Seconds()
		if speed > 0 {
			speedStr = HumanReadableSize(speed, 0) + "/s"
			eta := time.Duration(float64(p.FileSize-p.SizeSent) / speed * float64(time.Second))
			etaStr = eta.Truncate(time.Second).String()
		}
	}

	return fmt.Sprintf("(%d/%d) files - %s [%s/%s, %s/%s, %s]",
		p.CurrentFileCount, p.FileCount, p.CurrentFile,
		HumanReadableSize(float64(p.SizeSent), 2),
		HumanReadableSize(float64(p.FileSize), 2),
		elapsed.Truncate(time.Second), etaStr, speedStr)
}
