// pkg/progress/reader.go - byte progress for streamed downloads.

package progress

import (
	"fmt"
	"io"
	"time"
)

// Func receives progress for a stream. total is -1 when unknown.
type Func func(percent int, read, total int64)

// Reader wraps an io.Reader and reports progress at most every interval,
// plus once when the stream completes.
type Reader struct {
	reader     io.Reader
	total      int64
	read       int64
	report     Func
	lastUpdate time.Time
	interval   time.Duration
	lastPct    int
}

// NewReader creates a progress tracking reader.
func NewReader(r io.Reader, total int64, report Func) *Reader {
	return &Reader{
		reader:   r,
		total:    total,
		report:   report,
		interval: 250 * time.Millisecond,
		lastPct:  -1,
	}
}

// Read implements io.Reader.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.update(false)
	}
	if err == io.EOF {
		pr.update(true)
	}
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (pr *Reader) BytesRead() int64 { return pr.read }

func (pr *Reader) update(done bool) {
	if pr.report == nil {
		return
	}
	now := time.Now()
	if !done && now.Sub(pr.lastUpdate) < pr.interval && (pr.total <= 0 || pr.read < pr.total) {
		return
	}
	pr.lastUpdate = now

	pct := Percent(pr.read, pr.total)
	if done && pr.total <= 0 {
		pct = 100
	}
	if pct == pr.lastPct {
		return
	}
	pr.lastPct = pct
	pr.report(pct, pr.read, pr.total)
}

// Percent returns read/total as 0..100. Unknown totals give 0.
func Percent(read, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := int(read * 100 / total)
	if pct > 100 {
		return 100
	}
	return pct
}

// FormatBytes formats byte counts in human readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
