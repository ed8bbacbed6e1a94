// Package progress reports byte-rate progress for long-running pack/unpack
// operations. It is adapted from the original ticker-based design but
// instanced rather than global: each Tracker owns its own counters and
// goroutine, so multiple archive operations can report progress
// independently and concurrently.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Tracker periodically logs bytes-processed-of-total at 250ms resolution,
// throttled to at most one line per second (or every 10% of progress,
// whichever comes first).
type Tracker struct {
	processed atomic.Uint64
	total     uint64
	log       zerolog.Logger
	done      chan struct{}
}

// New starts a Tracker reporting against total bytes (0 is treated as
// "unknown total"; percentages are omitted in that case). Call Stop when
// the operation finishes to emit a final summary line and release the
// background goroutine.
func New(log zerolog.Logger, total uint64) *Tracker {
	t := &Tracker{total: total, log: log, done: make(chan struct{})}
	go t.run()
	return t
}

// Add records n additional bytes processed.
func (t *Tracker) Add(n uint64) {
	if n > 0 {
		t.processed.Add(n)
	}
}

// Stop ends progress reporting and signals the background goroutine to log
// a final summary; it returns without waiting for that line to be written.
// Calling Stop again after it has returned is a no-op, and a nil Tracker's
// Stop is a no-op, so callers can unconditionally `defer tracker.Stop()`
// even when no tracker was configured.
func (t *Tracker) Stop() {
	if t == nil {
		return
	}
	select {
	case <-t.done:
		return
	default:
		close(t.done)
	}
}

func (t *Tracker) run() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	var prevBytes uint64
	var prevPct float64
	lastLog := start

	for {
		select {
		case <-ticker.C:
			cur := t.processed.Load()
			rate := (cur - prevBytes) * 4 // bytes/sec at a 250ms sample interval
			prevBytes = cur

			pct := -1.0
			if t.total > 0 {
				pct = float64(cur) / float64(t.total) * 100
			}

			sinceLog := time.Since(lastLog)
			pctJump := pct - prevPct
			milestone := pct >= 100 && prevPct < 100
			if sinceLog >= time.Second || pctJump >= 10 || milestone {
				lastLog = time.Now()
				ev := t.log.Info().
					Str("processed", formatSize(cur)).
					Str("rate", formatRate(rate))
				if pct >= 0 {
					ev = ev.Str("total", formatSize(t.total)).Float64("percent", pct)
				}
				ev.Msg("progress")
				prevPct = pct
			}
		case <-t.done:
			elapsed := time.Since(start).Seconds()
			cur := t.processed.Load()
			var avgRate uint64
			if elapsed > 0 {
				avgRate = uint64(float64(cur) / elapsed)
			}
			t.log.Info().
				Str("processed", formatSize(cur)).
				Str("avg_rate", formatRate(avgRate)).
				Float64("seconds", elapsed).
				Msg("progress complete")
			return
		}
	}
}

// Writer wraps an io.Writer, reporting every successful write to a
// Tracker. A nil Tracker makes Writer a pure passthrough.
type Writer struct {
	W       io.Writer
	Tracker *Tracker
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.W.Write(p)
	if err == nil && n > 0 && w.Tracker != nil {
		w.Tracker.Add(uint64(n))
	}
	return n, err
}

func formatSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatRate(bytesPerSec uint64) string {
	return formatSize(bytesPerSec) + "/s"
}
