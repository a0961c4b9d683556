package download

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Sink receives progress updates during a download. total is -1 when the
// server did not report a length.
type Sink func(downloaded, total int64, message string)

// progressStride is how many bytes must accumulate between sink calls.
// Model downloads run to tens of gigabytes; reporting every read would
// hammer the state file.
const progressStride int64 = 10 * 1024 * 1024

type tracker struct {
	sink       Sink
	total      int64
	downloaded int64
	lastReport int64
}

func newTracker(sink Sink, offset, total int64) *tracker {
	return &tracker{sink: sink, total: total, downloaded: offset, lastReport: offset}
}

func (t *tracker) advance(n int64) {
	t.downloaded += n
	if t.downloaded-t.lastReport >= progressStride {
		t.report()
	}
}

// finish emits a final update regardless of the stride.
func (t *tracker) finish() {
	t.report()
}

func (t *tracker) report() {
	if t.sink == nil {
		return
	}
	var message string
	if t.total > 0 {
		message = fmt.Sprintf("Downloaded %s of %s",
			humanize.IBytes(uint64(t.downloaded)), humanize.IBytes(uint64(t.total)))
	} else {
		message = fmt.Sprintf("Downloaded %s", humanize.IBytes(uint64(t.downloaded)))
	}
	t.sink(t.downloaded, t.total, message)
	t.lastReport = t.downloaded
}
