package capture

import "time"

// Frame is one hardware read of interleaved 16-bit samples. Frames are
// consumed immediately by the segmenter and never retained.
type Frame struct {
	Samples []int16
	At      time.Time
}
