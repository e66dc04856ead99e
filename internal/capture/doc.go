// Package capture implements the real-time audio segmentation front end.
//
// A dedicated goroutine blocks on device reads and feeds fixed-size PCM
// frames into the Segmenter, which classifies each frame by normalized RMS
// loudness and maintains the silence/music boundary state machine. Finalized
// recordings are spooled to artifacts and handed to a TrackSink that must
// return immediately; the capture loop never blocks on network or
// recognition work.
//
// Error handling follows the pipeline taxonomy: a device that cannot be
// opened aborts startup, while individual read failures are logged and
// retried after a short pause without touching segmenter state.
package capture
