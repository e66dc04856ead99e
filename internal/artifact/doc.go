// Package artifact spools finalized track buffers to WAV files with explicit
// ownership semantics: the handle returned by Spool is consumed exactly once
// via Release, which deletes the backing file on every recognition exit path.
package artifact
