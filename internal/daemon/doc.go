// Package daemon hosts the long-running stylus process: the capture loop,
// the scrobble retry flusher, and a udev hotplug monitor for the sound
// subsystem. A file lock under the log directory enforces a single instance
// per machine.
package daemon
