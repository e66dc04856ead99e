// Command stylus is the management CLI for the stylus vinyl scrobbler. It
// inspects the scrobble history and retry queue, validates configuration,
// and exercises the capture device, scrobble backend, and notification
// transport without running the daemon.
package main
