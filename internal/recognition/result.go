// Package recognition identifies spooled recordings by querying music
// recognition providers in a configured order.
package recognition

import "fmt"

// Result is the outcome of one recognition attempt. Success with metadata
// comes from a provider; a failed run carries Provider "none" and an error
// message describing the last failure.
type Result struct {
	Success      bool
	Confidence   float64
	Provider     string
	Artist       string
	Title        string
	Album        string
	Duration     int
	Year         int
	ErrorMessage string
}

// Failure builds an unsuccessful result attributed to no provider.
func Failure(message string) Result {
	return Result{Provider: "none", ErrorMessage: message}
}

// Track formats the identified track for logs and notifications.
func (r Result) Track() string {
	if r.Artist == "" {
		return r.Title
	}
	return fmt.Sprintf("%s - %s", r.Artist, r.Title)
}
