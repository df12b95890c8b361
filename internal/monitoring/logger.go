// Package monitoring holds the operator-facing logger used by the command
// line tools.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger or SetOutput. Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput routes Logf to w with a "[tpcf] " prefix. A nil writer mutes it.
func SetOutput(w io.Writer) {
	if w == nil {
		SetLogger(nil)
		return
	}
	SetLogger(log.New(w, "[tpcf] ", log.LstdFlags).Printf)
}
