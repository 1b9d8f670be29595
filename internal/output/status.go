package output

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Status prints human-readable progress lines, normally to stderr so that
// standard output carries nothing but records. Quiet mode suppresses progress
// but still reports failures.
type Status struct {
	w     io.Writer
	quiet bool
	ok    *color.Color
	info  *color.Color
	fail  *color.Color
	muted *color.Color
}

// NewStatus creates a Status writing to w. Colors follow fatih/color's terminal detection.
func NewStatus(w io.Writer, quiet bool) *Status {
	return &Status{
		w:     w,
		quiet: quiet,
		ok:    color.New(color.FgGreen),
		info:  color.New(color.FgCyan),
		fail:  color.New(color.FgRed, color.Bold),
		muted: color.New(color.Faint),
	}
}

// Connected reports an established connection.
func (s *Status) Connected(host string, port int, database string) {
	if s.quiet {
		return
	}
	s.ok.Fprintf(s.w, "Connected to PostgreSQL at %s:%d/%s\n", host, port, database)
}

// Found reports how many users were printed.
func (s *Status) Found(count int) {
	if s.quiet {
		return
	}
	noun := "users"
	if count == 1 {
		noun = "user"
	}
	s.info.Fprintf(s.w, "Found %s %s\n", humanize.Comma(int64(count)), noun)
}

// Closed reports the connection was released.
func (s *Status) Closed() {
	if s.quiet {
		return
	}
	s.muted.Fprintln(s.w, "Connection closed")
}

// Failed reports a fatal error with an optional hint.
func (s *Status) Failed(err error, hint string) {
	s.fail.Fprintf(s.w, "Error: %v\n", err)
	if hint != "" {
		fmt.Fprintf(s.w, "\n%s\n", hint)
	}
}
