// Package output renders user records and run status for the terminal.
//
// Every formatter emits exactly one line per record, except table which adds one header
// line before the first record. No formatter writes anything for an empty result.
package output

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/willibrandon/pgread/internal/db/models"
)

// ErrWriteFailed is returned when a record cannot be written to the output.
var ErrWriteFailed = errors.New("write failed")

// Formatter writes user records to an output stream.
type Formatter interface {
	// WriteRecord renders one record.
	WriteRecord(w io.Writer, u models.UserRecord) error

	// Flush writes anything the formatter held back.
	Flush(w io.Writer) error
}

// Supported format names.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// New returns the formatter registered under name.
func New(name string) (Formatter, error) {
	switch name {
	case FormatText, "":
		return TextFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatYAML:
		return YAMLFormatter{}, nil
	case FormatTable:
		return &TableFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// writeLine writes line followed by a newline, wrapping failures in ErrWriteFailed.
func writeLine(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// nullAge is printed in place of a NULL age.
const nullAge = "NULL"

// TextFormatter prints "ID: 1, Name: Alice, Age: 30".
type TextFormatter struct{}

func (TextFormatter) WriteRecord(w io.Writer, u models.UserRecord) error {
	return writeLine(w, fmt.Sprintf("ID: %d, Name: %s, Age: %s", u.ID, printableName(u.Name), u.AgeString(nullAge)))
}

func (TextFormatter) Flush(io.Writer) error { return nil }

// printableName escapes control characters so a name never spans more than one line.
func printableName(name string) string {
	if !strings.ContainsFunc(name, unicode.IsControl) {
		return name
	}

	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			q := strconv.QuoteRune(r)
			b.WriteString(q[1 : len(q)-1])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
