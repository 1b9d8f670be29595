package output

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/willibrandon/pgread/internal/db/models"
)

// jsonRecord is the wire shape of a record; Age encodes as null when absent.
type jsonRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Age  *int64 `json:"age"`
}

// JSONFormatter prints one JSON object per line.
type JSONFormatter struct{}

func (JSONFormatter) WriteRecord(w io.Writer, u models.UserRecord) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(jsonRecord{ID: u.ID, Name: u.Name, Age: u.Age})
	if err != nil {
		return errors.Join(ErrWriteFailed, fmt.Errorf("encode user %d: %w", u.ID, err))
	}
	return writeLine(w, string(data))
}

func (JSONFormatter) Flush(io.Writer) error { return nil }
