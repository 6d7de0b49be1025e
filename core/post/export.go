package post

import (
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

var responsesHeader = []string{"username", "viewed", "response"}

// WriteResponsesCSV writes rows as CSV, preceded by a header row.
func WriteResponsesCSV(w io.Writer, rows []ResponseRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(responsesHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
