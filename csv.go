package lottery

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVHeader is the column layout written by ExportCSV
var CSVHeader = []string{"Draw Date", "Number 1", "Number 2", "Number 3", "Number 4", "Number 5", "Powerball"}

// ExportCSV writes records with a header row, dates in canonical form
func ExportCSV(w io.Writer, records []DrawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return ErrSerializationFailed.WithDetails("csv header").WithCause(err)
	}

	row := make([]string, len(CSVHeader))
	for _, r := range records {
		row[0] = r.Date()
		for i, n := range r.Ranked {
			row[i+1] = strconv.Itoa(n)
		}
		row[len(row)-1] = strconv.Itoa(r.Special)

		if err := cw.Write(row); err != nil {
			return ErrSerializationFailed.WithDetails(r.Key()).WithCause(err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return ErrSerializationFailed.WithDetails("csv flush").WithCause(err)
	}
	return nil
}

// ImportCSV reads rows back as candidates; validation is left to the DrawValidator.
// A header row is skipped when present. Rows may have any number of number columns.
func ImportCSV(r io.Reader) ([]Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var candidates []Candidate
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ErrDeserializationFailed.WithDetails(fmt.Sprintf("csv line %d", line)).WithCause(err)
		}

		if line == 1 && len(fields) > 0 {
			first := strings.TrimSpace(fields[0])
			if strings.EqualFold(first, CSVHeader[0]) {
				continue
			}
			// numbers-only exports carry no date, so the rows cannot become draws
			if strings.EqualFold(first, CSVHeader[1]) {
				return nil, ErrDeserializationFailed.
					WithDetails(fmt.Sprintf("csv header %q: missing %q column", strings.Join(fields, ","), CSVHeader[0]))
			}
		}
		if len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "") {
			continue
		}

		c := Candidate{DateString: strings.TrimSpace(fields[0]), Numbers: make([]int, 0, len(fields)-1)}
		for col, f := range fields[1:] {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, ErrDeserializationFailed.
					WithDetails(fmt.Sprintf("csv line %d column %d: %q is not a number", line, col+2, f)).
					WithCause(err)
			}
			c.Numbers = append(c.Numbers, n)
		}
		candidates = append(candidates, c)
	}

	if candidates == nil {
		candidates = []Candidate{}
	}
	return candidates, nil
}
