package lottery

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Candidate is a raw draw as produced by an acquisition source.
// Numbers holds the ranked numbers followed by the special number.
type Candidate struct {
	DateString string `json:"date"`
	Numbers    []int  `json:"numbers"`
}

// DrawRecord is a validated, immutable drawing result
type DrawRecord struct {
	DrawDate time.Time               `json:"-"`
	Ranked   [DefaultRankedCount]int `json:"ranked_numbers"`
	Special  int                     `json:"special_number"`
}

// NewDrawRecord builds a record from a canonical date; it does not validate ranges
func NewDrawRecord(date string, ranked [DefaultRankedCount]int, special int) (DrawRecord, error) {
	d, err := ParseCanonicalDate(date)
	if err != nil {
		return DrawRecord{}, err
	}
	return DrawRecord{DrawDate: d, Ranked: ranked, Special: special}, nil
}

// Date renders the draw date in canonical YYYY-MM-DD form
func (r DrawRecord) Date() string {
	return r.DrawDate.Format(CanonicalDateLayout)
}

// Key is the identity key of the record: date, ranked numbers and special number
func (r DrawRecord) Key() string {
	nums := make([]string, len(r.Ranked))
	for i, n := range r.Ranked {
		nums[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("%s|%s|%d", r.Date(), strings.Join(nums, ","), r.Special)
}

// String implements fmt.Stringer
func (r DrawRecord) String() string {
	return fmt.Sprintf("%s %v PB %d", r.Date(), r.Ranked, r.Special)
}

// Numbers returns the ranked numbers followed by the special number
func (r DrawRecord) Numbers() []int {
	out := make([]int, 0, len(r.Ranked)+1)
	out = append(out, r.Ranked[:]...)
	return append(out, r.Special)
}

type drawRecordJSON struct {
	DrawDate string                  `json:"draw_date"`
	Ranked   [DefaultRankedCount]int `json:"ranked_numbers"`
	Special  int                     `json:"special_number"`
}

// MarshalJSON encodes the draw date in canonical form
func (r DrawRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(drawRecordJSON{DrawDate: r.Date(), Ranked: r.Ranked, Special: r.Special})
}

// UnmarshalJSON decodes a record written by MarshalJSON
func (r *DrawRecord) UnmarshalJSON(data []byte) error {
	var tmp drawRecordJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	d, err := ParseCanonicalDate(tmp.DrawDate)
	if err != nil {
		return err
	}
	r.DrawDate, r.Ranked, r.Special = d, tmp.Ranked, tmp.Special
	return nil
}

// ParseCanonicalDate parses a YYYY-MM-DD date as UTC midnight
func ParseCanonicalDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(CanonicalDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrMalformedDate.WithDetails(s).WithCause(err)
	}
	return d, nil
}

// truncateDay drops the clock part so range bounds compare by calendar day
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateScore encodes a date as YYYYMMDD, which sorts chronologically
func dateScore(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// InsertOutcome reports what Insert did with a record
type InsertOutcome int

const (
	// Inserted means the record was new and is now stored
	Inserted InsertOutcome = iota
	// Skipped means an identical record was already stored (duplicate key)
	Skipped
)

// String implements fmt.Stringer
func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}
