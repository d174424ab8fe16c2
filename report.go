package lottery

import "time"

// IngestReport summarises one ingestion run
type IngestReport struct {
	RunID       string      `json:"run_id"`
	Game        string      `json:"game"`
	StartTime   time.Time   `json:"start_time"`
	FinishTime  time.Time   `json:"finish_time"`
	Received    int         `json:"received"`
	Inserted    int         `json:"inserted"`
	Skipped     int         `json:"skipped"`
	Rejected    int         `json:"rejected"`
	Rejections  []Rejection `json:"rejections,omitempty"`
	Aborted     bool        `json:"aborted"`
	AbortReason string      `json:"abort_reason,omitempty"`
}

// Validate checks the report's counters are consistent
func (r *IngestReport) Validate() error {
	if r.RunID == "" {
		return ErrInvalidParameters.WithDetails("empty run id")
	}
	if r.Received < 0 || r.Inserted < 0 || r.Skipped < 0 || r.Rejected < 0 {
		return ErrInvalidParameters.WithDetails("negative counter")
	}
	if r.Inserted+r.Skipped+r.Rejected > r.Received {
		return ErrInvalidParameters.WithDetails("processed more candidates than received")
	}
	if r.Rejected != len(r.Rejections) {
		return ErrInvalidParameters.WithDetails("rejection count mismatch")
	}
	return nil
}

// Processed returns how many candidates reached a final outcome
func (r *IngestReport) Processed() int { return r.Inserted + r.Skipped + r.Rejected }

// IsComplete reports whether every received candidate was processed
func (r *IngestReport) IsComplete() bool { return !r.Aborted && r.Processed() == r.Received }

// Duration returns how long the run took
func (r *IngestReport) Duration() time.Duration {
	if r.FinishTime.IsZero() {
		return 0
	}
	return r.FinishTime.Sub(r.StartTime)
}
