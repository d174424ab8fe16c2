package lottery

import (
	"strings"
	"time"
)

// DrawValidator checks raw candidates against the game's structural and calendar rules.
// It is pure: no I/O and no logging.
type DrawValidator struct {
	game     GameConfig
	drawDays map[time.Weekday]struct{}
}

// NewDrawValidator creates a validator for the given game; nil means DefaultGameConfig
func NewDrawValidator(game *GameConfig) (*DrawValidator, error) {
	if game == nil {
		game = DefaultGameConfig()
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}

	days, err := game.Weekdays()
	if err != nil {
		return nil, err
	}
	set := make(map[time.Weekday]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}

	return &DrawValidator{game: *game, drawDays: set}, nil
}

// Game returns the game configuration the validator enforces
func (v *DrawValidator) Game() GameConfig { return v.game }

// Validate turns a candidate into a DrawRecord or returns a *ValidationError.
// Checks run in order: date, ranked numbers, special number, draw day.
func (v *DrawValidator) Validate(c Candidate) (DrawRecord, error) {
	date, err := v.parseDate(c.DateString)
	if err != nil {
		return DrawRecord{}, err
	}

	if len(c.Numbers) != DefaultRankedCount+1 {
		return DrawRecord{}, newValidationError(ErrInvalidNumberCount, "numbers", len(c.Numbers))
	}

	var rec DrawRecord
	rec.DrawDate = date

	seen := make(map[int]struct{}, DefaultRankedCount)
	for i := 0; i < DefaultRankedCount; i++ {
		n := c.Numbers[i]
		if n < v.game.RankedMin || n > v.game.RankedMax {
			return DrawRecord{}, newValidationError(ErrOutOfRange, "ranked_numbers", n)
		}
		if _, dup := seen[n]; dup {
			return DrawRecord{}, newValidationError(ErrDuplicateRankedNumber, "ranked_numbers", n)
		}
		seen[n] = struct{}{}
		rec.Ranked[i] = n
	}

	special := c.Numbers[DefaultRankedCount]
	if special < v.game.SpecialMin || special > v.game.SpecialMax {
		return DrawRecord{}, newValidationError(ErrOutOfRange, "special_number", special)
	}
	rec.Special = special

	if v.game.EnforceDrawDays {
		if _, ok := v.drawDays[date.Weekday()]; !ok {
			return DrawRecord{}, newValidationError(ErrNotADrawDay, "draw_date", rec.Date()+" "+date.Weekday().String())
		}
	}

	return rec, nil
}

// Rejection pairs a candidate's position in its batch with the reason it was rejected
type Rejection struct {
	Index     int       `json:"index"`
	Candidate Candidate `json:"candidate"`
	Err       error     `json:"-"`
	ErrorMsg  string    `json:"error_message"`
}

// ValidateAll validates a batch, keeping input order for the accepted records
func (v *DrawValidator) ValidateAll(candidates []Candidate) ([]DrawRecord, []Rejection) {
	records := make([]DrawRecord, 0, len(candidates))
	var rejections []Rejection

	for i, c := range candidates {
		rec, err := v.Validate(c)
		if err != nil {
			rejections = append(rejections, Rejection{Index: i, Candidate: c, Err: err, ErrorMsg: err.Error()})
			continue
		}
		records = append(records, rec)
	}

	return records, rejections
}

// parseDate tries each configured source layout and normalises to UTC midnight
func (v *DrawValidator) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, newValidationError(ErrMalformedDate, "draw_date", s)
	}

	for _, layout := range v.game.SourceDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, newValidationError(ErrMalformedDate, "draw_date", s)
}
