package lottery

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// GameConfig describes the single game the engine tracks
type GameConfig struct {
	Name       string `mapstructure:"name" json:"name" validate:"required"`
	RankedMin  int    `mapstructure:"ranked_min" json:"ranked_min" validate:"min=1"`
	RankedMax  int    `mapstructure:"ranked_max" json:"ranked_max" validate:"gtfield=RankedMin"`
	SpecialMin int    `mapstructure:"special_min" json:"special_min" validate:"min=1"`
	SpecialMax int    `mapstructure:"special_max" json:"special_max" validate:"gtefield=SpecialMin"`

	// DrawDays are weekday names, e.g. "monday"; only checked when EnforceDrawDays is set
	DrawDays        []string `mapstructure:"draw_days" json:"draw_days"`
	EnforceDrawDays bool     `mapstructure:"enforce_draw_days" json:"enforce_draw_days"`

	// SourceDateLayouts are Go time layouts tried in order on candidate dates
	SourceDateLayouts []string `mapstructure:"source_date_layouts" json:"source_date_layouts" validate:"min=1,dive,required"`
}

// DefaultGameConfig returns the reference game: 5 of 1-69 plus 1 of 1-26,
// drawn Monday, Wednesday and Saturday
func DefaultGameConfig() *GameConfig {
	days := make([]string, len(DefaultDrawDays))
	for i, d := range DefaultDrawDays {
		days[i] = strings.ToLower(d.String())
	}
	return &GameConfig{
		Name:              DefaultGameName,
		RankedMin:         DefaultRankedMin,
		RankedMax:         DefaultRankedMax,
		SpecialMin:        DefaultSpecialMin,
		SpecialMax:        DefaultSpecialMax,
		DrawDays:          days,
		EnforceDrawDays:   DefaultEnforceDrawDays,
		SourceDateLayouts: append([]string(nil), DefaultSourceDateLayouts...),
	}
}

// Validate validates the game configuration
func (gc *GameConfig) Validate() error {
	if err := validator.New().Struct(gc); err != nil {
		return ErrConfigInvalid.WithDetails("game").WithCause(err)
	}
	if gc.RankedMax-gc.RankedMin+1 < DefaultRankedCount {
		return ErrConfigInvalid.WithDetails(
			fmt.Sprintf("ranked range [%d,%d] cannot hold %d distinct numbers", gc.RankedMin, gc.RankedMax, DefaultRankedCount))
	}
	if _, err := gc.Weekdays(); err != nil {
		return err
	}
	if gc.EnforceDrawDays && len(gc.DrawDays) == 0 {
		return ErrConfigInvalid.WithDetails("enforce_draw_days requires at least one draw day")
	}
	return nil
}

// Weekdays parses DrawDays (case-insensitive, full or three-letter names)
func (gc *GameConfig) Weekdays() ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(gc.DrawDays))
	for _, name := range gc.DrawDays {
		d, ok := parseWeekday(name)
		if !ok {
			return nil, ErrConfigInvalid.WithDetails(fmt.Sprintf("unknown draw day %q", name))
		}
		out = append(out, d)
	}
	return out, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, true
		}
	}
	return 0, false
}
