package lottery

import (
	"sort"
)

// PickSet is one candidate combination
type PickSet struct {
	Ranked  []int `json:"ranked_numbers"`
	Special int   `json:"special_number"`
}

// PickResult holds the three independent branches of one Pick call.
// A frequency branch that cannot be computed is nil and its error is set.
type PickResult struct {
	MostLikely     *PickSet `json:"most_likely,omitempty"`
	MostLikelyErr  error    `json:"-"`
	LeastLikely    *PickSet `json:"least_likely,omitempty"`
	LeastLikelyErr error    `json:"-"`
	Random         PickSet  `json:"random"`
}

// Picker derives candidate sets from frequency tables
type Picker struct {
	game      GameConfig
	generator RandomSource
}

// NewPicker creates a picker; nil game means DefaultGameConfig, nil source means crypto/rand
func NewPicker(game *GameConfig, source RandomSource) *Picker {
	if game == nil {
		game = DefaultGameConfig()
	}
	if source == nil {
		source = NewSecureRandomGenerator()
	}
	return &Picker{game: *game, generator: source}
}

// Pick computes the most-likely, least-likely and random sets.
// The returned error is only set when the random source fails.
func (p *Picker) Pick(white, special FrequencyTable) (*PickResult, error) {
	result := &PickResult{}

	result.MostLikely, result.MostLikelyErr = frequencyPick(white.TopN(DefaultRankedCount), special.TopN(1))
	result.LeastLikely, result.LeastLikelyErr = frequencyPick(white.BottomN(DefaultRankedCount), special.BottomN(1))

	random, err := p.RandomPick()
	if err != nil {
		return nil, err
	}
	result.Random = random

	return result, nil
}

// RandomPick draws 5 distinct ranked numbers and one special number uniformly,
// independent of any history
func (p *Picker) RandomPick() (PickSet, error) {
	ranked, err := SampleDistinct(p.generator, p.game.RankedMin, p.game.RankedMax, DefaultRankedCount)
	if err != nil {
		return PickSet{}, err
	}
	sort.Ints(ranked)

	special, err := p.generator.GenerateInRange(p.game.SpecialMin, p.game.SpecialMax)
	if err != nil {
		return PickSet{}, err
	}

	return PickSet{Ranked: ranked, Special: special}, nil
}

func frequencyPick(ranked, special []FrequencyEntry) (*PickSet, error) {
	if len(ranked) < DefaultRankedCount {
		return nil, ErrInsufficientHistory.WithDetails("fewer than 5 distinct ranked numbers recorded")
	}
	if len(special) < 1 {
		return nil, ErrInsufficientHistory.WithDetails("no special number recorded")
	}
	return &PickSet{Ranked: Numbers(ranked), Special: special[0].Number}, nil
}
