package lottery

import (
	"crypto/rand"
	"math/big"
)

// SecureRandomGenerator implements RandomSource using crypto/rand
type SecureRandomGenerator struct{}

// NewSecureRandomGenerator creates a new secure random generator
func NewSecureRandomGenerator() *SecureRandomGenerator {
	return &SecureRandomGenerator{}
}

// GenerateInRange generates a secure random number within the specified range [min, max] (inclusive)
func (g *SecureRandomGenerator) GenerateInRange(min, max int) (int, error) {
	if min > max {
		return 0, ErrInvalidRange
	}
	if min == max {
		return min, nil
	}

	randomBig, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return 0, err
	}
	return int(randomBig.Int64()) + min, nil
}

// SampleDistinct draws count distinct numbers uniformly from [min, max] without replacement.
// It runs a partial Fisher-Yates shuffle over the range.
func SampleDistinct(src RandomSource, min, max, count int) ([]int, error) {
	if min > max {
		return nil, ErrInvalidRange
	}
	size := max - min + 1
	if count <= 0 || count > size {
		return nil, ErrInvalidCount
	}

	pool := make([]int, size)
	for i := range pool {
		pool[i] = min + i
	}

	for i := 0; i < count; i++ {
		j, err := src.GenerateInRange(i, size-1)
		if err != nil {
			return nil, err
		}
		pool[i], pool[j] = pool[j], pool[i]
	}

	out := make([]int, count)
	copy(out, pool[:count])
	return out, nil
}
