package service

import (
	"math/rand"
	"time"
)

// NewRand returns a generator seeded from the clock.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// ShuffleOptions returns a Fisher-Yates permutation of options without touching the input.
func ShuffleOptions(r *rand.Rand, options []string) []string {
	shuffled := make([]string, len(options))
	copy(shuffled, options)

	if r == nil {
		r = NewRand()
	}

	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	return shuffled
}
