package generator

import (
	"encoding/binary"
	"io"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Source bundles every input a build draws from. A Source built by NewSource
// with a fixed seed and clock yields the same dataset on every run.
type Source struct {
	Rand    *rand.Rand
	Faker   *gofakeit.Faker
	Entropy io.Reader
	Now     time.Time
}

// NewSource seeds the random stream, the faker, and the token entropy from seed.
// gofakeit.New treats seed 0 as "random", so the faker gets its own PCG.
func NewSource(seed uint64, now time.Time) Source {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	chacha := rand.NewChaCha8(key)

	return Source{
		Rand:    rand.New(chacha),
		Faker:   gofakeit.NewFaker(rand.NewPCG(seed, seed), false),
		Entropy: chacha,
		Now:     now.UTC(),
	}
}

// between returns a uniformly drawn instant in [now-window, now).
func (s Source) between(window time.Duration) time.Time {
	if window <= 0 {
		return s.Now
	}
	return s.Now.Add(-window).Add(time.Duration(s.Rand.Int64N(int64(window))))
}

// uniform returns a float drawn from [lo, hi).
func (s Source) uniform(lo, hi float64) float64 {
	return lo + s.Rand.Float64()*(hi-lo)
}

// intBetween returns an int drawn from [lo, hi].
func (s Source) intBetween(lo, hi int) int {
	return lo + s.Rand.IntN(hi-lo+1)
}

func pick[T any](s Source, choices []T) T {
	return choices[s.Rand.IntN(len(choices))]
}
