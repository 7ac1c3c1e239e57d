package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"econsim/domain/interfaces"
)

type cryptoSeed struct{}

func (cryptoSeed) Uint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

type systemRandom struct {
	r *rand.Rand
}

// NewSystemRandom returns a RandomSource backed by the operating system's
// entropy source
func NewSystemRandom() interfaces.RandomSource {
	return &systemRandom{r: rand.New(cryptoSeed{})}
}

func (s *systemRandom) Float64() float64 { return s.r.Float64() }

func (s *systemRandom) Intn(n int) int { return s.r.IntN(n) }
