package rtctx

import (
	"math/rand/v2"

	"viper/internal/trap"
)

// DefaultSeed seeds every new context, so runs are reproducible until a
// program calls Randomize.
const DefaultSeed uint64 = 0xDEADBEEFCAFEBABE

type rngState struct {
	src  *rand.PCG
	r    *rand.Rand
	last uint64
}

func (s *rngState) seed(seed uint64) {
	s.last = seed
	if s.src == nil {
		s.src = rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)
		s.r = rand.New(s.src)
		return
	}
	s.src.Seed(seed, seed^0x9E3779B97F4A7C15)
}

// Randomize reseeds the RNG of c.
func (c *Context) Randomize(seed uint64) { c.rng.seed(seed) }

// Seed returns the seed last applied to c.
func (c *Context) Seed() uint64 { return c.rng.last }

// Rand returns a float in [0, 1).
func (c *Context) Rand() float64 { return c.rng.r.Float64() }

// RandInt returns an integer in [0, n). n must be positive.
func (c *Context) RandInt(n int64) int64 {
	if n <= 0 {
		trap.Raisef(trap.CodeInvalidArgument, "rtctx.RandInt: bound must be positive (got %d)", n)
	}
	return c.rng.r.Int64N(n)
}

// Rand draws from the effective context.
func Rand() float64 { return Effective().Rand() }

// RandInt draws from the effective context.
func RandInt(n int64) int64 { return Effective().RandInt(n) }

// Randomize reseeds the effective context.
func Randomize(seed uint64) { Effective().Randomize(seed) }
