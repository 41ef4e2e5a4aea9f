package scenario

import (
	"math/rand/v2"
)

const (
	// uniforms are kept away from 0 and 1 so normal quantiles stay finite
	uniformEpsilon = 1e-12

	lhsStream = 0x4c48535045524d53
)

// Sampler hands out the uniforms of every trial in a batch. Draws depend only on the
// master seed, the trial index and the batch size, never on scheduling.
type Sampler struct {
	seed       uint64
	dims       int
	pairs      int
	antithetic bool
	// perms[d][p] is the stratum assigned to pair p on dimension d; nil without LHS
	perms [][]int32
}

// NewSampler prepares the stratification for a batch of n trials over dims random dimensions
func NewSampler(seed uint64, n, dims int, antithetic, latinHypercube bool) *Sampler {
	s := &Sampler{seed: seed, dims: dims, antithetic: antithetic}
	s.pairs = n
	if antithetic {
		s.pairs = (n + 1) / 2
	}
	if latinHypercube && s.pairs > 1 {
		rng := rand.New(rand.NewPCG(seed, lhsStream))
		s.perms = make([][]int32, dims)
		for d := range s.perms {
			perm := make([]int32, s.pairs)
			for i := range perm {
				perm[i] = int32(i)
			}
			for i := len(perm) - 1; i > 0; i-- {
				j := rng.IntN(i + 1)
				perm[i], perm[j] = perm[j], perm[i]
			}
			s.perms[d] = perm
		}
	}
	return s
}

// Dims returns the number of random dimensions per trial
func (s *Sampler) Dims() int {
	return s.dims
}

// Uniforms fills dst (length Dims) with the uniforms for trial i
func (s *Sampler) Uniforms(i int, dst []float64) {
	pair, mirror := i, false
	if s.antithetic {
		pair, mirror = i/2, i%2 == 1
	}

	rng := rand.New(rand.NewPCG(s.seed, splitmix64(uint64(pair)+1)))
	m := float64(s.pairs)
	for d := 0; d < s.dims; d++ {
		u := rng.Float64()
		if s.perms != nil {
			u = (float64(s.perms[d][pair]) + u) / m
		}
		if mirror {
			u = 1 - u
		}
		dst[d] = clampUniform(u)
	}
}

func clampUniform(u float64) float64 {
	if u < uniformEpsilon {
		return uniformEpsilon
	}
	if u > 1-uniformEpsilon {
		return 1 - uniformEpsilon
	}
	return u
}

// splitmix64 decorrelates neighbouring stream ids
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
