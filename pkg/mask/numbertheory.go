package mask

import (
	"fmt"
	"math"
)

// isPrime assesses whether a number is prime by trial division up to its
// square root.
func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for i := 3; i <= int(math.Sqrt(float64(n))); i += 2 {
		if n%i == 0 {
			return false
		}
	}
	return true
}

// quadraticResidues returns membership flags for the set of quadratic
// residues modulo p, i.e. {x*x mod p : x in 0..p-1}. Zero is included,
// matching the convention the MURA construction relies on.
func quadraticResidues(p int) []bool {
	residues := make([]bool, p)
	for x := 0; x < p; x++ {
		residues[(x*x)%p] = true
	}
	return residues
}

// mlsTaps maps the register length to the feedback taps of a maximal-length
// linear-feedback shift register, one primitive polynomial per length.
var mlsTaps = map[int][]int{
	2:  {1},
	3:  {2},
	4:  {3},
	5:  {3},
	6:  {5},
	7:  {6},
	8:  {7, 6, 1},
	9:  {5},
	10: {7},
	11: {9},
	12: {11, 10, 4},
	13: {12, 11, 8},
	14: {13, 12, 2},
	15: {14},
	16: {15, 13, 4},
}

// maxLenSeq generates a maximal-length binary sequence of length 2^nBits-1
// with values in {0,1}. The register starts from the all-ones state and is
// advanced as a circular buffer, so the construction is fully deterministic.
func maxLenSeq(nBits int) ([]int, error) {
	taps, ok := mlsTaps[nBits]
	if !ok {
		return nil, fmt.Errorf("no maximal-length taps for %d bits (supported: 2..16)", nBits)
	}

	state := make([]int, nBits)
	for i := range state {
		state[i] = 1
	}

	seq := make([]int, (1<<nBits)-1)
	idx := 0
	for i := range seq {
		feedback := state[idx]
		seq[i] = feedback
		for _, tap := range taps {
			feedback ^= state[(tap+idx)%nBits]
		}
		state[idx] = feedback
		idx = (idx + 1) % nBits
	}
	return seq, nil
}
