package schemagen

import (
	"math"
	"math/rand"
)

// pareto draws from a Pareto distribution with the given scale and
// shape, via inverse transform sampling. No distribution library in the
// retrieved pack offers this (see DESIGN.md); the formula is the
// standard closed-form Pareto quantile function.
func pareto(rng *rand.Rand, scale, shape float64) float64 {
	u := 1 - rng.Float64() // avoid log(0)
	return scale / math.Pow(u, 1/shape)
}

// logNormal draws from a log-normal distribution parameterized by the
// underlying normal distribution's mean and standard deviation.
func logNormal(rng *rand.Rand, mean, stddev float64) float64 {
	return math.Exp(rng.NormFloat64()*stddev + mean)
}

// geometric draws the number of failures before the first success of a
// Bernoulli trial with success probability p, via inverse transform
// sampling on the CDF 1-(1-p)^(k+1).
func geometric(rng *rand.Rand, p float64) int {
	// p == 0 happens when no index set was emitted at all; no secondary
	// indexes then, rather than the distribution's infinite tail.
	if p <= 0 || p >= 1 {
		return 0
	}
	u := rng.Float64()
	k := math.Log(1-u) / math.Log(1-p)
	return int(math.Floor(k))
}

// weightedAliasIndex implements Vose's alias method for sampling an
// index from a discrete distribution in O(1) per draw after an O(n)
// setup, the same algorithm rand_distr::WeightedAliasIndex uses. No
// alias-method library exists anywhere in the retrieved pack; this is a
// direct, standard implementation of the textbook algorithm.
type weightedAliasIndex struct {
	prob  []float64
	alias []int
}

func newWeightedAliasIndex(weights []float64) *weightedAliasIndex {
	n := len(weights)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	scaled := make([]float64, n)
	for i, w := range weights {
		scaled[i] = w * float64(n) / total
	}

	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, s := range scaled {
		if s < 1 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	prob := make([]float64, n)
	alias := make([]int, n)
	for len(small) > 0 && len(large) > 0 {
		l := small[len(small)-1]
		small = small[:len(small)-1]
		g := large[len(large)-1]
		large = large[:len(large)-1]

		prob[l] = scaled[l]
		alias[l] = g
		scaled[g] = scaled[g] + scaled[l] - 1
		if scaled[g] < 1 {
			small = append(small, g)
		} else {
			large = append(large, g)
		}
	}
	for _, g := range large {
		prob[g] = 1
	}
	for _, l := range small {
		prob[l] = 1
	}
	return &weightedAliasIndex{prob: prob, alias: alias}
}

func (w *weightedAliasIndex) sample(rng *rand.Rand) int {
	i := rng.Intn(len(w.prob))
	if rng.Float64() < w.prob[i] {
		return i
	}
	return w.alias[i]
}
