// Package sampler draws categorical samples from unnormalized
// log-probability rows using the numerically stable max-shift cumulative
// sum method.
package sampler

import (
	"fmt"
	"math"
	"math/rand"

	"effector/internal/tensor"
)

// Multinomial is a seeded categorical sampler. The generator is seeded once
// at construction and advances only by draws, so two samplers with the same
// seed given the same call sequence produce identical sample streams.
type Multinomial struct {
	rng *rand.Rand
	cdf []float64
}

func NewMultinomial(seed int64) *Multinomial {
	return &Multinomial{rng: rand.New(rand.NewSource(seed))}
}

// Eval draws dst.Width() independent samples per source row and writes the
// chosen class indices into dst. src holds one unnormalized log-probability
// vector per row. All contract checks run before any write:
// non-floating-point source is ErrUnsupportedType, src/dst element type
// disagreement is ErrTypeMismatch, an unallocated buffer is ErrNullBuffer
// and a batch-size disagreement is ErrShapeMismatch.
func (m *Multinomial) Eval(src, dst *tensor.Tensor) error {
	if !src.DType().IsFloat() {
		return fmt.Errorf("%w: source %s is %s", tensor.ErrUnsupportedType, src.Name(), src.DType())
	}
	if src.DType() != dst.DType() {
		return fmt.Errorf("%w: source %s is %s, destination %s is %s",
			tensor.ErrTypeMismatch, src.Name(), src.DType(), dst.Name(), dst.DType())
	}
	if !src.Allocated() || !dst.Allocated() {
		return fmt.Errorf("%w: source %s or destination %s", tensor.ErrNullBuffer, src.Name(), dst.Name())
	}
	if src.Batch() != dst.Batch() {
		return fmt.Errorf("%w: source batch=%d destination batch=%d",
			tensor.ErrShapeMismatch, src.Batch(), dst.Batch())
	}

	classes := src.Width()
	samples := dst.Width()
	for row := 0; row < src.Batch(); row++ {
		total := m.buildCDF(src.Row(row))
		for s := 0; s < samples; s++ {
			p := m.rng.Float64() * total
			dst.Set(row, s, float64(searchCDF(m.cdf[:classes], p)))
		}
	}
	return nil
}

// buildCDF fills the reusable working buffer with the running sum of
// exponentiated, max-shifted logits and returns the unnormalized total.
// The result is nondecreasing by construction.
func (m *Multinomial) buildCDF(logits []float64) float64 {
	if cap(m.cdf) < len(logits) {
		m.cdf = make([]float64, len(logits))
	}
	m.cdf = m.cdf[:len(logits)]

	max := math.Inf(-1)
	for _, logit := range logits {
		if logit > max {
			max = logit
		}
	}
	sum := 0.0
	for i, logit := range logits {
		sum += math.Exp(logit - max)
		m.cdf[i] = sum
	}
	return sum
}

// searchCDF returns the smallest index whose cumulative value exceeds p.
// Class counts are small here, so a linear scan; a binary search over the
// same nondecreasing array would return the same index.
func searchCDF(cdf []float64, p float64) int {
	for i, threshold := range cdf {
		if threshold > p {
			return i
		}
	}
	return len(cdf) - 1
}
