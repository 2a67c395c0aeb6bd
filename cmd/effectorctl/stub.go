package main

import (
	"math/rand"

	"effector/internal/decoder"
	"effector/internal/tensor"
)

// stubNetwork stands in for the forward-pass engine so rollouts can run
// without a real model. It emits the standard named output tensors with
// seeded pseudo-random values; a given seed reproduces the same rollout.
type stubNetwork struct {
	rng *rand.Rand
	cfg RolloutConfig
}

func newStubNetwork(cfg RolloutConfig) *stubNetwork {
	return &stubNetwork{rng: rand.New(rand.NewSource(cfg.Seed)), cfg: cfg}
}

func (n *stubNetwork) forward(batch int) map[string]*tensor.Tensor {
	outputs := make(map[string]*tensor.Tensor)

	if n.cfg.Continuous > 0 {
		t := tensor.MustNew(decoder.ContinuousOutputName, tensor.Float32, batch, n.cfg.Continuous)
		n.fill(t, func() float64 { return n.rng.NormFloat64() })
		outputs[decoder.ContinuousOutputName] = t
	}

	if len(n.cfg.Branches) > 0 {
		if n.cfg.SampleProbabilities {
			total := 0
			for _, size := range n.cfg.Branches {
				total += size
			}
			t := tensor.MustNew(decoder.DiscreteProbsOutputName, tensor.Float32, batch, total)
			n.fill(t, func() float64 { return n.rng.NormFloat64() })
			outputs[decoder.DiscreteProbsOutputName] = t
		} else {
			t := tensor.MustNew(decoder.DiscreteOutputName, tensor.Float32, batch, len(n.cfg.Branches))
			for row := 0; row < batch; row++ {
				for branch, size := range n.cfg.Branches {
					t.Set(row, branch, float64(n.rng.Intn(size)))
				}
			}
			outputs[decoder.DiscreteOutputName] = t
		}
	}

	if n.cfg.MemorySize > 0 {
		blocks := n.cfg.MemoryBlocks
		if blocks <= 0 {
			blocks = 1
		}
		size := tensor.MustNew(decoder.RecurrentOutputName, tensor.Float32, batch, n.cfg.MemorySize)
		outputs[decoder.RecurrentOutputName] = size
		for block := 0; block < blocks; block++ {
			name := decoder.RecurrentBlockOutputName(block)
			t := tensor.MustNew(name, tensor.Float32, batch, n.cfg.MemorySize)
			n.fill(t, func() float64 { return n.rng.Float64() })
			outputs[name] = t
		}
	}

	return outputs
}

func (n *stubNetwork) fill(t *tensor.Tensor, next func() float64) {
	for row := 0; row < t.Batch(); row++ {
		for col := 0; col < t.Width(); col++ {
			t.Set(row, col, next())
		}
	}
}
