package action

import "fmt"

// Spec is the immutable shape contract for every agent's action buffers:
// how many continuous values and, per discrete branch, how many classes.
type Spec struct {
	continuousCount int
	branchSizes     []int
}

func NewSpec(continuousCount int, branchSizes []int) (Spec, error) {
	if continuousCount < 0 {
		return Spec{}, fmt.Errorf("continuous count must be >= 0, got=%d", continuousCount)
	}
	for i, size := range branchSizes {
		if size < 1 {
			return Spec{}, fmt.Errorf("branch %d size must be >= 1, got=%d", i, size)
		}
	}
	return Spec{
		continuousCount: continuousCount,
		branchSizes:     append([]int(nil), branchSizes...),
	}, nil
}

func (s Spec) ContinuousCount() int {
	return s.continuousCount
}

func (s Spec) NumBranches() int {
	return len(s.branchSizes)
}

func (s Spec) BranchSizes() []int {
	return append([]int(nil), s.branchSizes...)
}

func (s Spec) BranchSize(i int) int {
	return s.branchSizes[i]
}

// TotalLogits is the width of a flat concatenated logits row.
func (s Spec) TotalLogits() int {
	total := 0
	for _, size := range s.branchSizes {
		total += size
	}
	return total
}

// BranchOffsets is the exclusive prefix sum of branch sizes: the start
// offset of each branch inside a flat logits row.
func (s Spec) BranchOffsets() []int {
	offsets := make([]int, len(s.branchSizes))
	sum := 0
	for i, size := range s.branchSizes {
		offsets[i] = sum
		sum += size
	}
	return offsets
}
