package tensor

import "fmt"

// Allocator hands out scratch tensors with bounded lifetimes. Appliers
// acquire immediately before use and release unconditionally before the
// enclosing loop iteration advances.
type Allocator interface {
	Alloc(name string, dtype DType, shape ...int) (*Tensor, error)
	Release(t *Tensor)
}

// HeapAllocator allocates fresh buffers and lets the GC reclaim them.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(name string, dtype DType, shape ...int) (*Tensor, error) {
	return New(name, dtype, shape...)
}

func (HeapAllocator) Release(_ *Tensor) {}

// PoolAllocator keeps released buffers on per-size free lists and reuses
// them on the next acquisition of the same element count. It is not safe
// for concurrent use; the decode loop is single-threaded.
type PoolAllocator struct {
	free map[int][][]float64
}

func NewPoolAllocator() *PoolAllocator {
	return &PoolAllocator{free: make(map[int][][]float64)}
}

func (p *PoolAllocator) Alloc(name string, dtype DType, shape ...int) (*Tensor, error) {
	n, err := elemCount(name, shape)
	if err != nil {
		return nil, err
	}
	t := &Tensor{
		name:  name,
		dtype: dtype,
		shape: append([]int(nil), shape...),
	}
	if list := p.free[n]; len(list) > 0 {
		buf := list[len(list)-1]
		p.free[n] = list[:len(list)-1]
		for i := range buf {
			buf[i] = 0
		}
		t.data = buf
		return t, nil
	}
	t.data = make([]float64, n)
	return t, nil
}

func (p *PoolAllocator) Release(t *Tensor) {
	if t == nil || t.data == nil {
		return
	}
	n := len(t.data)
	p.free[n] = append(p.free[n], t.data)
	t.data = nil
}

// FreeCount reports how many buffers of the given element count are parked
// on the free list.
func (p *PoolAllocator) FreeCount(elems int) int {
	return len(p.free[elems])
}

func elemCount(name string, shape []int) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: tensor %s has no shape", ErrShapeMismatch, name)
	}
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("%w: tensor %s dim=%d", ErrShapeMismatch, name, dim)
		}
		n *= dim
	}
	return n, nil
}
