package tensor

import (
	"errors"
	"fmt"
)

// Contract-violation sentinels shared by every tensor consumer. They signal
// a caller/configuration defect, never a transient condition.
var (
	ErrUnsupportedType = errors.New("unsupported tensor element type")
	ErrTypeMismatch    = errors.New("tensor element type mismatch")
	ErrNullBuffer      = errors.New("tensor buffer is unallocated")
	ErrShapeMismatch   = errors.New("tensor shape mismatch")
)

type DType int

const (
	Float32 DType = iota
	Float64
	Int32
)

func (d DType) IsFloat() bool {
	return d == Float32 || d == Float64
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// Tensor is a batch-major view over a named numeric buffer. The leading
// dimension is the batch (one row per agent), the trailing dimension is the
// feature/class width; that two-axis pattern is the only one consumed here.
// The dtype tag describes the upstream buffer's element type and is used for
// contract checks; storage is canonical float64.
type Tensor struct {
	name  string
	dtype DType
	shape []int
	data  []float64
}

// New allocates a zeroed tensor. Shape must have at least one dimension and
// no dimension may be negative.
func New(name string, dtype DType, shape ...int) (*Tensor, error) {
	n, err := elemCount(name, shape)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		name:  name,
		dtype: dtype,
		shape: append([]int(nil), shape...),
		data:  make([]float64, n),
	}, nil
}

// MustNew is a construction helper for fixtures and the ctl stub network.
func MustNew(name string, dtype DType, shape ...int) *Tensor {
	t, err := New(name, dtype, shape...)
	if err != nil {
		panic(err)
	}
	return t
}

// NewUnallocated returns a handle with shape but no backing buffer, the
// state the ErrNullBuffer checks guard against.
func NewUnallocated(name string, dtype DType, shape ...int) *Tensor {
	return &Tensor{name: name, dtype: dtype, shape: append([]int(nil), shape...)}
}

func (t *Tensor) Name() string {
	return t.name
}

func (t *Tensor) DType() DType {
	return t.dtype
}

func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

func (t *Tensor) Allocated() bool {
	return t != nil && t.data != nil
}

// Batch is the leading dimension.
func (t *Tensor) Batch() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.shape[0]
}

// Width is the trailing dimension, the per-row feature count.
func (t *Tensor) Width() int {
	if len(t.shape) == 0 {
		return 0
	}
	return t.shape[len(t.shape)-1]
}

func (t *Tensor) At(row, col int) float64 {
	return t.data[row*t.Width()+col]
}

func (t *Tensor) Set(row, col int, v float64) {
	t.data[row*t.Width()+col] = v
}

// Row returns the live backing slice for one row. Callers must not retain
// it past the enclosing apply call.
func (t *Tensor) Row(row int) []float64 {
	w := t.Width()
	return t.data[row*w : (row+1)*w]
}

func (t *Tensor) SetRow(row int, values []float64) {
	copy(t.Row(row), values)
}
