// Package lhcache implements double-buffered per-cell likelihood
// storage. Each cell owns two buffers; one of them is current, the
// other keeps the values of the last accepted state. Restoring the
// accepted state only moves indices.
package lhcache

// Buffer is a double-buffered likelihood storage.
type Buffer struct {
	// [buffer][cell][element]
	data    [2][][]float64
	current []int
	stored  []int
}

// New creates a buffer for nCells cells with size elements per cell.
func New(nCells, size int) *Buffer {
	b := &Buffer{
		current: make([]int, nCells),
		stored:  make([]int, nCells),
	}
	for i := range b.data {
		b.data[i] = make([][]float64, nCells)
		for cell := range b.data[i] {
			b.data[i][cell] = make([]float64, size)
		}
	}
	return b
}

// NCells returns the number of cells.
func (b *Buffer) NCells() int {
	return len(b.current)
}

// Size returns the number of elements per cell.
func (b *Buffer) Size() int {
	if len(b.current) == 0 {
		return 0
	}
	return len(b.data[0][0])
}

// Current returns the current buffer of a cell. It is modified in
// place by the caller.
func (b *Buffer) Current(cell int) []float64 {
	return b.data[b.current[cell]][cell]
}

// Stored returns the buffer holding the last stored values of a
// cell.
func (b *Buffer) Stored(cell int) []float64 {
	return b.data[b.stored[cell]][cell]
}

// Flip prepares a cell for an update: the current values are copied
// into the spare buffer which becomes current. Flipping twice between
// two stores is a no-op, the stored buffer is never overwritten.
func (b *Buffer) Flip(cell int) {
	if b.current[cell] != b.stored[cell] {
		return
	}
	cur := b.current[cell]
	copy(b.data[1-cur][cell], b.data[cur][cell])
	b.current[cell] = 1 - cur
}

// Flipped returns true if the cell was flipped since the last store.
func (b *Buffer) Flipped(cell int) bool {
	return b.current[cell] != b.stored[cell]
}

// Store accepts the current values.
func (b *Buffer) Store() {
	copy(b.stored, b.current)
}

// Restore reverts to the stored values by pointing every cell back
// to its stored buffer.
func (b *Buffer) Restore() {
	copy(b.current, b.stored)
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	nb := &Buffer{
		current: append([]int(nil), b.current...),
		stored:  append([]int(nil), b.stored...),
	}
	for i := range b.data {
		nb.data[i] = make([][]float64, len(b.data[i]))
		for cell, v := range b.data[i] {
			nb.data[i][cell] = append([]float64(nil), v...)
		}
	}
	return nb
}
