package fir

import "fortio.org/safecast"

// Arena stores nodes addressed by 1-based indices.
type Arena[T any] struct {
	Items []T `msgpack:"items"`
}

// Allocate appends value and returns its 1-based index.
func (a *Arena[T]) Allocate(value T) uint32 {
	a.Items = append(a.Items, value)
	return a.Len()
}

// Get returns nil for 0 and for indices past the end.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || uint64(index) > uint64(len(a.Items)) {
		return nil
	}
	return &a.Items[index-1]
}

func (a *Arena[T]) Len() uint32 {
	n, err := safecast.Conv[uint32](len(a.Items))
	if err != nil {
		panic(err)
	}
	return n
}
