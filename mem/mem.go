// Package mem provides allocation-conscious containers for long-running accumulation.
package mem

const bucketSize = 1024

// BucketSlice is like a slice, but grows one bucket at a time, instead of growing exponentially. This allows for
// overall lower memory usage when the total length isn't known ahead of time, such as when accumulating records from
// a trace of unknown length, at the cost of more overall allocations. Existing elements are never moved, so pointers
// returned by Ptr remain valid.
type BucketSlice[T any] struct {
	n       int
	buckets [][]T
}

// Grow grows the slice by one and returns a pointer to the new, zeroed element.
func (l *BucketSlice[T]) Grow() *T {
	a, _ := l.index(l.n)
	if a >= len(l.buckets) {
		l.buckets = append(l.buckets, make([]T, 0, bucketSize))
	}
	var zero T
	l.buckets[a] = append(l.buckets[a], zero)
	l.n++
	return &l.buckets[a][len(l.buckets[a])-1]
}

// Append appends v to the slice and returns a pointer to the new element.
func (l *BucketSlice[T]) Append(v T) *T {
	ptr := l.Grow()
	*ptr = v
	return ptr
}

func (l *BucketSlice[T]) index(i int) (int, int) {
	// Doing the division on uint instead of int compiles this function to a shift and an AND.
	return int(uint(i) / bucketSize), int(uint(i) % bucketSize)
}

func (l *BucketSlice[T]) Ptr(i int) *T {
	a, b := l.index(i)
	return &l.buckets[a][b]
}

func (l *BucketSlice[T]) Get(i int) T {
	a, b := l.index(i)
	return l.buckets[a][b]
}

func (l *BucketSlice[T]) Len() int {
	if l == nil {
		return 0
	}
	return l.n
}

// Slice copies the elements into a new, contiguous slice.
func (l *BucketSlice[T]) Slice() []T {
	out := make([]T, 0, l.Len())
	if l == nil {
		return out
	}
	for _, b := range l.buckets {
		out = append(out, b...)
	}
	return out
}
