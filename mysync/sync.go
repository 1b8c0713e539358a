// Package mysync contains generic wrappers around package sync.
package mysync

import (
	"sync"
)

// Mutex guards a value of type T.
type Mutex[T any] struct {
	mu sync.Mutex
	v  T
}

type MutexUnlock struct {
	mu *sync.Mutex
}

func NewMutex[T any](v T) *Mutex[T] {
	return &Mutex[T]{v: v}
}

// Lock locks the mutex and returns a pointer to the guarded value, which is only valid until Unlock is called.
func (mu *Mutex[T]) Lock() (*T, MutexUnlock) {
	mu.mu.Lock()
	return &mu.v, MutexUnlock{&mu.mu}
}

// Do calls fn with the mutex held.
func (mu *Mutex[T]) Do(fn func(v *T)) {
	v, u := mu.Lock()
	defer u.Unlock()
	fn(v)
}

func (u MutexUnlock) Unlock() { u.mu.Unlock() }
