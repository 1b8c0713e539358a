package container

import "fmt"

// Option holds a value that may be absent. The zero value is None.
type Option[T any] struct {
	v   T
	set bool
}

func (opt Option[T]) String() string {
	if !opt.set {
		return "None"
	}
	return fmt.Sprintf("%v", opt.v)
}

func None[T any]() Option[T] {
	return Option[T]{
		set: false,
	}
}

func Some[T any](v T) Option[T] {
	return Option[T]{
		v:   v,
		set: true,
	}
}

func (m Option[T]) Get() (T, bool) {
	return m.v, m.set
}

func (m Option[T]) Set() bool {
	return m.set
}

func (m Option[T]) MustGet() T {
	if !m.set {
		panic("called MustGet on unset Option")
	}
	return m.v
}

// Ptr returns a pointer to a copy of the value, or nil. It is mostly useful for encoding options as nullable values.
func (m Option[T]) Ptr() *T {
	if !m.set {
		return nil
	}
	v := m.v
	return &v
}
