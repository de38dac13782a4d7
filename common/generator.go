package common

import "iter"

type YieldFn[T any, K any] func(T, K) (stopIterating bool)

// MapperFn produces values in order, calling yield for each one. It must
// return as soon as yield reports stopIterating.
type MapperFn[T any, K any] func(yield YieldFn[T, K])

type IteratorFn[T any, K any] func() (value T, key K, done bool)

type CancelFn func()

// Generator is a lazy, finite sequence. Each re-runs the mapper on every
// call, so a generator that was never pulled with Next can be walked again.
type Generator[T any, K any] struct {
	mapper  MapperFn[T, K]
	iter    IteratorFn[T, K]
	cancel  CancelFn
	started bool
}

func NewGenerator[T any, K any](mapper MapperFn[T, K]) *Generator[T, K] {
	return &Generator[T, K]{
		mapper: mapper,
	}
}

func SliceGenerator[T any](values []T) *Generator[T, int] {
	return NewGenerator(func(yield YieldFn[T, int]) {
		for idx, value := range values {
			if yield(value, idx) {
				return
			}
		}
	})
}

func EmptyGenerator[T any, K any]() *Generator[T, K] {
	return NewGenerator(func(yield YieldFn[T, K]) {})
}

func (p *Generator[T, K]) seq() iter.Seq2[T, K] {
	return func(yield func(T, K) bool) {
		p.mapper(func(value T, key K) bool {
			return !yield(value, key)
		})
	}
}

func (p *Generator[T, K]) Start() {
	if p.started {
		return
	}
	p.started = true
	next, stop := iter.Pull2(p.seq())
	p.iter = func() (T, K, bool) {
		value, key, ok := next()
		return value, key, !ok
	}
	p.cancel = stop
}

// Next pulls one value. A generator pulled with Next must be drained or
// cancelled.
func (p *Generator[T, K]) Next() (T, K, bool) {
	if !p.started {
		p.Start()
	}
	return p.iter()
}

func (p *Generator[T, K]) Cancel() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Generator[T, K]) Each(f func(value T, key K) bool) {
	if !p.started {
		p.mapper(f)
		return
	}
	for {
		value, key, done := p.Next()
		if done {
			break
		}
		if f(value, key) {
			p.Cancel()
			break
		}
	}
}

func (p *Generator[T, K]) All() iter.Seq2[T, K] {
	return p.seq()
}

func Collect[T any, K any](generator *Generator[T, K]) []T {
	var values []T
	generator.Each(func(value T, _ K) bool {
		values = append(values, value)
		return false
	})
	return values
}
