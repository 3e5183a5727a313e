// Package permute enumerates permutations of a fixed set with Heap's
// algorithm, one permutation per call.
package permute

import "iter"

// Generator produces every permutation of its elements exactly once. The first
// permutation is the initial order; each later one differs from its
// predecessor by a single swap. A generator is single-pass: once exhausted it
// stays exhausted.
type Generator[T any] struct {
	items   []T
	counter []int
	index   int
	started bool
}

// New creates a generator over a copy of items.
func New[T any](items []T) *Generator[T] {
	return &Generator[T]{
		items:   append([]T(nil), items...),
		counter: make([]int, len(items)),
	}
}

// Next returns the next permutation as a fresh slice, or false once every
// permutation has been produced.
func (g *Generator[T]) Next() ([]T, bool) {
	if !g.started {
		g.started = true
		return g.current(), true
	}

	for g.index < len(g.items) {
		i := g.index
		if g.counter[i] < i {
			if i%2 == 0 {
				g.swap(0, i)
			} else {
				g.swap(g.counter[i], i)
			}
			g.counter[i]++
			g.index = 0
			return g.current(), true
		}
		g.counter[i] = 0
		g.index++
	}
	return nil, false
}

// All returns the remaining permutations as a sequence. It shares state with
// Next, so ranging over it consumes the generator.
func (g *Generator[T]) All() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for {
			p, ok := g.Next()
			if !ok || !yield(p) {
				return
			}
		}
	}
}

// Collect drains the generator into a slice.
func (g *Generator[T]) Collect() [][]T {
	var out [][]T
	for p := range g.All() {
		out = append(out, p)
	}
	return out
}

func (g *Generator[T]) current() []T {
	return append([]T(nil), g.items...)
}

func (g *Generator[T]) swap(a, b int) {
	g.items[a], g.items[b] = g.items[b], g.items[a]
}

// Count returns n!, the number of permutations of n elements.
func Count(n int) int {
	c := 1
	for i := 2; i <= n; i++ {
		c *= i
	}
	return c
}
