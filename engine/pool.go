// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"iter"

	"github.com/gviegas/retained/internal/bitvec"
)

// handle is embedded in every pooled element.
type handle struct {
	// Index in pool.items, or -1 if not in a pool.
	slot int
	// Stable identifier. It is not reused until the
	// element is removed.
	id int
}

func (h *handle) hnd() *handle { return h }

// ID returns a small integer that identifies the element
// among live elements of the same kind.
func (h *handle) ID() int { return h.id }

type pooled interface {
	comparable
	hnd() *handle
}

// pool is a dense, unordered collection whose elements
// know their own index.
// Removal swaps the last element into the vacated slot.
type pool[T pooled] struct {
	items []T
	ids   bitvec.V
}

// insert inserts x into p.
// It sets x's slot and assigns a new id.
func (p *pool[T]) insert(x T) {
	id := p.ids.Alloc()
	h := x.hnd()
	h.slot = len(p.items)
	h.id = id
	p.items = append(p.items, x)
}

// remove removes x from p.
// It does nothing if x is not in p.
func (p *pool[T]) remove(x T) {
	h := x.hnd()
	if h.slot < 0 || h.slot >= len(p.items) || p.items[h.slot] != x {
		return
	}
	last := len(p.items) - 1
	if h.slot < last {
		p.items[h.slot] = p.items[last]
		p.items[h.slot].hnd().slot = h.slot
	}
	var zero T
	p.items[last] = zero
	p.items = p.items[:last]
	p.ids.Free(h.id)
	h.slot = -1
}

// len returns the number of elements in p.
func (p *pool[_]) len() int { return len(p.items) }

// all returns an iterator over a copy of p's elements,
// so that elements may be removed during iteration.
func (p *pool[T]) all() iter.Seq[T] {
	s := append([]T(nil), p.items...)
	return func(yield func(T) bool) {
		for _, x := range s {
			if !yield(x) {
				return
			}
		}
	}
}

// contains returns whether x is in p.
func (p *pool[T]) contains(x T) bool {
	h := x.hnd()
	return h.slot >= 0 && h.slot < len(p.items) && p.items[h.slot] == x
}
