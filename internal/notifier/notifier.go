// Package notifier fans full-collection snapshots out to subscribers.
package notifier

import (
	"slices"
	"sync"
	"sync/atomic"
)

type Listener[T any] func(snapshot []T)

type subscriber[T any] struct {
	fn     Listener[T]
	active atomic.Bool
}

// Notifier broadcasts the current state of one collection. Publish and
// Subscribe are serialized, so every subscriber sees snapshots in the order
// the mutations completed.
type Notifier[T any] struct {
	name    string
	source  func() []T
	onPanic func(collection string, recovered any)

	pubMu sync.Mutex // serializes mutate+deliver

	subsMu sync.Mutex
	subs   []*subscriber[T]
}

type Option[T any] func(*Notifier[T])

// WithPanicHandler is called with whatever a failing listener panicked with.
func WithPanicHandler[T any](fn func(collection string, recovered any)) Option[T] {
	return func(n *Notifier[T]) { n.onPanic = fn }
}

func New[T any](name string, source func() []T, opts ...Option[T]) *Notifier[T] {
	n := &Notifier[T]{name: name, source: source}
	for _, o := range opts {
		o(n)
	}
	return n
}

func (n *Notifier[T]) Name() string { return n.name }

// Subscribe registers fn and calls it with the current snapshot before
// returning. The returned func removes fn; once it returns no new delivery to
// fn starts. It is safe to call more than once, including from inside fn.
func (n *Notifier[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	sub := &subscriber[T]{fn: fn}
	sub.active.Store(true)

	n.pubMu.Lock()
	n.subsMu.Lock()
	n.subs = append(n.subs, sub)
	n.subsMu.Unlock()
	n.deliver(sub, n.source())
	n.pubMu.Unlock()

	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}
		n.subsMu.Lock()
		n.subs = slices.DeleteFunc(n.subs, func(s *subscriber[T]) bool { return s == sub })
		n.subsMu.Unlock()
	}
}

// Publish runs mutate and, when it reports a change, delivers the new
// snapshot to every subscriber in subscription order before returning.
// Listeners must not call Publish on the same notifier from their callback.
func (n *Notifier[T]) Publish(mutate func() bool) {
	n.pubMu.Lock()
	defer n.pubMu.Unlock()
	if mutate != nil && !mutate() {
		return
	}
	snap := n.source()

	n.subsMu.Lock()
	subs := slices.Clone(n.subs)
	n.subsMu.Unlock()

	for _, s := range subs {
		n.deliver(s, snap)
	}
}

// Notify republishes the current state without a mutation.
func (n *Notifier[T]) Notify() { n.Publish(nil) }

func (n *Notifier[T]) Len() int {
	n.subsMu.Lock()
	defer n.subsMu.Unlock()
	return len(n.subs)
}

func (n *Notifier[T]) deliver(s *subscriber[T], snap []T) {
	if !s.active.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil && n.onPanic != nil {
			n.onPanic(n.name, r)
		}
	}()
	s.fn(slices.Clone(snap))
}
