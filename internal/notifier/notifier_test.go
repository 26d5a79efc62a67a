package notifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intState is a tiny guarded list standing in for a store collection.
type intState struct {
	mu    sync.Mutex
	items []int
}

func (s *intState) snapshot() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.items...)
}

func (s *intState) add(v int) {
	s.mu.Lock()
	s.items = append(s.items, v)
	s.mu.Unlock()
}

func newTestNotifier(opts ...Option[int]) (*Notifier[int], *intState) {
	st := &intState{items: []int{}}
	return New("numbers", st.snapshot, opts...), st
}

func TestSubscribe_ImmediateSnapshot(t *testing.T) {
	n, st := newTestNotifier()
	st.add(7)

	var got [][]int
	unsub := n.Subscribe(func(s []int) { got = append(got, s) })
	defer unsub()

	require.Len(t, got, 1)
	assert.Equal(t, []int{7}, got[0])
}

func TestPublish_NPlusOneDeliveries(t *testing.T) {
	n, st := newTestNotifier()

	var got [][]int
	unsub := n.Subscribe(func(s []int) { got = append(got, s) })
	defer unsub()

	const mutations = 5
	for i := 1; i <= mutations; i++ {
		v := i
		n.Publish(func() bool { st.add(v); return true })
	}

	require.Len(t, got, mutations+1)
	assert.Equal(t, []int{}, got[0])
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got[mutations])
}

func TestPublish_NoChangeNoDelivery(t *testing.T) {
	n, _ := newTestNotifier()
	calls := 0
	unsub := n.Subscribe(func([]int) { calls++ })
	defer unsub()

	n.Publish(func() bool { return false })
	assert.Equal(t, 1, calls)

	n.Notify()
	assert.Equal(t, 2, calls)
}

func TestUnsubscribe_StopsDelivery(t *testing.T) {
	n, st := newTestNotifier()
	calls := 0
	unsub := n.Subscribe(func([]int) { calls++ })

	unsub()
	unsub() // idempotent
	n.Publish(func() bool { st.add(1); return true })

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, n.Len())
}

func TestUnsubscribe_FromInsideCallback(t *testing.T) {
	n, st := newTestNotifier()
	calls := 0
	var unsub func()
	unsub = n.Subscribe(func([]int) {
		calls++
		if calls == 2 && unsub != nil {
			unsub()
		}
	})

	n.Publish(func() bool { st.add(1); return true })
	n.Publish(func() bool { st.add(2); return true })

	assert.Equal(t, 2, calls)
}

func TestUnsubscribe_DuringPublishSkipsPendingDelivery(t *testing.T) {
	n, st := newTestNotifier()
	later := 0
	var unsubLater func()
	n.Subscribe(func([]int) {
		if unsubLater != nil {
			unsubLater()
		}
	})
	unsubLater = n.Subscribe(func([]int) { later++ })

	n.Publish(func() bool { st.add(1); return true })

	assert.Equal(t, 1, later)
}

func TestPublish_SubscriptionOrder(t *testing.T) {
	n, st := newTestNotifier()
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		unsub := n.Subscribe(func([]int) { order = append(order, name) })
		defer unsub()
	}
	order = nil

	n.Publish(func() bool { st.add(1); return true })
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestPublish_PanickingListenerIsIsolated(t *testing.T) {
	var panics []any
	n, st := newTestNotifier(WithPanicHandler[int](func(collection string, r any) {
		assert.Equal(t, "numbers", collection)
		panics = append(panics, r)
	}))

	first := true
	unsubBad := n.Subscribe(func([]int) {
		if first {
			first = false
			return
		}
		panic("listener exploded")
	})
	defer unsubBad()

	var last []int
	unsubGood := n.Subscribe(func(s []int) { last = s })
	defer unsubGood()

	n.Publish(func() bool { st.add(42); return true })

	assert.Equal(t, []int{42}, last)
	require.Len(t, panics, 1)
	assert.Equal(t, "listener exploded", panics[0])
}

func TestPublish_SnapshotsAreIndependentCopies(t *testing.T) {
	n, st := newTestNotifier()
	st.add(1)

	var a, b []int
	unsubA := n.Subscribe(func(s []int) {
		a = s
		if len(s) > 0 {
			s[0] = 100
		}
	})
	defer unsubA()
	unsubB := n.Subscribe(func(s []int) { b = s })
	defer unsubB()

	n.Notify()
	assert.Equal(t, 100, a[0])
	assert.Equal(t, 1, b[0])
	assert.Equal(t, []int{1}, st.snapshot())
}

func TestPublish_ConcurrentMutationsDeliverInOrder(t *testing.T) {
	n, st := newTestNotifier()

	var mu sync.Mutex
	var lengths []int
	unsub := n.Subscribe(func(s []int) {
		mu.Lock()
		lengths = append(lengths, len(s))
		mu.Unlock()
	})
	defer unsub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			n.Publish(func() bool { st.add(v); return true })
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lengths, 21)
	for i, l := range lengths {
		assert.Equal(t, i, l, "delivery %d", i)
	}
}
