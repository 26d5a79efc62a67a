package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatest_NewerTicketSupersedes(t *testing.T) {
	var l Latest
	first := l.Begin()
	second := l.Begin()

	assert.False(t, first.Current())
	assert.True(t, second.Current())

	published := ""
	assert.False(t, l.Accept(first, func() { published = "first" }))
	assert.True(t, l.Accept(second, func() { published = "second" }))
	assert.Equal(t, "second", published)
}

func TestLatest_ForeignTicketRejected(t *testing.T) {
	var a, b Latest
	tk := a.Begin()
	assert.False(t, b.Accept(tk, func() { t.Fatal("must not publish") }))
	assert.False(t, Ticket{}.Current())
}

// A slow search for a stale query resolves after a fast search for the newer
// query; the stale answer must not overwrite the fresh one.
func TestLatest_StaleSlowSearchDoesNotOverwrite(t *testing.T) {
	agg := New(seeded(), nil)
	var guard Latest

	var mu sync.Mutex
	var shown string

	run := func(query string, delay time.Duration, wg *sync.WaitGroup, started chan<- struct{}) {
		defer wg.Done()
		tk := guard.Begin()
		close(started)
		time.Sleep(delay)
		results := agg.Search(query)
		guard.Accept(tk, func() {
			mu.Lock()
			defer mu.Unlock()
			if len(results) > 0 {
				shown = results[0].Title
			} else {
				shown = ""
			}
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	slowStarted := make(chan struct{})
	go run("james", 50*time.Millisecond, &wg, slowStarted)
	<-slowStarted
	fastStarted := make(chan struct{})
	go run("sarah", 0, &wg, fastStarted)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Sarah Chen", shown)
}
