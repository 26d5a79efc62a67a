package search

import "sync/atomic"

// Latest guards a result slot against out-of-order resolution: a caller takes
// a Ticket before issuing a query and only publishes the answer if no newer
// ticket has been taken since.
type Latest struct {
	seq atomic.Uint64
}

type Ticket struct {
	n     uint64
	owner *Latest
}

// Begin supersedes every earlier ticket.
func (l *Latest) Begin() Ticket {
	return Ticket{n: l.seq.Add(1), owner: l}
}

func (t Ticket) Current() bool {
	return t.owner != nil && t.owner.seq.Load() == t.n
}

// Accept runs publish only while t is still the newest ticket.
func (l *Latest) Accept(t Ticket, publish func()) bool {
	if t.owner != l || !t.Current() {
		return false
	}
	publish()
	return true
}
