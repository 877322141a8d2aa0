// File: servant/priority_queue.go
// Author: momentics <momentics@gmail.com>
//
// priorityQueue holds one FIFO band per dispatch priority (spec.md
// §4.1, §6): urgent commands drain before normal buffers-ready/
// pluggable events, which drain before bulk ETB/FTB and callbacks.
// Each band is a github.com/eapache/queue.Queue, an amortized O(1)
// ring-backed FIFO.

package servant

import "github.com/eapache/queue"

type priorityQueue struct {
	bands [3]*queue.Queue
}

func newPriorityQueue() *priorityQueue {
	return &priorityQueue{
		bands: [3]*queue.Queue{queue.New(), queue.New(), queue.New()},
	}
}

// push enqueues msg into the priority band computed from its Kind.
func (q *priorityQueue) push(m Message) {
	m.Priority = priorityOf(m)
	q.bands[m.Priority].Add(m)
}

// pop removes and returns the next message in priority order, false
// if every band is empty.
func (q *priorityQueue) pop() (Message, bool) {
	for _, b := range q.bands {
		if b.Length() > 0 {
			v := b.Remove()
			return v.(Message), true
		}
	}
	return Message{}, false
}

// len returns the total number of queued messages across all bands.
func (q *priorityQueue) len() int {
	n := 0
	for _, b := range q.bands {
		n += b.Length()
	}
	return n
}
