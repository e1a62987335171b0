package engine

import "github.com/roach88/pulsenet/internal/ir"

// pulseQueue is the FIFO of pulses waiting for delivery within a trigger.
//
// It is a ring buffer over a slice that doubles when full, so a long
// trigger does not re-slice on every pop. The queue is only touched by the
// simulator goroutine and is not safe for concurrent use.
//
// lifo switches Pop to the back of the queue. It exists so tests can show
// that totals depend on delivery order; the simulator never sets it on
// its own.
type pulseQueue struct {
	buf  []ir.Pulse
	head int
	n    int
	lifo bool
}

const minQueueCapacity = 16

func newPulseQueue() *pulseQueue {
	return &pulseQueue{buf: make([]ir.Pulse, minQueueCapacity)}
}

// Push adds a pulse to the back of the queue.
func (q *pulseQueue) Push(p ir.Pulse) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = p
	q.n++
}

// Pop removes and returns the front pulse.
// Returns (ir.Pulse{}, false) if the queue is empty.
func (q *pulseQueue) Pop() (ir.Pulse, bool) {
	if q.n == 0 {
		return ir.Pulse{}, false
	}

	var i int
	if q.lifo {
		i = (q.head + q.n - 1) % len(q.buf)
	} else {
		i = q.head
		q.head = (q.head + 1) % len(q.buf)
	}
	p := q.buf[i]

	// Zero the slot so the ring does not pin module name strings.
	q.buf[i] = ir.Pulse{}
	q.n--
	if q.n == 0 {
		q.head = 0
	}
	return p, true
}

// Len returns the number of queued pulses.
func (q *pulseQueue) Len() int {
	return q.n
}

// Reset empties the queue, keeping its capacity.
func (q *pulseQueue) Reset() {
	clear(q.buf)
	q.head = 0
	q.n = 0
}

func (q *pulseQueue) grow() {
	next := make([]ir.Pulse, max(minQueueCapacity, 2*len(q.buf)))
	for i := range q.n {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
