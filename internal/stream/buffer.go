package stream

import (
	"sync"
)

// packetQueue is a bounded ring of encoded opus packets between the decode
// goroutine and the voice sender. Push blocks while the ring is full so
// decoding never runs far ahead of playback.
type packetQueue struct {
	mu       sync.Mutex
	packets  [][]byte
	readPos  int
	count    int
	closed   bool
	eos      bool
	err      error
	notEmpty *sync.Cond
	notFull  *sync.Cond
}

func newPacketQueue(maxPackets int) *packetQueue {
	q := &packetQueue{packets: make([][]byte, maxPackets)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Push copies data into the ring. It returns false once the queue is closed
// or finished.
func (q *packetQueue) Push(data []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.packets) && !q.closed {
		q.notFull.Wait()
	}
	if q.closed || q.eos {
		return false
	}
	q.packets[(q.readPos+q.count)%len(q.packets)] = append([]byte(nil), data...)
	q.count++
	q.notEmpty.Signal()
	return true
}

// Pop blocks for the next packet. ok is false when the queue was closed or
// drained after Finish.
func (q *packetQueue) Pop() (pkt []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return nil, false
		}
		if q.count > 0 {
			pkt = q.packets[q.readPos]
			q.packets[q.readPos] = nil
			q.readPos = (q.readPos + 1) % len(q.packets)
			q.count--
			q.notFull.Signal()
			return pkt, true
		}
		if q.eos {
			return nil, false
		}
		q.notEmpty.Wait()
	}
}

func (q *packetQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Finish marks the end of the stream; err is the reason decoding stopped,
// nil for a clean end. Buffered packets can still be popped.
func (q *packetQueue) Finish(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.eos {
		return
	}
	q.eos = true
	q.err = err
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

func (q *packetQueue) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Close drops everything and wakes all waiters.
func (q *packetQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
