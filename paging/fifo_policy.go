package paging

import "fmt"

// arrivalQueue is a fixed-capacity ring of frame indices, oldest arrival at head
type arrivalQueue struct {
	buf  []int
	head int
	size int
}

func newArrivalQueue(capacity int) arrivalQueue {
	return arrivalQueue{buf: make([]int, capacity)}
}

func (q *arrivalQueue) push(frameIndex int) {
	q.buf[(q.head+q.size)%len(q.buf)] = frameIndex
	q.size++
}

func (q *arrivalQueue) pop() (int, bool) {
	if q.size == 0 {
		return -1, false
	}
	frameIndex := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return frameIndex, true
}

// retain keeps the entries for which keep returns true, preserving order
func (q *arrivalQueue) retain(keep func(int) bool) {
	kept := 0
	for i := 0; i < q.size; i++ {
		frameIndex := q.buf[(q.head+i)%len(q.buf)]
		if keep(frameIndex) {
			q.buf[(q.head+kept)%len(q.buf)] = frameIndex
			kept++
		}
	}
	q.size = kept
}

func (q *arrivalQueue) slice() []int {
	out := make([]int, q.size)
	for i := range out {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

func (q *arrivalQueue) reset() {
	q.head = 0
	q.size = 0
}

// FIFOPolicy evicts the page that has been resident the longest
// Hits never change the arrival order
type FIFOPolicy struct {
	policyBase
	queue arrivalQueue
}

// NewFIFOPolicy creates a FIFO policy over frameCount frames
func NewFIFOPolicy(frameCount int) *FIFOPolicy {
	return &FIFOPolicy{
		policyBase: newPolicyBase(frameCount),
		queue:      newArrivalQueue(frameCount),
	}
}

// Algorithm returns AlgorithmFIFO
func (p *FIFOPolicy) Algorithm() Algorithm {
	return AlgorithmFIFO
}

// AccessPage references a page
func (p *FIFOPolicy) AccessPage(processID string, pageNumber int) AccessResult {
	key := NewPageKey(processID, pageNumber)

	if frameIndex := p.frames.Lookup(key); frameIndex >= 0 {
		return p.hit(key, frameIndex, 0)
	}

	var replaced *PageKey
	frameIndex := p.frames.TakeFree()
	if frameIndex < 0 {
		frameIndex, _ = p.queue.pop()
		if old, ok := p.frames.Evict(frameIndex); ok {
			replaced = &old
		}
	}

	p.frames.Install(frameIndex, key)
	p.queue.push(frameIndex)
	return p.fault(key, frameIndex, replaced, 0)
}

// State returns frames, counters, history and the arrival queue
func (p *FIFOPolicy) State() State {
	s := p.baseState(AlgorithmFIFO)
	s.Queue = p.queue.slice()
	return s
}

// Reset empties frames and queue and clears the history
func (p *FIFOPolicy) Reset() {
	p.frames.Reset()
	p.queue.reset()
	p.history.Reset()
}

// RemoveProcess clears every frame of processID, then drops queue entries
// whose frame is no longer occupied
func (p *FIFOPolicy) RemoveProcess(processID string) {
	removed := p.framesOf(processID)
	if len(removed) == 0 {
		return
	}
	for _, frameIndex := range removed {
		p.frames.Release(frameIndex)
	}
	p.queue.retain(func(frameIndex int) bool {
		_, occupied := p.frames.Get(frameIndex)
		return occupied
	})
}

// CheckInvariants verifies the queue holds exactly the occupied frames
func (p *FIFOPolicy) CheckInvariants() error {
	const op = "FIFOPolicy.CheckInvariants"
	if err := p.frames.check(op); err != nil {
		return err
	}
	if p.queue.size != p.frames.Occupied() {
		return sizeMismatch(op, "arrival queue", p.queue.size, p.frames.Occupied())
	}

	seen := make(map[int]bool, p.queue.size)
	for _, frameIndex := range p.queue.slice() {
		if seen[frameIndex] {
			return ErrInvariant(op, fmt.Sprintf("frame %d queued twice", frameIndex))
		}
		seen[frameIndex] = true
		if _, ok := p.frames.Get(frameIndex); !ok {
			return ErrInvariant(op, fmt.Sprintf("queued frame %d is empty", frameIndex))
		}
	}
	return nil
}
